package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storagedesk/internal/clock"
	"github.com/smallbiznis/storagedesk/internal/config"
	obsmetrics "github.com/smallbiznis/storagedesk/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/storagedesk/internal/payment/domain"
	rentaldomain "github.com/smallbiznis/storagedesk/internal/rental/domain"
	"github.com/smallbiznis/storagedesk/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	LedgerCfg  *config.LedgerConfigHolder
	Repo       paymentdomain.Repository
	RentalRepo rentaldomain.Repository
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	ledgerCfg  *config.LedgerConfigHolder
	repo       paymentdomain.Repository
	rentalRepo rentaldomain.Repository
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) paymentdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("payment.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		ledgerCfg:  p.LedgerCfg,
		repo:       p.Repo,
		rentalRepo: p.RentalRepo,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Create(ctx context.Context, req paymentdomain.CreatePaymentRequest) (paymentdomain.PaymentView, error) {
	rentalID, err := snowflake.ParseString(strings.TrimSpace(req.RentalID))
	if err != nil || rentalID == 0 {
		return paymentdomain.PaymentView{}, paymentdomain.ErrInvalidRental
	}
	method := paymentdomain.Method(strings.TrimSpace(req.Method))
	if !method.Valid() {
		return paymentdomain.PaymentView{}, paymentdomain.ErrInvalidMethod
	}

	rental, err := s.rentalRepo.FindByID(ctx, s.db, rentalID)
	if err != nil {
		return paymentdomain.PaymentView{}, err
	}
	if rental == nil {
		return paymentdomain.PaymentView{}, paymentdomain.ErrRentalNotFound
	}
	if !rental.IsActive() {
		return paymentdomain.PaymentView{}, paymentdomain.ErrRentalNotActive
	}

	amount := rental.TotalAmount
	if req.Amount != nil {
		amount = *req.Amount
	}
	if !amount.IsPositive() {
		return paymentdomain.PaymentView{}, paymentdomain.ErrInvalidAmount
	}

	date := clock.Today(s.clock)
	if req.Date != nil {
		date = clock.DateOf(*req.Date)
	}
	late := isLate(rental.StartDate, date, s.ledgerCfg.Get().LateFee.GraceDays)
	if req.IsLate != nil {
		late = *req.IsLate
	}

	payment := paymentdomain.Payment{
		ID:        s.genID.Generate(),
		RentalID:  rental.ID,
		Amount:    amount.Round(2),
		Date:      date,
		Method:    method,
		IsLate:    late,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.Insert(ctx, s.db, &payment); err != nil {
		return paymentdomain.PaymentView{}, err
	}

	s.obsMetrics.RecordPayment(ctx, string(method))
	s.log.Info("payment recorded",
		zap.String("payment_id", payment.ID.String()),
		zap.String("rental_id", rental.ID.String()),
		zap.Bool("is_late", late),
	)

	payment.CustomerName = rental.CustomerName
	payment.UnitNumber = rental.UnitNumber
	return toView(payment), nil
}

func (s *Service) List(ctx context.Context, req paymentdomain.ListPaymentRequest) (paymentdomain.ListPaymentResponse, error) {
	filter := paymentdomain.ListPaymentFilter{IsLate: req.IsLate}
	if raw := strings.TrimSpace(req.RentalID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			return paymentdomain.ListPaymentResponse{}, paymentdomain.ErrInvalidRental
		}
		filter.RentalID = id.Int64()
	}

	page, err := pagination.Pagination{PageToken: req.PageToken, PageSize: req.PageSize}.Normalize(s.ledgerCfg.Get().DefaultPageSize)
	if err != nil {
		return paymentdomain.ListPaymentResponse{}, err
	}

	items, err := s.repo.List(ctx, s.db, filter, page)
	if err != nil {
		return paymentdomain.ListPaymentResponse{}, err
	}

	items, pageInfo := pagination.Trim(items, page.PageSize, func(payment *paymentdomain.Payment) pagination.Cursor {
		return pagination.Cursor{ID: payment.ID.String(), CreatedAt: payment.CreatedAt}
	})

	payments := make([]paymentdomain.PaymentView, 0, len(items))
	for _, item := range items {
		if item != nil {
			payments = append(payments, toView(*item))
		}
	}

	resp := paymentdomain.ListPaymentResponse{Payments: payments}
	resp.PageInfo = pageInfo
	return resp, nil
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil || id == 0 {
		return paymentdomain.ErrInvalidID
	}
	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if item == nil {
		return paymentdomain.ErrNotFound
	}
	if err := s.repo.Delete(ctx, s.db, id); err != nil {
		return err
	}
	s.log.Info("payment deleted", zap.String("payment_id", id.String()))
	return nil
}

func toView(payment paymentdomain.Payment) paymentdomain.PaymentView {
	return paymentdomain.PaymentView{Payment: payment, Status: payment.DisplayStatus()}
}

// isLate reports whether a payment made on paid falls after the rental's
// monthly due day plus the grace period. The due day is the start date's day
// of month, clamped to the length of the paid month.
func isLate(start, paid time.Time, graceDays int) bool {
	y, m, _ := paid.Date()
	lastDay := time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
	day := start.Day()
	if day > lastDay {
		day = lastDay
	}
	due := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	return clock.DateOf(paid).After(due.AddDate(0, 0, graceDays))
}
