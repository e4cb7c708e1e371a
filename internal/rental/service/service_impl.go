package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/storagedesk/internal/clock"
	"github.com/smallbiznis/storagedesk/internal/config"
	ledgerdomain "github.com/smallbiznis/storagedesk/internal/ledger/domain"
	"github.com/smallbiznis/storagedesk/internal/rental/domain"
	unitdomain "github.com/smallbiznis/storagedesk/internal/unit/domain"
	"github.com/smallbiznis/storagedesk/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	LedgerCfg *config.LedgerConfigHolder
	LedgerSvc ledgerdomain.Service
	Repo      domain.Repository
	UnitRepo  unitdomain.Repository
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	ledgerCfg *config.LedgerConfigHolder
	ledgerSvc ledgerdomain.Service
	repo      domain.Repository
	unitRepo  unitdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("rental.service"),
		clock:     p.Clock,
		ledgerCfg: p.LedgerCfg,
		ledgerSvc: p.LedgerSvc,
		repo:      p.Repo,
		unitRepo:  p.UnitRepo,
	}
}

// List completes expired rentals first so the listing never shows an
// overdue rental as active.
func (s *Service) List(ctx context.Context, req domain.ListRentalRequest) (domain.ListRentalResponse, error) {
	filter := domain.ListRentalFilter{
		Search: strings.TrimSpace(req.Search),
	}
	if raw := strings.TrimSpace(req.Status); raw != "" {
		filter.Status = domain.RentalStatus(raw)
		if filter.Status != domain.RentalStatusActive && filter.Status != domain.RentalStatusCompleted {
			return domain.ListRentalResponse{}, domain.ErrInvalidStatus
		}
	}
	var err error
	if filter.BuildingID, err = parseOptionalID(req.BuildingID); err != nil {
		return domain.ListRentalResponse{}, err
	}
	if filter.CustomerID, err = parseOptionalID(req.CustomerID); err != nil {
		return domain.ListRentalResponse{}, err
	}
	if filter.UnitID, err = parseOptionalID(req.UnitID); err != nil {
		return domain.ListRentalResponse{}, err
	}

	page, err := pagination.Pagination{PageToken: req.PageToken, PageSize: req.PageSize}.Normalize(s.ledgerCfg.Get().DefaultPageSize)
	if err != nil {
		return domain.ListRentalResponse{}, err
	}

	completed, err := s.ledgerSvc.ReconcileAll(ctx)
	if err != nil {
		s.log.Warn("reconcile before listing rentals failed", zap.Error(err))
	}

	items, err := s.repo.List(ctx, s.db, filter, page)
	if err != nil {
		return domain.ListRentalResponse{}, err
	}

	items, pageInfo := pagination.Trim(items, page.PageSize, func(rental *domain.Rental) pagination.Cursor {
		return pagination.Cursor{ID: rental.ID.String(), CreatedAt: rental.CreatedAt}
	})

	rentals := make([]domain.Rental, 0, len(items))
	for _, item := range items {
		if item != nil {
			rentals = append(rentals, *item)
		}
	}

	resp := domain.ListRentalResponse{Rentals: rentals, AutoCompleted: completed}
	resp.PageInfo = pageInfo
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.Rental, error) {
	id, err := parseID(rawID, domain.ErrInvalidID)
	if err != nil {
		return domain.Rental{}, err
	}
	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Rental{}, err
	}
	if item == nil {
		return domain.Rental{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateRentalRequest) (domain.Rental, error) {
	unitID, err := parseID(req.UnitID, domain.ErrInvalidUnit)
	if err != nil {
		return domain.Rental{}, err
	}
	customerID, err := parseID(req.CustomerID, domain.ErrInvalidCustomer)
	if err != nil {
		return domain.Rental{}, err
	}

	rental, err := s.ledgerSvc.CreateRental(ctx, ledgerdomain.CreateRentalRequest{
		UnitID:      unitID,
		CustomerID:  customerID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		TotalAmount: req.TotalAmount,
	})
	if err != nil {
		return domain.Rental{}, err
	}
	return s.GetByID(ctx, rental.ID.String())
}

func (s *Service) Complete(ctx context.Context, req domain.CompleteRentalRequest) (domain.Rental, error) {
	id, err := parseID(req.ID, domain.ErrInvalidID)
	if err != nil {
		return domain.Rental{}, err
	}
	var unitID snowflake.ID
	if strings.TrimSpace(req.UnitID) != "" {
		if unitID, err = parseID(req.UnitID, domain.ErrInvalidUnit); err != nil {
			return domain.Rental{}, err
		}
	}

	_, err = s.ledgerSvc.CompleteRental(ctx, ledgerdomain.CompleteRentalRequest{
		RentalID: id,
		UnitID:   unitID,
		EndDate:  req.EndDate,
	})
	if err != nil {
		return domain.Rental{}, err
	}
	return s.GetByID(ctx, req.ID)
}

func (s *Service) Remove(ctx context.Context, rawID string) error {
	current, err := s.GetByID(ctx, rawID)
	if err != nil {
		return err
	}
	return s.ledgerSvc.RemoveRental(ctx, ledgerdomain.RemoveRentalRequest{
		RentalID:      current.ID,
		UnitID:        current.UnitID,
		CurrentStatus: current.Status,
	})
}

func (s *Service) Reconcile(ctx context.Context) (int, error) {
	return s.ledgerSvc.ReconcileAll(ctx)
}

func (s *Service) Quote(ctx context.Context, req domain.QuoteRequest) (domain.Quote, error) {
	unitID, err := parseID(req.UnitID, domain.ErrInvalidUnit)
	if err != nil {
		return domain.Quote{}, err
	}
	unit, err := s.unitRepo.FindByID(ctx, s.db, unitID)
	if err != nil {
		return domain.Quote{}, err
	}
	if unit == nil {
		return domain.Quote{}, ledgerdomain.ErrUnitNotFound
	}

	amount, err := ledgerdomain.ComputeProRatedAmount(unit.PricePerMonth, req.StartDate, req.EndDate)
	if err != nil {
		return domain.Quote{}, err
	}
	return domain.Quote{
		UnitID:        unit.ID.String(),
		PricePerMonth: unit.PricePerMonth,
		StartDate:     clock.DateOf(req.StartDate),
		EndDate:       clock.DateOf(req.EndDate),
		Amount:        amount,
	}, nil
}

func (s *Service) Statement(ctx context.Context, rawID string) (domain.Statement, error) {
	rental, err := s.GetByID(ctx, rawID)
	if err != nil {
		return domain.Statement{}, err
	}
	payments, err := s.repo.ListPayments(ctx, s.db, rental.ID)
	if err != nil {
		return domain.Statement{}, err
	}

	paid := decimal.Zero
	for _, payment := range payments {
		paid = paid.Add(payment.Amount)
	}
	return domain.Statement{
		Rental:    rental,
		Payments:  payments,
		TotalPaid: paid,
		Balance:   rental.TotalAmount.Sub(paid),
		IssuedAt:  s.clock.Now(),
	}, nil
}

func parseID(value string, invalid error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalid
	}
	return id, nil
}

func parseOptionalID(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	id, err := snowflake.ParseString(value)
	if err != nil {
		return 0, domain.ErrInvalidFilter
	}
	return id.Int64(), nil
}
