package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storagedesk/internal/clock"
	"github.com/smallbiznis/storagedesk/internal/config"
	"github.com/smallbiznis/storagedesk/internal/customer/domain"
	"github.com/smallbiznis/storagedesk/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	LedgerCfg *config.LedgerConfigHolder `optional:"true"`
	Repo      domain.Repository
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	ledgerCfg *config.LedgerConfigHolder
	repo      domain.Repository
}

func New(p Params) domain.Service {
	ledgerCfg := p.LedgerCfg
	if ledgerCfg == nil {
		ledgerCfg = config.NewStaticLedgerConfigHolder(config.DefaultLedgerConfig())
	}
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("customer.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		ledgerCfg: ledgerCfg,
		repo:      p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCustomerRequest) (domain.Customer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Customer{}, domain.ErrInvalidName
	}

	email, err := normalizeEmail(req.Email)
	if err != nil {
		return domain.Customer{}, err
	}

	metadata := datatypes.JSONMap{}
	for key, value := range req.Metadata {
		metadata[key] = value
	}

	now := s.clock.Now()
	customer := domain.Customer{
		ID:        s.genID.Generate(),
		Name:      name,
		Email:     email,
		Phone:     optionalString(req.Phone),
		Address:   optionalString(req.Address),
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, &customer); err != nil {
		return domain.Customer{}, err
	}

	s.log.Info("customer created", zap.String("customer_id", customer.ID.String()))
	return customer, nil
}

func (s *Service) List(ctx context.Context, req domain.ListCustomerRequest) (domain.ListCustomerResponse, error) {
	filter := domain.ListCustomerFilter{
		Search: strings.TrimSpace(req.Search),
	}

	page, err := pagination.Pagination{PageToken: req.PageToken, PageSize: req.PageSize}.Normalize(s.ledgerCfg.Get().DefaultPageSize)
	if err != nil {
		return domain.ListCustomerResponse{}, err
	}

	items, err := s.repo.List(ctx, s.db, filter, page)
	if err != nil {
		return domain.ListCustomerResponse{}, err
	}

	items, pageInfo := pagination.Trim(items, page.PageSize, func(customer *domain.Customer) pagination.Cursor {
		return pagination.Cursor{ID: customer.ID.String(), CreatedAt: customer.CreatedAt}
	})

	customers := make([]domain.Customer, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		customers = append(customers, *item)
	}

	resp := domain.ListCustomerResponse{Customers: customers}
	resp.PageInfo = pageInfo

	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetCustomerRequest) (domain.Customer, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Customer{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Customer{}, err
	}
	if item == nil {
		return domain.Customer{}, domain.ErrNotFound
	}

	return *item, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateCustomerRequest) (domain.Customer, error) {
	current, err := s.GetByID(ctx, domain.GetCustomerRequest{ID: req.ID})
	if err != nil {
		return domain.Customer{}, err
	}

	fields := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Customer{}, domain.ErrInvalidName
		}
		fields["name"] = name
	}
	if req.Email != nil {
		email, err := normalizeEmail(*req.Email)
		if err != nil {
			return domain.Customer{}, err
		}
		fields["email"] = email
	}
	if req.Phone != nil {
		fields["phone"] = optionalString(req.Phone)
	}
	if req.Address != nil {
		fields["address"] = optionalString(req.Address)
	}
	if req.Metadata != nil {
		fields["metadata"] = datatypes.JSONMap(req.Metadata)
	}
	if len(fields) == 0 {
		return current, nil
	}
	fields["updated_at"] = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, current.ID, fields); err != nil {
		return domain.Customer{}, err
	}
	return s.GetByID(ctx, domain.GetCustomerRequest{ID: req.ID})
}

func (s *Service) Delete(ctx context.Context, req domain.GetCustomerRequest) error {
	current, err := s.GetByID(ctx, req)
	if err != nil {
		return err
	}
	rentals, err := s.repo.CountRentals(ctx, s.db, current.ID)
	if err != nil {
		return err
	}
	if rentals > 0 {
		return domain.ErrHasRentals
	}
	if err := s.repo.Delete(ctx, s.db, current.ID); err != nil {
		return err
	}
	s.log.Info("customer deleted", zap.String("customer_id", current.ID.String()))
	return nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func normalizeEmail(value string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(value))
	if email == "" || !strings.Contains(email, "@") {
		return "", domain.ErrInvalidEmail
	}
	return email, nil
}

// optionalString maps blank input to NULL.
func optionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
