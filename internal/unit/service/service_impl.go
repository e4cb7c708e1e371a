package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storagedesk/internal/clock"
	"github.com/smallbiznis/storagedesk/internal/config"
	ledgerdomain "github.com/smallbiznis/storagedesk/internal/ledger/domain"
	"github.com/smallbiznis/storagedesk/internal/unit/domain"
	"github.com/smallbiznis/storagedesk/pkg/db"
	"github.com/smallbiznis/storagedesk/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	LedgerCfg *config.LedgerConfigHolder
	LedgerSvc ledgerdomain.Service
	Repo      domain.Repository
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	ledgerCfg *config.LedgerConfigHolder
	ledgerSvc ledgerdomain.Service
	repo      domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("unit.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		ledgerCfg: p.LedgerCfg,
		ledgerSvc: p.LedgerSvc,
		repo:      p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateUnitRequest) (domain.Unit, error) {
	buildingID, err := snowflake.ParseString(strings.TrimSpace(req.BuildingID))
	if err != nil || buildingID == 0 {
		return domain.Unit{}, domain.ErrInvalidBuilding
	}
	number := strings.TrimSpace(req.Number)
	if number == "" {
		return domain.Unit{}, domain.ErrInvalidNumber
	}
	size := strings.TrimSpace(req.Size)
	if !s.ledgerCfg.Get().AllowsUnitSize(size) {
		return domain.Unit{}, domain.ErrInvalidSize
	}
	if !req.PricePerMonth.IsPositive() {
		return domain.Unit{}, domain.ErrInvalidPrice
	}

	status := domain.UnitStatusAvailable
	if raw := strings.TrimSpace(req.Status); raw != "" {
		status = domain.UnitStatus(raw)
		// rented is only reachable through a rental.
		if !status.Valid() || status == domain.UnitStatusRented {
			return domain.Unit{}, domain.ErrInvalidStatus
		}
	}

	exists, err := s.repo.BuildingExists(ctx, s.db, buildingID)
	if err != nil {
		return domain.Unit{}, err
	}
	if !exists {
		return domain.Unit{}, domain.ErrBuildingNotFound
	}

	now := s.clock.Now()
	unit := domain.Unit{
		ID:                  s.genID.Generate(),
		BuildingID:          buildingID,
		Number:              number,
		Size:                size,
		PricePerMonth:       req.PricePerMonth.Round(2),
		IsClimateControlled: req.IsClimateControlled,
		Status:              status,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.repo.Insert(ctx, s.db, &unit); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Unit{}, domain.ErrDuplicateNumber
		}
		return domain.Unit{}, err
	}

	s.log.Info("unit created",
		zap.String("unit_id", unit.ID.String()),
		zap.String("building_id", buildingID.String()),
	)
	return s.GetByID(ctx, unit.ID.String())
}

func (s *Service) List(ctx context.Context, req domain.ListUnitRequest) (domain.ListUnitResponse, error) {
	filter := domain.ListUnitFilter{
		Size:   strings.TrimSpace(req.Size),
		Search: strings.TrimSpace(req.Search),
	}
	if raw := strings.TrimSpace(req.BuildingID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			return domain.ListUnitResponse{}, domain.ErrInvalidBuilding
		}
		filter.BuildingID = id.Int64()
	}
	if raw := strings.TrimSpace(req.Status); raw != "" {
		filter.Status = domain.UnitStatus(raw)
		if !filter.Status.Valid() {
			return domain.ListUnitResponse{}, domain.ErrInvalidStatus
		}
	}

	page, err := pagination.Pagination{PageToken: req.PageToken, PageSize: req.PageSize}.Normalize(s.ledgerCfg.Get().DefaultPageSize)
	if err != nil {
		return domain.ListUnitResponse{}, err
	}

	items, err := s.repo.List(ctx, s.db, filter, page)
	if err != nil {
		return domain.ListUnitResponse{}, err
	}

	items, pageInfo := pagination.Trim(items, page.PageSize, func(unit *domain.Unit) pagination.Cursor {
		return pagination.Cursor{ID: unit.ID.String(), CreatedAt: unit.CreatedAt}
	})

	units := make([]domain.Unit, 0, len(items))
	for _, item := range items {
		if item != nil {
			units = append(units, *item)
		}
	}

	resp := domain.ListUnitResponse{Units: units}
	resp.PageInfo = pageInfo
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.Unit, error) {
	id, err := parseID(rawID)
	if err != nil {
		return domain.Unit{}, err
	}
	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Unit{}, err
	}
	if item == nil {
		return domain.Unit{}, domain.ErrNotFound
	}
	return *item, nil
}

// Update changes descriptive fields only. Status goes through ChangeStatus.
func (s *Service) Update(ctx context.Context, req domain.UpdateUnitRequest) (domain.Unit, error) {
	current, err := s.GetByID(ctx, req.ID)
	if err != nil {
		return domain.Unit{}, err
	}

	fields := map[string]any{}
	if req.Number != nil {
		number := strings.TrimSpace(*req.Number)
		if number == "" {
			return domain.Unit{}, domain.ErrInvalidNumber
		}
		fields["number"] = number
	}
	if req.Size != nil {
		size := strings.TrimSpace(*req.Size)
		if !s.ledgerCfg.Get().AllowsUnitSize(size) {
			return domain.Unit{}, domain.ErrInvalidSize
		}
		fields["size"] = size
	}
	if req.PricePerMonth != nil {
		if !req.PricePerMonth.IsPositive() {
			return domain.Unit{}, domain.ErrInvalidPrice
		}
		fields["price_per_month"] = req.PricePerMonth.Round(2)
	}
	if req.IsClimateControlled != nil {
		fields["is_climate_controlled"] = *req.IsClimateControlled
	}
	if len(fields) == 0 {
		return current, nil
	}
	fields["updated_at"] = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, current.ID, fields); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Unit{}, domain.ErrDuplicateNumber
		}
		return domain.Unit{}, err
	}
	return s.GetByID(ctx, req.ID)
}

func (s *Service) ChangeStatus(ctx context.Context, req domain.ChangeStatusRequest) (domain.Unit, error) {
	current, err := s.GetByID(ctx, req.ID)
	if err != nil {
		return domain.Unit{}, err
	}
	next := domain.UnitStatus(strings.TrimSpace(req.Status))
	if !next.Valid() {
		return domain.Unit{}, domain.ErrInvalidStatus
	}

	err = s.ledgerSvc.ChangeUnitStatus(ctx, ledgerdomain.ChangeUnitStatusRequest{
		UnitID:        current.ID,
		CurrentStatus: current.Status,
		NewStatus:     next,
	})
	if err != nil {
		return domain.Unit{}, err
	}
	return s.GetByID(ctx, req.ID)
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	current, err := s.GetByID(ctx, rawID)
	if err != nil {
		return err
	}
	active, err := s.repo.CountActiveRentals(ctx, s.db, current.ID)
	if err != nil {
		return err
	}
	if active > 0 {
		return domain.ErrHasActiveRentals
	}
	if err := s.repo.Delete(ctx, s.db, current.ID); err != nil {
		if db.IsForeignKeyErr(err) {
			return domain.ErrHasRentalHistory
		}
		return err
	}
	s.log.Info("unit deleted", zap.String("unit_id", current.ID.String()))
	return nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
