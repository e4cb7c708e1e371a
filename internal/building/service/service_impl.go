package service

import (
	"context"
	"math"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storagedesk/internal/building/domain"
	"github.com/smallbiznis/storagedesk/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("building.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateBuildingRequest) (domain.Building, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Building{}, domain.ErrInvalidName
	}
	address := strings.TrimSpace(req.Address)
	if address == "" {
		return domain.Building{}, domain.ErrInvalidAddress
	}
	floors := req.Floors
	if floors == 0 {
		floors = 1
	}
	if floors < 1 {
		return domain.Building{}, domain.ErrInvalidFloors
	}

	now := s.clock.Now()
	building := domain.Building{
		ID:                  s.genID.Generate(),
		Name:                name,
		Address:             address,
		Floors:              floors,
		IsClimateControlled: req.IsClimateControlled,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.repo.Insert(ctx, s.db, &building); err != nil {
		return domain.Building{}, err
	}

	s.log.Info("building created", zap.String("building_id", building.ID.String()))
	return building, nil
}

func (s *Service) List(ctx context.Context, req domain.ListBuildingRequest) (domain.ListBuildingResponse, error) {
	rows, err := s.repo.ListWithUnitCounts(ctx, s.db, req.Search)
	if err != nil {
		return domain.ListBuildingResponse{}, err
	}

	buildings := make([]domain.Occupancy, 0, len(rows))
	for _, row := range rows {
		buildings = append(buildings, domain.Occupancy{
			Building:       row.Building,
			TotalUnits:     row.TotalUnits,
			AvailableUnits: row.AvailableUnits,
			OccupancyRate:  occupancyRate(row.TotalUnits, row.AvailableUnits),
		})
	}
	return domain.ListBuildingResponse{Buildings: buildings}, nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.Building, error) {
	id, err := parseID(rawID)
	if err != nil {
		return domain.Building{}, err
	}
	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Building{}, err
	}
	if item == nil {
		return domain.Building{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateBuildingRequest) (domain.Building, error) {
	current, err := s.GetByID(ctx, req.ID)
	if err != nil {
		return domain.Building{}, err
	}

	fields := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Building{}, domain.ErrInvalidName
		}
		fields["name"] = name
	}
	if req.Address != nil {
		address := strings.TrimSpace(*req.Address)
		if address == "" {
			return domain.Building{}, domain.ErrInvalidAddress
		}
		fields["address"] = address
	}
	if req.Floors != nil {
		if *req.Floors < 1 {
			return domain.Building{}, domain.ErrInvalidFloors
		}
		fields["floors"] = *req.Floors
	}
	if req.IsClimateControlled != nil {
		fields["is_climate_controlled"] = *req.IsClimateControlled
	}
	if len(fields) == 0 {
		return current, nil
	}
	fields["updated_at"] = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, current.ID, fields); err != nil {
		return domain.Building{}, err
	}
	return s.GetByID(ctx, req.ID)
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	current, err := s.GetByID(ctx, rawID)
	if err != nil {
		return err
	}
	units, err := s.repo.CountUnits(ctx, s.db, current.ID)
	if err != nil {
		return err
	}
	if units > 0 {
		return domain.ErrHasUnits
	}
	if err := s.repo.Delete(ctx, s.db, current.ID); err != nil {
		return err
	}
	s.log.Info("building deleted", zap.String("building_id", current.ID.String()))
	return nil
}

// occupancyRate is the share of units not available, as a whole percent.
func occupancyRate(total, available int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(total-available) / float64(total) * 100))
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
