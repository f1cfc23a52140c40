package service

import (
	"context"
	"strings"

	"github.com/agrilink/agrilink/internal/clock"
	farmdomain "github.com/agrilink/agrilink/internal/farm/domain"
	"github.com/agrilink/agrilink/pkg/db"
	"github.com/agrilink/agrilink/pkg/repository"
	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const publicIDAttempts = 5

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	farmrepo repository.Repository[farmdomain.Farm]
	lotrepo  repository.Repository[farmdomain.Lot]
}

func New(p Params) farmdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("farm.service"),
		genID: p.GenID,
		clock: p.Clock,

		farmrepo: repository.ProvideStore[farmdomain.Farm](p.DB),
		lotrepo:  repository.ProvideStore[farmdomain.Lot](p.DB),
	}
}

func (s *Service) ListFarms(ctx context.Context, filter farmdomain.FarmFilter) ([]farmdomain.Farm, error) {
	opts := []repository.QueryOption{
		repository.WithOrder("created_at ASC"),
		repository.WithLimit(farmdomain.MaxListFarms),
	}
	if filter.OwnerID != nil {
		opts = append(opts, repository.WithWhere("owner_id = ?", *filter.OwnerID))
	}

	rows, err := s.farmrepo.Find(ctx, nil, opts...)
	if err != nil {
		return nil, err
	}
	farms := make([]farmdomain.Farm, 0, len(rows))
	for _, row := range rows {
		farms = append(farms, *row)
	}
	return farms, nil
}

func (s *Service) CreateFarm(ctx context.Context, req farmdomain.CreateFarmRequest) (*farmdomain.Farm, error) {
	now := s.clock.Now()
	name := strings.TrimSpace(req.Name)
	farm := &farmdomain.Farm{
		ID:        s.genID.Generate(),
		Name:      name,
		Slug:      slug.Make(name),
		District:  strings.TrimSpace(req.District),
		OwnerID:   req.OwnerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.farmrepo.Create(ctx, farm); err != nil {
		return nil, err
	}
	s.log.Info("farm created", zap.String("farm_id", farm.ID.String()), zap.String("slug", farm.Slug))
	return farm, nil
}

func (s *Service) GetFarm(ctx context.Context, id snowflake.ID) (*farmdomain.Farm, error) {
	farm, err := s.farmrepo.FindOne(ctx, nil, repository.WithWhere("id = ?", id))
	if err != nil {
		return nil, err
	}
	if farm == nil {
		return nil, farmdomain.ErrFarmNotFound
	}
	return farm, nil
}

func (s *Service) CreateLot(ctx context.Context, req farmdomain.CreateLotRequest) (*farmdomain.Lot, error) {
	farmID, err := snowflake.ParseString(strings.TrimSpace(req.FarmID))
	if err != nil {
		return nil, farmdomain.ErrFarmNotFound
	}
	farm, err := s.GetFarm(ctx, farmID)
	if err != nil {
		return nil, err
	}

	custom := strings.ToUpper(strings.TrimSpace(req.PublicID))
	if custom != "" && !farmdomain.ValidPublicID(custom) {
		return nil, farmdomain.ErrInvalidPublicID
	}

	for attempt := 0; attempt < publicIDAttempts; attempt++ {
		publicID := custom
		if publicID == "" {
			publicID = farmdomain.NewPublicID()
		}

		lot := &farmdomain.Lot{
			ID:        s.genID.Generate(),
			PublicID:  publicID,
			FarmID:    farm.ID,
			Produce:   strings.TrimSpace(req.Produce),
			CreatedAt: s.clock.Now(),
		}
		err := s.lotrepo.Create(ctx, lot)
		if err == nil {
			lot.Farm = farm
			return lot, nil
		}
		if !db.IsDuplicateKeyErr(err) {
			return nil, err
		}
		if custom != "" {
			return nil, farmdomain.ErrPublicIDTaken
		}
	}
	return nil, farmdomain.ErrPublicIDTaken
}

func (s *Service) GetLot(ctx context.Context, id snowflake.ID) (*farmdomain.Lot, error) {
	return s.findLot(ctx, repository.WithWhere("id = ?", id))
}

func (s *Service) GetLotByPublicID(ctx context.Context, publicID string) (*farmdomain.Lot, error) {
	publicID = strings.TrimSpace(publicID)
	if publicID == "" {
		return nil, farmdomain.ErrLotNotFound
	}
	return s.findLot(ctx, repository.WithWhere("public_id = ?", publicID))
}

func (s *Service) ResolveLot(ctx context.Context, lotID, publicID string) (*farmdomain.Lot, error) {
	if lotID = strings.TrimSpace(lotID); lotID != "" {
		id, err := snowflake.ParseString(lotID)
		if err != nil {
			return nil, farmdomain.ErrLotNotFound
		}
		return s.GetLot(ctx, id)
	}
	return s.GetLotByPublicID(ctx, publicID)
}

func (s *Service) ListLotsByFarm(ctx context.Context, farmID snowflake.ID) ([]farmdomain.Lot, error) {
	if _, err := s.GetFarm(ctx, farmID); err != nil {
		return nil, err
	}

	rows, err := s.lotrepo.Find(ctx, nil,
		repository.WithWhere("farm_id = ?", farmID),
		repository.WithPreload("Farm"),
		repository.WithOrder("created_at ASC"),
	)
	if err != nil {
		return nil, err
	}
	lots := make([]farmdomain.Lot, 0, len(rows))
	for _, row := range rows {
		lots = append(lots, *row)
	}
	return lots, nil
}

func (s *Service) findLot(ctx context.Context, where repository.QueryOption) (*farmdomain.Lot, error) {
	lot, err := s.lotrepo.FindOne(ctx, nil, where, repository.WithPreload("Farm"))
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, farmdomain.ErrLotNotFound
	}
	return lot, nil
}
