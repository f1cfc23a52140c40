package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

const MaxListFarms = 50

type Service interface {
	ListFarms(ctx context.Context, filter FarmFilter) ([]Farm, error)
	CreateFarm(ctx context.Context, req CreateFarmRequest) (*Farm, error)
	GetFarm(ctx context.Context, id snowflake.ID) (*Farm, error)

	CreateLot(ctx context.Context, req CreateLotRequest) (*Lot, error)
	GetLot(ctx context.Context, id snowflake.ID) (*Lot, error)
	GetLotByPublicID(ctx context.Context, publicID string) (*Lot, error)
	// ResolveLot looks up by internal id when given, else by public id.
	ResolveLot(ctx context.Context, lotID, publicID string) (*Lot, error)
	// ListLotsByFarm fails with ErrFarmNotFound only when the farm is missing.
	ListLotsByFarm(ctx context.Context, farmID snowflake.ID) ([]Lot, error)
}

type FarmFilter struct {
	OwnerID *snowflake.ID
}

type CreateFarmRequest struct {
	Name     string       `json:"name" validate:"required,min=2,max=120"`
	District string       `json:"district" validate:"omitempty,max=120"`
	OwnerID  snowflake.ID `json:"-"`
}

type CreateLotRequest struct {
	FarmID   string `json:"farmId" validate:"required"`
	Produce  string `json:"produce" validate:"required,max=120"`
	PublicID string `json:"publicId" validate:"omitempty,max=64"`
}

var (
	ErrFarmNotFound    = errors.New("farm_not_found")
	ErrLotNotFound     = errors.New("lot_not_found")
	ErrInvalidPublicID = errors.New("invalid_public_id")
	ErrPublicIDTaken   = errors.New("public_id_taken")
)
