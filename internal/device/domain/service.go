package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, device *SensorDevice) error
	FindByKeyHash(ctx context.Context, db *gorm.DB, hash string) (*SensorDevice, error)
	List(ctx context.Context, db *gorm.DB) ([]SensorDevice, error)
}

type Service interface {
	// Authenticate returns ErrNotFound for keys that match no device.
	Authenticate(ctx context.Context, rawKey string) (*SensorDevice, error)
	List(ctx context.Context) ([]Response, error)
	Register(ctx context.Context, req RegisterRequest) (*SecretResponse, error)
}

type RegisterRequest struct {
	Name             string `json:"name" validate:"required,min=2,max=120"`
	BoundLotPublicID string `json:"boundLotPublicId" validate:"omitempty,max=64"`
}

type BoundLot struct {
	ID       snowflake.ID `json:"id"`
	PublicID string       `json:"publicId"`
	Produce  string       `json:"produce"`
	FarmName string       `json:"farmName"`
}

// Response never carries the key hash.
type Response struct {
	ID        snowflake.ID `json:"id"`
	Name      string       `json:"name"`
	BoundLot  *BoundLot    `json:"boundLot"`
	CreatedAt time.Time    `json:"createdAt"`
}

type SecretResponse struct {
	Device Response `json:"device"`
	APIKey string   `json:"apiKey"`
}

var (
	ErrNotFound    = errors.New("device_not_found")
	ErrInvalidName = errors.New("invalid_name")
	ErrKeyExists   = errors.New("device_key_exists")
)
