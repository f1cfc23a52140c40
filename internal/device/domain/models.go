package domain

import (
	"time"

	farmdomain "github.com/agrilink/agrilink/internal/farm/domain"
	"github.com/bwmarrin/snowflake"
)

// SensorDevice stores a hashed ingest credential; the raw key is never persisted.
type SensorDevice struct {
	ID         snowflake.ID    `gorm:"primaryKey"`
	Name       string          `gorm:"type:text;not null"`
	APIKeyHash string          `gorm:"column:api_key_hash;type:text;not null;uniqueIndex"`
	BoundLotID *snowflake.ID   `gorm:"column:bound_lot_id;index"`
	BoundLot   *farmdomain.Lot `gorm:"foreignKey:BoundLotID;constraint:OnDelete:SET NULL"`
	CreatedAt  time.Time       `gorm:"not null"`
	UpdatedAt  time.Time       `gorm:"not null"`
}

// TableName sets the database table name.
func (SensorDevice) TableName() string { return "sensor_devices" }
