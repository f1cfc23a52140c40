package domain

import (
	"time"

	authdomain "github.com/agrilink/agrilink/internal/auth/domain"
	farmdomain "github.com/agrilink/agrilink/internal/farm/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Grade string

const (
	GradeA      Grade = "A"
	GradeB      Grade = "B"
	GradeC      Grade = "C"
	GradeReject Grade = "REJECT"
)

// Inspection is immutable once recorded.
type Inspection struct {
	ID          snowflake.ID                `gorm:"primaryKey"`
	LotID       snowflake.ID                `gorm:"column:lot_id;not null;index:ix_qa_inspections_lot_created,priority:1"`
	Lot         *farmdomain.Lot             `gorm:"foreignKey:LotID"`
	InspectorID snowflake.ID                `gorm:"column:inspector_id;not null;index"`
	Inspector   *authdomain.User            `gorm:"foreignKey:InspectorID"`
	Defects     int                         `gorm:"not null;default:0"`
	Grade       Grade                       `gorm:"type:text;not null"`
	Notes       *string                     `gorm:"type:text"`
	Images      datatypes.JSONSlice[string] `gorm:"type:json"`
	CreatedAt   time.Time                   `gorm:"not null;index:ix_qa_inspections_lot_created,priority:2"`
}

// TableName sets the database table name.
func (Inspection) TableName() string { return "qa_inspections" }

// Certificate belongs to a farm and optionally to one of its lots.
type Certificate struct {
	ID        snowflake.ID     `gorm:"primaryKey"`
	FarmID    snowflake.ID     `gorm:"column:farm_id;not null;index"`
	Farm      *farmdomain.Farm `gorm:"foreignKey:FarmID"`
	LotID     *snowflake.ID    `gorm:"column:lot_id;index"`
	Lot       *farmdomain.Lot  `gorm:"foreignKey:LotID"`
	Type      string           `gorm:"type:text;not null"`
	Issuer    string           `gorm:"type:text;not null"`
	FileKey   string           `gorm:"column:file_key;type:text;not null"`
	FileURL   string           `gorm:"column:file_url;type:text;not null"`
	IssuedAt  time.Time        `gorm:"column:issued_at;not null"`
	ExpiresAt *time.Time       `gorm:"column:expires_at"`
	CreatedAt time.Time        `gorm:"not null"`
}

// TableName sets the database table name.
func (Certificate) TableName() string { return "certificates" }
