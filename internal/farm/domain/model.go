package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Farm owns lots; farmers see only the farms they own.
type Farm struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	Slug      string       `gorm:"type:text;not null;index" json:"slug"`
	District  string       `gorm:"type:text" json:"district,omitempty"`
	OwnerID   snowflake.ID `gorm:"column:owner_id;not null;index" json:"ownerId"`
	CreatedAt time.Time    `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time    `gorm:"not null" json:"updatedAt"`
}

// TableName sets the database table name.
func (Farm) TableName() string { return "farms" }

// Lot is a traceable batch of produce addressed externally by PublicID.
type Lot struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	PublicID  string       `gorm:"column:public_id;type:text;not null;uniqueIndex" json:"publicId"`
	FarmID    snowflake.ID `gorm:"column:farm_id;not null;index" json:"farmId"`
	Farm      *Farm        `gorm:"foreignKey:FarmID" json:"farm,omitempty"`
	Produce   string       `gorm:"type:text;not null" json:"produce"`
	CreatedAt time.Time    `gorm:"not null" json:"createdAt"`
}

// TableName sets the database table name.
func (Lot) TableName() string { return "lots" }

// FarmName returns the owning farm's name when the farm was loaded.
func (l *Lot) FarmName() string {
	if l == nil || l.Farm == nil {
		return ""
	}
	return l.Farm.Name
}

// LotSummary is the compact lot description used in reports.
type LotSummary struct {
	ID       snowflake.ID `json:"id"`
	PublicID string       `json:"publicId"`
	Produce  string       `json:"produce"`
	FarmName string       `json:"farmName"`
}

func (l *Lot) Summary() LotSummary {
	return LotSummary{ID: l.ID, PublicID: l.PublicID, Produce: l.Produce, FarmName: l.FarmName()}
}
