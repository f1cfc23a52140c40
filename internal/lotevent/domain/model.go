package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	TypeSensor     = "SENSOR"
	TypePlanted    = "PLANTED"
	TypeWatered    = "WATERED"
	TypeFertilized = "FERTILIZED"
	TypeHarvested  = "HARVESTED"
	TypePackaged   = "PACKAGED"
	TypeShipped    = "SHIPPED"
)

// Event is an append-only observation attached to a lot.
type Event struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	LotID     snowflake.ID `gorm:"column:lot_id;not null;index:ix_events_lot_at,priority:1" json:"lotId"`
	Type      string       `gorm:"type:text;not null" json:"type"`
	Temp      *float64     `gorm:"column:temp" json:"temp"`
	Hum       *float64     `gorm:"column:hum" json:"hum"`
	At        time.Time    `gorm:"column:at;not null;index:ix_events_lot_at,priority:2" json:"at"`
	Note      string       `gorm:"type:text" json:"note"`
	Place     string       `gorm:"type:text" json:"place"`
	CreatedAt time.Time    `gorm:"not null" json:"createdAt"`
}

// TableName sets the database table name.
func (Event) TableName() string { return "events" }
