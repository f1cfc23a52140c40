package domain

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Append(ctx context.Context, req AppendRequest) (*Event, error)
	ListByLot(ctx context.Context, lotID snowflake.ID) ([]Event, error)
	// ListReadings returns events carrying a temperature with at in [from, to].
	ListReadings(ctx context.Context, lotIDs []snowflake.ID, from, to time.Time) ([]Event, error)
	ExportLot(ctx context.Context, lotID snowflake.ID, lotPublicID string, w io.Writer) error
}

type AppendRequest struct {
	LotID snowflake.ID
	Type  string
	Temp  *float64
	Hum   *float64
	At    *time.Time
	Note  string
	Place string
}

// CreateRequest is the body accepted when a user records an event on a lot.
type CreateRequest struct {
	Type  string   `json:"type" validate:"required,max=40"`
	Temp  *float64 `json:"temp" validate:"omitempty,gte=-50,lte=100"`
	Hum   *float64 `json:"hum" validate:"omitempty,gte=0,lte=100"`
	At    string   `json:"at" validate:"omitempty,isotime"`
	Note  string   `json:"note" validate:"omitempty,max=500"`
	Place string   `json:"place" validate:"omitempty,max=200"`
}

var (
	ErrInvalidType = errors.New("invalid_event_type")
	ErrInvalidLot  = errors.New("invalid_lot")
)
