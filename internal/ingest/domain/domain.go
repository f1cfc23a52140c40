package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	MasterDeviceID   = "master"
	MasterDeviceName = "Master Device"
	DefaultPlace     = "IoT Device"

	SourceHTTP = "http"
	SourceMQTT = "mqtt"
)

type Service interface {
	// Submit runs the whole pipeline: authenticate, throttle, validate,
	// resolve the lot, persist, then broadcast.
	Submit(ctx context.Context, source, apiKey string, body []byte) (*Result, error)
	Authenticate(ctx context.Context, apiKey string) (*Device, error)
	Ingest(ctx context.Context, device Device, req Request) (*Result, error)
}

// Request is the sensor payload. Either lot identifier may be used.
type Request struct {
	LotID       string   `json:"lotId" validate:"required_without=LotPublicID"`
	LotPublicID string   `json:"lotPublicId"`
	Temp        *float64 `json:"temp" validate:"required,gte=-50,lte=100"`
	Hum         *float64 `json:"hum" validate:"omitempty,gte=0,lte=100"`
	Location    string   `json:"location" validate:"omitempty,max=200"`
	At          string   `json:"at" validate:"omitempty,rfc3339"`
}

// Device is the authenticated submitter.
type Device struct {
	ID     string
	Name   string
	Master bool
}

type EventView struct {
	ID          snowflake.ID `json:"id"`
	LotID       snowflake.ID `json:"lotId"`
	LotPublicID string       `json:"lotPublicId"`
	Temp        *float64     `json:"temp"`
	Hum         *float64     `json:"hum"`
	At          time.Time    `json:"at"`
}

type Result struct {
	Success bool      `json:"success"`
	Event   EventView `json:"event"`
	Message string    `json:"message"`
}

var (
	ErrUnauthorized = errors.New("invalid_api_key")
	ErrRateLimited  = errors.New("rate_limited")
)

// RateLimitError carries the suggested wait before the device may retry.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string { return ErrRateLimited.Error() }

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }
