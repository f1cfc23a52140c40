package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/agrilink/agrilink/internal/clock"
	"github.com/agrilink/agrilink/internal/config"
	devicedomain "github.com/agrilink/agrilink/internal/device/domain"
	farmdomain "github.com/agrilink/agrilink/internal/farm/domain"
	ingestdomain "github.com/agrilink/agrilink/internal/ingest/domain"
	lotevent "github.com/agrilink/agrilink/internal/lotevent/domain"
	"github.com/agrilink/agrilink/internal/observability/logger"
	"github.com/agrilink/agrilink/internal/observability/metrics"
	"github.com/agrilink/agrilink/internal/ratelimit"
	"github.com/agrilink/agrilink/internal/realtime"
	"github.com/agrilink/agrilink/pkg/validation"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Config  config.Config
	Log     *zap.Logger
	Clock   clock.Clock
	Devices devicedomain.Service
	Farms   farmdomain.Service
	Events  lotevent.Service
	Hub     *realtime.Hub
	Limiter *ratelimit.IngestLimiter `optional:"true"`
	Metrics *metrics.Metrics         `optional:"true"`
}

type Service struct {
	masterKey string
	log       *zap.Logger
	clock     clock.Clock
	devices   devicedomain.Service
	farms     farmdomain.Service
	events    lotevent.Service
	hub       *realtime.Hub
	limiter   *ratelimit.IngestLimiter
	metrics   *metrics.Metrics
}

func New(p Params) ingestdomain.Service {
	return &Service{
		masterKey: strings.TrimSpace(p.Config.IoT.MasterKey),
		log:       p.Log.Named("ingest.service"),
		clock:     p.Clock,
		devices:   p.Devices,
		farms:     p.Farms,
		events:    p.Events,
		hub:       p.Hub,
		limiter:   p.Limiter,
		metrics:   p.Metrics,
	}
}

func (s *Service) Submit(ctx context.Context, source, apiKey string, body []byte) (*ingestdomain.Result, error) {
	device, err := s.Authenticate(ctx, apiKey)
	if err != nil {
		s.reject(ctx, source, "unauthorized")
		return nil, err
	}

	if err := s.throttle(ctx, device); err != nil {
		s.reject(ctx, source, "rate_limited")
		return nil, err
	}

	req := validation.DecodeJSON[ingestdomain.Request](body)
	if !req.OK() {
		s.reject(ctx, source, "validation")
		return nil, req.Err()
	}

	res, err := s.Ingest(ctx, *device, req.Value)
	if err != nil {
		reason := "internal"
		if errors.Is(err, farmdomain.ErrLotNotFound) {
			reason = "lot_not_found"
		}
		s.reject(ctx, source, reason)
		return nil, err
	}

	s.metrics.RecordIngestAccepted(ctx, source)
	return res, nil
}

// Authenticate accepts the master key or any registered device key.
func (s *Service) Authenticate(ctx context.Context, apiKey string) (*ingestdomain.Device, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ingestdomain.ErrUnauthorized
	}

	if s.masterKey != "" && subtle.ConstantTimeCompare([]byte(apiKey), []byte(s.masterKey)) == 1 {
		return &ingestdomain.Device{
			ID:     ingestdomain.MasterDeviceID,
			Name:   ingestdomain.MasterDeviceName,
			Master: true,
		}, nil
	}

	device, err := s.devices.Authenticate(ctx, apiKey)
	if err != nil {
		if errors.Is(err, devicedomain.ErrNotFound) {
			return nil, ingestdomain.ErrUnauthorized
		}
		return nil, err
	}
	return &ingestdomain.Device{ID: device.ID.String(), Name: device.Name}, nil
}

func (s *Service) Ingest(ctx context.Context, device ingestdomain.Device, req ingestdomain.Request) (*ingestdomain.Result, error) {
	if res := validation.Validate(req); !res.OK() {
		return nil, res.Err()
	}

	lot, err := s.farms.ResolveLot(ctx, req.LotID, req.LotPublicID)
	if err != nil {
		return nil, err
	}

	appendReq := lotevent.AppendRequest{
		LotID: lot.ID,
		Type:  lotevent.TypeSensor,
		Temp:  req.Temp,
		Hum:   req.Hum,
		Note:  "Sensor reading from " + device.Name,
		Place: ingestdomain.DefaultPlace,
	}
	if loc := strings.TrimSpace(req.Location); loc != "" {
		appendReq.Place = loc
	}
	if req.At != "" {
		at, err := validation.ParseTimestamp(req.At)
		if err != nil {
			return nil, validation.NewError("at", "rfc3339", "at must be an ISO-8601 datetime")
		}
		appendReq.At = &at
	}

	event, err := s.events.Append(ctx, appendReq)
	if err != nil {
		return nil, err
	}

	s.broadcast(ctx, lot, event, device.Name)

	logger.WithContext(ctx, s.log).Info("sensor reading stored",
		zap.String("device", device.Name),
		zap.String("lot_public_id", lot.PublicID),
		zap.String("event_id", event.ID.String()),
	)

	return &ingestdomain.Result{
		Success: true,
		Event: ingestdomain.EventView{
			ID:          event.ID,
			LotID:       lot.ID,
			LotPublicID: lot.PublicID,
			Temp:        event.Temp,
			Hum:         event.Hum,
			At:          event.At,
		},
		Message: "Data received from " + device.Name,
	}, nil
}

// broadcast is best effort; the event is already stored.
func (s *Service) broadcast(ctx context.Context, lot *farmdomain.Lot, event *lotevent.Event, deviceName string) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("sensor broadcast panicked", zap.Any("panic", r))
		}
	}()

	res := s.hub.Publish(realtime.NewSensorUpdate(lot, event, deviceName, s.clock.Now()))
	s.metrics.RecordBroadcast(ctx, realtime.EventSensorUpdate, res.Delivered, res.Dropped)
	if res.Dropped > 0 {
		s.log.Warn("slow realtime subscribers skipped", zap.Int("dropped", res.Dropped))
	}
}

func (s *Service) throttle(ctx context.Context, device *ingestdomain.Device) error {
	if !s.limiter.Enabled() {
		return nil
	}
	res, err := s.limiter.AllowDevice(ctx, device.ID)
	if err != nil {
		// fail open when redis is unavailable
		s.log.Warn("ingest rate limit check failed", zap.Error(err))
		return nil
	}
	if !res.Allowed {
		s.metrics.RecordRateLimitDenied(ctx, "iot_ingest")
		return &ingestdomain.RateLimitError{RetryAfter: res.RetryAfter}
	}
	return nil
}

func (s *Service) reject(ctx context.Context, source, reason string) {
	s.metrics.RecordIngestRejected(ctx, source, reason)
}
