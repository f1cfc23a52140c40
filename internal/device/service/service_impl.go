package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/agrilink/agrilink/internal/clock"
	devicedomain "github.com/agrilink/agrilink/internal/device/domain"
	farmdomain "github.com/agrilink/agrilink/internal/farm/domain"
	"github.com/agrilink/agrilink/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	apiKeyPrefix      = "agl_dev_"
	apiKeySecretBytes = 32
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    devicedomain.Repository
	FarmSvc farmdomain.Service
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    devicedomain.Repository
	farmSvc farmdomain.Service
}

func New(p Params) devicedomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("device.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		farmSvc: p.FarmSvc,
	}
}

func (s *Service) Authenticate(ctx context.Context, rawKey string) (*devicedomain.SensorDevice, error) {
	rawKey = strings.TrimSpace(rawKey)
	if rawKey == "" {
		return nil, devicedomain.ErrNotFound
	}
	device, err := s.repo.FindByKeyHash(ctx, s.db, devicedomain.HashAPIKey(rawKey))
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, devicedomain.ErrNotFound
	}
	return device, nil
}

func (s *Service) List(ctx context.Context) ([]devicedomain.Response, error) {
	items, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}

	resp := make([]devicedomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Register(ctx context.Context, req devicedomain.RegisterRequest) (*devicedomain.SecretResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, devicedomain.ErrInvalidName
	}

	var lot *farmdomain.Lot
	if publicID := strings.TrimSpace(req.BoundLotPublicID); publicID != "" {
		found, err := s.farmSvc.GetLotByPublicID(ctx, publicID)
		if err != nil {
			return nil, err
		}
		lot = found
	}

	plain, hash, err := generateAPIKey()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	device := &devicedomain.SensorDevice{
		ID:         s.genID.Generate(),
		Name:       name,
		APIKeyHash: hash,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if lot != nil {
		device.BoundLotID = &lot.ID
	}

	if err := s.repo.Insert(ctx, s.db, device); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, devicedomain.ErrKeyExists
		}
		return nil, err
	}
	device.BoundLot = lot

	s.log.Info("sensor device registered", zap.String("device_id", device.ID.String()))
	return &devicedomain.SecretResponse{Device: toResponse(device), APIKey: plain}, nil
}

func toResponse(device *devicedomain.SensorDevice) devicedomain.Response {
	resp := devicedomain.Response{
		ID:        device.ID,
		Name:      device.Name,
		CreatedAt: device.CreatedAt,
	}
	if device.BoundLot != nil {
		resp.BoundLot = &devicedomain.BoundLot{
			ID:       device.BoundLot.ID,
			PublicID: device.BoundLot.PublicID,
			Produce:  device.BoundLot.Produce,
			FarmName: device.BoundLot.FarmName(),
		}
	}
	return resp
}

func generateAPIKey() (string, string, error) {
	secret := make([]byte, apiKeySecretBytes)
	if _, err := rand.Read(secret); err != nil {
		return "", "", err
	}
	plain := apiKeyPrefix + hex.EncodeToString(secret)
	return plain, devicedomain.HashAPIKey(plain), nil
}
