package repository

import (
	"context"
	"errors"

	devicedomain "github.com/agrilink/agrilink/internal/device/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() devicedomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, device *devicedomain.SensorDevice) error {
	return db.WithContext(ctx).Omit("BoundLot").Create(device).Error
}

func (r *repo) FindByKeyHash(ctx context.Context, db *gorm.DB, hash string) (*devicedomain.SensorDevice, error) {
	var device devicedomain.SensorDevice
	err := db.WithContext(ctx).
		Where("api_key_hash = ?", hash).
		First(&device).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &device, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]devicedomain.SensorDevice, error) {
	var devices []devicedomain.SensorDevice
	err := db.WithContext(ctx).
		Preload("BoundLot.Farm").
		Order("created_at DESC").
		Find(&devices).Error
	if err != nil {
		return nil, err
	}
	return devices, nil
}
