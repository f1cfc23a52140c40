package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/agrilink/agrilink/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.storage",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, log *zap.Logger) (Store, error) {
	storageCfg := cfg.Storage
	switch strings.ToLower(strings.TrimSpace(storageCfg.Driver)) {
	case "", DriverLocal:
		log.Info("file storage", zap.String("driver", DriverLocal), zap.String("dir", storageCfg.LocalDir))
		return NewLocal(storageCfg.LocalDir, storageCfg.PublicBaseURL)
	case DriverS3:
		log.Info("file storage", zap.String("driver", DriverS3), zap.String("bucket", storageCfg.S3Bucket))
		return NewS3(context.Background(), S3Config{
			Bucket:          storageCfg.S3Bucket,
			Region:          storageCfg.S3Region,
			Endpoint:        storageCfg.S3Endpoint,
			PathStyle:       storageCfg.S3PathStyle,
			AccessKeyID:     storageCfg.S3AccessKeyID,
			SecretAccessKey: storageCfg.S3SecretAccessKey,
			PublicBaseURL:   storageCfg.PublicBaseURL,
		})
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", storageCfg.Driver)
	}
}
