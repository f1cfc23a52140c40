package migration

import (
	"context"

	"github.com/agrilink/agrilink/internal/config"
	"github.com/agrilink/agrilink/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		if err := Migrate(conn); err != nil {
			return err
		}
		if !cfg.SeedDemoData {
			return nil
		}
		return seed.Run(context.Background(), conn, log)
	}),
)
