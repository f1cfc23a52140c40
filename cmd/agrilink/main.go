package main

import (
	"github.com/agrilink/agrilink/internal/clock"
	"github.com/agrilink/agrilink/internal/config"
	"github.com/agrilink/agrilink/internal/migration"
	"github.com/agrilink/agrilink/internal/observability"
	"github.com/agrilink/agrilink/internal/scheduler"
	"github.com/agrilink/agrilink/internal/server"
	"github.com/agrilink/agrilink/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNodeID)
}
