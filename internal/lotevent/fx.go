package lotevent

import (
	"github.com/agrilink/agrilink/internal/lotevent/service"
	"go.uber.org/fx"
)

var Module = fx.Module("lotevent.service",
	fx.Provide(service.New),
)
