package farm

import (
	"github.com/agrilink/agrilink/internal/farm/service"
	"go.uber.org/fx"
)

var Module = fx.Module("farm.service",
	fx.Provide(service.New),
)
