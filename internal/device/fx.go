package device

import (
	"github.com/agrilink/agrilink/internal/device/repository"
	"github.com/agrilink/agrilink/internal/device/service"
	"go.uber.org/fx"
)

var Module = fx.Module("device.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
