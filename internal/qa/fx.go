package qa

import (
	"github.com/agrilink/agrilink/internal/qa/service"
	"go.uber.org/fx"
)

var Module = fx.Module("qa.service",
	fx.Provide(service.New),
)
