package auth

import (
	"github.com/agrilink/agrilink/internal/auth/repository"
	"github.com/agrilink/agrilink/internal/auth/service"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
