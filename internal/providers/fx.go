package providers

import (
	"github.com/agrilink/agrilink/internal/providers/email"
	"github.com/agrilink/agrilink/internal/providers/pdf"
	"github.com/agrilink/agrilink/internal/providers/storage"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	pdf.Module,
	storage.Module,
)
