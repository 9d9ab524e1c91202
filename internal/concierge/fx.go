package concierge

import (
	"github.com/tablenest/tablenest/internal/concierge/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("concierge",
	fx.Provide(repository.Provide),
)
