package earning

import (
	"github.com/tablenest/tablenest/internal/earning/repository"
	"github.com/tablenest/tablenest/internal/earning/service"
	"go.uber.org/fx"
)

var Module = fx.Module("earning",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
