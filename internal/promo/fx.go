package promo

import (
	"github.com/tablenest/tablenest/internal/promo/service"
	"go.uber.org/fx"
)

var Module = fx.Module("promo.service",
	fx.Provide(service.New),
)
