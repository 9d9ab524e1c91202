package referral

import (
	"github.com/tablenest/tablenest/internal/referral/service"
	"go.uber.org/fx"
)

var Module = fx.Module("referral.service",
	fx.Provide(service.New),
)
