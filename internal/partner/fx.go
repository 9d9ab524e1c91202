package partner

import (
	"github.com/tablenest/tablenest/internal/partner/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("partner",
	fx.Provide(repository.Provide),
)
