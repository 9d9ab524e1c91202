package venue

import (
	"github.com/tablenest/tablenest/internal/venue/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("venue",
	fx.Provide(repository.Provide),
)
