package migration

import (
	"strings"

	bookingdomain "github.com/tablenest/tablenest/internal/booking/domain"
	conciergedomain "github.com/tablenest/tablenest/internal/concierge/domain"
	"github.com/tablenest/tablenest/internal/config"
	earningdomain "github.com/tablenest/tablenest/internal/earning/domain"
	partnerdomain "github.com/tablenest/tablenest/internal/partner/domain"
	"github.com/tablenest/tablenest/internal/seed"
	venuedomain "github.com/tablenest/tablenest/internal/venue/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// Versioned migrations are postgres-only; the sqlite and mysql dev
		// paths sync the schema straight from the models.
		if strings.EqualFold(cfg.DBType, "postgres") {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			if err := conn.AutoMigrate(
				&partnerdomain.Partner{},
				&venuedomain.Venue{},
				&conciergedomain.Concierge{},
				&bookingdomain.Booking{},
				&earningdomain.Earning{},
			); err != nil {
				return err
			}
		}

		if cfg.SeedDemoData {
			return seed.EnsureDemoData(conn)
		}
		return nil
	}),
)
