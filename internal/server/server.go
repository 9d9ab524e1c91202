package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tablenest/tablenest/internal/booking"
	"github.com/tablenest/tablenest/internal/concierge"
	"github.com/tablenest/tablenest/internal/config"
	"github.com/tablenest/tablenest/internal/earning"
	earningdomain "github.com/tablenest/tablenest/internal/earning/domain"
	"github.com/tablenest/tablenest/internal/observability"
	obsmiddleware "github.com/tablenest/tablenest/internal/observability/logger"
	obsmetrics "github.com/tablenest/tablenest/internal/observability/metrics"
	obstracing "github.com/tablenest/tablenest/internal/observability/tracing"
	"github.com/tablenest/tablenest/internal/partner"
	"github.com/tablenest/tablenest/internal/payout"
	payoutdomain "github.com/tablenest/tablenest/internal/payout/domain"
	"github.com/tablenest/tablenest/internal/promo"
	"github.com/tablenest/tablenest/internal/referral"
	"github.com/tablenest/tablenest/internal/venue"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	partner.Module,
	venue.Module,
	concierge.Module,
	booking.Module,
	earning.Module,
	referral.Module,
	promo.Module,
	payout.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	db         *gorm.DB
	genID      *snowflake.Node
	payoutSvc  payoutdomain.Service
	earningSvc earningdomain.Service
	obsMetrics *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	DB         *gorm.DB
	GenID      *snowflake.Node
	PayoutSvc  payoutdomain.Service
	EarningSvc earningdomain.Service
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		db:         p.DB,
		genID:      p.GenID,
		payoutSvc:  p.PayoutSvc,
		earningSvc: p.EarningSvc,
		obsMetrics: p.ObsMetrics,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.POST("/bookings/:id/distributions", s.CreateDistribution)
	api.GET("/bookings/:id/earnings", s.GetBookingEarnings)
	api.GET("/earnings", s.ListEarnings)
}
