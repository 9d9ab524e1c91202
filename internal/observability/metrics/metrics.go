package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes the payout engine's instruments.
type Metrics struct {
	distributions       metric.Int64Counter
	earningRows         metric.Int64Counter
	distributionRetries metric.Int64Counter
	conservationFailed  metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "tablenest"
	}
	meter := provider.Meter(name)

	distributions, err := meter.Int64Counter("tablenest_distributions_total")
	if err != nil {
		return nil, err
	}
	earningRows, err := meter.Int64Counter("tablenest_earning_rows_total")
	if err != nil {
		return nil, err
	}
	distributionRetries, err := meter.Int64Counter("tablenest_distribution_retries_total")
	if err != nil {
		return nil, err
	}
	conservationFailed, err := meter.Int64Counter("tablenest_conservation_failures_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		distributions:       distributions,
		earningRows:         earningRows,
		distributionRetries: distributionRetries,
		conservationFailed:  conservationFailed,
	}, nil
}

// RecordDistribution increments completed distribution counts per regime.
func (m *Metrics) RecordDistribution(ctx context.Context, regime string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("regime", strings.TrimSpace(regime)))
	m.distributions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordEarningRows counts ledger rows written per regime.
func (m *Metrics) RecordEarningRows(ctx context.Context, regime string, rows int) {
	if m == nil || rows <= 0 {
		return
	}
	attrs := FilterAttributes(attribute.String("regime", strings.TrimSpace(regime)))
	m.earningRows.Add(ctx, int64(rows), metric.WithAttributes(attrs...))
}

// RecordDistributionRetry counts idempotent re-runs for already-distributed bookings.
func (m *Metrics) RecordDistributionRetry(ctx context.Context, regime string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("regime", strings.TrimSpace(regime)))
	m.distributionRetries.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordConservationFailure counts aborted runs whose split did not add up.
func (m *Metrics) RecordConservationFailure(ctx context.Context, regime string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("regime", strings.TrimSpace(regime)))
	m.conservationFailed.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"regime":      {},
	"endpoint":    {},
	"status_code": {},
	"role":        {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
