package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/kubeping/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "dev",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider and installs it
// globally. The returned provider should be shut down on exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Round outcomes recorded on the rounds counter.
const (
	OutcomeOK         = "ok"
	OutcomeFetchError = "fetch_error"
	OutcomeParseError = "parse_error"
	OutcomeAborted    = "aborted"
)

// Metrics holds the instruments recorded by discovery rounds.
type Metrics struct {
	roundTotal       metric.Int64Counter
	roundDuration    metric.Float64Histogram
	podsSeen         metric.Int64Histogram
	endpointsFound   metric.Int64Histogram
	dispatchTotal    metric.Int64Counter
	dispatchFailures metric.Int64Counter
}

// NewMetrics creates the discovery instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	roundTotal, err := meter.Int64Counter("kubeping.round.total",
		metric.WithDescription("Discovery rounds by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating kubeping.round.total counter: %w", err)
	}

	roundDuration, err := meter.Float64Histogram("kubeping.round.duration",
		metric.WithDescription("Duration of discovery rounds in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating kubeping.round.duration histogram: %w", err)
	}

	podsSeen, err := meter.Int64Histogram("kubeping.round.pods",
		metric.WithDescription("Pods in the inventory per round, by readiness"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating kubeping.round.pods histogram: %w", err)
	}

	endpointsFound, err := meter.Int64Histogram("kubeping.round.endpoints",
		metric.WithDescription("Candidate peer endpoints resolved per round"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating kubeping.round.endpoints histogram: %w", err)
	}

	dispatchTotal, err := meter.Int64Counter("kubeping.dispatch.total",
		metric.WithDescription("Discovery requests handed to the messaging layer"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating kubeping.dispatch.total counter: %w", err)
	}

	dispatchFailures, err := meter.Int64Counter("kubeping.dispatch.failures",
		metric.WithDescription("Discovery requests that failed to dispatch"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating kubeping.dispatch.failures counter: %w", err)
	}

	return &Metrics{
		roundTotal:       roundTotal,
		roundDuration:    roundDuration,
		podsSeen:         podsSeen,
		endpointsFound:   endpointsFound,
		dispatchTotal:    dispatchTotal,
		dispatchFailures: dispatchFailures,
	}, nil
}

// RecordRound records one completed round.
func (m *Metrics) RecordRound(ctx context.Context, namespace, outcome string, duration time.Duration) {
	m.roundTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrNamespace, namespace),
		attribute.String(AttrOutcome, outcome),
	))
	m.roundDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(AttrNamespace, namespace),
	))
}

// RecordInventory records the ready and not-ready pod counts of a round.
func (m *Metrics) RecordInventory(ctx context.Context, namespace string, ready, notReady int) {
	m.podsSeen.Record(ctx, int64(ready), metric.WithAttributes(
		attribute.String(AttrNamespace, namespace),
		attribute.Bool(AttrReady, true),
	))
	m.podsSeen.Record(ctx, int64(notReady), metric.WithAttributes(
		attribute.String(AttrNamespace, namespace),
		attribute.Bool(AttrReady, false),
	))
}

// RecordEndpoints records the size of a resolved endpoint set.
func (m *Metrics) RecordEndpoints(ctx context.Context, namespace string, n int) {
	m.endpointsFound.Record(ctx, int64(n), metric.WithAttributes(
		attribute.String(AttrNamespace, namespace),
	))
}

// RecordDispatch records one dispatch attempt and whether it failed.
func (m *Metrics) RecordDispatch(ctx context.Context, namespace string, failed bool) {
	attrs := metric.WithAttributes(attribute.String(AttrNamespace, namespace))
	m.dispatchTotal.Add(ctx, 1, attrs)
	if failed {
		m.dispatchFailures.Add(ctx, 1, attrs)
	}
}
