package observability

import (
	"context"
	"errors"
	"fmt"
	"sync"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/kubeping/component"
	"github.com/kbukum/kubeping/logger"
)

const componentName = "telemetry"

var (
	_ component.Component   = (*Telemetry)(nil)
	_ component.Describable = (*Telemetry)(nil)
)

// Telemetry owns the meter and tracer providers for the life of the agent.
// When disabled it starts nothing and the global no-op providers stay in place.
type Telemetry struct {
	cfg         Config
	service     string
	version     string
	environment string
	log         *logger.Logger

	mu      sync.Mutex
	meter   *sdkmetric.MeterProvider
	tracer  *sdktrace.TracerProvider
	started bool
}

// NewTelemetry creates the telemetry component.
func NewTelemetry(cfg Config, service, version, environment string, log *logger.Logger) *Telemetry {
	cfg.ApplyDefaults()
	return &Telemetry{
		cfg:         cfg,
		service:     service,
		version:     version,
		environment: environment,
		log:         log.WithComponent(componentName),
	}
}

// Name returns the component name.
func (t *Telemetry) Name() string { return componentName }

// Start installs the OTLP providers when telemetry is enabled.
func (t *Telemetry) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.started = true
	if !t.cfg.Enabled {
		t.log.Debug("telemetry disabled")
		return nil
	}

	mp, err := InitMeter(ctx, t.cfg.MeterConfig(t.service, t.version, t.environment))
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	tp, err := InitTracer(ctx, t.cfg.TracerConfig(t.service, t.version, t.environment))
	if err != nil {
		_ = mp.Shutdown(ctx)
		return fmt.Errorf("telemetry: %w", err)
	}
	t.meter, t.tracer = mp, tp
	return nil
}

// Stop flushes and shuts down the providers.
func (t *Telemetry) Stop(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var errs []error
	if t.tracer != nil {
		if err := t.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
		t.tracer = nil
	}
	if t.meter != nil {
		if err := t.meter.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter shutdown: %w", err))
		}
		t.meter = nil
	}
	t.started = false
	return errors.Join(errs...)
}

// Health reports whether the providers are running.
func (t *Telemetry) Health(_ context.Context) component.Health {
	t.mu.Lock()
	defer t.mu.Unlock()

	h := component.Health{Name: componentName, Status: component.StatusHealthy}
	switch {
	case !t.started:
		h.Status = component.StatusUnhealthy
		h.Message = "not started"
	case !t.cfg.Enabled:
		h.Message = "disabled"
	}
	return h
}

// Describe returns the startup summary entry.
func (t *Telemetry) Describe() component.Description {
	details := "disabled"
	if t.cfg.Enabled {
		details = fmt.Sprintf("otlp=%s sample_rate=%.2f", t.cfg.Endpoint, t.cfg.SampleRate)
	}
	return component.Description{
		Name:    "Telemetry",
		Type:    "telemetry",
		Details: details,
	}
}
