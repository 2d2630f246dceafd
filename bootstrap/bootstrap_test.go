package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/kubeping/component"
	"github.com/kbukum/kubeping/config"
	"github.com/kbukum/kubeping/logger"
)

// testConfig is a minimal config for testing that satisfies the Config interface.
type testConfig struct {
	config.ServiceConfig
}

// mockComponent implements component.Component for testing.
type mockComponent struct {
	mu       sync.Mutex
	name     string
	startErr error
	stopErr  error
	health   component.Health
	started  bool
	stopped  bool
	order    *[]string
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = true
	if m.order != nil {
		*m.order = append(*m.order, "start:"+m.name)
	}
	return m.startErr
}
func (m *mockComponent) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	if m.order != nil {
		*m.order = append(*m.order, "stop:"+m.name)
	}
	return m.stopErr
}
func (m *mockComponent) Health(ctx context.Context) component.Health {
	return m.health
}

// describedComponent adds Describable and RouteProvider to mockComponent.
type describedComponent struct {
	mockComponent
}

func (d *describedComponent) Describe() component.Description {
	return component.Description{Name: "Admin Server", Type: "http", Details: "127.0.0.1:8081", Port: 8081}
}

func (d *describedComponent) Routes() []component.Route {
	return []component.Route{{Method: "GET", Path: "/pods", Handler: "endpoint.Pods"}}
}

func newTestConfig(name, version string) *testConfig {
	return &testConfig{
		ServiceConfig: config.ServiceConfig{
			Name:        name,
			Version:     version,
			Environment: "development",
		},
	}
}

func newTestApp(t *testing.T, opts ...Option) *App[*testConfig] {
	t.Helper()
	opts = append([]Option{WithLogger(logger.NewNop()), WithSummaryWriter(io.Discard)}, opts...)
	app, err := NewApp(newTestConfig("kubeping", "1.0.0"), opts...)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app
}

func healthy(name string) *mockComponent {
	return &mockComponent{name: name, health: component.Health{Name: name, Status: component.StatusHealthy}}
}

func TestNewApp(t *testing.T) {
	app := newTestApp(t)
	if app.Name != "kubeping" {
		t.Errorf("expected name 'kubeping', got %q", app.Name)
	}
	if app.Version != "1.0.0" {
		t.Errorf("expected version '1.0.0', got %q", app.Version)
	}
	if app.Components == nil {
		t.Error("expected non-nil components registry")
	}
	if app.Logger == nil {
		t.Error("expected non-nil logger")
	}
	if app.Summary == nil {
		t.Error("expected non-nil summary")
	}
	if app.Cfg.Name != "kubeping" {
		t.Errorf("expected cfg.Name 'kubeping', got %q", app.Cfg.Name)
	}
}

func TestNewAppAppliesDefaults(t *testing.T) {
	app := newTestApp(t)
	if !app.Cfg.Debug {
		t.Error("development environment should enable debug")
	}
	if app.Cfg.Logging.Level == "" {
		t.Error("expected logging level default")
	}
}

func TestNewAppVersionFallback(t *testing.T) {
	app, err := NewApp(newTestConfig("kubeping", ""), WithLogger(logger.NewNop()))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if app.Version == "" {
		t.Error("expected version to fall back to build info")
	}
}

func TestNewAppValidation(t *testing.T) {
	cfg := &testConfig{ServiceConfig: config.ServiceConfig{Environment: "development"}}
	if _, err := NewApp(cfg, WithLogger(logger.NewNop())); err == nil {
		t.Error("expected error for missing name")
	}

	cfg = &testConfig{ServiceConfig: config.ServiceConfig{Name: "kubeping", Environment: "qa"}}
	if _, err := NewApp(cfg, WithLogger(logger.NewNop())); err == nil {
		t.Error("expected error for unknown environment")
	}
}

func TestWithGracefulTimeout(t *testing.T) {
	app := newTestApp(t, WithGracefulTimeout(30*time.Second))
	if app.gracefulTimeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", app.gracefulTimeout)
	}
}

func TestDefaultGracefulTimeout(t *testing.T) {
	app := newTestApp(t)
	if app.gracefulTimeout != 15*time.Second {
		t.Errorf("expected 15s default timeout, got %v", app.gracefulTimeout)
	}
}

func TestWithLogger(t *testing.T) {
	l := logger.NewNop()
	app, err := NewApp(newTestConfig("kubeping", "1.0"), WithLogger(l))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if app.Logger != l {
		t.Error("expected custom logger")
	}
}

func TestRegisterComponent(t *testing.T) {
	app := newTestApp(t)
	if err := app.RegisterComponent(healthy("discovery")); err != nil {
		t.Fatalf("RegisterComponent failed: %v", err)
	}
	if app.Components.Get("discovery") == nil {
		t.Error("expected component to be registered")
	}
	if err := app.RegisterComponent(healthy("discovery")); err == nil {
		t.Error("expected error for duplicate registration")
	}
}

func TestHooksRunInOrder(t *testing.T) {
	app := newTestApp(t)
	var calls []string
	app.OnStart(func(ctx context.Context) error { calls = append(calls, "start1"); return nil },
		func(ctx context.Context) error { calls = append(calls, "start2"); return nil })
	app.OnReady(func(ctx context.Context) error { calls = append(calls, "ready"); return nil })
	app.OnStop(func(ctx context.Context) error { calls = append(calls, "stop"); return nil })

	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		calls = append(calls, "task")
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}

	want := "start1,start2,ready,task,stop"
	if got := strings.Join(calls, ","); got != want {
		t.Errorf("calls = %s, want %s", got, want)
	}
}

func TestHookErrorStopsExecution(t *testing.T) {
	var second bool
	err := runHooks(context.Background(), []Hook{
		func(ctx context.Context) error { return fmt.Errorf("boom") },
		func(ctx context.Context) error { second = true; return nil },
	})
	if err == nil || !strings.Contains(err.Error(), "hook 0 failed") {
		t.Errorf("expected hook 0 error, got %v", err)
	}
	if second {
		t.Error("second hook should not run after a failure")
	}
}

func TestReadyCheck(t *testing.T) {
	tests := []struct {
		name    string
		status  component.HealthStatus
		wantErr bool
	}{
		{"healthy", component.StatusHealthy, false},
		{"degraded", component.StatusDegraded, false},
		{"unhealthy", component.StatusUnhealthy, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			_ = app.RegisterComponent(&mockComponent{
				name:   "discovery",
				health: component.Health{Name: "discovery", Status: tt.status, Message: "round failed"},
			})
			err := app.ReadyCheck(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReadyCheck() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), "discovery(round failed)") {
				t.Errorf("error should name the component, got %v", err)
			}
		})
	}
}

func TestReadyCheckEmpty(t *testing.T) {
	app := newTestApp(t)
	if err := app.ReadyCheck(context.Background()); err != nil {
		t.Errorf("expected no error with no components, got %v", err)
	}
}

func TestRunTaskStartsAndStopsInOrder(t *testing.T) {
	app := newTestApp(t)
	var order []string
	a := healthy("telemetry")
	a.order = &order
	b := healthy("discovery")
	b.order = &order
	_ = app.RegisterComponent(a)
	_ = app.RegisterComponent(b)

	if err := app.RunTask(context.Background(), func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}

	want := "start:telemetry,start:discovery,stop:discovery,stop:telemetry"
	if got := strings.Join(order, ","); got != want {
		t.Errorf("order = %s, want %s", got, want)
	}
}

func TestRunTaskError(t *testing.T) {
	app := newTestApp(t)
	c := healthy("discovery")
	_ = app.RegisterComponent(c)

	taskErr := errors.New("round failed")
	err := app.RunTask(context.Background(), func(ctx context.Context) error { return taskErr })
	if !errors.Is(err, taskErr) {
		t.Errorf("expected task error, got %v", err)
	}
	if !c.stopped {
		t.Error("components should be stopped after a failed task")
	}
}

func TestRunTaskCancellation(t *testing.T) {
	app := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())

	err := app.RunTask(ctx, func(ctx context.Context) error {
		cancel()
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRunTaskComponentStartError(t *testing.T) {
	app := newTestApp(t)
	first := healthy("telemetry")
	_ = app.RegisterComponent(first)
	_ = app.RegisterComponent(&mockComponent{name: "discovery", startErr: errors.New("no api server")})

	ran := false
	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		ran = true
		return nil
	})
	if err == nil || !strings.Contains(err.Error(), "failed to start components") {
		t.Errorf("expected start error, got %v", err)
	}
	if ran {
		t.Error("task should not run when startup fails")
	}
	if !first.stopped {
		t.Error("already started component should be rolled back")
	}
}

func TestRunTaskHookErrors(t *testing.T) {
	tests := []struct {
		name    string
		install func(app *App[*testConfig], hook Hook)
		want    string
	}{
		{"start", func(app *App[*testConfig], h Hook) { app.OnStart(h) }, "onStart hook failed"},
		{"ready", func(app *App[*testConfig], h Hook) { app.OnReady(h) }, "onReady hook failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			c := healthy("discovery")
			_ = app.RegisterComponent(c)
			tt.install(app, func(ctx context.Context) error { return errors.New("boom") })

			err := app.RunTask(context.Background(), func(ctx context.Context) error { return nil })
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected %q, got %v", tt.want, err)
			}
			if !c.stopped {
				t.Error("components should be stopped after a hook failure")
			}
		})
	}
}

func TestRunTaskStopErrors(t *testing.T) {
	app := newTestApp(t)
	_ = app.RegisterComponent(&mockComponent{name: "discovery", stopErr: errors.New("stuck")})

	err := app.RunTask(context.Background(), func(ctx context.Context) error { return nil })
	if err == nil || !strings.Contains(err.Error(), "stuck") {
		t.Errorf("expected stop error to surface, got %v", err)
	}

	app = newTestApp(t)
	app.OnStop(func(ctx context.Context) error { return errors.New("flush failed") })
	err = app.RunTask(context.Background(), func(ctx context.Context) error { return nil })
	if err == nil || !strings.Contains(err.Error(), "flush failed") {
		t.Errorf("expected onStop error to surface, got %v", err)
	}
}

func TestRunReturnsOnContextCancel(t *testing.T) {
	app := newTestApp(t)
	c := healthy("discovery")
	_ = app.RegisterComponent(c)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !c.started || !c.stopped {
		t.Error("expected component to be started and stopped")
	}
}

func TestWaitForSignalContextCancellation(t *testing.T) {
	app := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if sig := app.WaitForSignal(ctx); sig != nil {
		t.Errorf("expected nil signal on context cancel, got %v", sig)
	}
}

func TestShutdown(t *testing.T) {
	app := newTestApp(t)
	c := healthy("discovery")
	_ = app.RegisterComponent(c)
	if err := app.Components.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	if err := app.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if !c.stopped {
		t.Error("expected component to be stopped")
	}
}

func TestSummaryDisplay(t *testing.T) {
	var buf bytes.Buffer
	s := NewSummary("kubeping", "v1.2.0", &buf)
	s.SetStartupDuration(1500 * time.Millisecond)

	registry := component.NewRegistry(logger.NewNop())
	_ = registry.Register(healthy("telemetry"))
	_ = registry.Register(&describedComponent{mockComponent: mockComponent{
		name:   "admin-server",
		health: component.Health{Name: "admin-server", Status: component.StatusDegraded, Message: "slow"},
	}})

	s.Display(context.Background(), registry)
	out := buf.String()

	for _, want := range []string{
		"kubeping v1.2.0 started in 1.50s",
		"[http] Admin Server: 127.0.0.1:8081",
		"Routes (1)",
		"/pods -> endpoint.Pods",
		"telemetry: healthy",
		"admin-server: degraded (slow)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "(:8081)") {
		t.Error("port already present in details should not be repeated")
	}
}

func TestTreePrefix(t *testing.T) {
	if got := treePrefix(0, 2); got != "├──" {
		t.Errorf("treePrefix(0, 2) = %q", got)
	}
	if got := treePrefix(1, 2); got != "└──" {
		t.Errorf("treePrefix(1, 2) = %q", got)
	}
}

func TestHealthStatusIcon(t *testing.T) {
	tests := map[component.HealthStatus]string{
		component.StatusHealthy:   "✅",
		component.StatusDegraded:  "⚠️",
		component.StatusUnhealthy: "❌",
		"unknown":                 "❓",
	}
	for status, want := range tests {
		if got := healthStatusIcon(status); got != want {
			t.Errorf("healthStatusIcon(%q) = %q, want %q", status, got, want)
		}
	}
}
