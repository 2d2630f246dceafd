package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/kubeping/errors"
)

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool   { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }
func (m *mockFS) Getwd() (string, error)    { return "/mock", nil }

func envMap(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func loadWithEnv(t *testing.T, env map[string]string, opts ...LoaderOption) *KubePingConfig {
	t.Helper()
	opts = append([]LoaderOption{WithFileSystem(&mockFS{}), WithLookup(envMap(env))}, opts...)
	cfg, err := LoadKubePingConfig(opts...)
	if err != nil {
		t.Fatalf("LoadKubePingConfig: %v", err)
	}
	return cfg
}

func TestLoadKubePingConfig_Defaults(t *testing.T) {
	cfg := loadWithEnv(t, nil)

	if cfg.Name != ServiceName || cfg.Environment != "production" {
		t.Errorf("unexpected service config %+v", cfg.ServiceConfig)
	}
	d := cfg.Discovery
	if d.Namespace != "default" || d.PortRange != 1 || d.BindPort != 7800 || d.UseNotReadyAddresses {
		t.Errorf("unexpected discovery defaults %+v", d)
	}
	if d.Interval != 30*time.Second || d.DispatchConcurrency != 1 {
		t.Errorf("unexpected round defaults %+v", d)
	}
	k := cfg.Kubernetes
	if k.ConnectTimeout != 5*time.Second || k.ReadTimeout != 30*time.Second {
		t.Errorf("unexpected timeouts %v/%v", k.ConnectTimeout, k.ReadTimeout)
	}
	if k.OperationAttempts != 3 || k.OperationSleep != time.Second {
		t.Errorf("unexpected retry defaults %d/%v", k.OperationAttempts, k.OperationSleep)
	}
	if k.Protocol != "https" || k.APIVersion != "v1" || k.TLS.KeyAlgorithm != "RSA" || k.Strategy != "auto" {
		t.Errorf("unexpected kubernetes defaults %+v", k)
	}
	if !cfg.Admin.Enabled || cfg.Admin.Port != 8081 {
		t.Errorf("unexpected admin defaults %+v", cfg.Admin)
	}
	if cfg.Telemetry.Enabled || cfg.Telemetry.SampleRate != 1.0 {
		t.Errorf("unexpected telemetry defaults %+v", cfg.Telemetry)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadKubePingConfig_EnvBindings(t *testing.T) {
	cfg := loadWithEnv(t, map[string]string{
		"KUBERNETES_NAMESPACE":               "prod",
		"KUBERNETES_LABELS":                  "app=cache,tier=backend",
		"KUBERNETES_USE_NOT_READY_ADDRESSES": "true",
		"KUBERNETES_SERVICE_HOST":            "10.96.0.1",
		"KUBERNETES_SERVICE_PORT":            "443",
		"KUBERNETES_CONNECT_TIMEOUT":         "2500",
		"KUBERNETES_READ_TIMEOUT":            "10s",
		"KUBERNETES_OPERATION_ATTEMPTS":      "5",
		"KUBERNETES_CLIENT_KEY_PASSWORD":     "hunter2",
		"KUBEPING_PORT_RANGE":                "0",
		"POD_NAME":                           "cache-0",
		"HOSTNAME":                           "ignored",
	})

	d := cfg.Discovery
	if d.Namespace != "prod" || d.Labels != "app=cache,tier=backend" || !d.UseNotReadyAddresses {
		t.Errorf("unexpected discovery %+v", d)
	}
	if d.PortRange != 0 {
		t.Errorf("explicit port range 0 must be kept, got %d", d.PortRange)
	}
	if d.PodName != "cache-0" {
		t.Errorf("expected POD_NAME to win over HOSTNAME, got %q", d.PodName)
	}
	k := cfg.Kubernetes
	if k.Host != "10.96.0.1" || k.Port != 443 {
		t.Errorf("unexpected master %s:%d", k.Host, k.Port)
	}
	if k.ConnectTimeout != 2500*time.Millisecond {
		t.Errorf("bare numbers are milliseconds, got %v", k.ConnectTimeout)
	}
	if k.ReadTimeout != 10*time.Second || k.OperationAttempts != 5 {
		t.Errorf("unexpected read timeout/attempts %v/%d", k.ReadTimeout, k.OperationAttempts)
	}
	if k.TLS.KeyPassword != "hunter2" {
		t.Errorf("unexpected key password %q", k.TLS.KeyPassword)
	}
}

func TestLoadKubePingConfig_BindHostFromPodIP(t *testing.T) {
	cfg := loadWithEnv(t, map[string]string{"POD_IP": "10.244.1.7"})
	if cfg.Discovery.BindHost != "10.244.1.7" {
		t.Errorf("expected POD_IP as bind host, got %q", cfg.Discovery.BindHost)
	}

	cfg = loadWithEnv(t, map[string]string{"POD_IP": "10.244.1.7", "KUBEPING_BIND_HOST": "10.0.0.9"})
	if cfg.Discovery.BindHost != "10.0.0.9" {
		t.Errorf("expected KUBEPING_BIND_HOST to win over POD_IP, got %q", cfg.Discovery.BindHost)
	}
}

func TestLoadKubePingConfig_DeprecatedFallback(t *testing.T) {
	cfg := loadWithEnv(t, map[string]string{
		"OPENSHIFT_KUBE_PING_NAMESPACE": "legacy",
		"OPENSHIFT_KUBE_PING_LABELS":    "app=old",
	})
	if cfg.Discovery.Namespace != "legacy" || cfg.Discovery.Labels != "app=old" {
		t.Errorf("expected deprecated variables as fallback, got %+v", cfg.Discovery)
	}

	cfg = loadWithEnv(t, map[string]string{
		"KUBERNETES_NAMESPACE":          "current",
		"OPENSHIFT_KUBE_PING_NAMESPACE": "legacy",
	})
	if cfg.Discovery.Namespace != "current" {
		t.Errorf("expected current variable to win, got %q", cfg.Discovery.Namespace)
	}
}

func TestLoadKubePingConfig_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	yamlContent := `
name: kubeping-test
environment: staging
discovery:
  namespace: staging
  labels: "app=cache"
  bind_port: 7900
kubernetes:
  read_timeout: 15000
  operation_sleep: 250ms
admin:
  enabled: false
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadKubePingConfig(
		WithConfigFile(configPath),
		WithEnvFile(filepath.Join(dir, "missing.env")),
		WithLookup(envMap(map[string]string{"KUBERNETES_NAMESPACE": "prod"})),
	)
	if err != nil {
		t.Fatalf("LoadKubePingConfig failed: %v", err)
	}

	if cfg.Name != "kubeping-test" || cfg.Environment != "staging" {
		t.Errorf("unexpected service config %+v", cfg.ServiceConfig)
	}
	if cfg.Discovery.Namespace != "prod" {
		t.Errorf("environment must override the file, got %q", cfg.Discovery.Namespace)
	}
	if cfg.Discovery.Labels != "app=cache" || cfg.Discovery.BindPort != 7900 {
		t.Errorf("unexpected discovery %+v", cfg.Discovery)
	}
	if cfg.Kubernetes.ReadTimeout != 15*time.Second || cfg.Kubernetes.OperationSleep != 250*time.Millisecond {
		t.Errorf("unexpected durations %v/%v", cfg.Kubernetes.ReadTimeout, cfg.Kubernetes.OperationSleep)
	}
	if cfg.Kubernetes.ConnectTimeout != 5*time.Second {
		t.Errorf("defaults must fill keys absent from the file, got %v", cfg.Kubernetes.ConnectTimeout)
	}
	if cfg.Admin.Enabled {
		t.Error("expected admin disabled by the file")
	}
}

func TestDeprecationWarnings(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want []string
	}{
		{"none", map[string]string{"KUBERNETES_NAMESPACE": "prod"}, nil},
		{"deprecated only", map[string]string{"OPENSHIFT_KUBE_PING_LABELS": "app=x"}, []string{
			"OPENSHIFT_KUBE_PING_LABELS is deprecated, please remove it and use KUBERNETES_LABELS instead",
		}},
		{"both", map[string]string{"KUBERNETES_NAMESPACE": "a", "OPENSHIFT_KUBE_PING_NAMESPACE": "b"}, []string{
			"Both KUBERNETES_NAMESPACE and OPENSHIFT_KUBE_PING_NAMESPACE are defined, OPENSHIFT_KUBE_PING_NAMESPACE is deprecated so please remove it",
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := DeprecationWarnings(envMap(tc.env))
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestKubePingConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*KubePingConfig)
		field  string
	}{
		{"zero bind port", func(c *KubePingConfig) { c.Discovery.BindPort = 0 }, "bind_port"},
		{"bind port too high", func(c *KubePingConfig) { c.Discovery.BindPort = 70000 }, "bind_port"},
		{"port range overflow", func(c *KubePingConfig) { c.Discovery.BindPort = 65535; c.Discovery.PortRange = 2 }, "port_range"},
		{"bad selector", func(c *KubePingConfig) { c.Discovery.Labels = "=cache" }, "labels"},
		{"bad namespace", func(c *KubePingConfig) { c.Discovery.Namespace = "Prod_NS" }, "namespace"},
		{"bad strategy", func(c *KubePingConfig) { c.Kubernetes.Strategy = "magic" }, "strategy"},
		{"admin clashes with transport", func(c *KubePingConfig) { c.Admin.Port = c.Discovery.BindPort }, "admin.port"},
		{"sample rate", func(c *KubePingConfig) { c.Telemetry.SampleRate = 2 }, "sample_rate"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := loadWithEnv(t, nil)
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.IsConfiguration(err) {
				t.Errorf("expected configuration error, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.field) {
				t.Errorf("expected error mentioning %q, got %q", tc.field, err.Error())
			}
		})
	}
}

func TestKubePingConfig_EmptyNamespaceIsValid(t *testing.T) {
	cfg := loadWithEnv(t, nil)
	cfg.Discovery.Namespace = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("empty namespace disables clustering and must validate: %v", err)
	}
}

func TestKubePingConfig_StringMasksSecrets(t *testing.T) {
	cfg := loadWithEnv(t, map[string]string{"KUBERNETES_CLIENT_KEY_PASSWORD": "hunter2"})
	cfg.Admin.AuthToken = "admin-secret"

	s := cfg.String()
	if strings.Contains(s, "hunter2") || strings.Contains(s, "admin-secret") {
		t.Fatalf("secret leaked: %s", s)
	}
	if !strings.Contains(s, "key_password=#MASKED:7#") || !strings.Contains(s, "admin_token=#MASKED:12#") {
		t.Errorf("expected masked markers, got %s", s)
	}
	if !strings.Contains(s, `namespace="default"`) {
		t.Errorf("expected namespace in summary, got %s", s)
	}
}

func TestMillisDurationHook(t *testing.T) {
	hook := millisDurationHook()
	tests := []struct {
		in   interface{}
		want interface{}
	}{
		{"1500", 1500 * time.Millisecond},
		{" 20 ", 20 * time.Millisecond},
		{3000, 3 * time.Second},
		{float64(2.5), 2500 * time.Microsecond},
		{"5s", "5s"},
	}
	for _, tc := range tests {
		got, err := hook(reflect.TypeOf(tc.in), durationType, tc.in)
		if err != nil {
			t.Fatalf("hook(%v): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("hook(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}

	got, _ := hook(reflect.TypeOf(""), reflect.TypeOf(0), "42")
	if got != "42" {
		t.Errorf("non-duration targets must pass through, got %v", got)
	}
}

func TestGenerateEnvKeyVariants(t *testing.T) {
	variants := generateEnvKeyVariants("KUBERNETES_TLS_CA_FILE")
	for _, want := range []string{"kubernetes.tls_ca_file", "kubernetes.tls.ca_file", "kubernetes.tls.ca.file"} {
		found := false
		for _, v := range variants {
			if v == want {
				found = true
			}
		}
		if !found {
			t.Errorf("expected variant %q in %v", want, variants)
		}
	}
}

func TestServiceConfig(t *testing.T) {
	cfg := ServiceConfig{Name: "kubeping"}
	cfg.ApplyDefaults()
	if cfg.Environment != "development" || !cfg.Debug || cfg.Logging.Level != "debug" {
		t.Errorf("unexpected development defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cfg.Environment = "qa"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "config.environment") {
		t.Errorf("expected environment error, got %v", err)
	}
	if err := (&ServiceConfig{Environment: "production"}).Validate(); err == nil {
		t.Error("expected missing name error")
	}
}

func TestResolverWithMockFS(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./cmd/kubeping/config.yml": true,
		"./config/.env":             true,
	}}
	resolver := &Resolver{FileSystem: fs}
	files := resolver.ResolveFiles("kubeping", LoaderConfig{})
	if files.ConfigFile != "./cmd/kubeping/config.yml" {
		t.Errorf("unexpected config file %q", files.ConfigFile)
	}
	if files.EnvFile != "./config/.env" {
		t.Errorf("unexpected env file %q", files.EnvFile)
	}

	explicit := resolver.ResolveFiles("kubeping", LoaderConfig{ConfigFile: "/etc/x.yml"})
	if explicit.ConfigFile != "/etc/x.yml" {
		t.Errorf("explicit path must win, got %q", explicit.ConfigFile)
	}
}
