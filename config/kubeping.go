package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/kubeping/discovery"
	"github.com/kbukum/kubeping/errors"
	"github.com/kbukum/kubeping/kube"
	"github.com/kbukum/kubeping/observability"
	"github.com/kbukum/kubeping/security"
	"github.com/kbukum/kubeping/server"
	"github.com/kbukum/kubeping/validation"
)

// ServiceName names the agent binary and its config search paths.
const ServiceName = "kubeping"

// KubePingConfig is the complete configuration of the discovery agent.
type KubePingConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Kubernetes kube.Config          `yaml:"kubernetes" mapstructure:"kubernetes"`
	Discovery  discovery.Config     `yaml:"discovery" mapstructure:"discovery"`
	Admin      server.Config        `yaml:"admin" mapstructure:"admin"`
	Telemetry  observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
}

// Defaults returns the default values keyed by config path.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"name":           ServiceName,
		"environment":    "production",
		"logging.level":  "info",
		"logging.format": "json",

		"discovery.namespace":            "default",
		"discovery.bind_port":            7800,
		"discovery.port_range":           1,
		"discovery.interval":             30 * time.Second,
		"discovery.dispatch_concurrency": 1,

		"kubernetes.strategy":           kube.StrategyAuto,
		"kubernetes.master_protocol":    "https",
		"kubernetes.api_version":        "v1",
		"kubernetes.connect_timeout":    5 * time.Second,
		"kubernetes.read_timeout":       30 * time.Second,
		"kubernetes.operation_attempts": 3,
		"kubernetes.operation_sleep":    time.Second,
		"kubernetes.token_file":         security.DefaultTokenFile,
		"kubernetes.tls.ca_file":        security.DefaultCAFile,
		"kubernetes.tls.key_algorithm":  security.KeyAlgorithmRSA,

		"admin.enabled": true,
		"admin.port":    8081,

		"telemetry.enabled":     false,
		"telemetry.sample_rate": 1.0,
	}
}

// LoadKubePingConfig loads the agent configuration from defaults, the
// config file, the .env file and the environment, in increasing priority.
// The result has defaults applied but is not validated.
func LoadKubePingConfig(opts ...LoaderOption) (*KubePingConfig, error) {
	cfg := &KubePingConfig{}
	base := []LoaderOption{
		WithDefaults(Defaults()),
		WithEnvBindings(EnvBindings),
	}
	if err := LoadConfig(ServiceName, cfg, append(base, opts...)...); err != nil {
		return nil, errors.Configuration("config", err.Error()).WithCause(err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills zero values that survived loading.
func (c *KubePingConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Kubernetes.ApplyDefaults()
	c.Discovery.ApplyDefaults()
	c.Admin.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
}

// Validate checks struct tags, then the cross-field rules of each section.
func (c *KubePingConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c); err != nil {
		return err
	}

	v := validation.New()
	v.Err("discovery", c.Discovery.Validate())
	v.Err("kubernetes", c.Kubernetes.Validate())
	v.Err("admin", c.Admin.Validate())
	v.Custom(!c.Admin.Enabled || c.Admin.Port != c.Discovery.BindPort,
		"admin.port", "must differ from discovery.bind_port")
	return v.Validate()
}

// String renders the effective settings with secrets masked.
func (c *KubePingConfig) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "name=%s environment=%s", c.Name, c.Environment)
	fmt.Fprintf(&b, " namespace=%q labels=%q", c.Discovery.Namespace, c.Discovery.Labels)
	fmt.Fprintf(&b, " bind=%s:%d port_range=%d", c.Discovery.BindHost, c.Discovery.BindPort, c.Discovery.PortRange)
	fmt.Fprintf(&b, " use_not_ready_addresses=%t split_clusters_during_rolling_update=%t",
		c.Discovery.UseNotReadyAddresses, c.Discovery.SplitClustersDuringRollingUpdate)
	fmt.Fprintf(&b, " strategy=%s master=%s", c.Kubernetes.Strategy, c.Kubernetes.BaseURL())
	fmt.Fprintf(&b, " connect_timeout=%s read_timeout=%s operation_attempts=%d operation_sleep=%s",
		c.Kubernetes.ConnectTimeout, c.Kubernetes.ReadTimeout, c.Kubernetes.OperationAttempts, c.Kubernetes.OperationSleep)
	fmt.Fprintf(&b, " client_cert=%q client_key=%q key_algorithm=%s ca=%q",
		c.Kubernetes.TLS.CertFile, c.Kubernetes.TLS.KeyFile, c.Kubernetes.TLS.KeyAlgorithm, c.Kubernetes.TLS.CAFile)
	if c.Kubernetes.TLS.KeyPassword != "" {
		fmt.Fprintf(&b, " key_password=%s", security.Mask(c.Kubernetes.TLS.KeyPassword))
	}
	if c.Admin.Enabled {
		fmt.Fprintf(&b, " admin=%s", c.Admin.Addr())
		if c.Admin.AuthToken != "" {
			fmt.Fprintf(&b, " admin_token=%s", security.Mask(c.Admin.AuthToken))
		}
	}
	return b.String()
}
