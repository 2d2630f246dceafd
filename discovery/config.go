package discovery

import (
	"time"

	"github.com/kbukum/kubeping/validation"
)

// Config holds the discovery settings of the local member.
type Config struct {
	// Namespace to query. Empty disables clustering.
	Namespace string `mapstructure:"namespace" json:"namespace" validate:"k8s_namespace"`

	// Labels is the label selector, e.g. "app=cache,tier=backend".
	Labels string `mapstructure:"labels" json:"labels" validate:"k8s_selector"`

	// BindHost is the address of the local transport. Empty resolves the
	// outbound interface address at start.
	BindHost string `mapstructure:"bind_host" json:"bind_host"`

	// BindPort is the port of the local transport; peers are expected on
	// BindPort..BindPort+PortRange.
	BindPort  int `mapstructure:"bind_port" json:"bind_port" validate:"min=1,max=65535"`
	PortRange int `mapstructure:"port_range" json:"port_range" validate:"gte=0"`

	// UseNotReadyAddresses admits pods that are not ready.
	UseNotReadyAddresses bool `mapstructure:"use_not_ready_addresses" json:"use_not_ready_addresses"`

	// SplitClustersDuringRollingUpdate only contacts pods of the local
	// rolling-update group.
	SplitClustersDuringRollingUpdate bool `mapstructure:"split_clusters_during_rolling_update" json:"split_clusters_during_rolling_update"`

	// PodName is the name of the local pod, used to find its group.
	PodName string `mapstructure:"pod_name" json:"pod_name"`

	// Interval between rounds. Zero runs a single round at start.
	Interval time.Duration `mapstructure:"interval" json:"interval"`

	// DispatchConcurrency above 1 sends discovery requests in parallel.
	DispatchConcurrency int `mapstructure:"dispatch_concurrency" json:"dispatch_concurrency" validate:"gte=0"`
}

// DefaultConfig returns the defaults of the discovery settings.
func DefaultConfig() Config {
	return Config{
		Namespace:           "default",
		PortRange:           1,
		Interval:            30 * time.Second,
		DispatchConcurrency: 1,
	}
}

// ApplyDefaults fills zero-valued fields that have no meaningful zero.
// PortRange 0 and an empty Namespace are valid and kept.
func (c *Config) ApplyDefaults() {
	if c.DispatchConcurrency <= 0 {
		c.DispatchConcurrency = 1
	}
}

// Validate checks the settings. All failures are configuration errors.
func (c *Config) Validate() error {
	return validation.New().
		Range("bind_port", c.BindPort, 1, maxPort).
		Min("port_range", c.PortRange, 0).
		Custom(c.BindPort+c.PortRange <= maxPort, "port_range", "bind_port + port_range exceeds 65535").
		Min("dispatch_concurrency", c.DispatchConcurrency, 0).
		Custom(c.Interval >= 0, "interval", "must not be negative").
		Validate()
}

// ClusteringEnabled reports whether a namespace is configured.
func (c *Config) ClusteringEnabled() bool {
	return c.Namespace != ""
}

// Policy derives the resolver policy.
func (c *Config) Policy() Policy {
	return Policy{
		IncludeNotReady: c.UseNotReadyAddresses,
		SplitByGroup:    c.SplitClustersDuringRollingUpdate,
		SelfPodName:     c.PodName,
	}
}
