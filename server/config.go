package server

import (
	"fmt"

	"github.com/kbukum/kubeping/validation"
)

// Config holds the admin HTTP server configuration.
type Config struct {
	Enabled      bool   `yaml:"enabled" mapstructure:"enabled" json:"enabled"`
	Host         string `yaml:"host" mapstructure:"host" json:"host"`
	Port         int    `yaml:"port" mapstructure:"port" json:"port" validate:"gte=0,lte=65535"`
	ReadTimeout  int    `yaml:"read_timeout" mapstructure:"read_timeout" json:"read_timeout"`    // seconds
	WriteTimeout int    `yaml:"write_timeout" mapstructure:"write_timeout" json:"write_timeout"` // seconds
	IdleTimeout  int    `yaml:"idle_timeout" mapstructure:"idle_timeout" json:"idle_timeout"`    // seconds

	// AuthToken, when set, is required as a Bearer token on every route
	// except the probes.
	AuthToken string `yaml:"auth_token" mapstructure:"auth_token" json:"-"`

	// PodsRateLimit caps GET /pods per client and minute, since each call
	// queries the orchestration API.
	PodsRateLimit int `yaml:"pods_rate_limit" mapstructure:"pods_rate_limit" json:"pods_rate_limit" validate:"gte=0"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8081
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 60
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60
	}
	if c.PodsRateLimit == 0 {
		c.PodsRateLimit = 30
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	return validation.New().
		Range("admin.port", c.Port, 0, 65535).
		Min("admin.read_timeout", c.ReadTimeout, 0).
		Min("admin.write_timeout", c.WriteTimeout, 0).
		Min("admin.idle_timeout", c.IdleTimeout, 0).
		Min("admin.pods_rate_limit", c.PodsRateLimit, 0).
		Validate()
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
