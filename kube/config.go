package kube

import (
	"io"
	"time"

	"github.com/kbukum/kubeping/security"
	"github.com/kbukum/kubeping/validation"
)

// Query strategies.
const (
	StrategyAuto   = "auto"
	StrategyClient = "client"
	StrategyRaw    = "raw"
)

// Config describes how to reach the orchestration API.
type Config struct {
	// Strategy selects the querier: auto, client or raw.
	Strategy string `mapstructure:"strategy" json:"strategy" validate:"omitempty,oneof=auto client raw"`

	// Kubeconfig is an explicit kubeconfig path for the client strategy.
	// Empty tries in-cluster config, then the default loading rules.
	Kubeconfig string `mapstructure:"kubeconfig" json:"kubeconfig"`
	// Context overrides the kubeconfig current context.
	Context string `mapstructure:"context" json:"context"`

	// Protocol, Host and Port locate the API server for the raw strategy.
	Protocol   string `mapstructure:"master_protocol" json:"master_protocol" validate:"omitempty,oneof=http https"`
	Host       string `mapstructure:"master_host" json:"master_host"`
	Port       int    `mapstructure:"master_port" json:"master_port" validate:"gte=0,lte=65535"`
	APIVersion string `mapstructure:"api_version" json:"api_version"`

	// TokenFile holds the bearer token sent with raw requests.
	TokenFile string `mapstructure:"token_file" json:"token_file"`

	TLS security.TLSConfig `mapstructure:"tls" json:"tls"`

	ConnectTimeout    time.Duration `mapstructure:"connect_timeout" json:"connect_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout" json:"read_timeout"`
	OperationAttempts int           `mapstructure:"operation_attempts" json:"operation_attempts" validate:"gte=0"`
	OperationSleep    time.Duration `mapstructure:"operation_sleep" json:"operation_sleep"`

	// DumpRequests writes every request URL and raw response to DumpOut.
	DumpRequests bool      `mapstructure:"dump_requests" json:"dump_requests"`
	DumpOut      io.Writer `mapstructure:"-" json:"-"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Strategy == "" {
		c.Strategy = StrategyAuto
	}
	if c.Protocol == "" {
		c.Protocol = "https"
	}
	if c.APIVersion == "" {
		c.APIVersion = "v1"
	}
	if c.TokenFile == "" {
		c.TokenFile = security.DefaultTokenFile
	}
	if c.TLS.CAFile == "" {
		c.TLS.CAFile = security.DefaultCAFile
	}
	if c.TLS.KeyAlgorithm == "" {
		c.TLS.KeyAlgorithm = security.KeyAlgorithmRSA
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 5 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.OperationAttempts <= 0 {
		c.OperationAttempts = 3
	}
	if c.OperationSleep < 0 {
		c.OperationSleep = 0
	}
}

// Validate checks the API access configuration.
func (c *Config) Validate() error {
	v := validation.New().
		Required("strategy", c.Strategy).
		OneOf("strategy", c.Strategy, []string{StrategyAuto, StrategyClient, StrategyRaw}).
		Required("master_protocol", c.Protocol).
		OneOf("master_protocol", c.Protocol, []string{"http", "https"}).
		Range("master_port", c.Port, 0, 65535).
		Err("tls", c.TLS.Validate())
	if c.Strategy == StrategyRaw {
		v.Required("master_host", c.Host)
	}
	return v.Validate()
}

// BaseURL returns the API root for the raw strategy.
func (c *Config) BaseURL() string {
	return BaseURL(c.Protocol, c.Host, c.Port, c.APIVersion)
}

// FetcherConfig derives the fetch policy from the configuration.
func (c *Config) FetcherConfig() FetcherConfig {
	return FetcherConfig{
		ConnectTimeout: c.ConnectTimeout,
		ReadTimeout:    c.ReadTimeout,
		MaxAttempts:    c.OperationAttempts,
		Sleep:          c.OperationSleep,
		Dump:           c.DumpRequests,
		DumpOut:        c.DumpOut,
	}
}
