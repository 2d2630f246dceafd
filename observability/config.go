package observability

import "time"

// Config holds the telemetry settings of the agent.
type Config struct {
	// Enabled turns on OTLP export of round metrics and traces.
	Enabled bool `mapstructure:"enabled" json:"enabled"`
	// Endpoint is the OTLP HTTP collector host:port.
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`
	// Insecure disables TLS towards the collector.
	Insecure bool `mapstructure:"insecure" json:"insecure"`
	// MetricsInterval is the metric export interval.
	MetricsInterval time.Duration `mapstructure:"metrics_interval" json:"metrics_interval"`
	// SampleRate is the trace sampling ratio between 0 and 1.
	SampleRate float64 `mapstructure:"sample_rate" json:"sample_rate" validate:"gte=0,lte=1"`
}

// ApplyDefaults fills in unset fields.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.MetricsInterval <= 0 {
		c.MetricsInterval = 15 * time.Second
	}
}

// MeterConfig derives the meter provider settings.
func (c Config) MeterConfig(service, version, environment string) MeterConfig {
	return MeterConfig{
		ServiceName:    service,
		ServiceVersion: version,
		Environment:    environment,
		Endpoint:       c.Endpoint,
		Insecure:       c.Insecure,
		Interval:       c.MetricsInterval,
	}
}

// TracerConfig derives the tracer provider settings.
func (c Config) TracerConfig(service, version, environment string) TracerConfig {
	return TracerConfig{
		ServiceName:    service,
		ServiceVersion: version,
		Environment:    environment,
		Endpoint:       c.Endpoint,
		Insecure:       c.Insecure,
		SampleRate:     c.SampleRate,
	}
}
