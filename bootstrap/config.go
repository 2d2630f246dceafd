package bootstrap

import (
	"github.com/kbukum/kubeping/config"
)

// Config is the constraint for application configuration types. Any struct
// that embeds config.ServiceConfig satisfies GetServiceConfig through the
// promoted method.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
