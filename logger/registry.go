package logger

import "sync"

// Loggers of the agent's components. The components tag their own lines
// with FieldComponent; the registry only carries their level.
const (
	ComponentDiscovery = "discovery"
	ComponentAdmin     = "admin"
	ComponentTelemetry = "telemetry"
)

var agentComponents = []string{ComponentDiscovery, ComponentAdmin, ComponentTelemetry}

var (
	registryMu sync.RWMutex
	registry   = map[string]*Logger{}
)

// SeedComponents derives one logger per agent component from base, applying
// the level override configured for it, and replaces whatever was
// registered before.
func SeedComponents(base *Logger, levels map[string]string) {
	if base == nil {
		base = GetGlobalLogger()
	}
	seeded := make(map[string]*Logger, len(agentComponents))
	for _, name := range agentComponents {
		seeded[name] = base.WithLevel(levels[name])
	}
	registryMu.Lock()
	registry = seeded
	registryMu.Unlock()
}

// Register overrides the logger of one component.
func Register(name string, l *Logger) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = l
}

// Get returns the logger of a component, or the global logger when the
// registry has not been seeded.
func Get(name string) *Logger {
	registryMu.RLock()
	l, ok := registry[name]
	registryMu.RUnlock()
	if ok {
		return l
	}
	return GetGlobalLogger()
}
