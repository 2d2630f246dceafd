// Package config loads the kubeping agent configuration.
//
// Values come from four layers in increasing priority: built-in defaults,
// a config.yml file, a .env file and the process environment. The file is
// searched in ./cmd/kubeping, ./config, the working directory and
// /etc/kubeping unless WithConfigFile names it.
//
// Well-known variables such as KUBERNETES_NAMESPACE, KUBERNETES_LABELS and
// KUBEPING_PORT_RANGE map onto their settings through EnvBindings; other
// variables under a section prefix (DISCOVERY_, KUBERNETES_, ADMIN_,
// TELEMETRY_, LOGGING_) bind automatically. Bare numbers given for a
// duration are read as milliseconds.
//
//	cfg, err := config.LoadKubePingConfig()
//	if err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
package config
