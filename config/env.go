package config

import "fmt"

// EnvBindings maps config keys onto the environment variables of a
// Kubernetes deployment. When several variables are listed the first one
// that is set wins.
var EnvBindings = map[string][]string{
	"discovery.namespace":                            {"KUBERNETES_NAMESPACE", "OPENSHIFT_KUBE_PING_NAMESPACE"},
	"discovery.labels":                               {"KUBERNETES_LABELS", "OPENSHIFT_KUBE_PING_LABELS"},
	"discovery.split_clusters_during_rolling_update": {"KUBERNETES_SPLIT_CLUSTERS_DURING_ROLLING_UPDATE"},
	"discovery.use_not_ready_addresses":              {"KUBERNETES_USE_NOT_READY_ADDRESSES"},
	"discovery.pod_name":                             {"POD_NAME", "HOSTNAME"},
	"discovery.bind_host":                            {"KUBEPING_BIND_HOST", "POD_IP"},
	"discovery.bind_port":                            {"KUBEPING_BIND_PORT"},
	"discovery.port_range":                           {"KUBEPING_PORT_RANGE"},

	"kubernetes.master_protocol":    {"KUBERNETES_MASTER_PROTOCOL"},
	"kubernetes.master_host":        {"KUBERNETES_SERVICE_HOST"},
	"kubernetes.master_port":        {"KUBERNETES_SERVICE_PORT"},
	"kubernetes.api_version":        {"KUBERNETES_API_VERSION"},
	"kubernetes.connect_timeout":    {"KUBERNETES_CONNECT_TIMEOUT"},
	"kubernetes.read_timeout":       {"KUBERNETES_READ_TIMEOUT"},
	"kubernetes.operation_attempts": {"KUBERNETES_OPERATION_ATTEMPTS"},
	"kubernetes.operation_sleep":    {"KUBERNETES_OPERATION_SLEEP"},
	"kubernetes.tls.cert_file":      {"KUBERNETES_CLIENT_CERTIFICATE_FILE"},
	"kubernetes.tls.key_file":       {"KUBERNETES_CLIENT_KEY_FILE"},
	"kubernetes.tls.key_password":   {"KUBERNETES_CLIENT_KEY_PASSWORD"},
	"kubernetes.tls.key_algorithm":  {"KUBERNETES_CLIENT_KEY_ALGO"},
	"kubernetes.tls.ca_file":        {"KUBERNETES_CA_CERTIFICATE_FILE"},
	"kubernetes.token_file":         {"SA_TOKEN_FILE"},
	"kubernetes.dump_requests":      {"KUBERNETES_DUMP_REQUESTS"},
	"kubernetes.strategy":           {"KUBEPING_QUERY_STRATEGY"},
	"kubernetes.kubeconfig":         {"KUBECONFIG"},
}

// deprecatedEnv pairs a current variable with the one it replaces.
type deprecatedEnv struct {
	current    string
	deprecated string
}

var deprecatedEnvVars = []deprecatedEnv{
	{current: "KUBERNETES_NAMESPACE", deprecated: "OPENSHIFT_KUBE_PING_NAMESPACE"},
	{current: "KUBERNETES_LABELS", deprecated: "OPENSHIFT_KUBE_PING_LABELS"},
}

// DeprecationWarnings reports deprecated variables found through lookup.
func DeprecationWarnings(lookup func(string) (string, bool)) []string {
	var warnings []string
	for _, d := range deprecatedEnvVars {
		_, hasCurrent := lookup(d.current)
		_, hasDeprecated := lookup(d.deprecated)
		switch {
		case hasCurrent && hasDeprecated:
			warnings = append(warnings, fmt.Sprintf("Both %s and %s are defined, %s is deprecated so please remove it",
				d.current, d.deprecated, d.deprecated))
		case hasDeprecated:
			warnings = append(warnings, fmt.Sprintf("%s is deprecated, please remove it and use %s instead",
				d.deprecated, d.current))
		}
	}
	return warnings
}
