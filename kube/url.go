package kube

import (
	"net"
	"net/url"
	"strconv"
	"strings"
)

// BaseURL builds "<protocol>://<host>:<port>/api/<version>". A zero port is omitted.
func BaseURL(protocol, host string, port int, apiVersion string) string {
	hostPort := host
	if port > 0 {
		hostPort = net.JoinHostPort(host, strconv.Itoa(port))
	} else if strings.Contains(host, ":") && !strings.HasPrefix(host, "[") {
		hostPort = "[" + host + "]"
	}
	return protocol + "://" + hostPort + "/api/" + apiVersion
}

// PodsURL builds the pods listing URL under base. An empty namespace lists
// across all namespaces; an empty selector adds no query.
func PodsURL(base, namespace, selector string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSuffix(base, "/"))
	if namespace != "" {
		b.WriteString("/namespaces/")
		b.WriteString(url.PathEscape(namespace))
	}
	b.WriteString("/pods")
	if selector != "" {
		b.WriteString("?labelSelector=")
		b.WriteString(url.QueryEscape(selector))
	}
	return b.String()
}
