package discovery

import (
	"net"
	"net/netip"
	"strconv"
)

// PeerEndpoint is a host and port a discovery request is sent to.
type PeerEndpoint struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// NewPeerEndpoint returns an endpoint with its host in canonical form.
func NewPeerEndpoint(host string, port int) PeerEndpoint {
	return PeerEndpoint{Host: NormalizeHost(host), Port: port}
}

// String renders host:port, bracketing IPv6 hosts.
func (e PeerEndpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// Equal compares endpoints after host normalisation.
func (e PeerEndpoint) Equal(o PeerEndpoint) bool {
	return e.Port == o.Port && NormalizeHost(e.Host) == NormalizeHost(o.Host)
}

// IsZero reports whether the endpoint is unset.
func (e PeerEndpoint) IsZero() bool {
	return e.Host == "" && e.Port == 0
}

// NormalizeHost renders IP literals canonically ("::ffff:10.0.0.1" and
// "10.0.0.1" compare equal, IPv6 zero runs are compressed). Non-IP hosts are
// returned unchanged.
func NormalizeHost(host string) string {
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return host
	}
	return addr.Unmap().String()
}
