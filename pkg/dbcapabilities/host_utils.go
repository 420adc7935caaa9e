package dbcapabilities

import (
	"net"
	"strings"
)

// NormalizeHost converts localhost variants to a canonical form.
// "localhost" and every loopback IP become "localhost"; other hosts are
// lowercased. No DNS resolution is performed.
func NormalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")

	if host == "localhost" {
		return host
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return "localhost"
	}
	return host
}

// IsLocalhostVariant checks if the given host is a localhost variant.
// This includes "localhost", "127.x.x.x", and "::1".
func IsLocalhostVariant(host string) bool {
	return NormalizeHost(host) == "localhost"
}
