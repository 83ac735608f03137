package storesource

import (
	"net"
	"strings"
)

// DefaultSuburl is served for local hosts and bare domains.
const DefaultSuburl = "1place"

// SuburlFromHost extracts the career-page subdomain from a Host header value,
// e.g. "gs25.oneplace.hr" -> "gs25".
func SuburlFromHost(host, def string) string {
	if def == "" {
		def = DefaultSuburl
	}
	h := strings.ToLower(strings.TrimSpace(host))
	if hh, _, err := net.SplitHostPort(h); err == nil {
		h = hh
	}
	h = strings.TrimSuffix(h, ".")
	if h == "" || h == "localhost" || net.ParseIP(strings.Trim(h, "[]")) != nil {
		return def
	}
	parts := strings.Split(h, ".")
	if len(parts) >= 3 && parts[0] != "" && parts[0] != "www" {
		return parts[0]
	}
	return def
}
