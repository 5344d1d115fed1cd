package config

import (
	"net"
	"strings"
)

// loopbackHosts are compiled in and survive every override.
var loopbackHosts = []string{"127.0.0.1", "localhost"}

// Hosts is the allow-list of Host header values the server answers for.
//
// A pattern with a leading dot matches the domain itself and any subdomain
// (".render.com" matches "render.com" and "shop.render.com").  A lone "*"
// matches everything.  Comparison is case-insensitive and ignores a port
// and a trailing dot.
type Hosts struct{ patterns []string }

// NewHosts builds an allow-list from the loopback entries plus extra,
// dropping duplicates and blanks.
func NewHosts(extra ...string) Hosts {
	seen := make(map[string]bool)
	out := make([]string, 0, len(loopbackHosts)+len(extra))
	for _, h := range append(append([]string(nil), loopbackHosts...), extra...) {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	return Hosts{patterns: out}
}

// List returns a copy of the patterns in order.
func (h Hosts) List() []string { return append([]string(nil), h.patterns...) }

// Allows reports whether host (optionally with :port) is permitted.
func (h Hosts) Allows(host string) bool {
	host = normalizeHost(host)
	if host == "" {
		return false
	}
	for _, p := range h.patterns {
		if matchHost(p, host) {
			return true
		}
	}
	return false
}

func matchHost(pattern, host string) bool {
	switch {
	case pattern == "*":
		return true
	case strings.HasPrefix(pattern, "."):
		return host == pattern[1:] || strings.HasSuffix(host, pattern)
	default:
		return host == pattern
	}
}

func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimPrefix(strings.TrimSuffix(host, "]"), "[")
	return strings.TrimSuffix(host, ".")
}
