package engine

import (
	"net/netip"
	"strings"
)

// Validate trims raw and returns it as a lookup key when it is a syntactically
// valid IPv4 or IPv6 address. No resolution or reachability check is made.
func Validate(raw string) (key string, addr netip.Addr, ok bool) {
	key = strings.TrimSpace(raw)
	if key == "" {
		return "", netip.Addr{}, false
	}
	addr, err := netip.ParseAddr(key)
	if err != nil {
		return "", netip.Addr{}, false
	}
	return key, addr, true
}
