package restriction

import (
	"fmt"
	"net"
	"strings"

	"srcds-admin/internal/steamid"
)

// Normalizer converts a user-supplied identifier into the canonical key
// used for cache lookups and storage. Each restriction kind picks one.
type Normalizer interface {
	Normalize(raw string) (string, error)
}

// SteamIDNormalizer canonicalizes any accepted SteamID rendition to the
// 64-bit decimal string, so divergent textual encodings of one account
// always collide.
type SteamIDNormalizer struct{}

func (SteamIDNormalizer) Normalize(raw string) (string, error) {
	key, err := steamid.ParseString(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidIdentifier, err)
	}
	return key, nil
}

// IPAddressNormalizer strips the port from a host:port address and
// canonicalizes the bare IP. SplitHostPort handles bracketed IPv6;
// a bare IPv6 literal fails the split and is taken as-is.
type IPAddressNormalizer struct{}

func (IPAddressNormalizer) Normalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	host := s
	if h, _, err := net.SplitHostPort(s); err == nil {
		host = h
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return "", fmt.Errorf("%w: %q is not an IP address", ErrInvalidIdentifier, raw)
	}
	return ip.String(), nil
}
