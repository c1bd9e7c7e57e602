package restriction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSteamIDNormalizer(t *testing.T) {
	n := SteamIDNormalizer{}

	for _, raw := range []string{"STEAM_0:1:4", "[U:1:9]", "76561197960265737"} {
		key, err := n.Normalize(raw)
		require.NoError(t, err)
		assert.Equal(t, "76561197960265737", key)
	}

	_, err := n.Normalize("garbage")
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestIPAddressNormalizer(t *testing.T) {
	n := IPAddressNormalizer{}

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"ipv4 with port", "192.0.2.10:27015", "192.0.2.10"},
		{"bare ipv4", "192.0.2.10", "192.0.2.10"},
		{"bracketed ipv6 with port", "[2001:db8::1]:27015", "2001:db8::1"},
		{"bare ipv6", "2001:db8::1", "2001:db8::1"},
		{"ipv6 loopback", "::1", "::1"},
		{"whitespace", "  192.0.2.10:27015 ", "192.0.2.10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Normalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIPAddressNormalizerInvalid(t *testing.T) {
	n := IPAddressNormalizer{}

	for _, raw := range []string{"", "not-an-ip", "example.com:27015", "999.0.0.1"} {
		_, err := n.Normalize(raw)
		assert.ErrorIs(t, err, ErrInvalidIdentifier, "raw=%q", raw)
	}
}
