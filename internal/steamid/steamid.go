// Package steamid converts the textual SteamID renditions game servers
// hand around (STEAM_X:Y:Z, [U:1:N], plain 64-bit) into the canonical
// 64-bit decimal form used as a storage key.
package steamid

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// steamID64Base is the SteamID64 of account 0 in the public individual
// universe; every individual account id is an offset from it.
const steamID64Base uint64 = 76561197960265728

var (
	steam2Pattern = regexp.MustCompile(`^STEAM_[0-5]:([01]):(\d+)$`)
	steam3Pattern = regexp.MustCompile(`^\[?U:1:(\d+)\]?$`)
)

// Parse accepts a SteamID in SteamID2, SteamID3 or plain 64-bit decimal
// form and returns the SteamID64 value.
func Parse(raw string) (uint64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("empty steamid")
	}

	if m := steam2Pattern.FindStringSubmatch(s); m != nil {
		y, _ := strconv.ParseUint(m[1], 10, 64)
		z, err := strconv.ParseUint(m[2], 10, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid steamid %q: %w", raw, err)
		}
		return steamID64Base + z*2 + y, nil
	}

	if m := steam3Pattern.FindStringSubmatch(s); m != nil {
		account, err := strconv.ParseUint(m[1], 10, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid steamid %q: %w", raw, err)
		}
		return steamID64Base + account, nil
	}

	if id64, err := strconv.ParseUint(s, 10, 64); err == nil {
		if id64 < steamID64Base {
			return 0, fmt.Errorf("invalid steamid %q: below individual account range", raw)
		}
		return id64, nil
	}

	return 0, fmt.Errorf("unrecognized steamid format: %q", raw)
}

// ParseString is Parse rendered to the decimal string stored in the
// database and used as the cache key.
func ParseString(raw string) (string, error) {
	id64, err := Parse(raw)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(id64, 10), nil
}
