package config

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultInstallationKey is the map key used for an installation ID
// given without an organization qualifier.
const DefaultInstallationKey = "default"

// ParseInstallationIDs parses the --installation-id flag value.
//
// Accepted forms:
//
//	"12345"                  -> {"default": 12345}
//	"myorg:67890"            -> {"myorg": 67890}
//	"org1:111,222,org3:333"  -> {"org1": 111, "default": 222, "org3": 333}
func ParseInstallationIDs(s string) (map[string]int64, error) {
	ids := make(map[string]int64)

	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		org := DefaultInstallationKey
		raw := pair
		if i := strings.Index(pair, ":"); i >= 0 {
			org = strings.TrimSpace(pair[:i])
			raw = strings.TrimSpace(pair[i+1:])
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid installation ID %q: %w", raw, err)
		}
		ids[org] = id
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("no installation IDs in %q", s)
	}
	return ids, nil
}
