package env

import (
	"os"
	"strings"
)

// First returns the first non-blank value among keys, or fallback. Keys are
// tried in order so a NETSTORE_ name can shadow a generic one.
func First(fallback string, keys ...string) string {
	for _, key := range keys {
		if val := strings.TrimSpace(os.Getenv(key)); val != "" {
			return val
		}
	}
	return fallback
}
