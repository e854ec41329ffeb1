package instance

import (
	"os"

	"github.com/angelmondragon/netstore-backend/pkg/env"
)

// GetID identifies the running process in logs and lock ownership:
// NETSTORE_INSTANCE_ID, then the hostname, then "local".
func GetID() string {
	fallback := "local"
	if host, err := os.Hostname(); err == nil && host != "" {
		fallback = host
	}
	return env.First(fallback, "NETSTORE_INSTANCE_ID")
}
