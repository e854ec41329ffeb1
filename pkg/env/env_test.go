package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstPrefersEarlierKeys(t *testing.T) {
	t.Setenv("NETSTORE_LOG_FORMAT", "console")
	t.Setenv("LOG_FORMAT", "json")
	assert.Equal(t, "console", First("json", "NETSTORE_LOG_FORMAT", "LOG_FORMAT"))
}

func TestFirstSkipsBlankValues(t *testing.T) {
	t.Setenv("NETSTORE_LOG_FORMAT", "  ")
	t.Setenv("LOG_FORMAT", "console")
	assert.Equal(t, "console", First("json", "NETSTORE_LOG_FORMAT", "LOG_FORMAT"))
}

func TestFirstFallsBack(t *testing.T) {
	t.Setenv("NETSTORE_INSTANCE_ID", "")
	assert.Equal(t, "local", First("local", "NETSTORE_INSTANCE_ID"))
}
