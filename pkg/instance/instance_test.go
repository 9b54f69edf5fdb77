package instance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDPrefersEnv(t *testing.T) {
	t.Setenv(envWorkerID, " cron-7 ")
	assert.Equal(t, "cron-7", ID())
}

func TestIDFallsBackToHostname(t *testing.T) {
	t.Setenv(envWorkerID, "")
	assert.NotEmpty(t, ID())
}
