package instance

import (
	"os"
	"strings"
)

const (
	envWorkerID = "PACKFINDERZ_WORKER_ID"
	fallbackID  = "worker-0"
)

// ID names this process in lock values and logs. PACKFINDERZ_WORKER_ID wins,
// then the hostname.
func ID() string {
	if id := strings.TrimSpace(os.Getenv(envWorkerID)); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
