// Package instance names the running replica for lock ownership and logs.
package instance

import (
	"os"

	"github.com/medimitra/medimitra-backend/pkg/env"
)

const EnvInstanceID = "MEDIMITRA_INSTANCE_ID"

// GetID returns MEDIMITRA_INSTANCE_ID, then the hostname, then fallback.
func GetID(fallback string) string {
	if id := env.Get(EnvInstanceID, ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallback
}
