package pkg

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateGameID returns a short id that is easy to share in a url.
func GenerateGameID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// GenerateNewSessionID returns an opaque session id for a browser.
func GenerateNewSessionID() string {
	return uuid.NewString()
}
