package ops

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/mythic/internal/config"
)

// Session resolves the effective session id: explicit value, configured
// default, or "default".
func Session(session string, cfg *config.Config) string {
	session = strings.TrimSpace(session)
	if session != "" {
		return session
	}
	if cfg != nil && cfg.DefaultSession != "" {
		return cfg.DefaultSession
	}
	return "default"
}

// newTurnID generates a new turn id.
func newTurnID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
