package ops

import (
	"database/sql"

	"github.com/hpungsan/mythic/internal/config"
	"github.com/hpungsan/mythic/internal/db"
)

// SessionListOutput contains the result of the SessionList operation.
type SessionListOutput struct {
	Sessions []db.SessionInfo `json:"sessions"`
}

// SessionList returns every session with persisted state.
func SessionList(database *sql.DB) (*SessionListOutput, error) {
	sessions, err := db.ListSessions(database)
	if err != nil {
		return nil, err
	}
	return &SessionListOutput{Sessions: sessions}, nil
}

// SessionDeleteInput contains parameters for the SessionDelete operation.
type SessionDeleteInput struct {
	Session string
}

// SessionDeleteOutput contains the result of the SessionDelete operation.
type SessionDeleteOutput struct {
	Session string `json:"session"`
	Deleted bool   `json:"deleted"`
}

// SessionDelete removes a session and everything persisted under it:
// database state, turn history, and generated lorebook entries.
func SessionDelete(database *sql.DB, cfg *config.Config, input SessionDeleteInput) (*SessionDeleteOutput, error) {
	session := Session(input.Session, cfg)

	if err := db.DeleteSession(database, session); err != nil {
		return nil, err
	}
	return &SessionDeleteOutput{Session: session, Deleted: true}, nil
}
