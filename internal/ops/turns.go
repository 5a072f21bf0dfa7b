package ops

import (
	"database/sql"

	"github.com/hpungsan/mythic/internal/config"
	"github.com/hpungsan/mythic/internal/db"
)

// TurnListInput contains parameters for the TurnList operation.
type TurnListInput struct {
	Session string
	Limit   int
}

// TurnListOutput contains the result of the TurnList operation.
type TurnListOutput struct {
	Session string     `json:"session"`
	Turns   []*db.Turn `json:"turns"`
}

// TurnList returns the session's turn audit trail, newest first.
func TurnList(database *sql.DB, cfg *config.Config, input TurnListInput) (*TurnListOutput, error) {
	session := Session(input.Session, cfg)

	turns, err := db.ListTurns(database, session, input.Limit)
	if err != nil {
		return nil, err
	}
	return &TurnListOutput{Session: session, Turns: turns}, nil
}
