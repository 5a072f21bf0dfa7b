package ops

import (
	"database/sql"
	"time"

	"github.com/hpungsan/mythic/internal/config"
	"github.com/hpungsan/mythic/internal/db"
	"github.com/hpungsan/mythic/internal/snapshot"
)

// TurnBeginInput contains parameters for the TurnBegin operation.
type TurnBeginInput struct {
	Session string
}

// TurnBeginOutput contains the result of the TurnBegin operation.
type TurnBeginOutput struct {
	Session     string            `json:"session"`
	TurnID      string            `json:"turn_id"`
	Snapshot    snapshot.Snapshot `json:"snapshot"`
	PromptBlock string            `json:"prompt_block,omitempty"`
}

// TurnBegin opens a generation turn: it captures the snapshot of row
// identities the AI is about to see, persists it with the turn record,
// and renders the prompt block for export-enabled tables.
//
// Capture must happen before the AI call, and the later apply must use
// this persisted snapshot, never a recomputed one — otherwise positional
// references resolve against rows the AI never saw.
func TurnBegin(database *sql.DB, cfg *config.Config, input TurnBeginInput) (*TurnBeginOutput, error) {
	session := Session(input.Session, cfg)

	data, err := db.LoadDatabase(database, session)
	if err != nil {
		return nil, err
	}

	snap := snapshot.Capture(data)
	turn := &db.Turn{
		ID:        newTurnID(),
		SessionID: session,
		Snapshot:  snap,
		Status:    db.TurnOpen,
		CreatedAt: time.Now().Unix(),
	}
	if err := db.InsertTurn(database, turn); err != nil {
		return nil, err
	}

	limit := config.DefaultPromptRowLimit
	if cfg != nil && cfg.PromptRowLimit > 0 {
		limit = cfg.PromptRowLimit
	}

	return &TurnBeginOutput{
		Session:     session,
		TurnID:      turn.ID,
		Snapshot:    snap,
		PromptBlock: RenderPromptBlock(data, limit),
	}, nil
}
