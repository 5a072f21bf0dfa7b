package ops

import (
	"database/sql"

	"github.com/hpungsan/mythic/internal/action"
	"github.com/hpungsan/mythic/internal/config"
	"github.com/hpungsan/mythic/internal/db"
	"github.com/hpungsan/mythic/internal/errors"
)

// ActionsApplyInput contains parameters for the ActionsApply operation.
// Exactly one of Raw/Actions carries the batch: Raw is free-form model
// output to parse, Actions is an already-structured batch.
type ActionsApplyInput struct {
	Session string
	TurnID  string // optional; defaults to the session's latest open turn
	Raw     string
	Actions []action.Action
}

// ActionsApplyOutput contains the result of the ActionsApply operation.
type ActionsApplyOutput struct {
	Session       string            `json:"session"`
	TurnID        string            `json:"turn_id"`
	Applied       int               `json:"applied"`
	Skipped       int               `json:"skipped"`
	Truncated     int               `json:"truncated,omitempty"`
	Notifications []string          `json:"notifications"`
	Logs          []action.LogEntry `json:"logs"`
}

// ActionsApply applies one AI action batch against the snapshot captured
// when the turn was begun. The batch is best-effort: individual bad
// actions are skipped and logged, and the database persists whatever
// applied. The input database in SQLite is replaced only after the full
// batch ran, so a mid-apply crash leaves the previous state intact.
func ActionsApply(database *sql.DB, cfg *config.Config, input ActionsApplyInput) (*ActionsApplyOutput, error) {
	session := Session(input.Session, cfg)

	if input.Raw != "" && input.Actions != nil {
		return nil, errors.NewInvalidRequest("provide either raw or actions, not both")
	}

	actions := input.Actions
	if input.Raw != "" {
		parsed, err := action.Parse(input.Raw)
		if err != nil {
			return nil, errors.NewParse(err.Error())
		}
		actions = parsed
	}
	if actions == nil {
		return nil, errors.NewInvalidRequest("an action batch is required (raw or actions)")
	}

	// Oversized batches are truncated, not rejected; the tail is dropped
	// because later actions may depend on earlier ones, never the reverse.
	truncated := 0
	maxBatch := config.DefaultMaxActionsPerBatch
	if cfg != nil && cfg.MaxActionsPerBatch > 0 {
		maxBatch = cfg.MaxActionsPerBatch
	}
	if len(actions) > maxBatch {
		truncated = len(actions) - maxBatch
		actions = actions[:maxBatch]
	}

	var turn *db.Turn
	var err error
	if input.TurnID != "" {
		turn, err = db.GetTurn(database, input.TurnID)
	} else {
		turn, err = db.LatestOpenTurn(database, session)
	}
	if err != nil {
		return nil, err
	}
	if turn.SessionID != session {
		return nil, errors.NewInvalidRequest("turn belongs to a different session")
	}
	if turn.Status != db.TurnOpen {
		return nil, errors.NewConflict("turn already applied: " + turn.ID)
	}

	data, err := db.LoadDatabase(database, session)
	if err != nil {
		return nil, err
	}

	res := action.Apply(data, turn.Snapshot, actions)

	if err := db.SaveDatabase(database, session, res.DB); err != nil {
		return nil, err
	}
	if err := db.FinishTurn(database, turn.ID, actions, res.Logs, res.Notifications); err != nil {
		return nil, err
	}

	return &ActionsApplyOutput{
		Session:       session,
		TurnID:        turn.ID,
		Applied:       res.Applied(),
		Skipped:       res.Skipped(),
		Truncated:     truncated,
		Notifications: res.Notifications,
		Logs:          res.Logs,
	}, nil
}
