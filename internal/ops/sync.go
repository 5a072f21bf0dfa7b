package ops

import (
	"database/sql"

	"github.com/hpungsan/mythic/internal/config"
	"github.com/hpungsan/mythic/internal/db"
	"github.com/hpungsan/mythic/internal/livelink"
)

// LorebookSyncInput contains parameters for the LorebookSync operation.
type LorebookSyncInput struct {
	Session string
}

// LorebookSyncOutput contains the result of the LorebookSync operation.
type LorebookSyncOutput struct {
	Session string                    `json:"session"`
	Count   int                       `json:"count"`
	Entries []livelink.WorldInfoEntry `json:"entries"`
}

// LorebookSync recomputes the generated lorebook entry set from current
// rows and swaps it into the store, replacing only engine-sourced
// entries. Re-running on an unchanged database is a no-op in effect:
// the same entries are written again.
func LorebookSync(database *sql.DB, cfg *config.Config, input LorebookSyncInput) (*LorebookSyncOutput, error) {
	session := Session(input.Session, cfg)

	data, err := db.LoadDatabase(database, session)
	if err != nil {
		return nil, err
	}

	entries := livelink.Sync(data)
	if err := db.ReplaceGeneratedEntries(database, session, entries); err != nil {
		return nil, err
	}

	return &LorebookSyncOutput{
		Session: session,
		Count:   len(entries),
		Entries: entries,
	}, nil
}

// LorebookListInput contains parameters for the LorebookList operation.
type LorebookListInput struct {
	Session string
}

// LorebookListOutput contains the result of the LorebookList operation.
type LorebookListOutput struct {
	Session string                    `json:"session"`
	Entries []livelink.WorldInfoEntry `json:"entries"`
}

// LorebookList returns the stored generated entry set without recomputing.
func LorebookList(database *sql.DB, cfg *config.Config, input LorebookListInput) (*LorebookListOutput, error) {
	session := Session(input.Session, cfg)

	entries, err := db.ListEntries(database, session)
	if err != nil {
		return nil, err
	}
	return &LorebookListOutput{Session: session, Entries: entries}, nil
}
