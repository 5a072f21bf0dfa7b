// Package snapshot captures which row identities were visible to the AI,
// at which table/row position, for one generation turn. The AI addresses
// rows by [tableIndex][rowIndex]; the authoritative identity is the row
// id. A snapshot taken at prompt-construction time lets a later action
// batch resolve positional references correctly even if the editor
// reordered or deleted rows — or added tables — in the meantime.
package snapshot

import "github.com/hpungsan/mythic/internal/store"

// TableSnapshot is one table's entry: its id and the ordered row ids
// shown to the AI.
type TableSnapshot struct {
	TableID string   `json:"tableId"`
	RowIDs  []string `json:"rowIds"`
}

// Snapshot is the per-turn index [tableIndex][rowIndex] -> row id, one
// entry per table in database table order at capture time. A snapshot is
// produced once, immediately before the AI call, is immutable afterward,
// and is superseded entirely (never merged) by the next turn's snapshot.
type Snapshot []TableSnapshot

// Capture records the ordered row ids the AI will see for every table.
// Rows staged for deletion are excluded: they are not shown to the AI,
// so they must not be addressable either.
func Capture(db *store.Database) Snapshot {
	snap := make(Snapshot, len(db.Tables))
	for i, t := range db.Tables {
		active := t.ActiveRows()
		ids := make([]string, len(active))
		for j, r := range active {
			ids[j] = r.ID
		}
		snap[i] = TableSnapshot{TableID: t.Config.ID, RowIDs: ids}
	}
	return snap
}

// RowID resolves a positional reference to the row id as of prompt time.
// The second return is false when either index is out of range, which
// callers treat as a stale reference to skip, never an error to throw.
func (s Snapshot) RowID(tableIndex, rowIndex int) (string, bool) {
	if tableIndex < 0 || tableIndex >= len(s) {
		return "", false
	}
	return s.rowAt(s[tableIndex].RowIDs, rowIndex)
}

// TableID resolves a positional table reference to the table id as of
// prompt time, so that tables reordered or inserted after capture do not
// shift what the index means.
func (s Snapshot) TableID(tableIndex int) (string, bool) {
	if tableIndex < 0 || tableIndex >= len(s) {
		return "", false
	}
	return s[tableIndex].TableID, true
}

// RowIDByTable resolves a positional row reference within the named
// table's snapshot column, wherever that table sat at capture time. A
// table with no snapshot entry (created after capture) yields false.
func (s Snapshot) RowIDByTable(tableID string, rowIndex int) (string, bool) {
	for _, ts := range s {
		if ts.TableID == tableID {
			return s.rowAt(ts.RowIDs, rowIndex)
		}
	}
	return "", false
}

func (s Snapshot) rowAt(rows []string, rowIndex int) (string, bool) {
	if rowIndex < 0 || rowIndex >= len(rows) {
		return "", false
	}
	return rows[rowIndex], true
}
