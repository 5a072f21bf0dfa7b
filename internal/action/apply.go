package action

import (
	"fmt"
	"strings"

	"github.com/hpungsan/mythic/internal/schema"
	"github.com/hpungsan/mythic/internal/snapshot"
	"github.com/hpungsan/mythic/internal/store"
)

// Result is the outcome of applying one action batch.
type Result struct {
	// DB is the mutated database. The input database is never touched.
	DB *store.Database

	// Notifications are the user-facing messages from NOTIFY actions.
	Notifications []string

	// Logs records every attempted action with its outcome.
	Logs []LogEntry
}

// Applied returns how many actions in the batch were applied.
func (r *Result) Applied() int {
	n := 0
	for _, l := range r.Logs {
		if l.Outcome == OutcomeApplied {
			n++
		}
	}
	return n
}

// Skipped returns how many actions in the batch were skipped.
func (r *Result) Skipped() int {
	return len(r.Logs) - r.Applied()
}

// Apply runs an action batch against a clone of db, resolving positional
// row references through the snapshot captured before the AI call.
//
// Actions apply strictly in order: later actions see the effects of
// earlier ones, so a batch may INSERT a row and UPDATE it by echoing the
// fresh row id. Positional references always resolve through snap, which
// is not recomputed mid-batch. An unresolvable reference skips that one
// action with a log entry and the batch continues: AI output is
// unreliable, and dropping one bad action beats failing the whole turn.
func Apply(db *store.Database, snap snapshot.Snapshot, actions []Action) *Result {
	work := db.Clone()
	res := &Result{DB: work, Notifications: []string{}, Logs: make([]LogEntry, 0, len(actions))}

	for i, a := range actions {
		entry := LogEntry{Index: i, Type: Type(strings.ToUpper(strings.TrimSpace(string(a.Type))))}

		switch entry.Type {
		case Notify:
			if a.Message != "" {
				res.Notifications = append(res.Notifications, a.Message)
			}
			entry.Outcome = OutcomeApplied
			res.Logs = append(res.Logs, entry)
			continue
		case Insert, Update, Delete:
		default:
			entry.Outcome = OutcomeSkipped
			entry.Detail = fmt.Sprintf("unknown action type %q", a.Type)
			res.Logs = append(res.Logs, entry)
			continue
		}

		table, reason := resolveTable(work, snap, a)
		if table == nil {
			entry.Outcome = OutcomeSkipped
			entry.Detail = reason
			res.Logs = append(res.Logs, entry)
			continue
		}
		entry.TableID = table.Config.ID

		switch entry.Type {
		case Insert:
			row := &store.Row{ID: store.NewRowID(), Cells: make(map[string]any)}
			for _, col := range table.Config.Columns {
				if v, ok := a.Data[col.ID]; ok {
					row.Cells[col.ID] = store.Coerce(col.Type, v)
				} else {
					row.Cells[col.ID] = schema.DefaultValue(col.Type)
				}
			}
			table.Rows = append(table.Rows, row)
			work.Touch()
			entry.RowID = row.ID
			entry.Outcome = OutcomeApplied

		case Update:
			row, reason := resolveRow(table, snap, a)
			if row == nil {
				entry.Outcome = OutcomeSkipped
				entry.Detail = reason
				res.Logs = append(res.Logs, entry)
				continue
			}
			if row.Cells == nil {
				row.Cells = make(map[string]any)
			}
			for key, v := range a.Data {
				col := table.Config.Column(key)
				if col == nil {
					continue // hallucinated field, tolerated
				}
				row.Cells[col.ID] = store.Coerce(col.Type, v)
			}
			work.Touch()
			entry.RowID = row.ID
			entry.Outcome = OutcomeApplied

		case Delete:
			row, reason := resolveRow(table, snap, a)
			if row == nil {
				entry.Outcome = OutcomeSkipped
				entry.Detail = reason
				res.Logs = append(res.Logs, entry)
				continue
			}
			work.DeleteRow(table.Config.ID, row.ID)
			entry.RowID = row.ID
			entry.Outcome = OutcomeApplied
		}

		res.Logs = append(res.Logs, entry)
	}

	return res
}

// resolveTable locates the target table by id first, index second. A
// table index means the position the AI saw at prompt time, so it goes
// through the snapshot's table order, not the live one: tables added or
// reordered since capture (a merge import mid-turn) must not shift what
// the index refers to. Returns the table and a skip reason on failure.
func resolveTable(db *store.Database, snap snapshot.Snapshot, a Action) (*store.Table, string) {
	if a.TableID != "" {
		for _, t := range db.Tables {
			if t.Config.ID == a.TableID {
				return t, ""
			}
		}
		return nil, fmt.Sprintf("unknown table id %q", a.TableID)
	}
	if a.TableIndex != nil {
		id, ok := snap.TableID(*a.TableIndex)
		if !ok {
			return nil, fmt.Sprintf("table index %d has no snapshot entry", *a.TableIndex)
		}
		if t := db.Table(id); t != nil {
			return t, ""
		}
		return nil, fmt.Sprintf("table %s deleted since snapshot", id)
	}
	return nil, "action carries neither tableId nor tableIndex"
}

// resolveRow locates the target row. A direct row id bypasses the
// snapshot (preferred path); a row index resolves to the id the AI saw
// at prompt time, then back into the live table by identity. The
// snapshot column is found by table id, so it stays correct even when
// the table itself moved since capture. A row deleted since the
// snapshot yields nil with a reason: the action is dropped rather than
// applied to whatever row now sits at that position.
func resolveRow(t *store.Table, snap snapshot.Snapshot, a Action) (*store.Row, string) {
	if a.RowID != "" {
		if row := t.RowByID(a.RowID); row != nil {
			return row, ""
		}
		return nil, fmt.Sprintf("row %s no longer exists", a.RowID)
	}
	if a.RowIndex != nil {
		id, ok := snap.RowIDByTable(t.Config.ID, *a.RowIndex)
		if !ok {
			return nil, fmt.Sprintf("row index %d has no snapshot entry", *a.RowIndex)
		}
		if row := t.RowByID(id); row != nil {
			return row, ""
		}
		return nil, fmt.Sprintf("row %s deleted since snapshot", id)
	}
	return nil, "action carries neither rowId nor rowIndex"
}
