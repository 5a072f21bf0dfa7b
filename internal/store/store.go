package store

import (
	"crypto/rand"
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/mythic/internal/schema"
)

// Row is one table row. Cells are keyed by column id so that column
// reordering or deletion never shifts stored values; the positional
// tuple encoding exists only at the JSON boundary (see json.go).
type Row struct {
	// ID is an opaque ULID, unique within the table for the row's lifetime.
	ID string

	// Cells maps column id to the stored value.
	Cells map[string]any

	// PendingDelete marks a row staged for deletion by the editor UI.
	// Pending rows are excluded from snapshots and from persistence.
	PendingDelete bool
}

// Cell returns the row's value for the column, falling back to the
// column type's default when the cell was never written. Never panics
// on short or sparse rows.
func (r *Row) Cell(col schema.Column) any {
	if v, ok := r.Cells[col.ID]; ok {
		return v
	}
	return schema.DefaultValue(col.Type)
}

// Table pairs a config with its ordered row list. Row order is the only
// ordering; there is no secondary sort key.
type Table struct {
	Config schema.TableConfig
	Rows   []*Row
}

// ActiveRows returns the rows not staged for deletion, in table order.
func (t *Table) ActiveRows() []*Row {
	active := make([]*Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		if !r.PendingDelete {
			active = append(active, r)
		}
	}
	return active
}

// CommitPending removes all rows staged for deletion. Returns the number
// of rows dropped.
func (t *Table) CommitPending() int {
	kept := t.Rows[:0]
	dropped := 0
	for _, r := range t.Rows {
		if r.PendingDelete {
			dropped++
			continue
		}
		kept = append(kept, r)
	}
	t.Rows = kept
	return dropped
}

// RowByID returns the row with the given id, or nil. Lookup is a linear
// scan; tables hold tens to low hundreds of rows.
func (t *Table) RowByID(id string) *Row {
	for _, r := range t.Rows {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// Settings holds per-database engine settings.
type Settings struct {
	Enabled       bool   `json:"enabled"`
	InjectPrompts bool   `json:"injectPrompts,omitempty"`
	TemplateName  string `json:"templateName,omitempty"`
}

// Database is the whole table set for one session. Table order is
// significant: it drives display order and snapshot indexing.
type Database struct {
	Version     int       `json:"version"`
	Tables      []*Table  `json:"tables"`
	GlobalRules string    `json:"globalRules,omitempty"`
	LastUpdated int64     `json:"lastUpdated,omitempty"`
	Settings    *Settings `json:"settings,omitempty"`
}

// CurrentVersion is the database document version written on save.
const CurrentVersion = 1

// New returns an empty database at the current version.
func New() *Database {
	return &Database{Version: CurrentVersion}
}

// Table returns the table with the given config id, or nil.
func (d *Database) Table(id string) *Table {
	for _, t := range d.Tables {
		if t.Config.ID == id {
			return t
		}
	}
	return nil
}

// AddTable appends a table built from the config. Returns false when a
// table with the same id already exists.
func (d *Database) AddTable(cfg schema.TableConfig) bool {
	if d.Table(cfg.ID) != nil {
		return false
	}
	d.Tables = append(d.Tables, &Table{Config: cfg})
	return true
}

// AddRow appends an all-empty row to the table and returns its fresh id.
// Returns "" when the table does not exist.
func (d *Database) AddRow(tableID string) string {
	t := d.Table(tableID)
	if t == nil {
		return ""
	}
	row := &Row{ID: NewRowID(), Cells: make(map[string]any)}
	t.Rows = append(t.Rows, row)
	d.Touch()
	return row.ID
}

// UpdateCell writes a value at (tableID, rowID, columnID), coerced to the
// column's declared type. Stale references (missing table, row, or
// column) are a silent no-op, not an error: the row may have been
// deleted by a concurrent edit and the write is simply dropped.
func (d *Database) UpdateCell(tableID, rowID, columnID string, value any) {
	t := d.Table(tableID)
	if t == nil {
		return
	}
	col := t.Config.Column(columnID)
	if col == nil {
		return
	}
	row := t.RowByID(rowID)
	if row == nil {
		return
	}
	if row.Cells == nil {
		row.Cells = make(map[string]any)
	}
	row.Cells[col.ID] = Coerce(col.Type, value)
	d.Touch()
}

// DeleteRow removes the row outright. Returns false when the table or
// row does not exist.
func (d *Database) DeleteRow(tableID, rowID string) bool {
	t := d.Table(tableID)
	if t == nil {
		return false
	}
	for i, r := range t.Rows {
		if r.ID == rowID {
			t.Rows = append(t.Rows[:i], t.Rows[i+1:]...)
			d.Touch()
			return true
		}
	}
	return false
}

// ReplaceRows swaps a table's entire row list in one step, used when an
// external editor commits a full draft. The new slice is installed
// atomically: no partial application is observable. Returns false when
// the table does not exist.
func (d *Database) ReplaceRows(tableID string, rows []*Row) bool {
	t := d.Table(tableID)
	if t == nil {
		return false
	}
	t.Rows = rows
	d.Touch()
	return true
}

// Touch refreshes the last-updated timestamp.
func (d *Database) Touch() {
	d.LastUpdated = time.Now().Unix()
}

// Clone returns a deep copy. Action application mutates a clone so the
// caller's database stays intact on any failure path.
func (d *Database) Clone() *Database {
	out := &Database{
		Version:     d.Version,
		GlobalRules: d.GlobalRules,
		LastUpdated: d.LastUpdated,
	}
	if d.Settings != nil {
		s := *d.Settings
		out.Settings = &s
	}
	out.Tables = make([]*Table, len(d.Tables))
	for i, t := range d.Tables {
		out.Tables[i] = t.Clone()
	}
	return out
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	ct := &Table{Config: cloneConfig(t.Config)}
	ct.Rows = make([]*Row, len(t.Rows))
	for i, r := range t.Rows {
		ct.Rows[i] = r.Clone()
	}
	return ct
}

// Clone returns a deep copy of the row.
func (r *Row) Clone() *Row {
	return &Row{
		ID:            r.ID,
		Cells:         cloneCells(r.Cells),
		PendingDelete: r.PendingDelete,
	}
}

func cloneConfig(cfg schema.TableConfig) schema.TableConfig {
	out := cfg
	out.Columns = append([]schema.Column(nil), cfg.Columns...)
	if cfg.LorebookLink != nil {
		l := *cfg.LorebookLink
		out.LorebookLink = &l
	}
	if cfg.AIRules != nil {
		r := *cfg.AIRules
		out.AIRules = &r
	}
	if cfg.Export.Keywords != nil {
		out.Export.Keywords = append([]string(nil), cfg.Export.Keywords...)
	}
	if cfg.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(cfg.Extra))
		for k, v := range cfg.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

func cloneCells(cells map[string]any) map[string]any {
	out := make(map[string]any, len(cells))
	for k, v := range cells {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch tv := v.(type) {
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = cloneValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(tv))
		for k, e := range tv {
			out[k] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// NewRowID generates a fresh row id: a ULID, i.e. a millisecond timestamp
// plus 80 bits of randomness, so collisions across independent exports
// are negligible and ids sort by creation time.
func NewRowID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
