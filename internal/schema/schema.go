package schema

import "encoding/json"

// ColumnType is the declared value type of a table column.
type ColumnType string

const (
	TypeString  ColumnType = "string"
	TypeNumber  ColumnType = "number"
	TypeBoolean ColumnType = "boolean"
	TypeList    ColumnType = "list"
)

// IsValidType reports whether t is a known column type.
func IsValidType(t ColumnType) bool {
	switch t {
	case TypeString, TypeNumber, TypeBoolean, TypeList:
		return true
	}
	return false
}

// Column describes one typed column of a table.
// ID is the stable machine key; Label is display-only and may change freely.
type Column struct {
	ID          string     `json:"id"`
	Label       string     `json:"label"`
	Type        ColumnType `json:"type"`
	Description string     `json:"description,omitempty"`
}

// ExportStrategy controls when a table's contents are injected into the prompt.
type ExportStrategy string

const (
	StrategyAlways   ExportStrategy = "always"
	StrategyOnChange ExportStrategy = "on_change"
	StrategyNever    ExportStrategy = "never"
)

// EntryType is the legacy per-row lorebook entry trigger mode.
type EntryType string

const (
	EntryConstant EntryType = "constant"
	EntryKeyword  EntryType = "keyword"
	EntryRandom   EntryType = "random"
)

// ExportConfig governs whether and how a table's contents are rendered
// into the AI prompt, plus the legacy per-row lorebook entry fields.
type ExportConfig struct {
	Enabled          bool           `json:"enabled"`
	Format           string         `json:"format,omitempty"`
	Strategy         ExportStrategy `json:"strategy,omitempty"`
	SplitByRow       bool           `json:"splitByRow,omitempty"`
	EntryName        string         `json:"entryName,omitempty"`
	EntryType        EntryType      `json:"entryType,omitempty"`
	Keywords         []string       `json:"keywords,omitempty"`
	PreventRecursion bool           `json:"preventRecursion,omitempty"`
}

// LorebookLink configures the Live-Link mirror of a table's rows into
// generated lorebook entries keyed by one column.
type LorebookLink struct {
	Enabled     bool   `json:"enabled"`
	KeyColumnID string `json:"keyColumnId,omitempty"`
}

// AIRules holds free-text instructions shown to the AI for each mutation kind.
type AIRules struct {
	Init   string `json:"init,omitempty"`
	Update string `json:"update,omitempty"`
	Insert string `json:"insert,omitempty"`
	Delete string `json:"delete,omitempty"`
}

// TableConfig describes one table: identity, column layout, export behavior,
// optional lorebook link and AI mutation rules.
//
// Column order is significant on the wire: column i maps to row tuple slot
// i+1 (slot 0 is the row id). In memory, cells are keyed by column id, so
// reordering or deleting columns never shifts stored values.
type TableConfig struct {
	ID           string                     `json:"id"`
	Name         string                     `json:"name"`
	Description  string                     `json:"description,omitempty"`
	Columns      []Column                   `json:"columns"`
	Export       ExportConfig               `json:"export"`
	LorebookLink *LorebookLink              `json:"lorebookLink,omitempty"`
	AIRules      *AIRules                   `json:"aiRules,omitempty"`
	OrderNo      int                        `json:"orderNo,omitempty"`
	Extra        map[string]json.RawMessage `json:"extra,omitempty"`
}

// Column returns the column with the given id, or nil if absent.
func (c *TableConfig) Column(id string) *Column {
	for i := range c.Columns {
		if c.Columns[i].ID == id {
			return &c.Columns[i]
		}
	}
	return nil
}

// ColumnIndex returns the position of the column with the given id, or -1.
func (c *TableConfig) ColumnIndex(id string) int {
	for i := range c.Columns {
		if c.Columns[i].ID == id {
			return i
		}
	}
	return -1
}

// AddColumn appends a column. Existing rows are not retroactively extended;
// readers fall back to the column type's default for missing cells.
// Returns false if a column with the same id already exists.
func (c *TableConfig) AddColumn(col Column) bool {
	if col.ID == "" || c.Column(col.ID) != nil {
		return false
	}
	if !IsValidType(col.Type) {
		col.Type = TypeString
	}
	c.Columns = append(c.Columns, col)
	return true
}

// RenameColumn changes a column's display label. The id never changes;
// stored cell data is unaffected. Returns false if the column is absent.
func (c *TableConfig) RenameColumn(id, label string) bool {
	col := c.Column(id)
	if col == nil {
		return false
	}
	col.Label = label
	return true
}

// RemoveColumn drops a column from the config. Row cells keyed by the dead
// id are left in place; they simply stop appearing in the positional wire
// format. Returns false if the column is absent.
func (c *TableConfig) RemoveColumn(id string) bool {
	idx := c.ColumnIndex(id)
	if idx < 0 {
		return false
	}
	c.Columns = append(c.Columns[:idx], c.Columns[idx+1:]...)
	return true
}

// MergeExtra merges additional properties by key into the Extra bag.
// Incoming keys overwrite existing ones; other keys are preserved.
func (c *TableConfig) MergeExtra(incoming map[string]json.RawMessage) {
	if len(incoming) == 0 {
		return
	}
	if c.Extra == nil {
		c.Extra = make(map[string]json.RawMessage, len(incoming))
	}
	for k, v := range incoming {
		c.Extra[k] = v
	}
}

// DefaultValue returns the empty value for a column type:
// "" for strings, 0 for numbers, false for booleans, [] for lists.
func DefaultValue(t ColumnType) any {
	switch t {
	case TypeNumber:
		return float64(0)
	case TypeBoolean:
		return false
	case TypeList:
		return []any{}
	default:
		return ""
	}
}

// Validate checks structural invariants: non-empty id, at least one column,
// unique column ids, known column types.
func (c *TableConfig) Validate() []string {
	var problems []string
	if c.ID == "" {
		problems = append(problems, "table id must not be empty")
	}
	if len(c.Columns) == 0 {
		problems = append(problems, "table must declare at least one column")
	}
	seen := make(map[string]bool, len(c.Columns))
	for _, col := range c.Columns {
		if col.ID == "" {
			problems = append(problems, "column id must not be empty")
			continue
		}
		if seen[col.ID] {
			problems = append(problems, "duplicate column id: "+col.ID)
		}
		seen[col.ID] = true
		if col.Type != "" && !IsValidType(col.Type) {
			problems = append(problems, "unknown column type for "+col.ID+": "+string(col.Type))
		}
	}
	if c.LorebookLink != nil && c.LorebookLink.Enabled {
		if c.LorebookLink.KeyColumnID == "" {
			problems = append(problems, "lorebook link enabled without a key column")
		} else if !seen[c.LorebookLink.KeyColumnID] {
			problems = append(problems, "lorebook key column does not exist: "+c.LorebookLink.KeyColumnID)
		}
	}
	return problems
}
