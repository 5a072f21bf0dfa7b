package store

import (
	"encoding/json"
	"fmt"

	"github.com/hpungsan/mythic/internal/schema"
)

// Wire format. Rows travel as positional tuples [rowId, v1, v2, ...]
// where slot i+1 holds the value of Columns[i]. The id-keyed in-memory
// representation is translated to and from tuples only here, so a
// column deletion between export and import cannot shift values into
// the wrong column within a single document.

type tableData struct {
	Rows [][]any `json:"rows"`
}

type tableWire struct {
	Config schema.TableConfig `json:"config"`
	Data   tableData          `json:"data"`
}

// MarshalJSON encodes the table with rows as positional tuples. Rows
// staged for deletion are filtered out: marshalling is the persistence
// boundary, and pending deletes must not survive a save.
func (t *Table) MarshalJSON() ([]byte, error) {
	wire := tableWire{Config: t.Config}
	active := t.ActiveRows()
	wire.Data.Rows = make([][]any, len(active))
	for i, r := range active {
		wire.Data.Rows[i] = EncodeRow(t.Config, r)
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes the positional wire format back into id-keyed rows.
func (t *Table) UnmarshalJSON(data []byte) error {
	var wire tableWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	t.Config = wire.Config
	t.Rows = make([]*Row, 0, len(wire.Data.Rows))
	for _, tuple := range wire.Data.Rows {
		row, err := DecodeRow(wire.Config, tuple)
		if err != nil {
			return err
		}
		t.Rows = append(t.Rows, row)
	}
	return nil
}

// EncodeRow renders a row as the positional tuple [rowId, v1, v2, ...].
// Every tuple has exactly len(Columns)+1 slots; cells never written take
// the column default.
func EncodeRow(cfg schema.TableConfig, r *Row) []any {
	tuple := make([]any, len(cfg.Columns)+1)
	tuple[0] = r.ID
	for i, col := range cfg.Columns {
		tuple[i+1] = r.Cell(col)
	}
	return tuple
}

// DecodeRow translates a positional tuple into an id-keyed row. Short
// tuples are legal (columns added after the row was written simply have
// no cell); slots beyond the declared columns are dropped. A tuple with
// a missing or non-string id slot is a structural error.
func DecodeRow(cfg schema.TableConfig, tuple []any) (*Row, error) {
	if len(tuple) == 0 {
		return nil, fmt.Errorf("row tuple is empty")
	}
	id, ok := tuple[0].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("row tuple slot 0 must be a non-empty id string")
	}
	row := &Row{ID: id, Cells: make(map[string]any, len(tuple)-1)}
	for i, col := range cfg.Columns {
		if i+1 >= len(tuple) {
			break
		}
		if tuple[i+1] == nil {
			continue
		}
		row.Cells[col.ID] = Coerce(col.Type, tuple[i+1])
	}
	return row, nil
}
