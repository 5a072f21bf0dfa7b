package ops

import (
	"database/sql"
	"fmt"

	"github.com/hpungsan/mythic/internal/config"
	"github.com/hpungsan/mythic/internal/db"
	"github.com/hpungsan/mythic/internal/errors"
	"github.com/hpungsan/mythic/internal/store"
)

// Manual-edit path: the editor UI mutates rows directly, in parallel
// with the AI's action batches. These operations address rows by id,
// never by position.

// RowAddInput contains parameters for the RowAdd operation.
type RowAddInput struct {
	Session string
	TableID string
	Data    map[string]any // optional initial cells, keyed by column id
}

// RowAddOutput contains the result of the RowAdd operation.
type RowAddOutput struct {
	Session string `json:"session"`
	TableID string `json:"table_id"`
	RowID   string `json:"row_id"`
}

// RowAdd appends an empty row, optionally seeding cells from Data.
// Unknown data keys are ignored.
func RowAdd(database *sql.DB, cfg *config.Config, input RowAddInput) (*RowAddOutput, error) {
	session := Session(input.Session, cfg)
	if input.TableID == "" {
		return nil, errors.NewInvalidRequest("table_id is required")
	}

	data, err := db.LoadDatabase(database, session)
	if err != nil {
		return nil, err
	}
	if data.Table(input.TableID) == nil {
		return nil, errors.NewNotFound("table " + input.TableID)
	}

	rowID := data.AddRow(input.TableID)
	for key, value := range input.Data {
		data.UpdateCell(input.TableID, rowID, key, value)
	}
	if err := db.SaveDatabase(database, session, data); err != nil {
		return nil, err
	}

	return &RowAddOutput{Session: session, TableID: input.TableID, RowID: rowID}, nil
}

// CellUpdateInput contains parameters for the CellUpdate operation.
type CellUpdateInput struct {
	Session  string
	TableID  string
	RowID    string
	ColumnID string
	Value    any
}

// CellUpdateOutput contains the result of the CellUpdate operation.
type CellUpdateOutput struct {
	Session string `json:"session"`
	Updated bool   `json:"updated"`
}

// CellUpdate writes one cell by row identity. A missing table is an
// error (the caller addressed something that was never there); a missing
// row or column is a stale reference and reports updated=false without
// failing.
func CellUpdate(database *sql.DB, cfg *config.Config, input CellUpdateInput) (*CellUpdateOutput, error) {
	session := Session(input.Session, cfg)
	if input.TableID == "" || input.RowID == "" || input.ColumnID == "" {
		return nil, errors.NewInvalidRequest("table_id, row_id, and column_id are required")
	}

	data, err := db.LoadDatabase(database, session)
	if err != nil {
		return nil, err
	}
	t := data.Table(input.TableID)
	if t == nil {
		return nil, errors.NewNotFound("table " + input.TableID)
	}

	updated := t.RowByID(input.RowID) != nil && t.Config.Column(input.ColumnID) != nil
	data.UpdateCell(input.TableID, input.RowID, input.ColumnID, input.Value)
	if updated {
		if err := db.SaveDatabase(database, session, data); err != nil {
			return nil, err
		}
	}

	return &CellUpdateOutput{Session: session, Updated: updated}, nil
}

// RowDeleteInput contains parameters for the RowDelete operation.
type RowDeleteInput struct {
	Session string
	TableID string
	RowID   string
}

// RowDeleteOutput contains the result of the RowDelete operation.
type RowDeleteOutput struct {
	Session string `json:"session"`
	Deleted bool   `json:"deleted"`
}

// RowDelete removes a row by identity. Deleting an already-gone row
// reports deleted=false, not an error.
func RowDelete(database *sql.DB, cfg *config.Config, input RowDeleteInput) (*RowDeleteOutput, error) {
	session := Session(input.Session, cfg)
	if input.TableID == "" || input.RowID == "" {
		return nil, errors.NewInvalidRequest("table_id and row_id are required")
	}

	data, err := db.LoadDatabase(database, session)
	if err != nil {
		return nil, err
	}
	if data.Table(input.TableID) == nil {
		return nil, errors.NewNotFound("table " + input.TableID)
	}

	deleted := data.DeleteRow(input.TableID, input.RowID)
	if deleted {
		if err := db.SaveDatabase(database, session, data); err != nil {
			return nil, err
		}
	}

	return &RowDeleteOutput{Session: session, Deleted: deleted}, nil
}

// RowsReplaceInput contains parameters for the RowsReplace operation.
// Rows are positional tuples in the wire format.
type RowsReplaceInput struct {
	Session string
	TableID string
	Rows    [][]any
}

// RowsReplaceOutput contains the result of the RowsReplace operation.
type RowsReplaceOutput struct {
	Session string `json:"session"`
	TableID string `json:"table_id"`
	Rows    int    `json:"rows"`
}

// RowsReplace swaps a table's full row list in one step, used when the
// editor commits a whole draft. All tuples are decoded before anything
// is installed, so a malformed tuple rejects the batch with the current
// rows untouched.
func RowsReplace(database *sql.DB, cfg *config.Config, input RowsReplaceInput) (*RowsReplaceOutput, error) {
	session := Session(input.Session, cfg)
	if input.TableID == "" {
		return nil, errors.NewInvalidRequest("table_id is required")
	}

	data, err := db.LoadDatabase(database, session)
	if err != nil {
		return nil, err
	}
	t := data.Table(input.TableID)
	if t == nil {
		return nil, errors.NewNotFound("table " + input.TableID)
	}

	rows := make([]*store.Row, 0, len(input.Rows))
	for i, tuple := range input.Rows {
		row, err := store.DecodeRow(t.Config, tuple)
		if err != nil {
			return nil, errors.NewStructural(fmt.Sprintf("row %d: %v", i, err))
		}
		rows = append(rows, row)
	}

	data.ReplaceRows(input.TableID, rows)
	if err := db.SaveDatabase(database, session, data); err != nil {
		return nil, err
	}

	return &RowsReplaceOutput{Session: session, TableID: input.TableID, Rows: len(rows)}, nil
}
