package ops

import (
	"database/sql"
	"strings"

	"github.com/hpungsan/mythic/internal/config"
	"github.com/hpungsan/mythic/internal/db"
	"github.com/hpungsan/mythic/internal/errors"
	"github.com/hpungsan/mythic/internal/schema"
	"github.com/hpungsan/mythic/internal/store"
)

// TableCreateInput contains parameters for the TableCreate operation.
type TableCreateInput struct {
	Session string
	Config  schema.TableConfig
}

// TableCreateOutput contains the result of the TableCreate operation.
type TableCreateOutput struct {
	Session string `json:"session"`
	TableID string `json:"table_id"`
	Index   int    `json:"index"`
}

// TableCreate validates a table config and appends the table to the
// session's database.
func TableCreate(database *sql.DB, cfg *config.Config, input TableCreateInput) (*TableCreateOutput, error) {
	session := Session(input.Session, cfg)

	if problems := input.Config.Validate(); len(problems) > 0 {
		return nil, errors.NewInvalidRequest("invalid table config: " + strings.Join(problems, "; "))
	}

	data, err := db.LoadDatabase(database, session)
	if err != nil {
		return nil, err
	}
	if !data.AddTable(input.Config) {
		return nil, errors.NewConflict("table already exists: " + input.Config.ID)
	}
	data.Touch()
	if err := db.SaveDatabase(database, session, data); err != nil {
		return nil, err
	}

	return &TableCreateOutput{
		Session: session,
		TableID: input.Config.ID,
		Index:   len(data.Tables) - 1,
	}, nil
}

// TableSummary describes one table for listings.
type TableSummary struct {
	Index          int             `json:"index"`
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Columns        []schema.Column `json:"columns"`
	RowCount       int             `json:"row_count"`
	ExportEnabled  bool            `json:"export_enabled"`
	LorebookLinked bool            `json:"lorebook_linked"`
}

// TableListInput contains parameters for the TableList operation.
type TableListInput struct {
	Session string
}

// TableListOutput contains the result of the TableList operation.
type TableListOutput struct {
	Session     string         `json:"session"`
	Tables      []TableSummary `json:"tables"`
	LastUpdated int64          `json:"last_updated,omitempty"`
}

// TableGetInput contains parameters for the TableGet operation.
type TableGetInput struct {
	Session string
	TableID string
}

// TableGetOutput contains the result of the TableGet operation.
// Rows are positional tuples in the wire format ([rowId, v1, v2, ...]).
type TableGetOutput struct {
	Session string             `json:"session"`
	Config  schema.TableConfig `json:"config"`
	Index   int                `json:"index"`
	Rows    [][]any            `json:"rows"`
}

// TableGet returns one table's config and its active rows as tuples.
func TableGet(database *sql.DB, cfg *config.Config, input TableGetInput) (*TableGetOutput, error) {
	session := Session(input.Session, cfg)
	if input.TableID == "" {
		return nil, errors.NewInvalidRequest("table_id is required")
	}

	data, err := db.LoadDatabase(database, session)
	if err != nil {
		return nil, err
	}

	for i, t := range data.Tables {
		if t.Config.ID != input.TableID {
			continue
		}
		active := t.ActiveRows()
		rows := make([][]any, len(active))
		for j, row := range active {
			rows[j] = store.EncodeRow(t.Config, row)
		}
		return &TableGetOutput{
			Session: session,
			Config:  t.Config,
			Index:   i,
			Rows:    rows,
		}, nil
	}
	return nil, errors.NewNotFound("table " + input.TableID)
}

// TableList summarizes the session's tables in display order.
func TableList(database *sql.DB, cfg *config.Config, input TableListInput) (*TableListOutput, error) {
	session := Session(input.Session, cfg)

	data, err := db.LoadDatabase(database, session)
	if err != nil {
		return nil, err
	}

	tables := make([]TableSummary, len(data.Tables))
	for i, t := range data.Tables {
		tables[i] = TableSummary{
			Index:          i,
			ID:             t.Config.ID,
			Name:           t.Config.Name,
			Columns:        t.Config.Columns,
			RowCount:       len(t.ActiveRows()),
			ExportEnabled:  t.Config.Export.Enabled,
			LorebookLinked: t.Config.LorebookLink != nil && t.Config.LorebookLink.Enabled,
		}
	}

	return &TableListOutput{
		Session:     session,
		Tables:      tables,
		LastUpdated: data.LastUpdated,
	}, nil
}
