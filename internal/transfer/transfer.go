// Package transfer serializes and deserializes whole databases for
// backup and cross-table-set sharing.
package transfer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hpungsan/mythic/internal/errors"
	"github.com/hpungsan/mythic/internal/store"
)

// ExportType tags the export envelope so importers can recognize it.
const ExportType = "mythic_rpg_full_save"

// Meta is the export metadata block.
type Meta struct {
	ExportedAt string `json:"exportedAt"`
	Type       string `json:"type"`
}

// envelope is the export document: the database fields plus meta.
type envelope struct {
	*store.Database
	Meta Meta `json:"meta"`
}

// Mode controls how an imported database combines with the current one.
type Mode string

const (
	ModeMerge     Mode = "merge"
	ModeOverwrite Mode = "overwrite"
)

// Export renders the database as a standalone JSON document with export
// metadata. Rows travel in the positional tuple format.
func Export(db *store.Database, now time.Time) ([]byte, error) {
	doc := envelope{
		Database: db,
		Meta: Meta{
			ExportedAt: now.UTC().Format(time.RFC3339),
			Type:       ExportType,
		},
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// Import combines an incoming export document with the current database.
//
// overwrite: the incoming database fully replaces the current one.
// merge: incoming tables whose config id matches an existing table have
// their rows appended (no dedup — row ids from another export are
// independently unique) while the existing config is kept; tables only
// present in the incoming document are added wholesale.
//
// Accepts legacy wrapper shapes (bare {tables}, {data:{tables}},
// {template:{tables}}) by unwrapping before validating; anything without
// a tables array is rejected as a structural error. The current database
// is never mutated; failures leave it intact by construction.
func Import(current *store.Database, data []byte, mode Mode) (*store.Database, error) {
	if mode != ModeMerge && mode != ModeOverwrite {
		return nil, errors.NewInvalidRequest("mode must be one of: merge, overwrite")
	}

	incoming, err := decode(data)
	if err != nil {
		return nil, err
	}

	if mode == ModeOverwrite {
		result := incoming.Clone()
		if result.Version == 0 {
			result.Version = store.CurrentVersion
		}
		result.Touch()
		return result, nil
	}

	result := current.Clone()
	for _, in := range incoming.Tables {
		existing := result.Table(in.Config.ID)
		if existing == nil {
			result.Tables = append(result.Tables, in.Clone())
			continue
		}
		for _, row := range in.Rows {
			existing.Rows = append(existing.Rows, row.Clone())
		}
	}
	result.Touch()
	return result, nil
}

// decode unwraps legacy wrapper shapes and unmarshals the database.
func decode(data []byte) (*store.Database, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.NewParse(fmt.Sprintf("invalid JSON: %v", err))
	}

	doc := data
	for _, wrapper := range []string{"data", "template"} {
		if _, ok := raw["tables"]; ok {
			break
		}
		inner, ok := raw[wrapper]
		if !ok {
			continue
		}
		var innerMap map[string]json.RawMessage
		if err := json.Unmarshal(inner, &innerMap); err != nil {
			continue
		}
		if _, ok := innerMap["tables"]; ok {
			doc = inner
			raw = innerMap
			break
		}
	}

	if _, ok := raw["tables"]; !ok {
		return nil, errors.NewStructural("import document has no tables array")
	}

	var db store.Database
	if err := json.Unmarshal(doc, &db); err != nil {
		return nil, errors.NewParse(fmt.Sprintf("malformed tables: %v", err))
	}
	return &db, nil
}
