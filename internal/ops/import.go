package ops

import (
	"database/sql"
	"fmt"
	"io"

	"github.com/hpungsan/mythic/internal/config"
	"github.com/hpungsan/mythic/internal/db"
	"github.com/hpungsan/mythic/internal/errors"
	"github.com/hpungsan/mythic/internal/transfer"
)

// MaxImportBytes caps the size of an import file. Full saves are text
// JSON; anything larger than this is almost certainly the wrong file.
const MaxImportBytes = 64 << 20

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Session string
	Path    string
	Mode    transfer.Mode // merge (default) or overwrite
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Session string        `json:"session"`
	Path    string        `json:"path"`
	Mode    transfer.Mode `json:"mode"`
	Tables  int           `json:"tables"`
	Rows    int           `json:"rows"`
}

// Import reads a full-save document (or a legacy wrapped variant) and
// merges it into or overwrites the session database.
func Import(database *sql.DB, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	session := Session(input.Session, cfg)

	mode := input.Mode
	if mode == "" {
		mode = transfer.ModeMerge
	}
	if mode != transfer.ModeMerge && mode != transfer.ModeOverwrite {
		return nil, errors.NewInvalidRequest("mode must be merge or overwrite")
	}

	if err := ValidatePath(input.Path, PathCheckRead, cfg); err != nil {
		return nil, err
	}

	f, err := openFileNoFollowRead(input.Path)
	if err != nil {
		if engineErr, ok := err.(*errors.EngineError); ok {
			return nil, engineErr
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer f.Close()

	payload, err := io.ReadAll(io.LimitReader(f, MaxImportBytes+1))
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to read import file: %w", err))
	}
	if len(payload) > MaxImportBytes {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("import file exceeds %d bytes", MaxImportBytes))
	}

	current, err := db.LoadDatabase(database, session)
	if err != nil {
		return nil, err
	}

	merged, err := transfer.Import(current, payload, mode)
	if err != nil {
		return nil, err
	}

	if err := db.SaveDatabase(database, session, merged); err != nil {
		return nil, err
	}

	rows := 0
	for _, t := range merged.Tables {
		rows += len(t.ActiveRows())
	}

	return &ImportOutput{
		Session: session,
		Path:    input.Path,
		Mode:    mode,
		Tables:  len(merged.Tables),
		Rows:    rows,
	}, nil
}
