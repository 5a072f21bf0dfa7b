package ops

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hpungsan/mythic/internal/config"
	"github.com/hpungsan/mythic/internal/db"
	"github.com/hpungsan/mythic/internal/errors"
	"github.com/hpungsan/mythic/internal/transfer"
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Session string
	Path    string // optional; defaults to ~/.mythic/exports/<session>-<timestamp>.json
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Session string `json:"session"`
	Path    string `json:"path"`
	Tables  int    `json:"tables"`
	Bytes   int    `json:"bytes"`
}

// Export writes the session database as a portable full-save document.
// The file is written to a temp path in the same directory and renamed
// into place, so a partially written export is never visible under the
// final name.
//
// Note: on Windows the rename is not atomic, but the temp file approach
// still prevents partial writes to the final path.
func Export(database *sql.DB, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	session := Session(input.Session, cfg)

	path := input.Path
	if path == "" {
		dir, err := DefaultExportsDir()
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, errors.NewInternal(fmt.Errorf("failed to create exports directory: %w", err))
		}
		name := fmt.Sprintf("%s-%s.json", SanitizeForFilename(session), time.Now().UTC().Format("20060102-150405"))
		path = filepath.Join(dir, name)
	}

	if err := ValidatePath(path, PathCheckWrite, cfg); err != nil {
		return nil, err
	}

	data, err := db.LoadDatabase(database, session)
	if err != nil {
		return nil, err
	}

	payload, err := transfer.Export(data, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}

	tmpPath, err := writeTempFile(absPath, payload)
	if err != nil {
		return nil, err
	}
	if err := os.Rename(tmpPath, absPath); err != nil {
		os.Remove(tmpPath)
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	return &ExportOutput{
		Session: session,
		Path:    absPath,
		Tables:  len(data.Tables),
		Bytes:   len(payload),
	}, nil
}

// writeTempFile writes payload to a randomly suffixed temp file next to
// finalPath and returns the temp path.
func writeTempFile(finalPath string, payload []byte) (string, error) {
	suffix := make([]byte, 8)
	if _, err := rand.Read(suffix); err != nil {
		return "", errors.NewInternal(fmt.Errorf("failed to generate temp suffix: %w", err))
	}
	tmpPath := finalPath + ".tmp-" + hex.EncodeToString(suffix)

	f, err := openFileNoFollow(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if engineErr, ok := err.(*errors.EngineError); ok {
			return "", engineErr
		}
		return "", errors.NewInternal(fmt.Errorf("failed to create temp file: %w", err))
	}

	if _, err := f.Write(payload); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", errors.NewInternal(fmt.Errorf("failed to write export: %w", err))
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", errors.NewInternal(fmt.Errorf("failed to sync export: %w", err))
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return "", errors.NewInternal(fmt.Errorf("failed to close export: %w", err))
	}
	return tmpPath, nil
}
