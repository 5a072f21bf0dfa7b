package db

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/hpungsan/mythic/internal/action"
	"github.com/hpungsan/mythic/internal/errors"
	"github.com/hpungsan/mythic/internal/livelink"
	"github.com/hpungsan/mythic/internal/snapshot"
	"github.com/hpungsan/mythic/internal/store"
)

// Turn statuses.
const (
	TurnOpen    = "open"    // snapshot captured, awaiting the AI's action batch
	TurnApplied = "applied" // action batch applied and audited
)

// Turn is one persisted generation turn: the snapshot shown to the AI
// and, once applied, the action batch with its audit log.
type Turn struct {
	ID            string             `json:"id"`
	SessionID     string             `json:"session_id"`
	Snapshot      snapshot.Snapshot  `json:"snapshot"`
	Actions       []action.Action    `json:"actions,omitempty"`
	Logs          []action.LogEntry  `json:"logs,omitempty"`
	Notifications []string           `json:"notifications,omitempty"`
	Status        string             `json:"status"`
	CreatedAt     int64              `json:"created_at"`
	AppliedAt     *int64             `json:"applied_at,omitempty"`
}

// SessionInfo summarizes one stored session.
type SessionInfo struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// SaveDatabase upserts the session's serialized database document.
func SaveDatabase(db *sql.DB, sessionID string, data *store.Database) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return errors.NewInternal(err)
	}
	now := time.Now().Unix()
	_, err = db.Exec(`
		INSERT INTO sessions (id, database_json, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET database_json = excluded.database_json, updated_at = excluded.updated_at
	`, sessionID, string(payload), now, now)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// LoadDatabase returns the session's database, or a fresh empty database
// when the session has never been saved. A session comes into existence
// on its first save, not by explicit creation.
func LoadDatabase(db *sql.DB, sessionID string) (*store.Database, error) {
	var payload string
	err := db.QueryRow(`SELECT database_json FROM sessions WHERE id = ?`, sessionID).Scan(&payload)
	if err == sql.ErrNoRows {
		return store.New(), nil
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	var data store.Database
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, errors.NewInternal(err)
	}
	return &data, nil
}

// ListSessions returns all stored sessions, most recently updated first.
func ListSessions(db *sql.DB) ([]SessionInfo, error) {
	rows, err := db.Query(`SELECT id, created_at, updated_at FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	sessions := []SessionInfo{}
	for rows.Next() {
		var s SessionInfo
		if err := rows.Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return sessions, nil
}

// DeleteSession removes a session with its turns and generated entries.
// Returns NotFound when the session does not exist.
func DeleteSession(db *sql.DB, sessionID string) error {
	res, err := db.Exec(`DELETE FROM sessions WHERE id = ?`, sessionID)
	if err != nil {
		return errors.NewInternal(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if affected == 0 {
		return errors.NewNotFound(sessionID)
	}
	if _, err := db.Exec(`DELETE FROM turns WHERE session_id = ?`, sessionID); err != nil {
		return errors.NewInternal(err)
	}
	if _, err := db.Exec(`DELETE FROM lorebook_entries WHERE session_id = ?`, sessionID); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// InsertTurn persists a freshly opened turn with its snapshot.
func InsertTurn(db *sql.DB, t *Turn) error {
	snapJSON, err := json.Marshal(t.Snapshot)
	if err != nil {
		return errors.NewInternal(err)
	}
	_, err = db.Exec(`
		INSERT INTO turns (id, session_id, snapshot_json, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, t.ID, t.SessionID, string(snapJSON), t.Status, t.CreatedAt)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// FinishTurn records the applied action batch, audit log, and
// notifications, and flips the turn to applied.
func FinishTurn(db *sql.DB, turnID string, actions []action.Action, logs []action.LogEntry, notifications []string) error {
	actionsJSON, err := json.Marshal(actions)
	if err != nil {
		return errors.NewInternal(err)
	}
	logsJSON, err := json.Marshal(logs)
	if err != nil {
		return errors.NewInternal(err)
	}
	notesJSON, err := json.Marshal(notifications)
	if err != nil {
		return errors.NewInternal(err)
	}
	res, err := db.Exec(`
		UPDATE turns
		SET actions_json = ?, logs_json = ?, notifications_json = ?, status = ?, applied_at = ?
		WHERE id = ?
	`, string(actionsJSON), string(logsJSON), string(notesJSON), TurnApplied, time.Now().Unix(), turnID)
	if err != nil {
		return errors.NewInternal(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if affected == 0 {
		return errors.NewNotFound(turnID)
	}
	return nil
}

// GetTurn returns one turn by id.
func GetTurn(db *sql.DB, turnID string) (*Turn, error) {
	row := db.QueryRow(`
		SELECT id, session_id, snapshot_json, actions_json, logs_json, notifications_json, status, created_at, applied_at
		FROM turns WHERE id = ?
	`, turnID)
	return scanTurn(row)
}

// LatestOpenTurn returns the session's most recent open turn, so a CLI
// apply without an explicit turn id targets the turn begun last.
func LatestOpenTurn(db *sql.DB, sessionID string) (*Turn, error) {
	row := db.QueryRow(`
		SELECT id, session_id, snapshot_json, actions_json, logs_json, notifications_json, status, created_at, applied_at
		FROM turns
		WHERE session_id = ? AND status = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, sessionID, TurnOpen)
	return scanTurn(row)
}

// ListTurns returns the session's turns, most recent first.
func ListTurns(db *sql.DB, sessionID string, limit int) ([]*Turn, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT id, session_id, snapshot_json, actions_json, logs_json, notifications_json, status, created_at, applied_at
		FROM turns
		WHERE session_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, sessionID, limit)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	turns := []*Turn{}
	for rows.Next() {
		t, err := scanTurn(rows)
		if err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return turns, nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanTurn.
type scanner interface {
	Scan(dest ...any) error
}

func scanTurn(s scanner) (*Turn, error) {
	var t Turn
	var snapJSON string
	var actionsJSON, logsJSON, notesJSON sql.NullString
	var appliedAt sql.NullInt64

	err := s.Scan(&t.ID, &t.SessionID, &snapJSON, &actionsJSON, &logsJSON, &notesJSON, &t.Status, &t.CreatedAt, &appliedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("turn")
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	if err := json.Unmarshal([]byte(snapJSON), &t.Snapshot); err != nil {
		return nil, errors.NewInternal(err)
	}
	if actionsJSON.Valid {
		if err := json.Unmarshal([]byte(actionsJSON.String), &t.Actions); err != nil {
			return nil, errors.NewInternal(err)
		}
	}
	if logsJSON.Valid {
		if err := json.Unmarshal([]byte(logsJSON.String), &t.Logs); err != nil {
			return nil, errors.NewInternal(err)
		}
	}
	if notesJSON.Valid {
		if err := json.Unmarshal([]byte(notesJSON.String), &t.Notifications); err != nil {
			return nil, errors.NewInternal(err)
		}
	}
	if appliedAt.Valid {
		t.AppliedAt = &appliedAt.Int64
	}
	return &t, nil
}

// ReplaceGeneratedEntries swaps the session's engine-generated lorebook
// entries for the given set in one transaction. Only rows tagged with
// the livelink source are deleted; hand-authored entries another tool
// may have stored under a different source tag are untouched.
func ReplaceGeneratedEntries(db *sql.DB, sessionID string, entries []livelink.WorldInfoEntry) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM lorebook_entries WHERE session_id = ? AND source = ?`, sessionID, livelink.Source); err != nil {
		return errors.NewInternal(err)
	}

	for i, e := range entries {
		keysJSON, err := json.Marshal(e.Keys)
		if err != nil {
			return errors.NewInternal(err)
		}
		_, err = tx.Exec(`
			INSERT INTO lorebook_entries (session_id, uid, keys_json, comment, content, constant, prevent_recursion, source, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, sessionID, e.UID, string(keysJSON), e.Comment, e.Content, boolToInt(e.Constant), boolToInt(e.PreventRecursion), e.Source, i)
		if err != nil {
			return errors.NewInternal(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// ListEntries returns the session's stored lorebook entries in position order.
func ListEntries(db *sql.DB, sessionID string) ([]livelink.WorldInfoEntry, error) {
	rows, err := db.Query(`
		SELECT uid, keys_json, comment, content, constant, prevent_recursion, source
		FROM lorebook_entries
		WHERE session_id = ?
		ORDER BY position
	`, sessionID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	entries := []livelink.WorldInfoEntry{}
	for rows.Next() {
		var e livelink.WorldInfoEntry
		var keysJSON string
		var comment sql.NullString
		var constant, preventRecursion int
		if err := rows.Scan(&e.UID, &keysJSON, &comment, &e.Content, &constant, &preventRecursion, &e.Source); err != nil {
			return nil, errors.NewInternal(err)
		}
		if err := json.Unmarshal([]byte(keysJSON), &e.Keys); err != nil {
			return nil, errors.NewInternal(err)
		}
		e.Comment = comment.String
		e.Constant = constant != 0
		e.PreventRecursion = preventRecursion != 0
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return entries, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
