// Package action implements the mutation protocol by which the AI edits
// table rows: an ordered batch of INSERT/UPDATE/DELETE/NOTIFY actions
// applied against a database and the snapshot taken before the turn.
package action

import "strings"

// Type is the action kind.
type Type string

const (
	Insert Type = "INSERT"
	Update Type = "UPDATE"
	Delete Type = "DELETE"
	Notify Type = "NOTIFY"
)

// IsValidType reports whether t (case-insensitive) is a known action type.
func IsValidType(t string) bool {
	switch Type(strings.ToUpper(strings.TrimSpace(t))) {
	case Insert, Update, Delete, Notify:
		return true
	}
	return false
}

// Action is the wire contract by which the AI requests a mutation.
// Exactly one of TableID/TableIndex should resolve a table; exactly one
// of RowID/RowIndex should resolve a row for UPDATE and DELETE. Index
// fields are pointers so index 0 is distinguishable from absent.
type Action struct {
	Type       Type           `json:"type"`
	TableID    string         `json:"tableId,omitempty"`
	TableIndex *int           `json:"tableIndex,omitempty"`
	RowID      string         `json:"rowId,omitempty"`
	RowIndex   *int           `json:"rowIndex,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	Message    string         `json:"message,omitempty"`
}

// Outcome records what happened to one action.
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeSkipped Outcome = "skipped"
)

// LogEntry is the audit record for one attempted action.
type LogEntry struct {
	Index   int     `json:"index"`
	Type    Type    `json:"type"`
	TableID string  `json:"tableId,omitempty"`
	RowID   string  `json:"rowId,omitempty"`
	Outcome Outcome `json:"outcome"`
	Detail  string  `json:"detail,omitempty"`
}
