// Package livelink derives keyword-triggered lorebook entries from table
// rows. Sync is a pure function of the database: the generated set is
// recomputed in full on every call, never patched incrementally, so
// entries for deleted rows or disabled tables simply do not reappear.
package livelink

import (
	"fmt"
	"strings"

	"github.com/hpungsan/mythic/internal/schema"
	"github.com/hpungsan/mythic/internal/store"
)

// Source tags every generated entry so the consuming lorebook store can
// replace the engine-generated subset without touching hand-authored
// entries.
const Source = "mythic-engine"

// WorldInfoEntry is one generated lorebook entry, consumed by the
// external prompt builder. The engine does not know how entries are
// matched or injected; it only owns the generated subset.
type WorldInfoEntry struct {
	UID              string   `json:"uid"`
	Keys             []string `json:"key"`
	Comment          string   `json:"comment,omitempty"`
	Content          string   `json:"content"`
	Constant         bool     `json:"constant,omitempty"`
	PreventRecursion bool     `json:"preventRecursion,omitempty"`
	Source           string   `json:"source"`
}

// Sync derives the full generated-entry set from the database. For every
// table with an enabled lorebook link and a valid key column, each active
// row becomes one entry: its trigger keys are the row's key-column value
// plus any extra keywords from the table's export config, and its content
// is a markdown rendering of the remaining columns. Rows whose key cell
// is empty are skipped. Output order is table order then row order, and
// entry uids are stable per row, so repeated calls on an unchanged
// database produce identical output.
func Sync(db *store.Database) []WorldInfoEntry {
	entries := []WorldInfoEntry{}
	for _, t := range db.Tables {
		link := t.Config.LorebookLink
		if link == nil || !link.Enabled || link.KeyColumnID == "" {
			continue
		}
		keyCol := t.Config.Column(link.KeyColumnID)
		if keyCol == nil {
			continue
		}
		for _, row := range t.ActiveRows() {
			key := strings.TrimSpace(store.FormatValue(row.Cell(*keyCol)))
			if key == "" {
				continue
			}
			entries = append(entries, WorldInfoEntry{
				UID:              fmt.Sprintf("%s:%s", t.Config.ID, row.ID),
				Keys:             entryKeys(key, t.Config.Export.Keywords),
				Comment:          fmt.Sprintf("%s — %s", t.Config.Name, key),
				Content:          renderContent(t.Config, *keyCol, row),
				Constant:         t.Config.Export.EntryType == schema.EntryConstant,
				PreventRecursion: t.Config.Export.PreventRecursion,
				Source:           Source,
			})
		}
	}
	return entries
}

// entryKeys builds the trigger keyword list: the key value first, then
// the table's configured extras, deduplicated case-insensitively.
func entryKeys(key string, extras []string) []string {
	keys := []string{key}
	seen := map[string]bool{strings.ToLower(key): true}
	for _, k := range extras {
		k = strings.TrimSpace(k)
		if k == "" || seen[strings.ToLower(k)] {
			continue
		}
		seen[strings.ToLower(k)] = true
		keys = append(keys, k)
	}
	return keys
}

// renderContent renders the row's non-key columns as a two-line markdown
// table so prompt builders and humans both read it naturally.
func renderContent(cfg schema.TableConfig, keyCol schema.Column, row *store.Row) string {
	var header, divider, values strings.Builder
	header.WriteString("|")
	divider.WriteString("|")
	values.WriteString("|")
	wrote := false
	for _, col := range cfg.Columns {
		if col.ID == keyCol.ID {
			continue
		}
		label := col.Label
		if label == "" {
			label = col.ID
		}
		header.WriteString(" " + escapeCell(label) + " |")
		divider.WriteString(" --- |")
		values.WriteString(" " + escapeCell(store.FormatValue(row.Cell(col))) + " |")
		wrote = true
	}
	if !wrote {
		return escapeCell(store.FormatValue(row.Cell(keyCol)))
	}
	return header.String() + "\n" + divider.String() + "\n" + values.String()
}

// escapeCell keeps cell text from breaking the markdown table layout.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
