package db

import (
	"database/sql"
	"testing"
	"time"

	"github.com/hpungsan/mythic/internal/action"
	"github.com/hpungsan/mythic/internal/errors"
	"github.com/hpungsan/mythic/internal/livelink"
	"github.com/hpungsan/mythic/internal/schema"
	"github.com/hpungsan/mythic/internal/snapshot"
	"github.com/hpungsan/mythic/internal/store"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func sampleData(t *testing.T) *store.Database {
	t.Helper()
	d := store.New()
	d.AddTable(schema.TableConfig{
		ID:      "inventory",
		Columns: []schema.Column{{ID: "name", Type: schema.TypeString}},
	})
	id := d.AddRow("inventory")
	d.UpdateCell("inventory", id, "name", "Sword")
	return d
}

func TestSaveLoadDatabase(t *testing.T) {
	database := testDB(t)
	data := sampleData(t)

	if err := SaveDatabase(database, "s1", data); err != nil {
		t.Fatalf("SaveDatabase failed: %v", err)
	}

	got, err := LoadDatabase(database, "s1")
	if err != nil {
		t.Fatalf("LoadDatabase failed: %v", err)
	}
	table := got.Table("inventory")
	if table == nil || len(table.Rows) != 1 {
		t.Fatalf("loaded tables = %+v", got.Tables)
	}
	if table.Rows[0].Cells["name"] != "Sword" {
		t.Errorf("cell = %v", table.Rows[0].Cells)
	}
}

func TestLoadDatabase_UnknownSessionIsEmpty(t *testing.T) {
	database := testDB(t)

	got, err := LoadDatabase(database, "never-saved")
	if err != nil {
		t.Fatalf("LoadDatabase failed: %v", err)
	}
	if len(got.Tables) != 0 || got.Version != store.CurrentVersion {
		t.Errorf("expected fresh empty database, got %+v", got)
	}
}

func TestSaveDatabase_Upsert(t *testing.T) {
	database := testDB(t)
	data := sampleData(t)

	if err := SaveDatabase(database, "s1", data); err != nil {
		t.Fatalf("first save: %v", err)
	}
	data.AddRow("inventory")
	if err := SaveDatabase(database, "s1", data); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := LoadDatabase(database, "s1")
	if err != nil {
		t.Fatalf("LoadDatabase failed: %v", err)
	}
	if len(got.Table("inventory").Rows) != 2 {
		t.Errorf("rows = %d, want 2", len(got.Table("inventory").Rows))
	}

	sessions, err := ListSessions(database)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Errorf("upsert should not duplicate the session row, got %d", len(sessions))
	}
}

func TestTurnLifecycle(t *testing.T) {
	database := testDB(t)
	snap := snapshot.Snapshot{{TableID: "inventory", RowIDs: []string{"r1", "r2"}}}

	turn := &Turn{
		ID:        "turn-1",
		SessionID: "s1",
		Snapshot:  snap,
		Status:    TurnOpen,
		CreatedAt: time.Now().Unix(),
	}
	if err := InsertTurn(database, turn); err != nil {
		t.Fatalf("InsertTurn failed: %v", err)
	}

	got, err := GetTurn(database, "turn-1")
	if err != nil {
		t.Fatalf("GetTurn failed: %v", err)
	}
	if got.Status != TurnOpen || got.AppliedAt != nil {
		t.Errorf("open turn = %+v", got)
	}
	if id, ok := got.Snapshot.RowID(0, 1); !ok || id != "r2" {
		t.Errorf("persisted snapshot = %v", got.Snapshot)
	}

	actions := []action.Action{{Type: action.Notify, Message: "hi"}}
	logs := []action.LogEntry{{Index: 0, Type: action.Notify, Outcome: action.OutcomeApplied}}
	if err := FinishTurn(database, "turn-1", actions, logs, []string{"hi"}); err != nil {
		t.Fatalf("FinishTurn failed: %v", err)
	}

	got, err = GetTurn(database, "turn-1")
	if err != nil {
		t.Fatalf("GetTurn after finish failed: %v", err)
	}
	if got.Status != TurnApplied || got.AppliedAt == nil {
		t.Errorf("finished turn = %+v", got)
	}
	if len(got.Actions) != 1 || len(got.Logs) != 1 || len(got.Notifications) != 1 {
		t.Errorf("audit payloads = %d/%d/%d", len(got.Actions), len(got.Logs), len(got.Notifications))
	}
}

func TestFinishTurn_UnknownTurn(t *testing.T) {
	database := testDB(t)
	err := FinishTurn(database, "ghost", nil, nil, nil)
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestLatestOpenTurn(t *testing.T) {
	database := testDB(t)
	base := time.Now().Unix()

	for i, id := range []string{"t1", "t2", "t3"} {
		turn := &Turn{ID: id, SessionID: "s1", Snapshot: snapshot.Snapshot{}, Status: TurnOpen, CreatedAt: base + int64(i)}
		if err := InsertTurn(database, turn); err != nil {
			t.Fatalf("InsertTurn %s failed: %v", id, err)
		}
	}
	if err := FinishTurn(database, "t3", nil, nil, nil); err != nil {
		t.Fatalf("FinishTurn failed: %v", err)
	}

	got, err := LatestOpenTurn(database, "s1")
	if err != nil {
		t.Fatalf("LatestOpenTurn failed: %v", err)
	}
	if got.ID != "t2" {
		t.Errorf("latest open = %s, want t2", got.ID)
	}

	if _, err := LatestOpenTurn(database, "other"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected NOT_FOUND for session without turns, got %v", err)
	}
}

func TestListTurns_NewestFirst(t *testing.T) {
	database := testDB(t)
	base := time.Now().Unix()
	for i, id := range []string{"t1", "t2"} {
		turn := &Turn{ID: id, SessionID: "s1", Snapshot: snapshot.Snapshot{}, Status: TurnOpen, CreatedAt: base + int64(i)}
		if err := InsertTurn(database, turn); err != nil {
			t.Fatalf("InsertTurn failed: %v", err)
		}
	}

	turns, err := ListTurns(database, "s1", 0)
	if err != nil {
		t.Fatalf("ListTurns failed: %v", err)
	}
	if len(turns) != 2 || turns[0].ID != "t2" {
		t.Errorf("turns = %+v", turns)
	}
}

func TestReplaceGeneratedEntries(t *testing.T) {
	database := testDB(t)

	first := []livelink.WorldInfoEntry{
		{UID: "npcs:r1", Keys: []string{"Mira"}, Content: "c1", Source: livelink.Source},
		{UID: "npcs:r2", Keys: []string{"Tobb"}, Content: "c2", Source: livelink.Source},
	}
	if err := ReplaceGeneratedEntries(database, "s1", first); err != nil {
		t.Fatalf("first replace failed: %v", err)
	}

	second := []livelink.WorldInfoEntry{
		{UID: "npcs:r2", Keys: []string{"Tobb", "guard"}, Content: "c2'", Constant: true, Source: livelink.Source},
	}
	if err := ReplaceGeneratedEntries(database, "s1", second); err != nil {
		t.Fatalf("second replace failed: %v", err)
	}

	entries, err := ListEntries(database, "s1")
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %+v, want the replaced set only", entries)
	}
	e := entries[0]
	if e.UID != "npcs:r2" || e.Content != "c2'" || !e.Constant {
		t.Errorf("entry = %+v", e)
	}
	if len(e.Keys) != 2 || e.Keys[1] != "guard" {
		t.Errorf("keys = %v", e.Keys)
	}
}

func TestReplaceGeneratedEntries_SessionScoped(t *testing.T) {
	database := testDB(t)

	a := []livelink.WorldInfoEntry{{UID: "x:1", Keys: []string{"a"}, Content: "a", Source: livelink.Source}}
	b := []livelink.WorldInfoEntry{{UID: "x:2", Keys: []string{"b"}, Content: "b", Source: livelink.Source}}
	if err := ReplaceGeneratedEntries(database, "s1", a); err != nil {
		t.Fatal(err)
	}
	if err := ReplaceGeneratedEntries(database, "s2", b); err != nil {
		t.Fatal(err)
	}
	if err := ReplaceGeneratedEntries(database, "s1", nil); err != nil {
		t.Fatal(err)
	}

	entries, err := ListEntries(database, "s2")
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if len(entries) != 1 || entries[0].UID != "x:2" {
		t.Errorf("other session's entries must survive, got %+v", entries)
	}
}

func TestDeleteSession_Cascades(t *testing.T) {
	database := testDB(t)

	if err := SaveDatabase(database, "s1", sampleData(t)); err != nil {
		t.Fatal(err)
	}
	turn := &Turn{ID: "t1", SessionID: "s1", Snapshot: snapshot.Snapshot{}, Status: TurnOpen, CreatedAt: time.Now().Unix()}
	if err := InsertTurn(database, turn); err != nil {
		t.Fatal(err)
	}
	entries := []livelink.WorldInfoEntry{{UID: "x:1", Keys: []string{"a"}, Content: "a", Source: livelink.Source}}
	if err := ReplaceGeneratedEntries(database, "s1", entries); err != nil {
		t.Fatal(err)
	}

	if err := DeleteSession(database, "s1"); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}

	if _, err := GetTurn(database, "t1"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("turns should cascade, got %v", err)
	}
	left, err := ListEntries(database, "s1")
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if len(left) != 0 {
		t.Errorf("entries should cascade, got %+v", left)
	}

	if err := DeleteSession(database, "s1"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("second delete should be NOT_FOUND, got %v", err)
	}
}
