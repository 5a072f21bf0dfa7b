package snapshot

import (
	"testing"

	"github.com/hpungsan/mythic/internal/schema"
	"github.com/hpungsan/mythic/internal/store"
)

func testDB(t *testing.T) (*store.Database, []string) {
	t.Helper()
	d := store.New()
	d.AddTable(schema.TableConfig{
		ID:      "inventory",
		Columns: []schema.Column{{ID: "name", Type: schema.TypeString}},
	})
	ids := []string{
		d.AddRow("inventory"),
		d.AddRow("inventory"),
		d.AddRow("inventory"),
	}
	return d, ids
}

func TestCapture_TableAndRowOrder(t *testing.T) {
	d, ids := testDB(t)
	d.AddTable(schema.TableConfig{
		ID:      "quests",
		Columns: []schema.Column{{ID: "title", Type: schema.TypeString}},
	})
	questID := d.AddRow("quests")

	snap := Capture(d)
	if len(snap) != 2 {
		t.Fatalf("snapshot tables = %d, want 2", len(snap))
	}
	if snap[0].TableID != "inventory" || snap[1].TableID != "quests" {
		t.Errorf("table ids = %q, %q", snap[0].TableID, snap[1].TableID)
	}
	for i, id := range ids {
		got, ok := snap.RowID(0, i)
		if !ok || got != id {
			t.Errorf("snap[0][%d] = %q, want %q", i, got, id)
		}
	}
	if got, _ := snap.RowID(1, 0); got != questID {
		t.Errorf("snap[1][0] = %q, want %q", got, questID)
	}
	if got, _ := snap.TableID(1); got != "quests" {
		t.Errorf("TableID(1) = %q", got)
	}
	if got, ok := snap.RowIDByTable("quests", 0); !ok || got != questID {
		t.Errorf("RowIDByTable(quests, 0) = %q", got)
	}
}

func TestCapture_ExcludesPendingDelete(t *testing.T) {
	d, ids := testDB(t)
	d.Table("inventory").RowByID(ids[1]).PendingDelete = true

	snap := Capture(d)
	if len(snap[0].RowIDs) != 2 {
		t.Fatalf("snapshot rows = %d, want 2", len(snap[0].RowIDs))
	}
	if snap[0].RowIDs[0] != ids[0] || snap[0].RowIDs[1] != ids[2] {
		t.Errorf("snap[0] = %v", snap[0].RowIDs)
	}
}

func TestSnapshot_ImmutableAfterLaterEdits(t *testing.T) {
	d, ids := testDB(t)
	snap := Capture(d)

	// Deleting a row afterwards must not change what was captured.
	d.DeleteRow("inventory", ids[0])

	got, ok := snap.RowID(0, 0)
	if !ok || got != ids[0] {
		t.Errorf("snapshot changed after delete: %q", got)
	}
}

func TestRowID_OutOfRange(t *testing.T) {
	d, _ := testDB(t)
	snap := Capture(d)

	cases := [][2]int{{-1, 0}, {5, 0}, {0, -1}, {0, 99}}
	for _, c := range cases {
		if _, ok := snap.RowID(c[0], c[1]); ok {
			t.Errorf("RowID(%d, %d) should be out of range", c[0], c[1])
		}
	}
	if _, ok := snap.TableID(5); ok {
		t.Error("TableID(5) should be out of range")
	}
	if _, ok := snap.RowIDByTable("ghost", 0); ok {
		t.Error("unknown table id should have no snapshot entry")
	}
}
