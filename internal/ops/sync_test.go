package ops

import (
	"testing"

	"github.com/hpungsan/mythic/internal/schema"
)

func npcConfig() schema.TableConfig {
	return schema.TableConfig{
		ID:   "npcs",
		Name: "NPCs",
		Columns: []schema.Column{
			{ID: "name", Label: "Name", Type: schema.TypeString},
			{ID: "mood", Label: "Mood", Type: schema.TypeString},
		},
		LorebookLink: &schema.LorebookLink{Enabled: true, KeyColumnID: "name"},
	}
}

func TestLorebookSync(t *testing.T) {
	database, cfg := newTestEnv(t)
	if _, err := TableCreate(database, cfg, TableCreateInput{Config: npcConfig()}); err != nil {
		t.Fatal(err)
	}
	added, err := RowAdd(database, cfg, RowAddInput{TableID: "npcs", Data: map[string]any{"name": "Mira", "mood": "wary"}})
	if err != nil {
		t.Fatal(err)
	}

	out, err := LorebookSync(database, cfg, LorebookSyncInput{})
	if err != nil {
		t.Fatalf("LorebookSync failed: %v", err)
	}
	if out.Count != 1 || len(out.Entries) != 1 {
		t.Fatalf("output = %+v", out)
	}
	entry := out.Entries[0]
	if entry.UID != "npcs:"+added.RowID {
		t.Errorf("uid = %q", entry.UID)
	}
	if len(entry.Keys) == 0 || entry.Keys[0] != "Mira" {
		t.Errorf("keys = %v", entry.Keys)
	}

	listed, err := LorebookList(database, cfg, LorebookListInput{})
	if err != nil {
		t.Fatalf("LorebookList failed: %v", err)
	}
	if len(listed.Entries) != 1 || listed.Entries[0].UID != entry.UID {
		t.Errorf("stored entries = %+v", listed.Entries)
	}
}

func TestLorebookSync_ReflectsDeletes(t *testing.T) {
	database, cfg := newTestEnv(t)
	if _, err := TableCreate(database, cfg, TableCreateInput{Config: npcConfig()}); err != nil {
		t.Fatal(err)
	}
	added, err := RowAdd(database, cfg, RowAddInput{TableID: "npcs", Data: map[string]any{"name": "Mira"}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := LorebookSync(database, cfg, LorebookSyncInput{}); err != nil {
		t.Fatal(err)
	}

	if _, err := RowDelete(database, cfg, RowDeleteInput{TableID: "npcs", RowID: added.RowID}); err != nil {
		t.Fatal(err)
	}
	out, err := LorebookSync(database, cfg, LorebookSyncInput{})
	if err != nil {
		t.Fatalf("second sync failed: %v", err)
	}
	if out.Count != 0 {
		t.Errorf("deleted row still mirrored: %+v", out.Entries)
	}

	listed, err := LorebookList(database, cfg, LorebookListInput{})
	if err != nil {
		t.Fatal(err)
	}
	if len(listed.Entries) != 0 {
		t.Errorf("stored entries = %+v", listed.Entries)
	}
}

func TestLorebookSync_NoLinkedTables(t *testing.T) {
	database, cfg := newTestEnv(t)
	if _, err := TableCreate(database, cfg, TableCreateInput{Config: inventoryConfig()}); err != nil {
		t.Fatal(err)
	}

	out, err := LorebookSync(database, cfg, LorebookSyncInput{})
	if err != nil {
		t.Fatalf("LorebookSync failed: %v", err)
	}
	if out.Count != 0 {
		t.Errorf("unlinked tables must not generate entries: %+v", out.Entries)
	}
}
