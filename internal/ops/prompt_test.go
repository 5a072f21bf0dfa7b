package ops

import (
	"strings"
	"testing"

	"github.com/hpungsan/mythic/internal/schema"
	"github.com/hpungsan/mythic/internal/store"
)

func promptDB() *store.Database {
	d := store.New()
	d.GlobalRules = "Track state precisely."
	d.AddTable(schema.TableConfig{
		ID:      "inventory",
		Name:    "Inventory",
		Columns: []schema.Column{{ID: "name", Label: "Name", Type: schema.TypeString}},
		Export:  schema.ExportConfig{Enabled: true},
		AIRules: &schema.AIRules{Insert: "add one row per new item"},
	})
	d.AddTable(schema.TableConfig{
		ID:      "secrets",
		Name:    "Secrets",
		Columns: []schema.Column{{ID: "note", Type: schema.TypeString}},
		Export:  schema.ExportConfig{Enabled: true, Strategy: schema.StrategyNever},
	})
	id := d.AddRow("inventory")
	d.UpdateCell("inventory", id, "name", "Sword | rusty")
	return d
}

func TestRenderPromptBlock(t *testing.T) {
	got := RenderPromptBlock(promptDB(), 100)

	if !strings.HasPrefix(got, "Track state precisely.") {
		t.Errorf("global rules missing:\n%s", got)
	}
	if !strings.Contains(got, "### [0] Inventory") {
		t.Errorf("table header missing:\n%s", got)
	}
	if strings.Contains(got, "Secrets") {
		t.Errorf("never-strategy table leaked into the prompt:\n%s", got)
	}
	if !strings.Contains(got, `Sword \| rusty`) {
		t.Errorf("pipe in cell not escaped:\n%s", got)
	}
	if !strings.Contains(got, "- insert: add one row per new item") {
		t.Errorf("rules line missing:\n%s", got)
	}
}

func TestRenderPromptBlock_RowLimit(t *testing.T) {
	d := promptDB()
	for i := 0; i < 4; i++ {
		d.AddRow("inventory")
	}

	got := RenderPromptBlock(d, 2)
	if !strings.Contains(got, "(3 more rows omitted)") {
		t.Errorf("omission marker missing:\n%s", got)
	}
	if strings.Contains(got, "| 2 |") {
		t.Errorf("rows past the limit should not render:\n%s", got)
	}
}

func TestRenderPromptBlock_Empty(t *testing.T) {
	if got := RenderPromptBlock(store.New(), 100); got != "" {
		t.Errorf("empty database should render nothing, got %q", got)
	}
}
