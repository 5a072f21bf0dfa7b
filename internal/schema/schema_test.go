package schema

import (
	"encoding/json"
	"testing"
)

func inventoryConfig() TableConfig {
	return TableConfig{
		ID:   "inventory",
		Name: "Inventory",
		Columns: []Column{
			{ID: "name", Label: "Item", Type: TypeString},
			{ID: "qty", Label: "Qty", Type: TypeNumber},
		},
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := inventoryConfig()
	if problems := cfg.Validate(); len(problems) != 0 {
		t.Fatalf("expected no problems, got %v", problems)
	}
}

func TestValidate_DuplicateColumnID(t *testing.T) {
	cfg := inventoryConfig()
	cfg.Columns = append(cfg.Columns, Column{ID: "name", Type: TypeString})

	problems := cfg.Validate()
	if len(problems) == 0 {
		t.Fatal("expected duplicate column id to be reported")
	}
}

func TestValidate_UnknownType(t *testing.T) {
	cfg := inventoryConfig()
	cfg.Columns[1].Type = "decimal"

	if problems := cfg.Validate(); len(problems) == 0 {
		t.Fatal("expected unknown column type to be reported")
	}
}

func TestValidate_LorebookKeyColumnMissing(t *testing.T) {
	cfg := inventoryConfig()
	cfg.LorebookLink = &LorebookLink{Enabled: true, KeyColumnID: "nope"}

	if problems := cfg.Validate(); len(problems) == 0 {
		t.Fatal("expected missing lorebook key column to be reported")
	}
}

func TestValidate_EmptyTable(t *testing.T) {
	cfg := TableConfig{}
	problems := cfg.Validate()
	if len(problems) < 2 {
		t.Fatalf("expected empty id and no columns to be reported, got %v", problems)
	}
}

func TestAddColumn_RejectsDuplicate(t *testing.T) {
	cfg := inventoryConfig()

	if cfg.AddColumn(Column{ID: "qty", Type: TypeNumber}) {
		t.Error("duplicate column id should be rejected")
	}
	if !cfg.AddColumn(Column{ID: "notes", Type: TypeString}) {
		t.Error("fresh column should be accepted")
	}
	if len(cfg.Columns) != 3 {
		t.Errorf("expected 3 columns, got %d", len(cfg.Columns))
	}
}

func TestAddColumn_DefaultsUnknownTypeToString(t *testing.T) {
	cfg := inventoryConfig()
	cfg.AddColumn(Column{ID: "weird", Type: "blob"})

	if got := cfg.Column("weird").Type; got != TypeString {
		t.Errorf("expected unknown type to default to string, got %q", got)
	}
}

func TestRenameColumn_LabelOnly(t *testing.T) {
	cfg := inventoryConfig()

	if !cfg.RenameColumn("qty", "Quantity") {
		t.Fatal("rename of existing column should succeed")
	}
	if cfg.Column("qty") == nil {
		t.Fatal("column id must not change on rename")
	}
	if got := cfg.Column("qty").Label; got != "Quantity" {
		t.Errorf("label = %q, want Quantity", got)
	}
	if cfg.RenameColumn("missing", "X") {
		t.Error("rename of absent column should fail")
	}
}

func TestRemoveColumn(t *testing.T) {
	cfg := inventoryConfig()

	if !cfg.RemoveColumn("qty") {
		t.Fatal("remove of existing column should succeed")
	}
	if cfg.ColumnIndex("qty") != -1 {
		t.Error("removed column should not be found")
	}
	if cfg.RemoveColumn("qty") {
		t.Error("second remove should fail")
	}
}

func TestMergeExtra(t *testing.T) {
	cfg := inventoryConfig()
	cfg.Extra = map[string]json.RawMessage{
		"color": json.RawMessage(`"red"`),
		"pin":   json.RawMessage(`true`),
	}

	cfg.MergeExtra(map[string]json.RawMessage{
		"color": json.RawMessage(`"blue"`),
		"icon":  json.RawMessage(`"sword"`),
	})

	if string(cfg.Extra["color"]) != `"blue"` {
		t.Errorf("incoming key should overwrite, got %s", cfg.Extra["color"])
	}
	if string(cfg.Extra["pin"]) != `true` {
		t.Errorf("untouched key should survive, got %s", cfg.Extra["pin"])
	}
	if string(cfg.Extra["icon"]) != `"sword"` {
		t.Errorf("new key should be added, got %s", cfg.Extra["icon"])
	}
}

func TestDefaultValue(t *testing.T) {
	if v := DefaultValue(TypeString); v != "" {
		t.Errorf("string default = %v", v)
	}
	if v := DefaultValue(TypeNumber); v != float64(0) {
		t.Errorf("number default = %v", v)
	}
	if v := DefaultValue(TypeBoolean); v != false {
		t.Errorf("boolean default = %v", v)
	}
	if v, ok := DefaultValue(TypeList).([]any); !ok || len(v) != 0 {
		t.Errorf("list default = %v", v)
	}
}
