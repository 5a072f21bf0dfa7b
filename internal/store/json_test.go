package store

import (
	"encoding/json"
	"testing"
)

func TestEncodeRow_FullTupleWithDefaults(t *testing.T) {
	cfg := inventoryConfig()
	row := &Row{ID: "r1", Cells: map[string]any{"name": "Sword"}}

	tuple := EncodeRow(cfg, row)
	if len(tuple) != 3 {
		t.Fatalf("tuple length = %d, want columns+1 = 3", len(tuple))
	}
	if tuple[0] != "r1" || tuple[1] != "Sword" {
		t.Errorf("tuple = %v", tuple)
	}
	if tuple[2] != float64(0) {
		t.Errorf("unwritten cell should encode as default, got %v", tuple[2])
	}
}

func TestDecodeRow_ShortTuple(t *testing.T) {
	cfg := inventoryConfig()

	row, err := DecodeRow(cfg, []any{"r1", "Sword"})
	if err != nil {
		t.Fatalf("short tuple should decode: %v", err)
	}
	if row.Cells["name"] != "Sword" {
		t.Errorf("name = %v", row.Cells["name"])
	}
	if _, ok := row.Cells["qty"]; ok {
		t.Error("missing slot should leave cell unwritten")
	}
}

func TestDecodeRow_ExtraSlotsDropped(t *testing.T) {
	cfg := inventoryConfig()

	row, err := DecodeRow(cfg, []any{"r1", "Sword", float64(2), "stray"})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(row.Cells) != 2 {
		t.Errorf("cells = %v, stray slot should be dropped", row.Cells)
	}
}

func TestDecodeRow_NilCellSkipped(t *testing.T) {
	cfg := inventoryConfig()

	row, err := DecodeRow(cfg, []any{"r1", nil, float64(2)})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := row.Cells["name"]; ok {
		t.Error("nil slot should leave cell unwritten")
	}
	if row.Cells["qty"] != float64(2) {
		t.Errorf("qty = %v", row.Cells["qty"])
	}
}

func TestDecodeRow_BadID(t *testing.T) {
	cfg := inventoryConfig()

	if _, err := DecodeRow(cfg, []any{}); err == nil {
		t.Error("empty tuple should be rejected")
	}
	if _, err := DecodeRow(cfg, []any{float64(7), "Sword"}); err == nil {
		t.Error("numeric id slot should be rejected")
	}
	if _, err := DecodeRow(cfg, []any{"", "Sword"}); err == nil {
		t.Error("empty id should be rejected")
	}
}

func TestTableJSON_RoundTrip(t *testing.T) {
	d := newTestDB(t)
	id := d.AddRow("inventory")
	d.UpdateCell("inventory", id, "name", "Sword")
	d.UpdateCell("inventory", id, "qty", 2)

	payload, err := json.Marshal(d.Table("inventory"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded Table
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	row := decoded.RowByID(id)
	if row == nil {
		t.Fatal("row id should survive the round trip")
	}
	if row.Cells["name"] != "Sword" || row.Cells["qty"] != float64(2) {
		t.Errorf("cells = %v", row.Cells)
	}
}

func TestTableJSON_PendingDeleteFiltered(t *testing.T) {
	d := newTestDB(t)
	keep := d.AddRow("inventory")
	gone := d.AddRow("inventory")
	d.Table("inventory").RowByID(gone).PendingDelete = true

	payload, err := json.Marshal(d.Table("inventory"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded Table
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(decoded.Rows) != 1 || decoded.Rows[0].ID != keep {
		t.Errorf("pending-delete row must not survive persistence, rows = %v", decoded.Rows)
	}
}
