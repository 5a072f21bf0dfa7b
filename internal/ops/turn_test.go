package ops

import (
	"strings"
	"testing"

	"github.com/hpungsan/mythic/internal/action"
	"github.com/hpungsan/mythic/internal/db"
	"github.com/hpungsan/mythic/internal/errors"
)

func TestTurnBegin(t *testing.T) {
	database, cfg := newTestEnv(t)
	if _, err := TableCreate(database, cfg, TableCreateInput{Config: inventoryConfig()}); err != nil {
		t.Fatal(err)
	}
	added, err := RowAdd(database, cfg, RowAddInput{TableID: "inventory", Data: map[string]any{"name": "Sword", "qty": 1}})
	if err != nil {
		t.Fatal(err)
	}

	out, err := TurnBegin(database, cfg, TurnBeginInput{})
	if err != nil {
		t.Fatalf("TurnBegin failed: %v", err)
	}
	if out.TurnID == "" {
		t.Fatal("turn id missing")
	}
	if id, ok := out.Snapshot.RowID(0, 0); !ok || id != added.RowID {
		t.Errorf("snapshot = %v", out.Snapshot)
	}
	if !strings.Contains(out.PromptBlock, "### [0] Inventory") {
		t.Errorf("prompt block missing table header:\n%s", out.PromptBlock)
	}
	if !strings.Contains(out.PromptBlock, "| 0 | Sword | 1 |") {
		t.Errorf("prompt block missing row:\n%s", out.PromptBlock)
	}
}

func TestActionsApply_UpdateAndInsert(t *testing.T) {
	database, cfg := newTestEnv(t)
	if _, err := TableCreate(database, cfg, TableCreateInput{Config: inventoryConfig()}); err != nil {
		t.Fatal(err)
	}
	if _, err := RowAdd(database, cfg, RowAddInput{TableID: "inventory", Data: map[string]any{"name": "Sword", "qty": 1}}); err != nil {
		t.Fatal(err)
	}

	turn, err := TurnBegin(database, cfg, TurnBeginInput{})
	if err != nil {
		t.Fatal(err)
	}

	raw := "Here are the updates:\n```json\n[" +
		`{"type":"UPDATE","tableIndex":0,"rowIndex":0,"data":{"qty":2}},` +
		`{"type":"INSERT","tableIndex":0,"data":{"name":"Shield","qty":1}}` +
		"]\n```"
	out, err := ActionsApply(database, cfg, ActionsApplyInput{TurnID: turn.TurnID, Raw: raw})
	if err != nil {
		t.Fatalf("ActionsApply failed: %v", err)
	}
	if out.Applied != 2 || out.Skipped != 0 || out.Truncated != 0 {
		t.Errorf("output = %+v", out)
	}
	if len(out.Notifications) != 0 {
		t.Errorf("notifications = %v", out.Notifications)
	}

	got, err := TableGet(database, cfg, TableGetInput{TableID: "inventory"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Rows) != 2 {
		t.Fatalf("rows = %v", got.Rows)
	}
	if got.Rows[0][1] != "Sword" || got.Rows[0][2] != float64(2) {
		t.Errorf("updated row = %v", got.Rows[0])
	}
	if got.Rows[1][1] != "Shield" {
		t.Errorf("inserted row = %v", got.Rows[1])
	}
}

func TestActionsApply_DefaultsToLatestOpenTurn(t *testing.T) {
	database, cfg := newTestEnv(t)
	if _, err := TableCreate(database, cfg, TableCreateInput{Config: inventoryConfig()}); err != nil {
		t.Fatal(err)
	}
	turn, err := TurnBegin(database, cfg, TurnBeginInput{})
	if err != nil {
		t.Fatal(err)
	}

	out, err := ActionsApply(database, cfg, ActionsApplyInput{
		Actions: []action.Action{{Type: action.Insert, TableID: "inventory", Data: map[string]any{"name": "Rope"}}},
	})
	if err != nil {
		t.Fatalf("ActionsApply failed: %v", err)
	}
	if out.TurnID != turn.TurnID {
		t.Errorf("turn id = %s, want %s", out.TurnID, turn.TurnID)
	}
}

func TestActionsApply_RawAndActionsConflict(t *testing.T) {
	database, cfg := newTestEnv(t)
	_, err := ActionsApply(database, cfg, ActionsApplyInput{
		Raw:     "[]",
		Actions: []action.Action{},
	})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected INVALID_REQUEST, got %v", err)
	}
}

func TestActionsApply_MissingBatch(t *testing.T) {
	database, cfg := newTestEnv(t)
	_, err := ActionsApply(database, cfg, ActionsApplyInput{})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected INVALID_REQUEST, got %v", err)
	}
}

func TestActionsApply_UnparseableRaw(t *testing.T) {
	database, cfg := newTestEnv(t)
	_, err := ActionsApply(database, cfg, ActionsApplyInput{Raw: "the goblin flees north"})
	if !errors.Is(err, errors.ErrParse) {
		t.Errorf("expected PARSE_ERROR, got %v", err)
	}
}

func TestActionsApply_NoOpenTurn(t *testing.T) {
	database, cfg := newTestEnv(t)
	_, err := ActionsApply(database, cfg, ActionsApplyInput{Raw: "[]"})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestActionsApply_WrongSession(t *testing.T) {
	database, cfg := newTestEnv(t)
	turn, err := TurnBegin(database, cfg, TurnBeginInput{Session: "campaign-a"})
	if err != nil {
		t.Fatal(err)
	}

	_, err = ActionsApply(database, cfg, ActionsApplyInput{
		Session: "campaign-b",
		TurnID:  turn.TurnID,
		Raw:     "[]",
	})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected INVALID_REQUEST, got %v", err)
	}
}

func TestActionsApply_AlreadyApplied(t *testing.T) {
	database, cfg := newTestEnv(t)
	turn, err := TurnBegin(database, cfg, TurnBeginInput{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ActionsApply(database, cfg, ActionsApplyInput{TurnID: turn.TurnID, Raw: "[]"}); err != nil {
		t.Fatalf("first apply failed: %v", err)
	}

	_, err = ActionsApply(database, cfg, ActionsApplyInput{TurnID: turn.TurnID, Raw: "[]"})
	if !errors.Is(err, errors.ErrConflict) {
		t.Errorf("expected CONFLICT, got %v", err)
	}
}

func TestActionsApply_TruncatesOversizedBatch(t *testing.T) {
	database, cfg := newTestEnv(t)
	cfg.MaxActionsPerBatch = 2
	if _, err := TurnBegin(database, cfg, TurnBeginInput{}); err != nil {
		t.Fatal(err)
	}

	batch := []action.Action{
		{Type: action.Notify, Message: "one"},
		{Type: action.Notify, Message: "two"},
		{Type: action.Notify, Message: "three"},
	}
	out, err := ActionsApply(database, cfg, ActionsApplyInput{Actions: batch})
	if err != nil {
		t.Fatalf("ActionsApply failed: %v", err)
	}
	if out.Applied != 2 || out.Truncated != 1 {
		t.Errorf("output = %+v", out)
	}
	if len(out.Notifications) != 2 || out.Notifications[1] != "two" {
		t.Errorf("notifications = %v", out.Notifications)
	}
}

func TestTurnList(t *testing.T) {
	database, cfg := newTestEnv(t)
	first, err := TurnBegin(database, cfg, TurnBeginInput{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := TurnBegin(database, cfg, TurnBeginInput{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ActionsApply(database, cfg, ActionsApplyInput{TurnID: second.TurnID, Raw: "[]"}); err != nil {
		t.Fatal(err)
	}

	out, err := TurnList(database, cfg, TurnListInput{})
	if err != nil {
		t.Fatalf("TurnList failed: %v", err)
	}
	if len(out.Turns) != 2 {
		t.Fatalf("turns = %+v", out.Turns)
	}
	byID := map[string]string{}
	for _, turn := range out.Turns {
		byID[turn.ID] = turn.Status
	}
	if byID[first.TurnID] != db.TurnOpen {
		t.Errorf("first turn status = %s", byID[first.TurnID])
	}
	if byID[second.TurnID] != db.TurnApplied {
		t.Errorf("second turn status = %s", byID[second.TurnID])
	}

	limited, err := TurnList(database, cfg, TurnListInput{Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(limited.Turns) != 1 {
		t.Errorf("limited turns = %d", len(limited.Turns))
	}
}
