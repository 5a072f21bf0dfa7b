package ops

import (
	"testing"

	"github.com/hpungsan/mythic/internal/errors"
)

func TestSessionList(t *testing.T) {
	database, cfg := newTestEnv(t)

	out, err := SessionList(database)
	if err != nil {
		t.Fatalf("SessionList failed: %v", err)
	}
	if len(out.Sessions) != 0 {
		t.Errorf("fresh store should have no sessions, got %+v", out.Sessions)
	}

	for _, session := range []string{"campaign-a", "campaign-b"} {
		if _, err := TableCreate(database, cfg, TableCreateInput{Session: session, Config: inventoryConfig()}); err != nil {
			t.Fatal(err)
		}
	}

	out, err = SessionList(database)
	if err != nil {
		t.Fatalf("SessionList failed: %v", err)
	}
	if len(out.Sessions) != 2 {
		t.Errorf("sessions = %+v", out.Sessions)
	}
}

func TestSessionDelete(t *testing.T) {
	database, cfg := newTestEnv(t)
	if _, err := TableCreate(database, cfg, TableCreateInput{Session: "campaign-a", Config: inventoryConfig()}); err != nil {
		t.Fatal(err)
	}

	out, err := SessionDelete(database, cfg, SessionDeleteInput{Session: "campaign-a"})
	if err != nil {
		t.Fatalf("SessionDelete failed: %v", err)
	}
	if !out.Deleted {
		t.Error("expected deleted=true")
	}

	_, err = SessionDelete(database, cfg, SessionDeleteInput{Session: "campaign-a"})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected NOT_FOUND on second delete, got %v", err)
	}

	// The deleted session's state is gone; addressing it starts fresh.
	if _, err := TableGet(database, cfg, TableGetInput{Session: "campaign-a", TableID: "inventory"}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected NOT_FOUND after delete, got %v", err)
	}
}
