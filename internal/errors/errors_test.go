package errors

import (
	stderrors "errors"
	"testing"
)

func TestConstructors(t *testing.T) {
	cases := []struct {
		err    *EngineError
		code   ErrorCode
		status int
	}{
		{NewInvalidRequest("bad"), ErrInvalidRequest, 400},
		{NewParse("unparseable"), ErrParse, 400},
		{NewNotFound("inventory"), ErrNotFound, 404},
		{NewConflict("exists"), ErrConflict, 409},
		{NewStructural("no tables"), ErrStructural, 422},
		{NewCancelled("sync"), ErrCancelled, 499},
		{NewInternal(stderrors.New("boom")), ErrInternal, 500},
	}
	for _, c := range cases {
		if c.err.Code != c.code {
			t.Errorf("code = %s, want %s", c.err.Code, c.code)
		}
		if c.err.Status != c.status {
			t.Errorf("%s: status = %d, want %d", c.code, c.err.Status, c.status)
		}
		if c.err.Error() == "" {
			t.Errorf("%s: empty error string", c.code)
		}
	}
}

func TestNotFound_Details(t *testing.T) {
	err := NewNotFound("turn-123")
	if err.Details["identifier"] != "turn-123" {
		t.Errorf("details = %v", err.Details)
	}
}

func TestInternal_NilError(t *testing.T) {
	if got := NewInternal(nil).Message; got != "internal error" {
		t.Errorf("message = %q", got)
	}
}

func TestIs(t *testing.T) {
	err := NewConflict("busy")
	if !Is(err, ErrConflict) {
		t.Error("Is should match the code")
	}
	if Is(err, ErrNotFound) {
		t.Error("Is should not match a different code")
	}
	if Is(stderrors.New("plain"), ErrInternal) {
		t.Error("plain errors never match")
	}
}
