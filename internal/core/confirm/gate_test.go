package confirm

import (
	"context"
	"errors"
	"testing"

	"github.com/usermgmt/account-console/internal/core/domain"
)

func TestGate_ConfirmWithoutRequestIsNoOp(t *testing.T) {
	calls := 0
	gate := NewGate(func(_ context.Context, _ domain.UserRecord) error {
		calls++
		return nil
	})

	executed, err := gate.Confirm(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if executed {
		t.Fatalf("confirm with nothing pending must not execute")
	}
	if calls != 0 {
		t.Fatalf("action was called %d times", calls)
	}
}

func TestGate_RequestAloneNeverExecutes(t *testing.T) {
	calls := 0
	gate := NewGate(func(_ context.Context, _ domain.UserRecord) error {
		calls++
		return nil
	})

	gate.Request(domain.UserRecord{ID: "1", Username: "alice"})
	if calls != 0 {
		t.Fatalf("a single request must never trigger the action")
	}
	if target, ok := gate.Pending(); !ok || target.Username != "alice" {
		t.Fatalf("expected alice pending, got %+v (ok=%v)", target, ok)
	}
}

func TestGate_LaterRequestReplacesTarget(t *testing.T) {
	var deleted []string
	gate := NewGate(func(_ context.Context, target domain.UserRecord) error {
		deleted = append(deleted, target.Username)
		return nil
	})

	gate.Request(domain.UserRecord{ID: "1", Username: "alice"})
	gate.Request(domain.UserRecord{ID: "2", Username: "bob"})

	executed, err := gate.Confirm(context.Background())
	if err != nil || !executed {
		t.Fatalf("confirm failed: executed=%v err=%v", executed, err)
	}
	if len(deleted) != 1 || deleted[0] != "bob" {
		t.Fatalf("expected bob only, got %v", deleted)
	}
}

func TestGate_CancelDiscardsTarget(t *testing.T) {
	calls := 0
	gate := NewGate(func(_ context.Context, _ domain.UserRecord) error {
		calls++
		return nil
	})

	gate.Request(domain.UserRecord{ID: "1", Username: "alice"})
	gate.Cancel()

	if _, ok := gate.Pending(); ok {
		t.Fatalf("cancel must clear the pending target")
	}
	if executed, _ := gate.Confirm(context.Background()); executed {
		t.Fatalf("confirm after cancel must be a no-op")
	}
	if calls != 0 {
		t.Fatalf("action was called %d times", calls)
	}
}

func TestGate_ReturnsToIdleAfterFailure(t *testing.T) {
	gate := NewGate(func(_ context.Context, _ domain.UserRecord) error {
		return errors.New("delete rejected")
	})

	gate.Request(domain.UserRecord{ID: "1", Username: "alice"})
	executed, err := gate.Confirm(context.Background())
	if !executed {
		t.Fatalf("expected the action to run")
	}
	if err == nil {
		t.Fatalf("expected the action error to propagate")
	}
	if _, ok := gate.Pending(); ok {
		t.Fatalf("gate must be idle after a failed confirm so the admin can retry")
	}
}
