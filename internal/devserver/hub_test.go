package devserver

import (
	"strings"
	"testing"
	"time"

	"github.com/usermgmt/account-console/internal/core/domain"
)

func TestHub_NotifyReachesSubscriber(t *testing.T) {
	hub := NewHub()
	signals, cancel := hub.Subscribe()
	defer cancel()

	hub.NotifyUsersChanged()

	select {
	case name := <-signals:
		if name != domain.SignalUsersChanged {
			t.Fatalf("expected %q, got %q", domain.SignalUsersChanged, name)
		}
	case <-time.After(time.Second):
		t.Fatalf("signal never delivered")
	}
}

func TestHub_CancelClosesChannelAndIsIdempotent(t *testing.T) {
	hub := NewHub()
	signals, cancel := hub.Subscribe()

	cancel()
	cancel()

	if _, ok := <-signals; ok {
		t.Fatalf("expected a closed channel after cancel")
	}

	// A broadcast after cancel must not panic on the closed channel.
	hub.NotifyUsersChanged()
}

func TestHub_SlowSubscriberNeverBlocksBroadcast(t *testing.T) {
	hub := NewHub()
	_, cancel := hub.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		// Nobody reads; broadcasts beyond the buffer are dropped, not queued.
		for i := 0; i < 20; i++ {
			hub.NotifyUsersChanged()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("broadcast blocked on a slow subscriber")
	}
}

func TestReadablePassword(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 16; i++ {
		pw, err := readablePassword(12)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(pw) != 12 {
			t.Fatalf("expected 12 characters, got %q", pw)
		}
		for _, r := range pw {
			if !strings.ContainsRune(passwordChars, r) {
				t.Fatalf("character %q outside the readable charset", r)
			}
		}
		seen[pw] = struct{}{}
	}
	if len(seen) < 2 {
		t.Fatalf("generator produced identical passwords")
	}
}
