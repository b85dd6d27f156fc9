package inmemory

import (
	"context"
	"testing"
	"time"
)

func TestEnsureCreatesAndReuses(t *testing.T) {
	t.Parallel()
	store := NewStore()

	sess, err := store.Ensure(context.Background(), "", time.Minute)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if sess.ID == "" {
		t.Fatal("expected generated session id")
	}

	again, err := store.Ensure(context.Background(), sess.ID, time.Minute)
	if err != nil {
		t.Fatalf("Ensure existing: %v", err)
	}
	if again != sess {
		t.Fatal("Ensure should return the same session instance")
	}

	unknown, err := store.Ensure(context.Background(), "missing-id", time.Minute)
	if err != nil {
		t.Fatalf("Ensure unknown: %v", err)
	}
	if unknown.ID == "missing-id" {
		t.Fatal("unknown id must yield a fresh session, not adopt the id")
	}
}

func TestGetExpired(t *testing.T) {
	t.Parallel()
	store := NewStore()
	now := time.Now()
	store.now = func() time.Time { return now }

	sess, err := store.Ensure(context.Background(), "", time.Minute)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	got, err := store.Get(context.Background(), sess.ID)
	if err != nil || got == nil {
		t.Fatalf("Get before expiry = %v, %v", got, err)
	}

	store.now = func() time.Time { return now.Add(2 * time.Minute) }
	got, err = store.Get(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("Get after expiry: %v", err)
	}
	if got != nil {
		t.Fatal("expired session should be gone")
	}
}
