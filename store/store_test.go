package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"i4.energy/across/simaccess/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("unexpected error from Open(): %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMessages(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	first, err := s.SaveMessage(ctx, store.Inbound, "1234", "Hey!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ID == "" || first.CreatedAt.IsZero() {
		t.Errorf("expected ID and timestamp to be set, got %+v", first)
	}
	time.Sleep(2 * time.Millisecond)
	if _, err := s.SaveMessage(ctx, store.Outbound, "5678", "Hi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msgs, err := s.Messages(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Number != "5678" || msgs[0].Direction != store.Outbound {
		t.Errorf("expected newest message first, got %+v", msgs[0])
	}
	if msgs[1].ID != first.ID || msgs[1].Text != "Hey!" {
		t.Errorf("unexpected oldest message: %+v", msgs[1])
	}

	limited, err := s.Messages(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected limit to apply, got %d", len(limited))
	}
}

func TestCalls(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if _, err := s.SaveCall(ctx, "6073484940", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, err := s.SaveCall(ctx, "+15551234567", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calls, err := s.Calls(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if !calls[0].Missed || calls[0].Number != "+15551234567" {
		t.Errorf("expected newest call to be the missed one, got %+v", calls[0])
	}
	if calls[1].Missed {
		t.Errorf("expected answered call, got %+v", calls[1])
	}
}

func TestOpenBadPath(t *testing.T) {
	if _, err := store.Open(filepath.Join(t.TempDir(), "missing", "dir", "history.db")); err == nil {
		t.Error("expected error for a path in a missing directory")
	}
}
