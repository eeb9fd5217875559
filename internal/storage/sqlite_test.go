package storage

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// the schema_version count stays correct (migration not re-applied).
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}

	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}

	if len(v1) == 0 {
		t.Fatal("expected at least one applied migration")
	}
	if len(v1) != len(v2) {
		t.Errorf("migration count changed across reopens: %d vs %d", len(v1), len(v2))
	}
}

func TestOpen_FileBackedUsesWAL(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	var mode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("querying journal_mode: %v", err)
	}
	if !strings.EqualFold(mode, "wal") {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestAppendAndListMessages(t *testing.T) {
	s := openTestStore(t)

	turns := []struct {
		role, content string
	}{
		{"user", "do you have lamps?"},
		{"assistant", "We carry two lamps."},
		{"user", "which is cheaper?"},
	}
	for _, turn := range turns {
		if err := s.AppendMessage(turn.role, turn.content); err != nil {
			t.Fatalf("AppendMessage: %v", err)
		}
	}

	messages, err := s.ListMessages(0)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}

	// Insertion order is preserved.
	for i, turn := range turns {
		if messages[i].Role != turn.role || messages[i].Content != turn.content {
			t.Errorf("message %d = %s: %q, want %s: %q",
				i, messages[i].Role, messages[i].Content, turn.role, turn.content)
		}
		if messages[i].ID == "" {
			t.Errorf("message %d has empty id", i)
		}
		if messages[i].CreatedAt.IsZero() {
			t.Errorf("message %d has zero timestamp", i)
		}
	}
}

func TestListMessages_Limit(t *testing.T) {
	s := openTestStore(t)

	for i := 0; i < 5; i++ {
		if err := s.AppendMessage("user", fmt.Sprintf("message %d", i)); err != nil {
			t.Fatalf("AppendMessage: %v", err)
		}
	}

	messages, err := s.ListMessages(2)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(messages) != 2 {
		t.Errorf("expected 2 messages, got %d", len(messages))
	}
}

func TestRecordAndListRequests(t *testing.T) {
	s := openTestStore(t)

	if err := s.RecordRequest("catalog", "ok", "", 120*time.Millisecond); err != nil {
		t.Fatalf("RecordRequest: %v", err)
	}
	if err := s.RecordRequest("chat", "error", "backend returned 500", 40*time.Millisecond); err != nil {
		t.Fatalf("RecordRequest: %v", err)
	}

	requests, err := s.ListRequests(10)
	if err != nil {
		t.Fatalf("ListRequests: %v", err)
	}
	if len(requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(requests))
	}

	// Newest first.
	if requests[0].Workflow != "chat" {
		t.Errorf("first request = %q, want chat", requests[0].Workflow)
	}
	if requests[0].Status != "error" || requests[0].Detail != "backend returned 500" {
		t.Errorf("request = %+v", requests[0])
	}
	if requests[0].Duration != 40*time.Millisecond {
		t.Errorf("duration = %v, want 40ms", requests[0].Duration)
	}
}

func TestListRequests_DefaultLimit(t *testing.T) {
	s := openTestStore(t)

	for i := 0; i < 60; i++ {
		if err := s.RecordRequest("search", "ok", "", time.Millisecond); err != nil {
			t.Fatalf("RecordRequest: %v", err)
		}
	}

	requests, err := s.ListRequests(0)
	if err != nil {
		t.Fatalf("ListRequests: %v", err)
	}
	if len(requests) != 50 {
		t.Errorf("expected default cap of 50, got %d", len(requests))
	}
}
