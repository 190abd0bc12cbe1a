package methodology

import (
	"context"
	"testing"
)

func TestSaveAndFind(t *testing.T) {
	s := NewFSStore(t.TempDir())
	ctx := context.Background()

	entries := []Methodology{
		{Problem: "fix flaky network retry logic in http client", Content: "use capped backoff"},
		{Problem: "add pagination to list endpoint", Content: "cursor tokens"},
		{Problem: "debug retry storm in network proxy", Content: "jitter"},
	}
	for _, m := range entries {
		if err := s.Save(ctx, m); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.Find(ctx, "network retry failure", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	for _, m := range got {
		if m.ID == "" || m.CreatedAt.IsZero() {
			t.Fatalf("stored entry missing ID or timestamp: %+v", m)
		}
	}
}

func TestFindNoMatches(t *testing.T) {
	s := NewFSStore(t.TempDir())
	ctx := context.Background()

	if err := s.Save(ctx, Methodology{Problem: "database migration ordering", Content: "x"}); err != nil {
		t.Fatal(err)
	}
	got, err := s.Find(ctx, "completely unrelated kernel panic", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no results, got %d", len(got))
	}
}

func TestFindEmptyStore(t *testing.T) {
	s := NewFSStore(t.TempDir())
	got, err := s.Find(context.Background(), "anything", 5)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
