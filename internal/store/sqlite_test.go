package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
)

func newTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustCreate(t *testing.T, s *SQLite, userID, text string) string {
	t.Helper()
	created, err := s.Create(context.Background(), CreateParams{Text: text, UserID: userID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("expected 1 created memory, got %d", len(created))
	}
	return created[0].ID
}

func TestCreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := mustCreate(t, s, "u1", "prefers dark roast coffee")
	mem, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if mem.Text != "prefers dark roast coffee" {
		t.Errorf("unexpected text %q", mem.Text)
	}
	if mem.CreatedAt == nil {
		t.Error("expected created_at")
	}
}

func TestCreateWithCategories(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, CreateParams{
		Text:     "deploys with terraform and argo",
		UserID:   "u1",
		Metadata: map[string]any{"categories": []any{"tools", "work"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	mem, err := s.Get(ctx, created[0].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(mem.Categories) != 2 || mem.Categories[0] != "tools" {
		t.Errorf("unexpected categories %v", mem.Categories)
	}
}

func TestSearchRanksByTokenMatches(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreate(t, s, "u1", "drinks coffee every single morning")
	mustCreate(t, s, "u1", "coffee is acceptable sometimes")
	mustCreate(t, s, "u1", "rides a bike to the office")

	results, err := s.Search(ctx, SearchParams{Query: "coffee morning", UserID: "u1", TopK: 10})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(results))
	}
	if results[0].Text != "drinks coffee every single morning" {
		t.Errorf("two-token match should rank first, got %q", results[0].Text)
	}
	if results[0].Score == nil || *results[0].Score != 1.0 {
		t.Errorf("expected score 1.0, got %v", results[0].Score)
	}
	if results[1].Score == nil || *results[1].Score != 0.5 {
		t.Errorf("expected score 0.5, got %v", results[1].Score)
	}
}

func TestSearchUserIsolation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreate(t, s, "u1", "likes quiet coworking spaces")
	mustCreate(t, s, "u2", "likes loud coworking spaces")

	results, err := s.Search(ctx, SearchParams{Query: "coworking", UserID: "u1", TopK: 10})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 hit for u1, got %d", len(results))
	}
}

func TestSearchTopK(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		mustCreate(t, s, "u1", "another note about golang tooling")
	}
	results, err := s.Search(ctx, SearchParams{Query: "golang", UserID: "u1", TopK: 3})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected topK=3 hits, got %d", len(results))
	}
}

func TestUpdateRecordsHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := mustCreate(t, s, "u1", "timezone is UTC+1")
	updated, err := s.Update(ctx, UpdateParams{ID: id, Text: "timezone is UTC+2", UserID: "u1"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Text != "timezone is UTC+2" {
		t.Errorf("unexpected text %q", updated.Text)
	}
	if updated.UpdatedAt == nil {
		t.Error("expected updated_at after update")
	}

	entries, err := s.History(ctx, id)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected ADD + UPDATE events, got %d", len(entries))
	}
	if entries[0].Event != "ADD" || entries[1].Event != "UPDATE" {
		t.Errorf("unexpected events: %s, %s", entries[0].Event, entries[1].Event)
	}
	if entries[1].OldText != "timezone is UTC+1" {
		t.Errorf("unexpected old text %q", entries[1].OldText)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := mustCreate(t, s, "u1", "temporary note to forget")
	if err := s.Delete(ctx, id, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, id); err == nil {
		t.Fatal("expected error getting deleted memory")
	}

	all, err := s.ListAll(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty corpus, got %d", len(all))
	}
}

func TestCreateConcurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const n = 8
	ids := make([]string, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			created, err := s.Create(ctx, CreateParams{
				Text:   fmt.Sprintf("concurrent note number %d", i),
				UserID: "u1",
			})
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = created[0].ID
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("create %d: %v", i, errs[i])
		}
		if seen[ids[i]] {
			t.Fatalf("duplicate id %s from concurrent creates", ids[i])
		}
		seen[ids[i]] = true
	}

	all, err := s.ListAll(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != n {
		t.Fatalf("expected %d memories, got %d", n, len(all))
	}
}

func TestDeleteMissing(t *testing.T) {
	s := newTestStore(t)
	if err := s.Delete(context.Background(), "nope", "u1"); err == nil {
		t.Fatal("expected error deleting unknown memory")
	}
}
