package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rcliao/memgate/internal/config"
	"github.com/rcliao/memgate/internal/curator"
	"github.com/rcliao/memgate/internal/model"
	"github.com/rcliao/memgate/internal/store"
)

func newTestServer(t *testing.T, cfg config.Config) *Server {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return New(cfg, curator.New(cfg, st))
}

func doJSON(t *testing.T, s *Server, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var decoded map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec.Code, decoded
}

func TestAddRejectedVerbose(t *testing.T) {
	s := newTestServer(t, config.Default())

	code, resp := doJSON(t, s, http.MethodPost, "/add_memory",
		map[string]any{"content": "thanks", "user_id": "u1"})
	if code != http.StatusOK {
		t.Fatalf("rejection must be 200, got %d", code)
	}
	if resp["ok"] != false || resp["rejected"] != true {
		t.Fatalf("expected verbose rejection, got %v", resp)
	}
	if _, ok := resp["issues"]; !ok {
		t.Error("verbose mode should include issues")
	}
}

func TestAddRejectedSilent(t *testing.T) {
	cfg := config.Default()
	cfg.Verbose = false
	s := newTestServer(t, cfg)

	code, resp := doJSON(t, s, http.MethodPost, "/add_memory",
		map[string]any{"content": "thanks", "user_id": "u1"})
	if code != http.StatusOK {
		t.Fatalf("rejection must be 200, got %d", code)
	}
	if resp["ok"] != false {
		t.Fatalf("expected ok=false, got %v", resp)
	}
	if _, leaked := resp["issues"]; leaked {
		t.Error("silent mode must not leak issues")
	}
	if _, leaked := resp["score"]; leaked {
		t.Error("silent mode must not leak scores")
	}
}

func TestAddAndDuplicate(t *testing.T) {
	s := newTestServer(t, config.Default())
	// 13 distinct tokens: the stored copy gains a two-token capture
	// footer, so Jaccard on resubmit is 13/15 ≈ 0.87, above 0.85.
	content := "the user prefers dark roast coffee with oat milk every single weekday morning"

	code, resp := doJSON(t, s, http.MethodPost, "/add_memory",
		map[string]any{"content": content, "user_id": "u1"})
	if code != http.StatusOK || resp["ok"] != true {
		t.Fatalf("first add should succeed: %d %v", code, resp)
	}
	if id, _ := resp["memory_id"].(string); id == "" {
		t.Fatal("expected a memory id")
	}

	code, resp = doJSON(t, s, http.MethodPost, "/add_memory",
		map[string]any{"content": content, "user_id": "u1"})
	if code != http.StatusOK {
		t.Fatalf("duplicate must be 200, got %d", code)
	}
	if resp["duplicate"] != true {
		t.Fatalf("expected duplicate verdict, got %v", resp)
	}
	if id, _ := resp["existing_memory_id"].(string); id == "" {
		t.Error("verbose duplicate should name the existing memory")
	}
}

func TestAddMissingContent(t *testing.T) {
	s := newTestServer(t, config.Default())
	code, _ := doJSON(t, s, http.MethodPost, "/add_memory", map[string]any{"user_id": "u1"})
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing content, got %d", code)
	}
}

func TestSearchAndGetAll(t *testing.T) {
	s := newTestServer(t, config.Default())
	doJSON(t, s, http.MethodPost, "/add_memory",
		map[string]any{"content": "the user plans to learn rust next quarter", "user_id": "u1"})

	code, resp := doJSON(t, s, http.MethodPost, "/search_memories",
		map[string]any{"query": "rust", "user_id": "u1"})
	if code != http.StatusOK {
		t.Fatalf("search: %d", code)
	}
	if resp["count"] != float64(1) {
		t.Fatalf("expected 1 hit, got %v", resp["count"])
	}

	code, resp = doJSON(t, s, http.MethodGet, "/get_all_memories/u1", nil)
	if code != http.StatusOK || resp["total"] != float64(1) {
		t.Fatalf("get_all: %d %v", code, resp)
	}
}

func TestContextEndpoint(t *testing.T) {
	s := newTestServer(t, config.Default())
	doJSON(t, s, http.MethodPost, "/add_memory",
		map[string]any{"content": "the user drinks coffee every single morning", "user_id": "u1"})

	code, resp := doJSON(t, s, http.MethodGet, "/context?query=coffee&user_id=u1", nil)
	if code != http.StatusOK {
		t.Fatalf("context: %d", code)
	}
	if resp["count"] != float64(1) {
		t.Fatalf("expected 1 item, got %v", resp)
	}
	if !strings.Contains(resp["context"].(string), "coffee") {
		t.Errorf("expected memory text in block, got %v", resp["context"])
	}
}

func TestContextSwallowsStoreFailure(t *testing.T) {
	cfg := config.Default()
	s := New(cfg, curator.New(cfg, failingStore{}))

	code, resp := doJSON(t, s, http.MethodGet, "/context?query=anything&user_id=u1", nil)
	if code != http.StatusOK {
		t.Fatalf("context must stay 200 on store failure, got %d", code)
	}
	if resp["count"] != float64(0) || resp["context"] != "" {
		t.Fatalf("expected empty block, got %v", resp)
	}
}

func TestConsolidateEndpoint(t *testing.T) {
	s := newTestServer(t, config.Default())
	doJSON(t, s, http.MethodPost, "/add_memory",
		map[string]any{"content": "the user loves spicy thai street food", "user_id": "u1", "force": true})

	code, resp := doJSON(t, s, http.MethodPost, "/consolidate_memories",
		map[string]any{"user_id": "u1"})
	if code != http.StatusOK || resp["ok"] != true {
		t.Fatalf("consolidate: %d %v", code, resp)
	}
	if resp["dry_run"] != true {
		t.Error("dry_run should default to true")
	}
}

func TestUpdateDeleteHistory(t *testing.T) {
	s := newTestServer(t, config.Default())
	_, resp := doJSON(t, s, http.MethodPost, "/add_memory",
		map[string]any{"content": "the user timezone is currently UTC+1", "user_id": "u1"})
	id := resp["memory_id"].(string)

	code, _ := doJSON(t, s, http.MethodPut, "/update_memory/"+id,
		map[string]any{"text": "the user timezone is currently UTC+2", "user_id": "u1"})
	if code != http.StatusOK {
		t.Fatalf("update: %d", code)
	}

	code, resp = doJSON(t, s, http.MethodGet, "/get_history/"+id, nil)
	if code != http.StatusOK {
		t.Fatalf("history: %d", code)
	}
	if resp["count"].(float64) < 2 {
		t.Fatalf("expected ADD and UPDATE events, got %v", resp)
	}

	code, _ = doJSON(t, s, http.MethodDelete, "/delete_memory/"+id+"?user_id=u1", nil)
	if code != http.StatusOK {
		t.Fatalf("delete: %d", code)
	}

	code, _ = doJSON(t, s, http.MethodGet, "/get_memory/"+id, nil)
	if code == http.StatusOK {
		t.Fatal("deleted memory should not be retrievable")
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, config.Default())
	code, resp := doJSON(t, s, http.MethodGet, "/health", nil)
	if code != http.StatusOK || resp["status"] != "ok" {
		t.Fatalf("health: %d %v", code, resp)
	}
}

// failingStore errors on every operation.
type failingStore struct{}

var errDown = errors.New("store unreachable")

func (failingStore) Search(context.Context, store.SearchParams) ([]model.Memory, error) {
	return nil, errDown
}
func (failingStore) Create(context.Context, store.CreateParams) ([]model.Memory, error) {
	return nil, errDown
}
func (failingStore) Get(context.Context, string) (*model.Memory, error) { return nil, errDown }
func (failingStore) ListAll(context.Context, string) ([]model.Memory, error) {
	return nil, errDown
}
func (failingStore) Update(context.Context, store.UpdateParams) (*model.Memory, error) {
	return nil, errDown
}
func (failingStore) Delete(context.Context, string, string) error { return errDown }
func (failingStore) History(context.Context, string) ([]model.HistoryEntry, error) {
	return nil, errDown
}
func (failingStore) Close() error { return nil }
