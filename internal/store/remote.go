package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rcliao/memgate/internal/model"
)

// Remote talks to a mem0-style hosted memory API. The http.Client is
// created once and shared across requests; this layer sets no retry
// policy of its own.
type Remote struct {
	base   string
	baseV2 string
	apiKey string
	client *http.Client
}

// NewRemote creates a client for the hosted API. base and baseV2 are the
// v1 and v2 endpoint roots without trailing slash.
func NewRemote(base, baseV2, apiKey string) *Remote {
	return &Remote{
		base:   strings.TrimRight(base, "/"),
		baseV2: strings.TrimRight(baseV2, "/"),
		apiKey: apiKey,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// Search posts a v2 similarity search. The v1 endpoint caps results at
// 10; v2 honors top_k.
func (r *Remote) Search(ctx context.Context, p SearchParams) ([]model.Memory, error) {
	payload := map[string]any{
		"query":   p.Query,
		"version": "v2",
		"filters": map[string]any{"user_id": p.UserID},
		"top_k":   p.TopK,
	}
	raw, err := r.do(ctx, http.MethodPost, r.baseV2+"/memories/search/", payload)
	if err != nil {
		return nil, fmt.Errorf("search memories: %w", err)
	}
	return normalizeMemories(raw)
}

// Create persists text as a new memory via the v1 messages endpoint.
func (r *Remote) Create(ctx context.Context, p CreateParams) ([]model.Memory, error) {
	payload := map[string]any{
		"messages": []map[string]string{{"role": "user", "content": p.Text}},
		"user_id":  p.UserID,
		"version":  "v2",
	}
	if len(p.Metadata) > 0 {
		payload["metadata"] = p.Metadata
	}
	raw, err := r.do(ctx, http.MethodPost, r.base+"/memories/", payload)
	if err != nil {
		return nil, fmt.Errorf("create memory: %w", err)
	}
	return normalizeMemories(raw)
}

// Get retrieves one memory by ID.
func (r *Remote) Get(ctx context.Context, id string) (*model.Memory, error) {
	raw, err := r.do(ctx, http.MethodGet, r.base+"/memories/"+url.PathEscape(id)+"/", nil)
	if err != nil {
		return nil, fmt.Errorf("get memory: %w", err)
	}
	var mem model.Memory
	if err := json.Unmarshal(raw, &mem); err != nil {
		return nil, fmt.Errorf("decode memory: %w", err)
	}
	return &mem, nil
}

// ListAll returns the full corpus for a user.
func (r *Remote) ListAll(ctx context.Context, userID string) ([]model.Memory, error) {
	u := r.base + "/memories/?user_id=" + url.QueryEscape(userID)
	raw, err := r.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	return normalizeMemories(raw)
}

// Update rewrites the text of an existing memory.
func (r *Remote) Update(ctx context.Context, p UpdateParams) (*model.Memory, error) {
	payload := map[string]any{"text": p.Text, "user_id": p.UserID}
	raw, err := r.do(ctx, http.MethodPut, r.base+"/memories/"+url.PathEscape(p.ID)+"/", payload)
	if err != nil {
		return nil, fmt.Errorf("update memory: %w", err)
	}
	var mem model.Memory
	if err := json.Unmarshal(raw, &mem); err != nil {
		return nil, fmt.Errorf("decode memory: %w", err)
	}
	return &mem, nil
}

// Delete removes a memory permanently.
func (r *Remote) Delete(ctx context.Context, id, userID string) error {
	u := r.base + "/memories/" + url.PathEscape(id) + "/?user_id=" + url.QueryEscape(userID)
	if _, err := r.do(ctx, http.MethodDelete, u, nil); err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}
	return nil
}

// History returns the modification history of a memory.
func (r *Remote) History(ctx context.Context, id string) ([]model.HistoryEntry, error) {
	raw, err := r.do(ctx, http.MethodGet, r.base+"/memories/"+url.PathEscape(id)+"/history/", nil)
	if err != nil {
		return nil, fmt.Errorf("memory history: %w", err)
	}
	var entries []model.HistoryEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return entries, nil
}

// Close is a no-op for the HTTP client.
func (r *Remote) Close() error { return nil }

func (r *Remote) do(ctx context.Context, method, u string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+r.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, snippet(raw))
	}
	return raw, nil
}

// normalizeMemories accepts both shapes the remote API produces, a bare
// list or {"results": [...]}, so the core never branches on shape.
func normalizeMemories(raw []byte) ([]model.Memory, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var memories []model.Memory
		if err := json.Unmarshal(trimmed, &memories); err != nil {
			return nil, fmt.Errorf("decode memory list: %w", err)
		}
		return memories, nil
	}

	var wrapped struct {
		Results []model.Memory `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("decode memory results: %w", err)
	}
	return wrapped.Results, nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
