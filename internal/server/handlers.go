package server

import (
	"net/http"
	"strconv"

	"github.com/rcliao/memgate/internal/curator"
	"github.com/rcliao/memgate/internal/store"
)

type addRequest struct {
	Content string         `json:"content"`
	UserID  string         `json:"user_id"`
	Force   bool           `json:"force"`
	Meta    map[string]any `json:"metadata,omitempty"`
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "content is required"})
		return
	}

	res, err := s.cur.Add(r.Context(), curator.AddParams{
		Text:     req.Content,
		UserID:   s.userID(req.UserID),
		Force:    req.Force,
		Metadata: req.Meta,
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}

	switch {
	case res.Rejected:
		if !s.cfg.Verbose {
			writeJSON(w, http.StatusOK, map[string]any{"ok": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":         false,
			"rejected":   true,
			"reason":     "quality threshold not met",
			"issues":     res.Verdict.Issues,
			"score":      res.Verdict.Score,
			"suggestion": "provide more context or set force: true to override",
		})
	case res.Duplicate != nil:
		if !s.cfg.Verbose {
			writeJSON(w, http.StatusOK, map[string]any{"ok": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":                 false,
			"duplicate":          true,
			"existing_memory_id": res.Duplicate.ID,
			"existing_content":   res.Duplicate.Text,
			"similarity":         res.Duplicate.Similarity,
			"suggestion":         "use update_memory to modify the existing memory instead",
		})
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":            true,
			"memory_id":     res.MemoryID,
			"quality_score": res.Verdict.Score,
		})
	}
}

type searchRequest struct {
	Query  string `json:"query"`
	UserID string `json:"user_id"`
	Limit  int    `json:"limit"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}

	memories, err := s.store().Search(r.Context(), store.SearchParams{
		Query:  req.Query,
		UserID: s.userID(req.UserID),
		TopK:   limit,
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"memories": memories, "count": len(memories)})
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	// Search failures are already swallowed inside the curator; this
	// endpoint always answers 200.
	block := s.cur.Context(r.Context(), q.Get("query"), s.userID(q.Get("user_id")), limit)
	writeJSON(w, http.StatusOK, block)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	mem, err := s.store().Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, mem)
}

func (s *Server) handleGetAll(w http.ResponseWriter, r *http.Request) {
	memories, err := s.store().ListAll(r.Context(), r.PathValue("user_id"))
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"memories": memories, "total": len(memories)})
}

type updateRequest struct {
	Text   string `json:"text"`
	UserID string `json:"user_id"`
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	mem, err := s.store().Update(r.Context(), store.UpdateParams{
		ID:     r.PathValue("id"),
		Text:   req.Text,
		UserID: s.userID(req.UserID),
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, mem)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store().Delete(r.Context(), id, s.userID(r.URL.Query().Get("user_id"))); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "deleted": id})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store().History(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": entries, "count": len(entries)})
}

type consolidateRequest struct {
	UserID string `json:"user_id"`
	DryRun *bool  `json:"dry_run"`
}

func (s *Server) handleConsolidate(w http.ResponseWriter, r *http.Request) {
	var req consolidateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	dryRun := true
	if req.DryRun != nil {
		dryRun = *req.DryRun
	}

	report, err := s.cur.Consolidate(r.Context(), s.userID(req.UserID), dryRun)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":             true,
		"dry_run":        report.DryRun,
		"total_memories": report.TotalMemories,
		"candidates":     report.Candidates,
		"count":          len(report.Candidates),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": Version,
		"features": map[string]bool{
			"quality_filtering":  true,
			"deduplication":      true,
			"context_enrichment": true,
			"consolidation":      true,
		},
	})
}
