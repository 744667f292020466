// Package server exposes the curation pipeline over HTTP. Handlers are
// thin: decode, call the curator or store, encode. Policy rejections are
// structured 200 responses; only transport failures surface as errors.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rcliao/memgate/internal/config"
	"github.com/rcliao/memgate/internal/curator"
	"github.com/rcliao/memgate/internal/store"
)

// Version reported by /health.
const Version = "1.0.0"

// Server routes HTTP requests to the curation core.
type Server struct {
	cfg config.Config
	cur *curator.Curator
	mux *http.ServeMux
}

// New builds a Server around the given curator.
func New(cfg config.Config, cur *curator.Curator) *Server {
	s := &Server{cfg: cfg, cur: cur, mux: http.NewServeMux()}

	s.mux.HandleFunc("POST /add_memory", s.handleAdd)
	s.mux.HandleFunc("POST /search_memories", s.handleSearch)
	s.mux.HandleFunc("GET /context", s.handleContext)
	s.mux.HandleFunc("GET /get_memory/{id}", s.handleGet)
	s.mux.HandleFunc("GET /get_all_memories/{user_id}", s.handleGetAll)
	s.mux.HandleFunc("PUT /update_memory/{id}", s.handleUpdate)
	s.mux.HandleFunc("DELETE /delete_memory/{id}", s.handleDelete)
	s.mux.HandleFunc("GET /get_history/{id}", s.handleHistory)
	s.mux.HandleFunc("POST /consolidate_memories", s.handleConsolidate)
	s.mux.HandleFunc("GET /health", s.handleHealth)

	return s
}

// ServeHTTP tags every request with a ULID and logs method, path, and
// duration after the handler returns.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID := ulid.Make().String()
	start := time.Now()
	s.mux.ServeHTTP(w, r)
	log.Printf("[server] %s %s %s %s", reqID, r.Method, r.URL.Path, time.Since(start))
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[server] listening on %s", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) userID(v string) string {
	if v == "" {
		return s.cfg.DefaultUser
	}
	return v
}

func (s *Server) store() store.Store { return s.cur.Store() }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[server] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"ok": false, "error": err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}
