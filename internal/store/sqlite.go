package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/memgate/internal/model"
)

// SQLite is a local Store for self-hosted and development use. Search is
// lexical (token match count), which pairs naturally with the Jaccard
// scoring the curation layer runs on top of it. The store is served
// under concurrent requests, so ID generation must be safe without
// external locking.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates a database at the given path.
func NewSQLite(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		text       TEXT NOT NULL,
		categories TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_memories_user ON memories(user_id);
	CREATE INDEX IF NOT EXISTS idx_memories_created ON memories(created_at DESC);

	CREATE TABLE IF NOT EXISTS history (
		id         TEXT PRIMARY KEY,
		memory_id  TEXT NOT NULL REFERENCES memories(id),
		old_text   TEXT,
		new_text   TEXT,
		event      TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_history_memory ON history(memory_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLite) newID() string {
	return ulid.Make().String()
}

// Search scores memories by how many query tokens appear in the text and
// returns the best topK matches. Score is matched/total tokens so the
// assembler's boost math sees a value in [0,1].
func (s *SQLite) Search(ctx context.Context, p SearchParams) ([]model.Memory, error) {
	topK := p.TopK
	if topK <= 0 {
		topK = 10
	}

	all, err := s.ListAll(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	tokens := strings.Fields(strings.ToLower(p.Query))
	if len(tokens) == 0 {
		if len(all) > topK {
			all = all[:topK]
		}
		return all, nil
	}

	type hit struct {
		mem   model.Memory
		score float64
	}
	var hits []hit
	for _, mem := range all {
		lower := strings.ToLower(mem.Text)
		matched := 0
		for _, tok := range tokens {
			if strings.Contains(lower, tok) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		score := float64(matched) / float64(len(tokens))
		mem.Score = &score
		hits = append(hits, hit{mem: mem, score: score})
	}

	// Insertion sort keeps equal scores in corpus order (newest first).
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].score > hits[j-1].score; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}

	var results []model.Memory
	for _, h := range hits {
		results = append(results, h.mem)
		if len(results) == topK {
			break
		}
	}
	return results, nil
}

// Create inserts one memory and records an ADD history event.
func (s *SQLite) Create(ctx context.Context, p CreateParams) ([]model.Memory, error) {
	id := s.newID()
	now := time.Now().UTC()

	var categories string
	if cats := metadataCategories(p.Metadata); len(cats) > 0 {
		b, _ := json.Marshal(cats)
		categories = string(b)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memories (id, user_id, text, categories, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, p.UserID, p.Text, nullable(categories), now.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("insert memory: %w", err)
	}

	s.recordHistory(ctx, id, "", p.Text, "ADD", now)

	mem := model.Memory{ID: id, Text: p.Text, CreatedAt: &now}
	if categories != "" {
		json.Unmarshal([]byte(categories), &mem.Categories)
	}
	return []model.Memory{mem}, nil
}

// Get retrieves one memory by ID.
func (s *SQLite) Get(ctx context.Context, id string) (*model.Memory, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, text, categories, created_at, updated_at
		FROM memories WHERE id = ?`, id)
	mem, err := scanMemory(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("memory %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return mem, nil
}

// ListAll returns the full corpus for a user, newest first.
func (s *SQLite) ListAll(ctx context.Context, userID string) ([]model.Memory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, categories, created_at, updated_at
		FROM memories WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memories []model.Memory
	for rows.Next() {
		mem, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		memories = append(memories, *mem)
	}
	return memories, rows.Err()
}

// Update rewrites the text of an existing memory and records the change.
func (s *SQLite) Update(ctx context.Context, p UpdateParams) (*model.Memory, error) {
	old, err := s.Get(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		UPDATE memories SET text = ?, updated_at = ? WHERE id = ?`,
		p.Text, now.Format(time.RFC3339), p.ID)
	if err != nil {
		return nil, fmt.Errorf("update memory: %w", err)
	}

	s.recordHistory(ctx, p.ID, old.Text, p.Text, "UPDATE", now)
	return s.Get(ctx, p.ID)
}

// Delete removes a memory permanently.
func (s *SQLite) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	// History rows reference the memory, so they go first.
	if _, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE memory_id = ?`, id); err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM memories WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}
	return nil
}

// History returns the modification history of a memory, oldest first.
func (s *SQLite) History(ctx context.Context, id string) ([]model.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, memory_id, old_text, new_text, event, created_at
		FROM history WHERE memory_id = ? ORDER BY created_at, id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		var e model.HistoryEntry
		var oldText, newText sql.NullString
		var at string
		if err := rows.Scan(&e.ID, &e.MemoryID, &oldText, &newText, &e.Event, &at); err != nil {
			return nil, err
		}
		e.OldText = oldText.String
		e.NewText = newText.String
		e.At, _ = time.Parse(time.RFC3339, at)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database handle.
func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) recordHistory(ctx context.Context, memoryID, oldText, newText, event string, at time.Time) {
	s.db.ExecContext(ctx, `
		INSERT INTO history (id, memory_id, old_text, new_text, event, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.newID(), memoryID, nullable(oldText), nullable(newText), event, at.Format(time.RFC3339))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemory(row rowScanner) (*model.Memory, error) {
	var mem model.Memory
	var categories, updatedAt sql.NullString
	var createdAt string
	if err := row.Scan(&mem.ID, &mem.Text, &categories, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		mem.CreatedAt = &t
	}
	if updatedAt.Valid {
		if t, err := time.Parse(time.RFC3339, updatedAt.String); err == nil {
			mem.UpdatedAt = &t
		}
	}
	if categories.Valid && categories.String != "" {
		json.Unmarshal([]byte(categories.String), &mem.Categories)
	}
	return &mem, nil
}

// metadataCategories pulls a category list out of request metadata, which
// arrives as []any after JSON decoding.
func metadataCategories(metadata map[string]any) []string {
	switch cats := metadata["categories"].(type) {
	case []string:
		return cats
	case []any:
		var out []string
		for _, c := range cats {
			if s, ok := c.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
