// Package store defines the boundary to the backing memory store and its
// two implementations: the hosted HTTP API and a local SQLite database.
//
// Response-shape quirks of the remote API are normalized here; the
// curation core only ever sees []model.Memory.
package store

import (
	"context"

	"github.com/rcliao/memgate/internal/model"
)

// SearchParams holds parameters for a similarity search.
type SearchParams struct {
	Query  string
	UserID string
	TopK   int
}

// CreateParams holds parameters for persisting a new memory.
type CreateParams struct {
	Text     string
	UserID   string
	Metadata map[string]any
}

// UpdateParams holds parameters for rewriting an existing memory.
type UpdateParams struct {
	ID     string
	Text   string
	UserID string
}

// Store is the backing memory store. Implementations own persistence,
// identity, and (for the hosted API) semantic search; the curation layer
// only reads, compares, and writes through this interface.
type Store interface {
	// Search returns memories relevant to the query, most relevant first.
	Search(ctx context.Context, p SearchParams) ([]model.Memory, error)

	// Create persists new memory text. The store may split the text into
	// several memories, so a slice comes back.
	Create(ctx context.Context, p CreateParams) ([]model.Memory, error)

	// Get retrieves a single memory by ID.
	Get(ctx context.Context, id string) (*model.Memory, error)

	// ListAll returns the full corpus for a user.
	ListAll(ctx context.Context, userID string) ([]model.Memory, error)

	// Update rewrites the text of an existing memory.
	Update(ctx context.Context, p UpdateParams) (*model.Memory, error)

	// Delete removes a memory permanently.
	Delete(ctx context.Context, id, userID string) error

	// History returns the modification history of a memory.
	History(ctx context.Context, id string) ([]model.HistoryEntry, error)

	// Close releases the underlying transport or database handle.
	Close() error
}
