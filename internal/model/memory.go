// Package model defines the shared memory data types.
package model

import "time"

// Memory is a stored memory as held by the backing store. The curation
// layer reads and compares memories but never owns their identity.
type Memory struct {
	ID         string   `json:"id"`
	Text       string   `json:"memory"`
	Categories []string `json:"categories,omitempty"`
	// Score is the store's own relevance score for a search hit.
	// Nil when the memory did not come from a search.
	Score     *float64   `json:"score,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// HistoryEntry records one modification event for a memory.
type HistoryEntry struct {
	ID       string    `json:"id"`
	MemoryID string    `json:"memory_id"`
	OldText  string    `json:"old_memory,omitempty"`
	NewText  string    `json:"new_memory,omitempty"`
	Event    string    `json:"event"`
	At       time.Time `json:"created_at"`
}
