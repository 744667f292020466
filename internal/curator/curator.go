// Package curator orchestrates the write and retrieval pipelines: quality
// gate, duplicate check, enrichment, and context assembly over a Store.
package curator

import (
	"context"
	"fmt"
	"log"
	"time"
	"unicode/utf8"

	"github.com/rcliao/memgate/internal/assemble"
	"github.com/rcliao/memgate/internal/config"
	"github.com/rcliao/memgate/internal/consolidate"
	"github.com/rcliao/memgate/internal/dedup"
	"github.com/rcliao/memgate/internal/quality"
	"github.com/rcliao/memgate/internal/store"
)

// dedupSearchTopK bounds the similarity-search fetch for the write-time
// duplicate check.
const dedupSearchTopK = 5

// Curator wires the intelligence core to a backing store. It holds no
// mutable state beyond the store handle and is safe for concurrent use.
type Curator struct {
	cfg   config.Config
	store store.Store
	gate  *quality.Gate
	now   func() time.Time
}

// New creates a Curator over the given store.
func New(cfg config.Config, st store.Store) *Curator {
	return &Curator{
		cfg:   cfg,
		store: st,
		gate:  quality.NewGate(cfg.MinLength, cfg.MinWords, cfg.MaxLength),
		now:   time.Now,
	}
}

// AddParams holds one candidate memory write.
type AddParams struct {
	Text     string
	UserID   string
	Force    bool
	Metadata map[string]any
}

// AddResult is the structured outcome of a write attempt. A rejection or
// duplicate is a normal result, never an error; errors are reserved for
// transport failures on the persist call itself.
type AddResult struct {
	OK        bool             `json:"ok"`
	Rejected  bool             `json:"rejected,omitempty"`
	Duplicate *dedup.Duplicate `json:"duplicate,omitempty"`
	Verdict   quality.Verdict  `json:"-"`
	MemoryID  string           `json:"memory_id,omitempty"`
}

// Add runs the write pipeline: assess, dedup, enrich, persist. Force
// bypasses the quality gate but not the duplicate check. A failed
// duplicate-check fetch degrades to "no duplicate" and the write
// proceeds; dedup is best-effort, never a correctness requirement.
func (c *Curator) Add(ctx context.Context, p AddParams) (*AddResult, error) {
	verdict := c.gate.Assess(p.Text)
	if !p.Force && !verdict.Accept {
		return &AddResult{Rejected: true, Verdict: verdict}, nil
	}

	existing, err := c.store.Search(ctx, store.SearchParams{
		Query:  truncate(p.Text, 100),
		UserID: p.UserID,
		TopK:   dedupSearchTopK,
	})
	if err != nil {
		log.Printf("[curator] duplicate check failed, proceeding: %v", err)
	} else if dup, found := dedup.FindDuplicate(p.Text, existing, c.cfg.DuplicateThreshold); found {
		return &AddResult{Duplicate: &dup, Verdict: verdict}, nil
	}

	enriched := quality.Enrich(p.Text, c.now())
	created, err := c.store.Create(ctx, store.CreateParams{
		Text:     enriched,
		UserID:   p.UserID,
		Metadata: p.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("persist memory: %w", err)
	}
	if len(created) == 0 {
		return nil, fmt.Errorf("store returned no memory")
	}

	return &AddResult{OK: true, Verdict: verdict, MemoryID: created[0].ID}, nil
}

// Context fetches candidates and assembles a context block for the query.
// maxItems is clamped to the configured bounds, and the fetch multiplier
// over-fetches before reranking. Search failures are swallowed into an
// empty block: conversational callers must never see a retrieval error,
// only a silent absence of memory.
func (c *Curator) Context(ctx context.Context, query, userID string, maxItems int) assemble.Block {
	if maxItems <= 0 {
		maxItems = c.cfg.DefaultContextItems
	}
	if maxItems > c.cfg.MaxContextItems {
		maxItems = c.cfg.MaxContextItems
	}

	results, err := c.store.Search(ctx, store.SearchParams{
		Query:  query,
		UserID: userID,
		TopK:   assemble.FetchLimit(maxItems, c.cfg.FetchMultiplier, c.cfg.FetchCeiling),
	})
	if err != nil {
		log.Printf("[curator] context search failed, returning empty block: %v", err)
		return assemble.Block{}
	}

	return assemble.Assemble(results, query, maxItems, c.cfg.BoostFactor)
}

// Report is the outcome of a consolidation scan. DryRun is echoed back
// unchanged; the scan itself never merges anything.
type Report struct {
	DryRun        bool                        `json:"dry_run"`
	TotalMemories int                         `json:"total_memories"`
	Candidates    []consolidate.CandidatePair `json:"candidates"`
}

// Consolidate scans a user's full corpus for likely-redundant pairs.
// Unlike the read-augmentation paths, a fetch failure here propagates:
// the scan is the operation, not a garnish on one.
func (c *Curator) Consolidate(ctx context.Context, userID string, dryRun bool) (*Report, error) {
	memories, err := c.store.ListAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}

	pairs, err := consolidate.Scan(ctx, memories, c.cfg.ConsolidationThreshold)
	if err != nil {
		return nil, err
	}

	return &Report{DryRun: dryRun, TotalMemories: len(memories), Candidates: pairs}, nil
}

// Store exposes the underlying store for pass-through operations.
func (c *Curator) Store() store.Store { return c.store }

// Config returns the immutable configuration the curator was built with.
func (c *Curator) Config() config.Config { return c.cfg }

// truncate cuts s to at most maxLen bytes without splitting a rune, so
// the result is always valid UTF-8.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	for maxLen > 0 && !utf8.RuneStart(s[maxLen]) {
		maxLen--
	}
	return s[:maxLen]
}
