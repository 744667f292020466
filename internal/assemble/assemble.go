// Package assemble reranks search results and formats them into a
// context block for prompt injection.
package assemble

import (
	"sort"
	"strings"

	"github.com/rcliao/memgate/internal/model"
)

const (
	// DefaultBoostFactor scales the keyword-match bonus during reranking.
	DefaultBoostFactor = 0.15

	// defaultBaseScore stands in when the store reported no relevance.
	defaultBaseScore = 0.5

	// DefaultCategory labels memories that carry no category.
	DefaultCategory = "general"
)

// Block is an assembled context block. Text is empty when Count is zero;
// an empty result never renders a dangling heading.
type Block struct {
	Text  string `json:"context"`
	Count int    `json:"count"`
}

// Assemble reranks results against query and renders the top maxItems
// into a category-grouped text block.
//
// Reranking: each query keyword (case-folded, whitespace-split) that
// occurs as a substring of a result's lowered text adds boostFactor to
// its multiplier, so boosted = base * (1 + matches*boostFactor). The sort
// is stable: ties keep the store's original order, which encodes its own
// relevance ranking.
func Assemble(results []model.Memory, query string, maxItems int, boostFactor float64) Block {
	if len(results) == 0 {
		return Block{}
	}
	if boostFactor <= 0 {
		boostFactor = DefaultBoostFactor
	}

	keywords := strings.Fields(strings.ToLower(query))

	type ranked struct {
		mem     model.Memory
		boosted float64
	}
	candidates := make([]ranked, 0, len(results))
	for _, mem := range results {
		base := defaultBaseScore
		if mem.Score != nil {
			base = *mem.Score
		}
		matches := 0
		lower := strings.ToLower(mem.Text)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				matches++
			}
		}
		candidates = append(candidates, ranked{
			mem:     mem,
			boosted: base * (1 + float64(matches)*boostFactor),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].boosted > candidates[j].boosted
	})

	if maxItems > 0 && len(candidates) > maxItems {
		candidates = candidates[:maxItems]
	}

	// Group by first category, preserving first-seen order.
	var order []string
	sections := make(map[string][]string)
	for _, c := range candidates {
		cat := DefaultCategory
		if len(c.mem.Categories) > 0 && c.mem.Categories[0] != "" {
			cat = c.mem.Categories[0]
		}
		if _, seen := sections[cat]; !seen {
			order = append(order, cat)
		}
		sections[cat] = append(sections[cat], c.mem.Text)
	}

	var b strings.Builder
	for i, cat := range order {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("## ")
		b.WriteString(cat)
		b.WriteString("\n")
		for _, text := range sections[cat] {
			b.WriteString("- ")
			b.WriteString(text)
			b.WriteString("\n")
		}
	}

	return Block{Text: b.String(), Count: len(candidates)}
}

// FetchLimit computes how many candidates to over-fetch before reranking:
// multiplier times the final cap, bounded by ceiling.
func FetchLimit(maxItems, multiplier, ceiling int) int {
	if maxItems <= 0 {
		maxItems = 1
	}
	if multiplier <= 0 {
		multiplier = 1
	}
	limit := maxItems * multiplier
	if ceiling > 0 && limit > ceiling {
		limit = ceiling
	}
	return limit
}
