// Package quality decides whether candidate memory text is worth storing.
package quality

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Verdict is the outcome of assessing one candidate memory.
// Score starts at 100 and is adjusted by each rule that fires; it is
// informational only and is not clamped, so callers may see values
// below zero or above 100. Only Accept gates behavior.
type Verdict struct {
	Accept bool     `json:"accept"`
	Score  int      `json:"score"`
	Issues []string `json:"issues,omitempty"`
}

// ackPhrases are low-value acknowledgments that add nothing worth
// remembering when they make up the entire candidate.
var ackPhrases = map[string]bool{
	"ok": true, "okay": true, "got it": true, "understood": true,
	"sure": true, "thanks": true, "thank you": true, "yes": true,
	"no": true, "maybe": true, "i see": true, "alright": true,
	"cool": true, "nice": true,
}

// indicators are substrings that suggest durable preference, identity,
// goal, or schedule information.
var indicators = []string{
	"prefer", "like", "love", "hate", "dislike", "always", "never",
	"project", "work", "use", "technology", "tool", "language",
	"name is", "location", "timezone", "schedule", "routine",
	"goal", "objective", "plan", "want to", "need to",
}

// Gate assesses candidate memories against configured thresholds.
// A Gate is immutable after construction and safe for concurrent use.
type Gate struct {
	minLength int
	minWords  int
	maxLength int
}

// NewGate returns a Gate with the given thresholds. Zero or negative
// values fall back to the defaults (20 chars, 4 words, 500 chars).
func NewGate(minLength, minWords, maxLength int) *Gate {
	if minLength <= 0 {
		minLength = 20
	}
	if minWords <= 0 {
		minWords = 4
	}
	if maxLength <= 0 {
		maxLength = 500
	}
	return &Gate{minLength: minLength, minWords: minWords, maxLength: maxLength}
}

// Assess scores text against all rules. Rules apply independently: every
// issue is collected, not just the first, and the indicator bonus never
// rescues a rejection. Assess is a pure function of its input.
func (g *Gate) Assess(text string) Verdict {
	v := Verdict{Accept: true, Score: 100}

	// Length rules count characters, not bytes, so non-ASCII text is
	// measured the same as ASCII.
	length := utf8.RuneCountInString(text)

	if length < g.minLength {
		v.Accept = false
		v.Score -= 50
		v.Issues = append(v.Issues, fmt.Sprintf("too short (min %d chars)", g.minLength))
	}

	if len(strings.Fields(text)) < g.minWords {
		v.Accept = false
		v.Score -= 30
		v.Issues = append(v.Issues, fmt.Sprintf("too few words (min %d words)", g.minWords))
	}

	lower := strings.ToLower(strings.TrimSpace(text))
	if ackPhrases[lower] {
		v.Accept = false
		v.Score -= 40
		v.Issues = append(v.Issues, "low-value acknowledgment")
	}

	for _, ind := range indicators {
		if strings.Contains(lower, ind) {
			v.Score += 20
			break
		}
	}

	if length > g.maxLength {
		v.Score -= 10
		v.Issues = append(v.Issues, "very long (may need summarization)")
	}

	return v
}

// Enrich makes accepted text more self-contained before storage. A bare
// preference that never names its subject gets a normalizing prefix, and
// every memory gets a machine-readable capture timestamp footer. Enrich
// has no side effects and is called only on the accept path.
func Enrich(text string, now time.Time) string {
	enriched := text

	lower := strings.ToLower(text)
	if strings.Contains(lower, "prefer") && !strings.Contains(lower, "user") {
		enriched = "User preference: " + enriched
	}

	return enriched + "\n[Captured: " + now.UTC().Format(time.RFC3339) + "]"
}
