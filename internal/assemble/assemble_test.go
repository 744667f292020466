package assemble

import (
	"strings"
	"testing"

	"github.com/rcliao/memgate/internal/model"
)

func score(f float64) *float64 { return &f }

func TestAssembleEmpty(t *testing.T) {
	block := Assemble(nil, "anything", 10, 0.15)
	if block.Text != "" {
		t.Errorf("expected empty text, got %q", block.Text)
	}
	if block.Count != 0 {
		t.Errorf("expected count 0, got %d", block.Count)
	}
}

func TestAssembleKeywordBoost(t *testing.T) {
	results := []model.Memory{
		{ID: "b", Text: "enjoys long walks on weekends", Score: score(0.6)},
		{ID: "a", Text: "drinks coffee every morning", Score: score(0.5)},
	}
	// "coffee" and "morning" both match a: 0.5*(1+2*0.15)=0.65 > 0.6.
	block := Assemble(results, "coffee morning", 10, 0.15)
	if block.Count != 2 {
		t.Fatalf("expected 2 items, got %d", block.Count)
	}
	first := strings.Index(block.Text, "drinks coffee")
	second := strings.Index(block.Text, "enjoys long walks")
	if first == -1 || second == -1 {
		t.Fatalf("missing items in block:\n%s", block.Text)
	}
	if first > second {
		t.Errorf("boosted item should rank first:\n%s", block.Text)
	}
}

func TestAssembleMissingScoreDefaults(t *testing.T) {
	results := []model.Memory{
		{ID: "a", Text: "no score at all here"},
		{ID: "b", Text: "irrelevant text entirely", Score: score(0.4)},
	}
	// a defaults to base 0.5 and outranks b's 0.4.
	block := Assemble(results, "zzz", 10, 0.15)
	if strings.Index(block.Text, "no score") > strings.Index(block.Text, "irrelevant") {
		t.Errorf("default base score 0.5 should outrank 0.4:\n%s", block.Text)
	}
}

func TestAssembleStableTies(t *testing.T) {
	results := []model.Memory{
		{ID: "first", Text: "tie one", Score: score(0.5)},
		{ID: "second", Text: "tie two", Score: score(0.5)},
	}
	block := Assemble(results, "unrelated", 10, 0.15)
	if strings.Index(block.Text, "tie one") > strings.Index(block.Text, "tie two") {
		t.Errorf("stable sort should keep input order on ties:\n%s", block.Text)
	}
}

func TestAssembleTruncates(t *testing.T) {
	var results []model.Memory
	for _, text := range []string{"aa bb", "cc dd", "ee ff", "gg hh"} {
		results = append(results, model.Memory{Text: text, Score: score(0.5)})
	}
	block := Assemble(results, "", 2, 0.15)
	if block.Count != 2 {
		t.Fatalf("expected count 2 after truncation, got %d", block.Count)
	}
}

func TestAssembleGrouping(t *testing.T) {
	results := []model.Memory{
		{Text: "uses neovim for everything", Categories: []string{"tools"}, Score: score(0.9)},
		{Text: "allergic to peanuts", Score: score(0.8)},
		{Text: "prefers terminal workflows", Categories: []string{"tools"}, Score: score(0.7)},
	}
	block := Assemble(results, "", 10, 0.15)

	want := "## tools\n" +
		"- uses neovim for everything\n" +
		"- prefers terminal workflows\n" +
		"\n" +
		"## general\n" +
		"- allergic to peanuts\n"
	if block.Text != want {
		t.Errorf("block mismatch:\ngot:\n%s\nwant:\n%s", block.Text, want)
	}
	if block.Count != 3 {
		t.Errorf("expected count 3, got %d", block.Count)
	}
}

func TestFetchLimit(t *testing.T) {
	cases := []struct {
		maxItems, multiplier, ceiling, want int
	}{
		{10, 3, 60, 30},
		{30, 3, 60, 60},
		{5, 3, 0, 15},
		{0, 3, 60, 3},
	}
	for _, c := range cases {
		if got := FetchLimit(c.maxItems, c.multiplier, c.ceiling); got != c.want {
			t.Errorf("FetchLimit(%d,%d,%d)=%d, want %d",
				c.maxItems, c.multiplier, c.ceiling, got, c.want)
		}
	}
}
