package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/memgate/internal/quality"
)

func init() {
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show corpus size and active curation thresholds",
		Run:   runStats,
	}
	RootCmd.AddCommand(statsCmd)

	assessCmd := &cobra.Command{
		Use:   "assess <text>",
		Short: "Dry-run the quality gate on candidate text",
		Long:  "Score candidate text without storing anything. Useful for tuning thresholds.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runAssess,
	}
	RootCmd.AddCommand(assessCmd)
}

func runStats(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	st := openStore(cfg)
	defer st.Close()

	memories, err := st.ListAll(cmd.Context(), userID(cfg))
	if err != nil {
		exitErr("stats", err)
	}

	printJSON(map[string]any{
		"user_id":        userID(cfg),
		"total_memories": len(memories),
		"thresholds": map[string]any{
			"min_length":              cfg.MinLength,
			"min_words":               cfg.MinWords,
			"max_length":              cfg.MaxLength,
			"duplicate_threshold":     cfg.DuplicateThreshold,
			"consolidation_threshold": cfg.ConsolidationThreshold,
		},
	})
}

func runAssess(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	gate := quality.NewGate(cfg.MinLength, cfg.MinWords, cfg.MaxLength)
	verdict := gate.Assess(strings.Join(args, " "))

	if formatFlag == "text" {
		state := "accept"
		if !verdict.Accept {
			state = "reject"
		}
		fmt.Printf("%s (score %d)\n", state, verdict.Score)
		for _, issue := range verdict.Issues {
			fmt.Printf("  - %s\n", issue)
		}
		return
	}
	printJSON(verdict)
}
