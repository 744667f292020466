package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/memgate/internal/curator"
)

func init() {
	cmd := &cobra.Command{
		Use:   "consolidate",
		Short: "Find similar memories worth merging",
		Long: "Scan the full corpus pairwise and report likely-redundant memory pairs.\n" +
			"The scan is advisory: merge with update/rm. O(N²), so expect large corpora to take a while.",
		Run: runConsolidate,
	}

	RootCmd.AddCommand(cmd)
}

func runConsolidate(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	st := openStore(cfg)
	defer st.Close()

	report, err := curator.New(cfg, st).Consolidate(cmd.Context(), userID(cfg), true)
	if err != nil {
		exitErr("consolidate", err)
	}

	if formatFlag == "text" {
		if len(report.Candidates) == 0 {
			fmt.Printf("no similar memories found (%d scanned)\n", report.TotalMemories)
			return
		}
		for _, p := range report.Candidates {
			fmt.Printf("%.2f  %s | %s\n      %s | %s\n",
				p.Similarity, p.Memory1ID, p.Memory1Text, p.Memory2ID, p.Memory2Text)
		}
		return
	}
	printJSON(report)
}
