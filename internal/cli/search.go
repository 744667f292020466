package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/memgate/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search stored memories",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().IntP("limit", "n", 20, "Maximum results")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	cfg := loadConfig()
	st := openStore(cfg)
	defer st.Close()

	memories, err := st.Search(cmd.Context(), store.SearchParams{
		Query:  query,
		UserID: userID(cfg),
		TopK:   limit,
	})
	if err != nil {
		exitErr("search", err)
	}

	if formatFlag == "text" {
		for _, m := range memories {
			fmt.Printf("%s  %s\n", m.ID, m.Text)
		}
		return
	}
	printJSON(map[string]any{"memories": memories, "count": len(memories)})
}
