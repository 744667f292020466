package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/memgate/internal/curator"
)

func init() {
	cmd := &cobra.Command{
		Use:   "context <query>",
		Short: "Assemble a context block for a query",
		Long:  "Search, rerank by keyword overlap, and format the top memories into a prompt-ready block.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runContext,
	}

	cmd.Flags().IntP("limit", "n", 0, "Max memories in the block (default from config)")

	RootCmd.AddCommand(cmd)
}

func runContext(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	cfg := loadConfig()
	st := openStore(cfg)
	defer st.Close()

	block := curator.New(cfg, st).Context(cmd.Context(), query, userID(cfg), limit)

	if formatFlag == "text" {
		fmt.Print(block.Text)
		return
	}
	printJSON(block)
}
