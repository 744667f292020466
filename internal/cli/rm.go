package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/memgate/internal/store"
)

func init() {
	rmCmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a memory",
		Args:  cobra.ExactArgs(1),
		Run:   runRm,
	}
	RootCmd.AddCommand(rmCmd)

	updateCmd := &cobra.Command{
		Use:   "update <id> <text>",
		Short: "Rewrite an existing memory",
		Args:  cobra.MinimumNArgs(2),
		Run:   runUpdate,
	}
	RootCmd.AddCommand(updateCmd)

	historyCmd := &cobra.Command{
		Use:   "history <id>",
		Short: "Show a memory's modification history",
		Args:  cobra.ExactArgs(1),
		Run:   runHistory,
	}
	RootCmd.AddCommand(historyCmd)
}

func runRm(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	st := openStore(cfg)
	defer st.Close()

	if err := st.Delete(cmd.Context(), args[0], userID(cfg)); err != nil {
		exitErr("rm", err)
	}
	fmt.Printf("deleted %s\n", args[0])
}

func runUpdate(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	st := openStore(cfg)
	defer st.Close()

	mem, err := st.Update(cmd.Context(), store.UpdateParams{
		ID:     args[0],
		Text:   strings.Join(args[1:], " "),
		UserID: userID(cfg),
	})
	if err != nil {
		exitErr("update", err)
	}
	printJSON(mem)
}

func runHistory(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	st := openStore(cfg)
	defer st.Close()

	entries, err := st.History(cmd.Context(), args[0])
	if err != nil {
		exitErr("history", err)
	}

	if formatFlag == "text" {
		for _, e := range entries {
			fmt.Printf("%s  %-6s  %s\n", e.At.Format("2006-01-02 15:04"), e.Event, e.NewText)
		}
		return
	}
	printJSON(map[string]any{"history": entries, "count": len(entries)})
}
