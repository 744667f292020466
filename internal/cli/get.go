package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Get a memory by ID",
		Args:  cobra.ExactArgs(1),
		Run:   runGet,
	}
	RootCmd.AddCommand(getCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all memories for a user",
		Run:   runList,
	}
	RootCmd.AddCommand(listCmd)
}

func runGet(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	st := openStore(cfg)
	defer st.Close()

	mem, err := st.Get(cmd.Context(), args[0])
	if err != nil {
		exitErr("get", err)
	}

	if formatFlag == "text" {
		fmt.Println(mem.Text)
		return
	}
	printJSON(mem)
}

func runList(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	st := openStore(cfg)
	defer st.Close()

	memories, err := st.ListAll(cmd.Context(), userID(cfg))
	if err != nil {
		exitErr("list", err)
	}

	if formatFlag == "text" {
		for _, m := range memories {
			fmt.Printf("%s  %s\n", m.ID, m.Text)
		}
		return
	}
	printJSON(map[string]any{"memories": memories, "total": len(memories)})
}
