package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/memgate/internal/curator"
)

func init() {
	cmd := &cobra.Command{
		Use:   "add [content]",
		Short: "Store a memory through the quality gate",
		Long:  "Assess, dedupe, enrich, and persist a candidate memory. Content can be a positional arg or piped via stdin.",
		Run:   runAdd,
	}

	cmd.Flags().Bool("force", false, "Bypass quality checks (use sparingly)")

	RootCmd.AddCommand(cmd)
}

func runAdd(cmd *cobra.Command, args []string) {
	force, _ := cmd.Flags().GetBool("force")

	var content string
	if len(args) > 0 {
		content = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			content = string(b)
		}
	}
	content = strings.TrimSpace(content)
	if content == "" {
		exitErr("add", fmt.Errorf("content is required (positional arg or stdin)"))
	}

	cfg := loadConfig()
	st := openStore(cfg)
	defer st.Close()

	res, err := curator.New(cfg, st).Add(cmd.Context(), curator.AddParams{
		Text:   content,
		UserID: userID(cfg),
		Force:  force,
	})
	if err != nil {
		exitErr("add", err)
	}

	if formatFlag == "text" {
		switch {
		case res.Rejected:
			fmt.Printf("rejected (score %d): %s\n", res.Verdict.Score, strings.Join(res.Verdict.Issues, "; "))
		case res.Duplicate != nil:
			fmt.Printf("duplicate of %s (similarity %.2f)\n", res.Duplicate.ID, res.Duplicate.Similarity)
		default:
			fmt.Printf("saved %s (score %d)\n", res.MemoryID, res.Verdict.Score)
		}
		return
	}
	printJSON(map[string]any{
		"ok":        res.OK,
		"rejected":  res.Rejected,
		"duplicate": res.Duplicate,
		"memory_id": res.MemoryID,
		"score":     res.Verdict.Score,
		"issues":    res.Verdict.Issues,
	})
}
