// Package cli implements the memgate CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rcliao/memgate/internal/config"
	"github.com/rcliao/memgate/internal/store"
)

var (
	configPath string
	dbPath     string
	userFlag   string
	formatFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "memgate",
	Short: "Memory curation gateway for LLM agents",
	Long: "A curation layer in front of a long-term memory store: quality-gates\n" +
		"writes, rejects duplicates, finds consolidation candidates, and\n" +
		"assembles retrieved memories into prompt-ready context blocks.",
}

func init() {
	godotenv.Load()

	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (TOML)")
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Use a local SQLite store at this path instead of the hosted API")
	RootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "User ID (default from config)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
}

func loadConfig() config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitErr("load config", err)
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	return cfg
}

// openStore picks the backend: local SQLite when a db path is set,
// otherwise the hosted API.
func openStore(cfg config.Config) store.Store {
	if cfg.DBPath != "" {
		s, err := store.NewSQLite(cfg.DBPath)
		if err != nil {
			exitErr("open store", err)
		}
		return s
	}
	if cfg.APIKey == "" {
		exitErr("open store", fmt.Errorf("no API key configured (set MEMGATE_API_KEY) and no --db path given"))
	}
	return store.NewRemote(cfg.APIBase, cfg.APIBaseV2, cfg.APIKey)
}

func userID(cfg config.Config) string {
	if userFlag != "" {
		return userFlag
	}
	return cfg.DefaultUser
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
