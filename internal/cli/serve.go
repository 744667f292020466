package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rcliao/memgate/internal/curator"
	"github.com/rcliao/memgate/internal/server"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP curation gateway",
		Long:  "Serve the curation API. Shuts down gracefully on SIGINT/SIGTERM.",
		Run:   runServe,
	}

	cmd.Flags().StringP("listen", "l", "", "Listen address (overrides config)")

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.Listen = listen
	}

	st := openStore(cfg)
	defer st.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, curator.New(cfg, st))
	if err := srv.ListenAndServe(ctx); err != nil {
		exitErr("serve", err)
	}
}
