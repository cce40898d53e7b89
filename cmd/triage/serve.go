package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vigilab/incident-triage/internal/engine"
	"github.com/vigilab/incident-triage/internal/server"
	"github.com/vigilab/incident-triage/internal/store"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook ingestion server",
		Long: `Starts the HTTP server that accepts SIEM webhook batches on /v1/webhook,
analyzes each entry, persists the reports, and optionally relays finished
reports to a callback URL.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var history store.History
	if cfg.Storage.DatabaseURL != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		history = pg
	} else {
		capacity := cfg.Storage.Capacity
		if capacity <= 0 {
			capacity = store.DefaultCapacity
		}
		history = store.NewMemoryStore(capacity)
	}
	defer history.Close()

	eng := engine.New(cfg, verbose)
	eng.SetHistory(history)

	srv, err := server.New(cfg.Server, eng, history, verbose)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "[*] triage server listening on %s\n", cfg.Server.Addr)
	return srv.ListenAndServe(ctx)
}
