package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/splitkit/splitkit/internal/config"
	"github.com/splitkit/splitkit/internal/experiment"
	"github.com/splitkit/splitkit/internal/server"
	"github.com/splitkit/splitkit/internal/store"
)

var port int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the event collector",
	Long: `Start the splitkit collector.

The collector provides:
  - Event ingest endpoint for client recorders (bearer token)
  - Experiment registry endpoint for client bootstrap
  - Health check endpoint

Example:
  splitkit serve --port 8321`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (default from SK_PORT or 8321)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if port != 0 {
		cfg.Port = port
	}

	log, err := newLogger()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Sync()

	// The registry is optional for a bare collector; without one every
	// experiment id is accepted.
	var reg *experiment.Registry
	if _, statErr := os.Stat(registryPath); statErr == nil {
		reg, err = loadRegistry()
		if err != nil {
			return err
		}
	}

	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	srv := server.New(s, reg, cfg.Port, cfg.Token, tokenFilePath(), log)
	return srv.Start()
}
