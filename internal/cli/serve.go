package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/adpilot/adpilot/internal/server"
	"github.com/adpilot/adpilot/internal/store"
	"github.com/spf13/cobra"
)

var port int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the adpilot HTTP API.

The server provides:
  - POST /api/significance to evaluate counts without storing them
  - Experiment read and count update endpoints under /api/experiments
  - Health check endpoint

Example:
  adpilot serve --port 8080`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&port, "port", "p", 8080, "port to listen on (env ADPILOT_PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if !cmd.Flags().Changed("port") {
		if p := os.Getenv("ADPILOT_PORT"); p != "" {
			parsed, err := strconv.Atoi(p)
			if err != nil {
				return fmt.Errorf("invalid ADPILOT_PORT %q: %w", p, err)
			}
			port = parsed
		}
	}

	// Open database
	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	srv := server.New(s, port, logger)
	return srv.Start()
}
