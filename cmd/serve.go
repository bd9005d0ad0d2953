package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/collection-sync/internal/config"
	"github.com/kozaktomas/collection-sync/internal/constants"
	"github.com/kozaktomas/collection-sync/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve generated posters over HTTP",
	Long: `Start the poster server. Generated posters in the poster directory are
available under /posters/<file>, so a sync running with POSTER_BASE_URL set
can hand out HTTP URLs instead of local file paths.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", constants.DefaultServePort, "Port to listen on")
	serveCmd.Flags().String("host", constants.DefaultServeHost, "Host to bind to")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	server := web.NewServer(web.Config{
		Host:      host,
		Port:      port,
		PosterDir: cfg.Poster.TempDir,
		Prefix:    constants.PosterFilePrefix,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Serving posters from %s on http://%s\n", cfg.Poster.TempDir, server.Addr())
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
