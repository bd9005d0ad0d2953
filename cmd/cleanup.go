package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/collection-sync/internal/config"
	"github.com/kozaktomas/collection-sync/internal/constants"
	"github.com/kozaktomas/collection-sync/internal/poster"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove old generated posters",
	Long: `Remove generated posters left in the poster directory by interrupted
runs. Only files named collection_poster_* are touched.`,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)

	cleanupCmd.Flags().Duration("max-age", constants.PosterRetention, "Remove posters older than this")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	maxAge := mustGetDuration(cmd, "max-age")

	removed, err := poster.Sweep(afero.NewOsFs(), cfg.Poster.TempDir, constants.PosterFilePrefix, maxAge, time.Now())
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	fmt.Printf("Removed %d posters from %s\n", removed, cfg.Poster.TempDir)
	return nil
}
