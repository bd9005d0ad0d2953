package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/collection-sync/internal/config"
	"github.com/kozaktomas/collection-sync/internal/logging"
)

var (
	logLevel  string
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "collection-sync",
	Short: "Keep Jellyfin and Emby movie collections in sync with curated lists",
	Long: `Collection Sync maintains movie collections on a Jellyfin or Emby server.
Each collection is described by a recipe: a list source (MDBList, Trakt,
a TMDb collection or a static id list) and an optional category that decides
its artwork. Collections without provider artwork get a generated poster
with the collection name typeset onto a category template.`,
	SilenceUsage: true,
}

func Execute() {
	err := rootCmd.Execute()
	if logCloser != nil {
		_ = logCloser.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()

	cfg := config.Load()
	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	logCloser = logging.Setup(level, cfg.Log.File)
}
