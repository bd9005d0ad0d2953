package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/collection-sync/internal/artwork"
	"github.com/kozaktomas/collection-sync/internal/collsync"
	"github.com/kozaktomas/collection-sync/internal/config"
	"github.com/kozaktomas/collection-sync/internal/constants"
	"github.com/kozaktomas/collection-sync/internal/poster"
)

var syncCmd = &cobra.Command{
	Use:   "sync [recipe...]",
	Short: "Sync collections with their list sources",
	Long: `Sync every collection in the recipes file, or only the named ones.
Missing collections are created, items are added and removed to match the
list source, and the poster and backdrop are set from the recipe, TMDb or a
generated poster.

With POSTER_BASE_URL set, generated posters are reported under that URL
(served by the serve command) but uploaded straight from POSTER_TEMP_DIR, so
sync does not need a running poster server.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().Bool("dry-run", false, "Preview changes without applying them")
	syncCmd.Flags().Bool("append", false, "Only add items, never remove them")
	syncCmd.Flags().Bool("no-artwork", false, "Skip poster and backdrop updates")
	syncCmd.Flags().String("recipes", "", "Recipes file (defaults to RECIPES_FILE or recipes.yaml)")
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	dryRun := mustGetBool(cmd, "dry-run")
	appendOnly := mustGetBool(cmd, "append")
	noArtwork := mustGetBool(cmd, "no-artwork")
	recipesPath := mustGetString(cmd, "recipes")

	recipes, err := loadRecipes(cfg, recipesPath)
	if err != nil {
		return err
	}
	selected, err := selectRecipes(recipes, args)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		fmt.Println("No collections to sync.")
		return nil
	}

	server, err := newMediaServer(cfg)
	if err != nil {
		return err
	}
	tmdbClient, err := newTMDBClient(cfg)
	if err != nil {
		return err
	}
	engine, err := newPosterEngine(cfg)
	if err != nil {
		return err
	}

	removed, err := poster.Sweep(afero.NewOsFs(), engine.OutDir(), constants.PosterFilePrefix, constants.PosterRetention, time.Now())
	if err != nil {
		fmt.Printf("Warning: could not clean up old posters: %v\n", err)
	} else if removed > 0 {
		fmt.Printf("Removed %d stale posters\n", removed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Println("\nReceived interrupt signal...")
			cancel()
		case <-ctx.Done():
		}
	}()

	info, err := server.SystemInfo(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to media server: %w", err)
	}
	fmt.Printf("Media server: %s %s (%s)\n", server.Kind, info.Version, info.ServerName)
	fmt.Printf("Collections: %d\n", len(selected))
	if dryRun {
		fmt.Println("Mode: DRY RUN (no changes will be applied)")
	}
	fmt.Println()

	resolver := newResolver(cfg, recipes, engine, tmdbClient)
	syncer := collsync.New(server, resolver, newSourceFactory(cfg, tmdbClient), engine)

	bar := progressbar.NewOptions(len(selected),
		progressbar.OptionSetDescription("Syncing collections"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	result, err := syncer.Sync(ctx, collsync.NewSession(), selected, collsync.Options{
		DryRun:    dryRun,
		Append:    appendOnly,
		NoArtwork: noArtwork,
		OnProgress: func(p collsync.ProgressInfo) {
			bar.Describe(p.Collection)
			_ = bar.Set(p.Current)
		},
	})
	_ = bar.Finish()
	fmt.Println()
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	printSyncResult(result)

	if failed := result.Failed(); failed > 0 {
		return fmt.Errorf("%d of %d collections failed", failed, len(result.Collections))
	}
	return nil
}

// selectRecipes returns the named recipes, or all of them when names is empty.
func selectRecipes(recipes *config.Recipes, names []string) ([]config.Recipe, error) {
	if len(names) == 0 {
		return recipes.Collections, nil
	}
	selected := make([]config.Recipe, 0, len(names))
	var errs []error
	for _, name := range names {
		r, ok := recipes.Find(name)
		if !ok {
			errs = append(errs, fmt.Errorf("unknown collection %q", name))
			continue
		}
		selected = append(selected, r)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return selected, nil
}

func printSyncResult(result *collsync.Result) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COLLECTION\tSTATUS\tADDED\tREMOVED\tMISSING\tPOSTER\tBACKDROP")
	fmt.Fprintln(w, "----------\t------\t-----\t-------\t-------\t------\t--------")

	for _, c := range result.Collections {
		status := "updated"
		switch {
		case c.Err != nil:
			status = "failed"
		case c.Created:
			status = "created"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			c.Name, status, c.Added, c.Removed, c.Missing, sourceLabel(c.PosterSource), sourceLabel(c.BackdropSource))
	}
	w.Flush()

	if len(result.Errors) > 0 {
		fmt.Printf("\nErrors: %d\n", len(result.Errors))
		for _, err := range result.Errors {
			fmt.Printf("  - %v\n", err)
		}
	}

	var artworkErrors []error
	for _, c := range result.Collections {
		artworkErrors = append(artworkErrors, c.ArtworkErrors...)
	}
	if len(artworkErrors) > 0 {
		fmt.Printf("\nArtwork errors: %d\n", len(artworkErrors))
		for _, err := range artworkErrors {
			fmt.Printf("  - %v\n", err)
		}
	}
}

func sourceLabel(s artwork.Source) string {
	if s == artwork.SourceNone {
		return "-"
	}
	return s.String()
}
