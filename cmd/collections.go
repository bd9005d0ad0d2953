package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/collection-sync/internal/config"
	"github.com/kozaktomas/collection-sync/internal/mediaserver"
)

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List collections on the media server",
	RunE:  runCollections,
}

func init() {
	rootCmd.AddCommand(collectionsCmd)
}

func runCollections(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	server, err := newMediaServer(cfg)
	if err != nil {
		return err
	}

	collections, err := server.Collections(context.Background())
	if err != nil {
		return fmt.Errorf("failed to get collections: %w", err)
	}

	if len(collections) == 0 {
		fmt.Println("No collections found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tITEMS\tPOSTER\tBACKDROP")
	fmt.Fprintln(w, "--\t----\t-----\t------\t--------")

	for i := range collections {
		c := collections[i]
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", c.ID, c.Name, c.ChildCount,
			yesNo(c.HasImage(mediaserver.ImagePrimary)), yesNo(c.HasImage(mediaserver.ImageBackdrop)))
	}

	w.Flush()

	fmt.Printf("\nTotal: %d collections\n", len(collections))

	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
