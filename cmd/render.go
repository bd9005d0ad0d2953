package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/collection-sync/internal/category"
	"github.com/kozaktomas/collection-sync/internal/config"
	"github.com/kozaktomas/collection-sync/internal/constants"
)

var renderCmd = &cobra.Command{
	Use:   "render <name>",
	Short: "Render a collection poster locally",
	Long: `Render a poster for the given collection name without touching the
media server. The template comes from --template, or from the category table
when --category is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().Int("category", -1, "Category id used to pick the template")
	renderCmd.Flags().String("template", "", "Template name (overrides --category)")
	renderCmd.Flags().String("out", "", "Output directory (defaults to POSTER_TEMP_DIR)")
	renderCmd.Flags().Float64("vertical-position", -1, "Vertical center of the title, 0 = top, 1 = bottom")
}

func runRender(cmd *cobra.Command, args []string) error {
	name := args[0]

	cfg := config.Load()

	categoryID := mustGetInt(cmd, "category")
	templateName := mustGetString(cmd, "template")
	outDir := mustGetString(cmd, "out")
	verticalPosition := mustGetFloat64(cmd, "vertical-position")

	if outDir != "" {
		cfg.Poster.TempDir = outDir
	}
	if verticalPosition >= 0 {
		cfg.Poster.VerticalPosition = verticalPosition
	}

	if templateName == "" {
		templateName = constants.DefaultTemplateName
		if categoryID >= 0 {
			var source category.Source = cfg
			if recipes, err := loadRecipes(cfg, ""); err == nil {
				source = recipes
			}
			cat := category.New(source).Resolve(&categoryID)
			fmt.Printf("Category: %s\n", cat.DisplayName)
			if cat.ProviderArt {
				fmt.Println("Category uses provider artwork, rendering with the default template")
			} else {
				templateName = cat.Template
			}
		}
	}

	engine, err := newPosterEngine(cfg)
	if err != nil {
		return err
	}

	rendered, err := engine.Render(name, templateName)
	if err != nil {
		return fmt.Errorf("failed to render poster: %w", err)
	}

	fmt.Printf("Template: %s\n", templateName)
	fmt.Printf("Poster: %s (%dx%d)\n", rendered.Path, rendered.Width, rendered.Height)
	return nil
}
