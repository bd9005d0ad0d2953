package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/collection-sync/internal/category"
	"github.com/kozaktomas/collection-sync/internal/config"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List collection categories and their poster templates",
	Long: `List the category table: the embedded defaults merged with the
categories declared in the recipes file, if one exists.`,
	RunE: runCategories,
}

func init() {
	rootCmd.AddCommand(categoriesCmd)

	categoriesCmd.Flags().String("recipes", "", "Recipes file (defaults to RECIPES_FILE or recipes.yaml)")
}

func runCategories(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	var source category.Source = cfg
	path := mustGetString(cmd, "recipes")
	if recipes, err := loadRecipes(cfg, path); err == nil {
		source = recipes
	} else if path != "" {
		return err
	}

	categories := category.New(source).Categories()
	if len(categories) == 0 {
		fmt.Println("No categories defined.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tARTWORK")
	fmt.Fprintln(w, "--\t----\t-------")

	for _, c := range categories {
		art := "template " + c.Template
		if c.ProviderArt {
			art = "provider"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", c.ID, c.DisplayName, art)
	}

	w.Flush()

	fmt.Printf("\nTotal: %d categories\n", len(categories))

	return nil
}
