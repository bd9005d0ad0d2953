package cmd

import (
	"testing"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/collection-sync/internal/artwork"
	"github.com/kozaktomas/collection-sync/internal/config"
)

const testRecipes = `
collections:
  - name: Horror Movies
    category: 1
    source:
      type: static
      ids: [694, 539]
  - name: James Bond
    source:
      type: tmdb_collection
      id: 645
`

func TestSelectRecipes(t *testing.T) {
	recipes, err := config.ParseRecipes([]byte(testRecipes), config.CategoriesConfig{})
	if err != nil {
		t.Fatalf("ParseRecipes() error: %v", err)
	}

	all, err := selectRecipes(recipes, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 recipes, got %d", len(all))
	}

	one, err := selectRecipes(recipes, []string{"james bond"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(one) != 1 || one[0].Name != "James Bond" {
		t.Errorf("expected James Bond, got %+v", one)
	}

	if _, err := selectRecipes(recipes, []string{"James Bond", "Nope"}); err == nil {
		t.Error("expected error for unknown collection")
	}
}

func TestSourceLabel(t *testing.T) {
	if got := sourceLabel(artwork.SourceNone); got != "-" {
		t.Errorf("expected -, got %q", got)
	}
	if got := sourceLabel(artwork.SourceGenerated); got != "generated" {
		t.Errorf("expected generated, got %q", got)
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"sync", "collections", "categories", "render", "cleanup", "serve", "version"}
	for _, name := range want {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("command %q is not registered", name)
		}
	}
}

func TestMustGetPanicsOnUnknownFlag(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for undefined flag")
		}
	}()
	mustGetBool(&cobra.Command{}, "missing")
}
