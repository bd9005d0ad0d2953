package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SourceConfig describes where a collection's movie ids come from.
type SourceConfig struct {
	Type string `yaml:"type"` // mdblist, trakt, tmdb_collection, static
	User string `yaml:"user"`
	List string `yaml:"list"`
	ID   int    `yaml:"id"`  // TMDb collection id for tmdb_collection
	IDs  []int  `yaml:"ids"` // TMDb movie ids for static
}

// Recipe is one collection to maintain on the media server.
type Recipe struct {
	Name        string       `yaml:"name"`
	Category    *int         `yaml:"category"`
	Source      SourceConfig `yaml:"source"`
	PosterURL   string       `yaml:"poster_url"`
	BackdropURL string       `yaml:"backdrop_url"`
	Append      bool         `yaml:"append"` // only add items, never remove
}

// Recipes is the parsed recipes file. Categories declared here are merged over
// the embedded defaults.
type Recipes struct {
	CategoriesConfig `yaml:",inline"`
	Collections      []Recipe `yaml:"collections"`

	defaults CategoriesConfig
}

// LoadRecipes reads and validates the recipes file.
func LoadRecipes(path string, defaults CategoriesConfig) (*Recipes, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided recipes path
	if err != nil {
		return nil, fmt.Errorf("could not read recipes file: %w", err)
	}
	return ParseRecipes(data, defaults)
}

// ParseRecipes parses recipes YAML and validates every collection entry.
func ParseRecipes(data []byte, defaults CategoriesConfig) (*Recipes, error) {
	var r Recipes
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("could not parse recipes: %w", err)
	}
	r.defaults = defaults

	seen := make(map[string]bool, len(r.Collections))
	var errs []error
	for i, c := range r.Collections {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			errs = append(errs, fmt.Errorf("collection #%d: name is required", i+1))
			continue
		}
		if seen[strings.ToLower(name)] {
			errs = append(errs, fmt.Errorf("collection %q: duplicate name", name))
		}
		seen[strings.ToLower(name)] = true
		if c.Source.Type == "" {
			errs = append(errs, fmt.Errorf("collection %q: source.type is required", name))
		}
		r.Collections[i].Name = name
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &r, nil
}

// CategoryTable merges the file categories over the embedded defaults.
func (r *Recipes) CategoryTable() (CategoriesConfig, error) {
	merged := CategoriesConfig{
		Categories:        make(map[int]CategoryEntry, len(r.defaults.Categories)+len(r.Categories)),
		TemplateOverrides: make(map[int]string, len(r.defaults.TemplateOverrides)+len(r.TemplateOverrides)),
	}
	maps.Copy(merged.Categories, r.defaults.Categories)
	maps.Copy(merged.Categories, r.Categories)
	maps.Copy(merged.TemplateOverrides, r.defaults.TemplateOverrides)
	maps.Copy(merged.TemplateOverrides, r.TemplateOverrides)
	return merged, nil
}

// Find returns the recipe with the given name (case-insensitive).
func (r *Recipes) Find(name string) (Recipe, bool) {
	for _, c := range r.Collections {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Recipe{}, false
}
