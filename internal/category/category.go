// Package category maps collection category ids to poster templates.
package category

import (
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/kozaktomas/collection-sync/internal/config"
	"github.com/kozaktomas/collection-sync/internal/constants"
)

// ProviderArtMarker in a category's poster field means the collection uses
// the metadata provider's own artwork instead of a generated poster.
const ProviderArtMarker = "provider"

// Category is a resolved category classification.
// Template is empty whenever ProviderArt is true.
type Category struct {
	ID          int
	DisplayName string
	Template    string
	ProviderArt bool
}

// Default is returned for absent or unknown category ids.
var Default = Category{
	DisplayName: "Default",
	Template:    constants.DefaultTemplateName,
}

// Source supplies the parsed category table.
type Source interface {
	CategoryTable() (config.CategoriesConfig, error)
}

// Classifier resolves category ids. The table is loaded once on first use and
// is read-only afterwards.
type Classifier struct {
	source Source
	log    *slog.Logger

	once      sync.Once
	entries   map[int]config.CategoryEntry
	overrides map[int]string
}

func New(source Source) *Classifier {
	return &Classifier{
		source: source,
		log:    slog.Default().With("component", "category"),
	}
}

func (c *Classifier) load() {
	c.once.Do(func() {
		table, err := c.source.CategoryTable()
		if err != nil {
			c.log.Warn("could not load category table, using defaults", "error", err)
			return
		}
		c.entries = table.Categories
		c.overrides = table.TemplateOverrides
	})
}

// Resolve returns the category for id. It never fails: a nil or unknown id
// yields Default.
func (c *Classifier) Resolve(id *int) Category {
	if id == nil {
		return Default
	}
	c.load()

	entry, ok := c.entries[*id]
	if !ok {
		return Default
	}

	cat := Category{ID: *id, DisplayName: entry.Name}
	if isProviderArt(entry.Poster) {
		// the provider flag wins over the override table
		cat.ProviderArt = true
		return cat
	}

	switch {
	case strings.TrimSpace(entry.Poster) != "":
		cat.Template = strings.TrimSpace(entry.Poster)
	case c.overrides[*id] != "":
		cat.Template = c.overrides[*id]
	default:
		cat.Template = constants.DefaultTemplateName
	}
	return cat
}

// Categories lists every known category sorted by id.
func (c *Classifier) Categories() []Category {
	c.load()
	ids := make([]int, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]Category, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.Resolve(&id))
	}
	return out
}

func isProviderArt(poster string) bool {
	return strings.EqualFold(strings.TrimSpace(poster), ProviderArtMarker)
}
