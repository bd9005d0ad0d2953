// Package artwork decides where a collection's poster and backdrop come from.
package artwork

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/kozaktomas/collection-sync/internal/category"
	"github.com/kozaktomas/collection-sync/internal/constants"
	"github.com/kozaktomas/collection-sync/internal/poster"
)

// Source records which step of the cascade produced an image.
type Source int

const (
	SourceNone Source = iota
	SourceExplicit
	SourceProvider
	SourceGenerated
	SourceItem
)

func (s Source) String() string {
	switch s {
	case SourceExplicit:
		return "explicit"
	case SourceProvider:
		return "provider"
	case SourceGenerated:
		return "generated"
	case SourceItem:
		return "item"
	default:
		return "none"
	}
}

// Candidate is one image offered by a metadata provider.
type Candidate struct {
	URL      string
	Rating   float64
	Width    int
	Height   int
	Language string
}

// Images groups poster and backdrop candidates in provider order.
type Images struct {
	Posters   []Candidate
	Backdrops []Candidate
}

// Best returns the highest-rated candidate. Ties keep the earlier candidate.
func Best(candidates []Candidate) (Candidate, bool) {
	best := -1
	for i, c := range candidates {
		if c.URL == "" {
			continue
		}
		if best < 0 || c.Rating > candidates[best].Rating {
			best = i
		}
	}
	if best < 0 {
		return Candidate{}, false
	}
	return candidates[best], true
}

// Request describes one collection whose artwork should be resolved.
type Request struct {
	Name                 string
	CategoryID           *int
	ProviderCollectionID string   // provider id of the collection itself, if known
	ItemIDs              []string // provider ids of member items, in collection order
	ExplicitPosterURL    string
	ExplicitBackdropURL  string
}

// Result is the outcome of a resolution. An empty URL means the slot should
// be left untouched on the media server.
type Result struct {
	PosterURL      string
	BackdropURL    string
	PosterSource   Source
	BackdropSource Source

	// Generated is set when the poster was rendered; the caller owns the file.
	Generated *poster.RenderedPoster
}

func (r *Result) complete() bool {
	return r.PosterURL != "" && r.BackdropURL != ""
}

// Classifier maps category ids to categories.
type Classifier interface {
	Resolve(id *int) category.Category
}

// Renderer produces poster files.
type Renderer interface {
	Render(name, templateName string) (poster.RenderedPoster, error)
	Remove(p poster.RenderedPoster) error
}

// ArtworkSource looks up provider images for collections and items.
type ArtworkSource interface {
	CollectionImages(ctx context.Context, id string) (Images, error)
	ItemImages(ctx context.Context, id string) (Images, error)
}

// URLMapper turns a local poster path into a URL the media server can fetch.
type URLMapper interface {
	URL(path string) (string, error)
}

// FileURLMapper returns file:// URLs for absolute paths.
type FileURLMapper struct{}

func (FileURLMapper) URL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("could not resolve poster path: %w", err)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}

// BaseURLMapper serves posters through the poster file server at Base.
type BaseURLMapper struct {
	Base string
}

func (m BaseURLMapper) URL(path string) (string, error) {
	if m.Base == "" {
		return "", fmt.Errorf("poster base URL is not configured")
	}
	return url.JoinPath(strings.TrimRight(m.Base, "/"), constants.PostersRoute, filepath.Base(path))
}
