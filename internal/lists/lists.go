// Package lists fetches the TMDb movie ids that make up a collection.
package lists

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/kozaktomas/collection-sync/internal/config"
	"github.com/kozaktomas/collection-sync/internal/constants"
)

// Source types accepted in recipes.
const (
	TypeMDBList        = "mdblist"
	TypeTrakt          = "trakt"
	TypeTMDBCollection = "tmdb_collection"
	TypeStatic         = "static"
)

// Source returns TMDb movie ids in list order without duplicates.
type Source interface {
	MovieIDs(ctx context.Context) ([]int, error)
}

// CollectionLister resolves TMDb collection parts.
type CollectionLister interface {
	CollectionMovieIDs(ctx context.Context, id int) ([]int, error)
}

// Deps carries the clients and credentials list sources need.
type Deps struct {
	TMDB          CollectionLister
	TraktClientID string
	MDBListAPIKey string
	HTTPClient    *http.Client

	// Base URLs, overridable for tests.
	TraktBaseURL   string
	MDBListBaseURL string
}

func (d Deps) httpClient() *http.Client {
	if d.HTTPClient != nil {
		return d.HTTPClient
	}
	return &http.Client{Timeout: constants.HTTPTimeout}
}

// New builds the source described by a recipe.
func New(src config.SourceConfig, deps Deps) (Source, error) {
	switch strings.ToLower(src.Type) {
	case TypeStatic:
		if len(src.IDs) == 0 {
			return nil, fmt.Errorf("static source needs ids")
		}
		return Static(src.IDs), nil
	case TypeTMDBCollection:
		if src.ID <= 0 {
			return nil, fmt.Errorf("tmdb_collection source needs an id")
		}
		if deps.TMDB == nil {
			return nil, fmt.Errorf("tmdb_collection source needs TMDB_API_KEY")
		}
		return &TMDBCollection{ID: src.ID, client: deps.TMDB}, nil
	case TypeTrakt:
		if src.User == "" || src.List == "" {
			return nil, fmt.Errorf("trakt source needs user and list")
		}
		if deps.TraktClientID == "" {
			return nil, fmt.Errorf("trakt source needs TRAKT_CLIENT_ID")
		}
		return newTrakt(src.User, src.List, deps), nil
	case TypeMDBList:
		if src.User == "" || src.List == "" {
			return nil, fmt.Errorf("mdblist source needs user and list")
		}
		if deps.MDBListAPIKey == "" {
			return nil, fmt.Errorf("mdblist source needs MDBLIST_API_KEY")
		}
		return newMDBList(src.User, src.List, deps), nil
	default:
		return nil, fmt.Errorf("unknown source type %q", src.Type)
	}
}

// Static is a fixed list of ids from the recipe.
type Static []int

func (s Static) MovieIDs(context.Context) ([]int, error) {
	return dedupe(s), nil
}

// TMDBCollection lists the parts of a TMDb collection.
type TMDBCollection struct {
	ID     int
	client CollectionLister
}

func (t *TMDBCollection) MovieIDs(ctx context.Context) ([]int, error) {
	ids, err := t.client.CollectionMovieIDs(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	return dedupe(ids), nil
}

// dedupe drops zero and repeated ids, keeping the first occurrence.
func dedupe(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
