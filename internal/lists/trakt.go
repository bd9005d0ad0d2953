package lists

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

const (
	traktAPIBaseURL = "https://api.trakt.tv"
	traktAPIVersion = "2"
	traktPageLimit  = 100
)

type traktIDs struct {
	Trakt int    `json:"trakt,omitempty"`
	Slug  string `json:"slug,omitempty"`
	IMDB  string `json:"imdb,omitempty"`
	TMDB  int    `json:"tmdb,omitempty"`
}

type traktListItem struct {
	Rank  int    `json:"rank"`
	Type  string `json:"type"`
	Movie *struct {
		Title string   `json:"title"`
		Year  int      `json:"year"`
		IDs   traktIDs `json:"ids"`
	} `json:"movie,omitempty"`
}

// Trakt lists the movies of a public Trakt user list.
type Trakt struct {
	User string
	List string

	deps    Deps
	baseURL string
}

func newTrakt(user, list string, deps Deps) *Trakt {
	base := deps.TraktBaseURL
	if base == "" {
		base = traktAPIBaseURL
	}
	return &Trakt{User: user, List: list, deps: deps, baseURL: base}
}

func (t *Trakt) MovieIDs(ctx context.Context) ([]int, error) {
	headers := map[string]string{
		"Content-Type":      "application/json",
		"trakt-api-version": traktAPIVersion,
		"trakt-api-key":     t.deps.TraktClientID,
	}
	hc := t.deps.httpClient()

	var ids []int
	for page := 1; ; page++ {
		target, err := url.JoinPath(t.baseURL, "users", t.User, "lists", t.List, "items", "movies")
		if err != nil {
			return nil, fmt.Errorf("invalid trakt URL: %w", err)
		}
		target += fmt.Sprintf("?page=%d&limit=%d", page, traktPageLimit)

		items, header, err := getJSON[[]traktListItem](ctx, hc, target, headers)
		if err != nil {
			return nil, fmt.Errorf("trakt list %s/%s: %w", t.User, t.List, err)
		}
		for _, item := range *items {
			if item.Movie != nil {
				ids = append(ids, item.Movie.IDs.TMDB)
			}
		}

		pages, _ := strconv.Atoi(header.Get("X-Pagination-Page-Count"))
		if page >= pages || len(*items) == 0 {
			break
		}
	}
	return dedupe(ids), nil
}
