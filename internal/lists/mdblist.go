package lists

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

const mdblistAPIBaseURL = "https://api.mdblist.com"

type mdblistItem struct {
	ID        int    `json:"id"`
	TMDBID    int    `json:"tmdb_id"`
	Rank      int    `json:"rank"`
	Title     string `json:"title"`
	MediaType string `json:"mediatype"`
}

func (i mdblistItem) tmdbID() int {
	if i.TMDBID > 0 {
		return i.TMDBID
	}
	return i.ID
}

// mdblistResponse accepts both the flat array and the {"movies": [...]} shapes.
type mdblistResponse struct {
	Movies []mdblistItem
}

func (r *mdblistResponse) UnmarshalJSON(data []byte) error {
	var flat []mdblistItem
	if err := json.Unmarshal(data, &flat); err == nil {
		for _, item := range flat {
			if item.MediaType == "" || item.MediaType == "movie" {
				r.Movies = append(r.Movies, item)
			}
		}
		return nil
	}

	var grouped struct {
		Movies []mdblistItem `json:"movies"`
	}
	if err := json.Unmarshal(data, &grouped); err != nil {
		return fmt.Errorf("unmarshal mdblist response: %w", err)
	}
	r.Movies = grouped.Movies
	return nil
}

// MDBList lists the movies of an MDBList user list.
type MDBList struct {
	User string
	List string

	deps    Deps
	baseURL string
}

func newMDBList(user, list string, deps Deps) *MDBList {
	base := deps.MDBListBaseURL
	if base == "" {
		base = mdblistAPIBaseURL
	}
	return &MDBList{User: user, List: list, deps: deps, baseURL: base}
}

func (m *MDBList) MovieIDs(ctx context.Context) ([]int, error) {
	target, err := url.JoinPath(m.baseURL, "lists", m.User, m.List, "items")
	if err != nil {
		return nil, fmt.Errorf("invalid mdblist URL: %w", err)
	}
	target += "?" + url.Values{"apikey": {m.deps.MDBListAPIKey}}.Encode()

	resp, _, err := getJSON[mdblistResponse](ctx, m.deps.httpClient(), target, nil)
	if err != nil {
		return nil, fmt.Errorf("mdblist list %s/%s: %w", m.User, m.List, err)
	}

	ids := make([]int, 0, len(resp.Movies))
	for _, item := range resp.Movies {
		ids = append(ids, item.tmdbID())
	}
	return dedupe(ids), nil
}
