package tmdb

import (
	"cmp"
	"context"
	"fmt"
	"net/url"
	"slices"

	"github.com/kozaktomas/collection-sync/internal/artwork"
)

// GetCollection retrieves a collection and its parts ordered by release date.
// Parts without a release date go last.
func (c *Client) GetCollection(ctx context.Context, id int) (*Collection, error) {
	col, err := doGetJSON[Collection](ctx, c, fmt.Sprintf("collection/%d", id), url.Values{"language": {c.language}})
	if err != nil {
		return nil, fmt.Errorf("could not get collection %d: %w", id, err)
	}
	slices.SortStableFunc(col.Parts, func(a, b Part) int {
		switch {
		case a.ReleaseDate == "" && b.ReleaseDate == "":
			return 0
		case a.ReleaseDate == "":
			return 1
		case b.ReleaseDate == "":
			return -1
		}
		return cmp.Compare(a.ReleaseDate, b.ReleaseDate)
	})
	return col, nil
}

// GetMovie retrieves a single movie.
func (c *Client) GetMovie(ctx context.Context, id int) (*Movie, error) {
	m, err := doGetJSON[Movie](ctx, c, fmt.Sprintf("movie/%d", id), url.Values{"language": {c.language}})
	if err != nil {
		return nil, fmt.Errorf("could not get movie %d: %w", id, err)
	}
	return m, nil
}

// CollectionMovieIDs returns the TMDb ids of a collection's parts.
func (c *Client) CollectionMovieIDs(ctx context.Context, id int) ([]int, error) {
	col, err := c.GetCollection(ctx, id)
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(col.Parts))
	for _, p := range col.Parts {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

func (c *Client) images(ctx context.Context, endpoint string) (artwork.Images, error) {
	resp, err := doGetJSON[ImagesResponse](ctx, c, endpoint, url.Values{
		"include_image_language": {c.imageLanguages()},
	})
	if err != nil {
		return artwork.Images{}, err
	}
	return artwork.Images{
		Posters:   c.candidates(resp.Posters),
		Backdrops: c.candidates(resp.Backdrops),
	}, nil
}

func (c *Client) candidates(images []Image) []artwork.Candidate {
	out := make([]artwork.Candidate, 0, len(images))
	for _, img := range images {
		if img.FilePath == "" {
			continue
		}
		cand := artwork.Candidate{
			URL:    c.ImageURL(img.FilePath),
			Rating: img.VoteAverage,
			Width:  img.Width,
			Height: img.Height,
		}
		if img.Language != nil {
			cand.Language = *img.Language
		}
		out = append(out, cand)
	}
	return out
}

// CollectionImages returns the artwork of a TMDb collection.
func (c *Client) CollectionImages(ctx context.Context, id string) (artwork.Images, error) {
	return c.images(ctx, "collection/"+id+"/images")
}

// ItemImages returns the artwork of a TMDb movie.
func (c *Client) ItemImages(ctx context.Context, id string) (artwork.Images, error) {
	return c.images(ctx, "movie/"+id+"/images")
}
