package mediaserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/kozaktomas/collection-sync/internal/constants"
)

// SystemInfo retrieves server name and version. Useful as a connection check.
func (c *Client) SystemInfo(ctx context.Context) (*SystemInfo, error) {
	return doGetJSON[SystemInfo](ctx, c, nil, "System", "Info")
}

// listItems pages through an items query until every record is fetched.
func (c *Client) listItems(ctx context.Context, query url.Values) ([]Item, error) {
	var all []Item
	for start := 0; ; start += constants.DefaultPageSize {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("StartIndex", strconv.Itoa(start))
		q.Set("Limit", strconv.Itoa(constants.DefaultPageSize))

		page, err := doGetJSON[ItemsResponse](ctx, c, q, c.itemsEndpoint()...)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if len(page.Items) < constants.DefaultPageSize || len(all) >= page.TotalRecordCount {
			return all, nil
		}
	}
}

// Movies returns the library movies keyed by TMDb id. Movies without a TMDb
// id are skipped; for duplicates the first item wins.
func (c *Client) Movies(ctx context.Context) (map[string]string, error) {
	items, err := c.listItems(ctx, url.Values{
		"IncludeItemTypes": {"Movie"},
		"Recursive":        {"true"},
		"Fields":           {"ProviderIds"},
	})
	if err != nil {
		return nil, fmt.Errorf("could not list movies: %w", err)
	}

	movies := make(map[string]string, len(items))
	for _, item := range items {
		id := item.TMDBID()
		if id == "" {
			continue
		}
		if _, ok := movies[id]; !ok {
			movies[id] = item.ID
		}
	}
	return movies, nil
}

// Collections lists all collections (box sets).
func (c *Client) Collections(ctx context.Context) ([]Item, error) {
	items, err := c.listItems(ctx, url.Values{
		"IncludeItemTypes": {"BoxSet"},
		"Recursive":        {"true"},
		"Fields":           {"ProviderIds,ChildCount"},
		"SortBy":           {"SortName"},
	})
	if err != nil {
		return nil, fmt.Errorf("could not list collections: %w", err)
	}
	return items, nil
}

// FindCollection returns the collection with the given name (case-insensitive),
// or nil if there is none.
func (c *Client) FindCollection(ctx context.Context, name string) (*Item, error) {
	items, err := c.listItems(ctx, url.Values{
		"IncludeItemTypes": {"BoxSet"},
		"Recursive":        {"true"},
		"SearchTerm":       {name},
	})
	if err != nil {
		return nil, fmt.Errorf("could not search collections: %w", err)
	}
	for _, item := range items {
		if strings.EqualFold(strings.TrimSpace(item.Name), strings.TrimSpace(name)) {
			return &item, nil
		}
	}
	return nil, nil
}

// CreateCollection creates a collection with the given name and initial items
// and returns its id.
func (c *Client) CreateCollection(ctx context.Context, name string, itemIDs []string) (string, error) {
	q := url.Values{"Name": {name}}
	first := itemIDs
	if len(first) > constants.AddBatchSize {
		first = first[:constants.AddBatchSize]
	}
	if len(first) > 0 {
		q.Set("Ids", strings.Join(first, ","))
	}

	created, err := doRequestJSON[collectionCreated](ctx, c, http.MethodPost, q, nil,
		[]int{http.StatusOK, http.StatusCreated}, "Collections")
	if err != nil {
		return "", fmt.Errorf("could not create collection %q: %w", name, err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("could not create collection %q: server returned no id", name)
	}

	if len(itemIDs) > len(first) {
		if err := c.AddToCollection(ctx, created.ID, itemIDs[len(first):]); err != nil {
			return created.ID, err
		}
	}
	return created.ID, nil
}

// CollectionItems lists the items of a collection.
func (c *Client) CollectionItems(ctx context.Context, collectionID string) ([]Item, error) {
	items, err := c.listItems(ctx, url.Values{
		"ParentId": {collectionID},
		"Fields":   {"ProviderIds"},
	})
	if err != nil {
		return nil, fmt.Errorf("could not list collection items: %w", err)
	}
	return items, nil
}

// RemoveFromCollection removes items from a collection (keeps them in the library).
func (c *Client) RemoveFromCollection(ctx context.Context, collectionID string, itemIDs []string) error {
	for _, batch := range batches(itemIDs, constants.AddBatchSize) {
		err := doRequestRaw(ctx, c, http.MethodDelete, url.Values{"Ids": {strings.Join(batch, ",")}}, nil,
			[]int{http.StatusOK, http.StatusNoContent}, "Collections", collectionID, "Items")
		if err != nil {
			return fmt.Errorf("could not remove items from collection: %w", err)
		}
	}
	return nil
}

// AddToCollection adds items to a collection in batches. Each batch goes
// through addStrategies in order until one succeeds.
func (c *Client) AddToCollection(ctx context.Context, collectionID string, itemIDs []string) error {
	for _, batch := range batches(itemIDs, constants.AddBatchSize) {
		if err := c.addBatch(ctx, collectionID, batch); err != nil {
			return err
		}
	}
	return nil
}

// StrategyError is the failure of one add-items strategy.
type StrategyError struct {
	Strategy string
	Err      error
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("strategy %s: %v", e.Strategy, e.Err)
}

func (e *StrategyError) Unwrap() error {
	return e.Err
}

type addStrategy struct {
	name string
	do   func(ctx context.Context, c *Client, collectionID string, ids []string) error
}

// addStrategies are tried in this order:
//  1. query: POST /Collections/{id}/Items?Ids=a,b (Jellyfin, current Emby)
//  2. body: POST /Collections/{id}/Items with {"Ids": [...]} (older Emby builds)
var addStrategies = []addStrategy{
	{
		name: "query",
		do: func(ctx context.Context, c *Client, collectionID string, ids []string) error {
			return doRequestRaw(ctx, c, http.MethodPost, url.Values{"Ids": {strings.Join(ids, ",")}}, nil,
				[]int{http.StatusOK, http.StatusNoContent}, "Collections", collectionID, "Items")
		},
	},
	{
		name: "body",
		do: func(ctx context.Context, c *Client, collectionID string, ids []string) error {
			body := struct {
				IDs []string `json:"Ids"`
			}{IDs: ids}
			return doRequestRaw(ctx, c, http.MethodPost, nil, body,
				[]int{http.StatusOK, http.StatusNoContent}, "Collections", collectionID, "Items")
		},
	},
}

func (c *Client) addBatch(ctx context.Context, collectionID string, ids []string) error {
	var errs []error
	for _, s := range addStrategies {
		err := s.do(ctx, c, collectionID, ids)
		if err == nil {
			if len(errs) > 0 {
				c.log.Debug("add items succeeded with fallback strategy", "strategy", s.name)
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		errs = append(errs, &StrategyError{Strategy: s.name, Err: err})
	}
	return fmt.Errorf("could not add items to collection %s: %w", collectionID, errors.Join(errs...))
}

func batches(ids []string, size int) [][]string {
	var out [][]string
	for len(ids) > 0 {
		n := min(size, len(ids))
		out = append(out, ids[:n])
		ids = ids[n:]
	}
	return out
}
