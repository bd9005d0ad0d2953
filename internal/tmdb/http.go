package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/avast/retry-go/v4"
)

// StatusError is a non-200 API response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Body)
}

func (e *StatusError) retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= http.StatusInternalServerError
}

// IsNotFoundError returns true if the error indicates a 404 Not Found response.
func IsNotFoundError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == http.StatusNotFound
}

// readErrorBody reads the response body for error messages.
func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return "(could not read error body)"
	}
	return strings.TrimSpace(string(body))
}

// doGetJSON performs a rate limited, retried and cached GET request and
// unmarshals the JSON response into the result type.
func doGetJSON[T any](ctx context.Context, c *Client, endpoint string, query url.Values) (*T, error) {
	target := c.resolveURL(endpoint, query)

	body, ok := c.cache.Get(target)
	if !ok {
		var err error
		body, err = retry.DoWithData(
			func() ([]byte, error) {
				return c.fetch(ctx, target)
			},
			retry.Context(ctx),
			retry.Attempts(c.attempts),
			retry.Delay(c.retryDelay),
			retry.LastErrorOnly(true),
			retry.OnRetry(func(n uint, err error) {
				c.log.Debug("retrying request", "endpoint", endpoint, "attempt", n+1, "error", err)
			}),
		)
		if err != nil {
			return nil, err
		}
		c.cache.Add(target, body)
	}

	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("could not unmarshal response: %w", err)
	}
	return &result, nil
}

// fetch performs a single request. Client errors other than 429 are marked
// unrecoverable so they are not retried.
func (c *Client) fetch(ctx context.Context, target string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, retry.Unrecoverable(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("could not create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.isBearerToken() {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req) //nolint:gosec // URL constructed from parsedURL via resolveURL
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		se := &StatusError{Status: resp.StatusCode, Body: readErrorBody(resp.Body)}
		if se.retryable() {
			return nil, se
		}
		return nil, retry.Unrecoverable(se)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}
	return body, nil
}
