package mediaserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
)

// doGetJSON performs a GET request and unmarshals the JSON response into the result type.
func doGetJSON[T any](ctx context.Context, c *Client, query url.Values, path ...string) (*T, error) {
	return doRequestJSON[T](ctx, c, http.MethodGet, query, nil, []int{http.StatusOK}, path...)
}

// doRequestJSON performs a request with an optional JSON body and unmarshals the
// JSON response. The response status must be one of expectedStatuses.
func doRequestJSON[T any](ctx context.Context, c *Client, method string, query url.Values, requestBody any, expectedStatuses []int, path ...string) (*T, error) {
	body, err := c.do(ctx, method, c.resolveURL(query, path...), requestBody, expectedStatuses)
	if err != nil {
		return nil, err
	}

	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("could not unmarshal response: %w", err)
	}
	return &result, nil
}

// doRequestRaw performs a request without unmarshaling the response.
func doRequestRaw(ctx context.Context, c *Client, method string, query url.Values, requestBody any, expectedStatuses []int, path ...string) error {
	_, err := c.do(ctx, method, c.resolveURL(query, path...), requestBody, expectedStatuses)
	return err
}

func (c *Client) do(ctx context.Context, method, target string, requestBody any, expectedStatuses []int) ([]byte, error) {
	var bodyReader io.Reader
	if requestBody != nil {
		jsonBody, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("could not marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	c.setAuth(req)
	if requestBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req) //nolint:gosec // URL constructed from parsedURL via resolveURL
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if !isExpectedStatus(resp.StatusCode, expectedStatuses) {
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}
	return body, nil
}

// readErrorBody reads the response body for error messages.
// Returns a placeholder if reading fails (we're already in an error path).
func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return "(could not read error body)"
	}
	return strings.TrimSpace(string(body))
}

// isExpectedStatus checks if a status code is in the list of expected statuses.
func isExpectedStatus(code int, expected []int) bool {
	return slices.Contains(expected, code)
}

// IsNotFoundError returns true if the error indicates a 404 Not Found response.
func IsNotFoundError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "status 404")
}
