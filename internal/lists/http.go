package lists

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/kozaktomas/collection-sync/internal/constants"
)

// getJSON performs a GET request with headers, retrying transport errors,
// 429 and 5xx responses. It returns the response headers with the decoded body.
func getJSON[T any](ctx context.Context, hc *http.Client, target string, headers map[string]string) (*T, http.Header, error) {
	var header http.Header
	body, err := retry.DoWithData(
		func() ([]byte, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
			if err != nil {
				return nil, retry.Unrecoverable(fmt.Errorf("could not create request: %w", err))
			}
			for k, v := range headers {
				req.Header.Set(k, v)
			}

			resp, err := hc.Do(req) //nolint:gosec // URL built from configured base URL
			if err != nil {
				return nil, fmt.Errorf("could not send request: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
				err := fmt.Errorf("request failed with status %d: %s", resp.StatusCode, msg)
				if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
					return nil, err
				}
				return nil, retry.Unrecoverable(err)
			}

			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return nil, fmt.Errorf("could not read response body: %w", err)
			}
			header = resp.Header
			return data, nil
		},
		retry.Context(ctx),
		retry.Attempts(constants.RetryAttempts),
		retry.Delay(250*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, nil, err
	}

	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, nil, fmt.Errorf("could not unmarshal response: %w", err)
	}
	return &result, header, nil
}
