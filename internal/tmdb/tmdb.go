// Package tmdb is a small client for The Movie Database API.
package tmdb

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/kozaktomas/collection-sync/internal/constants"
)

const defaultBaseURL = "https://api.themoviedb.org/3"

// Client talks to the TMDb v3 API. Requests are rate limited, retried on
// transient failures and cached per client.
type Client struct {
	parsedURL    *url.URL
	apiKey       string
	language     string
	imageBaseURL string
	httpClient   *http.Client
	limiter      *rate.Limiter
	cache        *lru.Cache[string, []byte]
	attempts     uint
	retryDelay   time.Duration
	log          *slog.Logger
}

type Option func(*Client)

// WithBaseURL points the client at another API root (used by tests).
func WithBaseURL(raw string) Option {
	return func(c *Client) {
		if u, err := url.Parse(strings.TrimRight(raw, "/")); err == nil {
			c.parsedURL = u
		}
	}
}

// WithLanguage sets the language used for image filtering, e.g. "en" or "de-DE".
func WithLanguage(lang string) Option {
	return func(c *Client) {
		if lang != "" {
			c.language = lang
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithImageBaseURL(base string) Option {
	return func(c *Client) {
		c.imageBaseURL = strings.TrimRight(base, "/")
	}
}

// WithRetry sets the number of attempts and the initial delay between them.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = max(attempts, 1)
		c.retryDelay = delay
	}
}

// WithRateLimit sets the allowed requests per second.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), max(int(perSecond), 1))
	}
}

// New creates a TMDb client. apiKey may be a v3 key or a v4 read access token.
func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("TMDb API key is required")
	}
	parsed, err := url.Parse(defaultBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid TMDb URL: %w", err)
	}
	cache, err := lru.New[string, []byte](constants.ProviderCacheSize)
	if err != nil {
		return nil, fmt.Errorf("could not create cache: %w", err)
	}

	c := &Client{
		parsedURL:    parsed,
		apiKey:       apiKey,
		language:     "en",
		imageBaseURL: constants.TMDBImageBaseURL,
		httpClient:   &http.Client{Timeout: constants.HTTPTimeout},
		limiter:      rate.NewLimiter(rate.Limit(constants.TMDBRequestsPerSecond), constants.TMDBRequestsPerSecond),
		cache:        cache,
		attempts:     constants.RetryAttempts,
		retryDelay:   500 * time.Millisecond,
		log:          slog.Default().With("component", "tmdb"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// isBearerToken reports whether the key is a v4 read access token (a JWT).
func (c *Client) isBearerToken() bool {
	return strings.HasPrefix(c.apiKey, "eyJ")
}

// resolveURL joins endpoint to the API root and adds the query plus v3 key.
func (c *Client) resolveURL(endpoint string, query url.Values) string {
	u := c.parsedURL.JoinPath(endpoint)
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	if !c.isBearerToken() {
		q.Set("api_key", c.apiKey)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// ImageURL builds a full image URL from a TMDb file path.
func (c *Client) ImageURL(filePath string) string {
	if filePath == "" {
		return ""
	}
	return c.imageBaseURL + "/" + strings.TrimLeft(filePath, "/")
}

// imageLanguages is the include_image_language filter: the configured language
// plus images without text.
func (c *Client) imageLanguages() string {
	lang, _, _ := strings.Cut(c.language, "-")
	return lang + ",null"
}
