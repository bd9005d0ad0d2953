// Package mediaserver is a client for the Jellyfin and Emby REST APIs.
package mediaserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/afero"

	"github.com/kozaktomas/collection-sync/internal/constants"
)

// Server kinds.
const (
	KindJellyfin = "jellyfin"
	KindEmby     = "emby"
)

// Client represents a client for a Jellyfin or Emby server.
type Client struct {
	Url        string
	Kind       string
	parsedURL  *url.URL
	token      string
	userID     string
	httpClient *http.Client
	fs         afero.Fs // for file:// image URLs
	log        *slog.Logger

	// posters published at posterBase are read from posterDir instead of over HTTP
	posterBase string
	posterDir  string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithFs sets the file system file:// image URLs are read from.
func WithFs(fs afero.Fs) Option {
	return func(c *Client) {
		c.fs = fs
	}
}

// WithLocalPosters makes image URLs below base (e.g. http://sync:8090/posters)
// read the file of the same name from dir when it exists there.
func WithLocalPosters(base, dir string) Option {
	return func(c *Client) {
		c.posterBase = strings.TrimRight(base, "/")
		c.posterDir = dir
	}
}

// New creates a client. Emby servers are addressed under the /emby prefix.
func New(kind, rawURL, token, userID string, opts ...Option) (*Client, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		kind = KindJellyfin
	}
	if kind != KindJellyfin && kind != KindEmby {
		return nil, fmt.Errorf("unsupported media server type %q", kind)
	}
	if rawURL == "" {
		return nil, fmt.Errorf("media server URL is required")
	}
	if token == "" {
		return nil, fmt.Errorf("media server token is required")
	}

	apiURL := strings.TrimRight(rawURL, "/")
	if kind == KindEmby && !strings.HasSuffix(apiURL, "/emby") {
		apiURL += "/emby"
	}
	parsed, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid media server URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid media server URL %q: scheme must be http or https", rawURL)
	}

	c := &Client{
		Url:        apiURL,
		Kind:       kind,
		parsedURL:  parsed,
		token:      token,
		userID:     userID,
		httpClient: &http.Client{Timeout: constants.HTTPTimeout},
		fs:         afero.NewOsFs(),
		log:        slog.Default().With("component", "mediaserver", "kind", kind),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// resolveURL builds a full URL from the API root, the path segments and an
// optional query.
func (c *Client) resolveURL(query url.Values, pathSegments ...string) string {
	u := c.parsedURL.JoinPath(pathSegments...)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// itemsEndpoint is /Users/{id}/Items when a user is configured, else /Items.
func (c *Client) itemsEndpoint() []string {
	if c.userID != "" {
		return []string{"Users", c.userID, "Items"}
	}
	return []string{"Items"}
}

func (c *Client) setAuth(req *http.Request) {
	req.Header.Set("X-Emby-Token", c.token)
	req.Header.Set("Accept", "application/json")
}
