package mediaserver

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

const maxImageSize = 50 << 20

// FetchImage downloads the image behind rawURL. file:// URLs and URLs of
// posters found in the local poster directory are read from the file system.
// It returns the data and its detected content type.
func (c *Client) FetchImage(ctx context.Context, rawURL string) ([]byte, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("invalid image URL: %w", err)
	}

	var data []byte
	if path, ok := c.localPoster(rawURL); ok {
		u.Scheme = "file"
		u.Path = path
	}
	switch u.Scheme {
	case "file":
		data, err = afero.ReadFile(c.fs, u.Path)
		if err != nil {
			return nil, "", fmt.Errorf("could not read image: %w", err)
		}
	case "http", "https":
		data, err = c.download(ctx, rawURL)
		if err != nil {
			return nil, "", err
		}
	default:
		return nil, "", fmt.Errorf("unsupported image URL scheme %q", u.Scheme)
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, "", fmt.Errorf("%s is not an image (%s)", rawURL, mtype.String())
	}
	return data, mtype.String(), nil
}

// localPoster maps a URL below the local poster base to an existing file in
// the poster directory.
func (c *Client) localPoster(rawURL string) (string, bool) {
	if c.posterBase == "" || !strings.HasPrefix(rawURL, c.posterBase+"/") {
		return "", false
	}
	name, err := url.PathUnescape(strings.TrimPrefix(rawURL, c.posterBase+"/"))
	if err != nil || name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		return "", false
	}
	path := filepath.Join(c.posterDir, name)
	if info, err := c.fs.Stat(path); err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}

func (c *Client) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	resp, err := c.httpClient.Do(req) //nolint:gosec // image URL from provider or recipe
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}
	return data, nil
}

// UploadImage replaces an item's image. The body is the base64-encoded image
// with the image's own content type, as both servers expect.
func (c *Client) UploadImage(ctx context.Context, itemID, imageType string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("no image data")
	}
	contentType := mimetype.Detect(data).String()
	if !strings.HasPrefix(contentType, "image/") {
		return fmt.Errorf("refusing to upload %s as %s image", contentType, imageType)
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	target := c.resolveURL(nil, "Items", itemID, "Images", imageType)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	c.setAuth(req)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req) //nolint:gosec // URL constructed from parsedURL via resolveURL
	if err != nil {
		return fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}
	return nil
}

// SetImageFromURL fetches the image behind rawURL and uploads it to the item.
func (c *Client) SetImageFromURL(ctx context.Context, itemID, imageType, rawURL string) error {
	data, _, err := c.FetchImage(ctx, rawURL)
	if err != nil {
		return fmt.Errorf("could not fetch %s image: %w", strings.ToLower(imageType), err)
	}
	if err := c.UploadImage(ctx, itemID, imageType, data); err != nil {
		return fmt.Errorf("could not upload %s image: %w", strings.ToLower(imageType), err)
	}
	return nil
}
