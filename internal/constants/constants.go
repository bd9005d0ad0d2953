// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Poster layout constants
const (
	// DefaultMinFontSize is the smallest font size (px) used for collection titles
	DefaultMinFontSize = 60

	// DefaultMaxFontSize is the font size (px) used for short collection titles
	DefaultMaxFontSize = 90

	// DefaultMarginPct is the horizontal margin on each side as a fraction of the poster width
	DefaultMarginPct = 0.105

	// DefaultCharWidthFactor is the average glyph advance divided by the font size.
	// Tuned for Go Bold, the built-in font.
	DefaultCharWidthFactor = 0.65

	// DefaultVerticalPosition is the vertical center of the text block as a fraction of the height
	DefaultVerticalPosition = 0.5

	// DefaultLineSpacing is the gap between lines as a fraction of the font size
	DefaultLineSpacing = 0.2

	// MinCharsPerLine and MaxCharsPerLine bound the estimated line capacity
	MinCharsPerLine = 6
	MaxCharsPerLine = 14

	// WrapThreshold is the title length above which titles always wrap
	WrapThreshold = 15

	// DefaultTextColor is the fill colour used for poster titles
	DefaultTextColor = "#FFFFFF"

	// PosterJPEGQuality is the encoder quality for generated posters
	PosterJPEGQuality = 95
)

// Poster storage constants
const (
	// PosterFilePrefix is the filename prefix of generated posters in the temp directory
	PosterFilePrefix = "collection_poster_"

	// DefaultTemplateName is the template used when a category has no mapping
	DefaultTemplateName = "default"

	// DefaultFontFile is the font looked up in the fonts directory
	DefaultFontFile = "font.ttf"

	// FallbackItemLimit is the number of member items inspected for fallback artwork
	FallbackItemLimit = 5

	// PosterRetention is how long generated posters are kept before the sweep removes them
	PosterRetention = 24 * time.Hour
)

// Provider constants
const (
	// TMDBImageBaseURL is prefixed to TMDb file paths to build full-size image URLs
	TMDBImageBaseURL = "https://image.tmdb.org/t/p/original"

	// TMDBRequestsPerSecond keeps the client well below the TMDb rate limit
	TMDBRequestsPerSecond = 20

	// ProviderCacheSize is the number of TMDb responses kept per client
	ProviderCacheSize = 512

	// HTTPTimeout is the timeout for provider and media server requests
	HTTPTimeout = 30 * time.Second

	// RetryAttempts is the number of attempts for retryable provider requests
	RetryAttempts = 3
)

// Sync constants
const (
	// DefaultPageSize is the default number of items to fetch per media server page
	DefaultPageSize = 1000

	// AddBatchSize is the number of item ids sent per add/remove request
	AddBatchSize = 100
)
