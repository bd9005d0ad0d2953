package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kozaktomas/collection-sync/internal/constants"
)

//go:embed categories.yaml
var categoriesYAML []byte

type Config struct {
	MediaServer MediaServerConfig
	TMDB        TMDBConfig
	Trakt       TraktConfig
	MDBList     MDBListConfig
	Poster      PosterConfig
	Log         LogConfig
	RecipesFile string
	Categories  CategoriesConfig
}

type MediaServerConfig struct {
	Type   string // "jellyfin" or "emby", defaults to jellyfin
	URL    string
	Token  string
	UserID string // optional, scopes item queries to a user library
}

type TMDBConfig struct {
	APIKey   string
	Language string // defaults to en
}

type TraktConfig struct {
	ClientID string
}

type MDBListConfig struct {
	APIKey string
}

type PosterConfig struct {
	Generate         bool    // render posters for collections without provider artwork
	TemplatesDir     string  // directory with <name>.png|jpg templates
	FontsDir         string  // directory searched for the default font file
	Font             string  // explicit font file, takes precedence over FontsDir
	MinFontSize      int     // defaults to 60
	MaxFontSize      int     // defaults to 90
	TextColor        string  // hex colour, defaults to #FFFFFF
	VerticalPosition float64 // 0 = top, 1 = bottom, defaults to 0.5
	MarginPct        float64 // horizontal margin per side, defaults to 0.105
	BaseURL          string  // public URL of the poster server (e.g., http://sync:8090); empty uses file:// URLs
	TempDir          string  // where rendered posters are written, defaults to os.TempDir()
}

type LogConfig struct {
	Level string // debug, info, warn, error
	File  string // optional rotating log file
}

// CategoryEntry is one row of the category table.
type CategoryEntry struct {
	Name   string `yaml:"name"`
	Poster string `yaml:"poster"`
}

// CategoriesConfig maps category ids to their display name and poster template.
// TemplateOverrides is a secondary id -> template table consulted when a
// category has no poster of its own.
type CategoriesConfig struct {
	Categories        map[int]CategoryEntry `yaml:"categories"`
	TemplateOverrides map[int]string        `yaml:"template_overrides"`
}

// CategoryTable returns the embedded default category table.
func (c *Config) CategoryTable() (CategoriesConfig, error) {
	return c.Categories, nil
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a non-negative float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 {
		return f
	}
	return defaultVal
}

// envBool reads an environment variable as a boolean (1, true, yes, ...).
func envBool(key string, defaultVal bool) bool {
	s := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch s {
	case "":
		return defaultVal
	case "yes", "y", "on":
		return true
	case "no", "n", "off":
		return false
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var categories CategoriesConfig
	if err := yaml.Unmarshal(categoriesYAML, &categories); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded categories.yaml: " + err.Error())
	}

	return &Config{
		MediaServer: MediaServerConfig{
			Type:   envString("MEDIA_SERVER_TYPE", "jellyfin"),
			URL:    strings.TrimRight(os.Getenv("MEDIA_SERVER_URL"), "/"),
			Token:  os.Getenv("MEDIA_SERVER_TOKEN"),
			UserID: os.Getenv("MEDIA_SERVER_USER_ID"),
		},
		TMDB: TMDBConfig{
			APIKey:   os.Getenv("TMDB_API_KEY"),
			Language: envString("TMDB_LANGUAGE", "en"),
		},
		Trakt: TraktConfig{
			ClientID: os.Getenv("TRAKT_CLIENT_ID"),
		},
		MDBList: MDBListConfig{
			APIKey: os.Getenv("MDBLIST_API_KEY"),
		},
		Poster: PosterConfig{
			Generate:         envBool("POSTER_GENERATE", true),
			TemplatesDir:     envString("POSTER_TEMPLATES_DIR", "templates"),
			FontsDir:         envString("POSTER_FONTS_DIR", "fonts"),
			Font:             os.Getenv("POSTER_FONT"),
			MinFontSize:      envInt("POSTER_MIN_FONT_SIZE", constants.DefaultMinFontSize),
			MaxFontSize:      envInt("POSTER_MAX_FONT_SIZE", constants.DefaultMaxFontSize),
			TextColor:        envString("POSTER_TEXT_COLOR", constants.DefaultTextColor),
			VerticalPosition: envFloat("POSTER_VERTICAL_POSITION", constants.DefaultVerticalPosition),
			MarginPct:        envFloat("POSTER_MARGIN_PCT", constants.DefaultMarginPct),
			BaseURL:          strings.TrimRight(os.Getenv("POSTER_BASE_URL"), "/"),
			TempDir:          envString("POSTER_TEMP_DIR", os.TempDir()),
		},
		Log: LogConfig{
			Level: envString("LOG_LEVEL", "info"),
			File:  os.Getenv("LOG_FILE"),
		},
		RecipesFile: envString("RECIPES_FILE", "recipes.yaml"),
		Categories:  categories,
	}
}
