package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/kozaktomas/collection-sync/internal/artwork"
	"github.com/kozaktomas/collection-sync/internal/category"
	"github.com/kozaktomas/collection-sync/internal/collsync"
	"github.com/kozaktomas/collection-sync/internal/config"
	"github.com/kozaktomas/collection-sync/internal/constants"
	"github.com/kozaktomas/collection-sync/internal/lists"
	"github.com/kozaktomas/collection-sync/internal/mediaserver"
	"github.com/kozaktomas/collection-sync/internal/poster"
	"github.com/kozaktomas/collection-sync/internal/tmdb"
)

// loadRecipes reads the recipes file, falling back to cfg's path when path is empty.
func loadRecipes(cfg *config.Config, path string) (*config.Recipes, error) {
	if path == "" {
		path = cfg.RecipesFile
	}
	recipes, err := config.LoadRecipes(path, cfg.Categories)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}
	return recipes, nil
}

func newPosterEngine(cfg *config.Config) (*poster.Engine, error) {
	engine, err := poster.NewEngine(poster.EngineConfig{
		TemplatesDir: cfg.Poster.TemplatesDir,
		FontsDir:     cfg.Poster.FontsDir,
		FontFile:     cfg.Poster.Font,
		OutDir:       cfg.Poster.TempDir,
		TextColor:    cfg.Poster.TextColor,
		Options: poster.Options{
			MinFontSize:      cfg.Poster.MinFontSize,
			MaxFontSize:      cfg.Poster.MaxFontSize,
			MarginPct:        cfg.Poster.MarginPct,
			VerticalPosition: cfg.Poster.VerticalPosition,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create poster engine: %w", err)
	}
	return engine, nil
}

// newTMDBClient returns nil without an API key. Provider artwork and
// tmdb_collection sources are unavailable then.
func newTMDBClient(cfg *config.Config) (*tmdb.Client, error) {
	if cfg.TMDB.APIKey == "" {
		slog.Warn("TMDB_API_KEY is not set, provider artwork is disabled")
		return nil, nil
	}
	client, err := tmdb.New(cfg.TMDB.APIKey, tmdb.WithLanguage(cfg.TMDB.Language))
	if err != nil {
		return nil, fmt.Errorf("failed to create TMDb client: %w", err)
	}
	return client, nil
}

func newMediaServer(cfg *config.Config) (*mediaserver.Client, error) {
	if cfg.MediaServer.URL == "" {
		return nil, errors.New("MEDIA_SERVER_URL environment variable is required")
	}
	if cfg.MediaServer.Token == "" {
		return nil, errors.New("MEDIA_SERVER_TOKEN environment variable is required")
	}
	var opts []mediaserver.Option
	if cfg.Poster.BaseURL != "" {
		base, err := url.JoinPath(cfg.Poster.BaseURL, constants.PostersRoute)
		if err != nil {
			return nil, fmt.Errorf("invalid POSTER_BASE_URL: %w", err)
		}
		opts = append(opts, mediaserver.WithLocalPosters(base, cfg.Poster.TempDir))
	}
	client, err := mediaserver.New(cfg.MediaServer.Type, cfg.MediaServer.URL, cfg.MediaServer.Token, cfg.MediaServer.UserID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create media server client: %w", err)
	}
	return client, nil
}

// newResolver wires the artwork cascade. client may be nil.
func newResolver(cfg *config.Config, categories category.Source, engine *poster.Engine, client *tmdb.Client) *artwork.Resolver {
	var source artwork.ArtworkSource
	if client != nil {
		source = client
	}
	var urls artwork.URLMapper = artwork.FileURLMapper{}
	if cfg.Poster.BaseURL != "" {
		urls = artwork.BaseURLMapper{Base: cfg.Poster.BaseURL}
	}
	return artwork.NewResolver(category.New(categories), source, engine,
		artwork.WithURLMapper(urls),
		artwork.WithGeneration(cfg.Poster.Generate),
	)
}

// newSourceFactory builds list sources with the configured credentials.
func newSourceFactory(cfg *config.Config, client *tmdb.Client) collsync.SourceFactory {
	deps := lists.Deps{
		TraktClientID: cfg.Trakt.ClientID,
		MDBListAPIKey: cfg.MDBList.APIKey,
		HTTPClient:    &http.Client{Timeout: constants.HTTPTimeout},
	}
	if client != nil {
		deps.TMDB = client
	}
	return func(src config.SourceConfig) (lists.Source, error) {
		return lists.New(src, deps)
	}
}
