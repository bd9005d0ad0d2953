// Package collsync keeps media server collections in line with their recipes.
package collsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/kozaktomas/collection-sync/internal/artwork"
	"github.com/kozaktomas/collection-sync/internal/config"
	"github.com/kozaktomas/collection-sync/internal/lists"
	"github.com/kozaktomas/collection-sync/internal/mediaserver"
	"github.com/kozaktomas/collection-sync/internal/poster"
)

// MediaServer is the subset of the media server client used by the syncer.
type MediaServer interface {
	Movies(ctx context.Context) (map[string]string, error)
	FindCollection(ctx context.Context, name string) (*mediaserver.Item, error)
	CreateCollection(ctx context.Context, name string, itemIDs []string) (string, error)
	CollectionItems(ctx context.Context, collectionID string) ([]mediaserver.Item, error)
	AddToCollection(ctx context.Context, collectionID string, itemIDs []string) error
	RemoveFromCollection(ctx context.Context, collectionID string, itemIDs []string) error
	SetImageFromURL(ctx context.Context, itemID, imageType, rawURL string) error
}

// ArtworkResolver decides a collection's poster and backdrop.
type ArtworkResolver interface {
	Resolve(ctx context.Context, req artwork.Request) artwork.Result
}

// PosterRemover deletes generated posters once uploaded.
type PosterRemover interface {
	Remove(p poster.RenderedPoster) error
}

// SourceFactory builds the list source of a recipe.
type SourceFactory func(src config.SourceConfig) (lists.Source, error)

type Syncer struct {
	server   MediaServer
	resolver ArtworkResolver
	sources  SourceFactory
	posters  PosterRemover
	log      *slog.Logger
}

// ProgressInfo contains progress information for callbacks
type ProgressInfo struct {
	Current    int
	Total      int
	Collection string
	Message    string
}

type Options struct {
	DryRun     bool
	Append     bool // never remove items, for every recipe
	NoArtwork  bool
	OnProgress func(ProgressInfo)
}

// CollectionResult is the outcome of syncing one recipe.
type CollectionResult struct {
	Name           string
	ID             string
	Created        bool
	Listed         int // ids returned by the list source
	Missing        int // listed movies not in the library
	Added          int
	Removed        int
	PosterSource   artwork.Source
	BackdropSource artwork.Source
	ArtworkErrors  []error
	Err            error
}

type Result struct {
	Collections []CollectionResult
	Errors      []error
}

// Failed is the number of recipes that could not be synced.
func (r *Result) Failed() int {
	n := 0
	for _, c := range r.Collections {
		if c.Err != nil {
			n++
		}
	}
	return n
}

// New creates a syncer. resolver and posters may be nil to skip artwork.
func New(server MediaServer, resolver ArtworkResolver, sources SourceFactory, posters PosterRemover) *Syncer {
	return &Syncer{
		server:   server,
		resolver: resolver,
		sources:  sources,
		posters:  posters,
		log:      slog.Default().With("component", "collsync"),
	}
}

// Sync processes recipes one after another. A failing recipe is recorded and
// does not stop the run. Only a failure to read the library is returned as an
// error.
func (s *Syncer) Sync(ctx context.Context, session *Session, recipes []config.Recipe, opts Options) (*Result, error) {
	if session == nil {
		session = NewSession()
	}
	defer s.cleanup(session)

	if session.movies == nil {
		movies, err := s.server.Movies(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch library movies: %w", err)
		}
		session.movies = movies
		s.log.Info("library loaded", "movies", len(movies))
	}

	result := &Result{}
	for i, recipe := range recipes {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, ctx.Err())
			break
		}

		cr := s.syncOne(ctx, session, recipe, opts)
		if cr.Err != nil {
			s.log.Warn("collection sync failed", "collection", recipe.Name, "error", cr.Err)
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", recipe.Name, cr.Err))
		}
		result.Collections = append(result.Collections, cr)

		if opts.OnProgress != nil {
			opts.OnProgress(ProgressInfo{
				Current:    i + 1,
				Total:      len(recipes),
				Collection: recipe.Name,
				Message:    summary(cr),
			})
		}
	}
	return result, nil
}

func (s *Syncer) syncOne(ctx context.Context, session *Session, recipe config.Recipe, opts Options) CollectionResult {
	cr := CollectionResult{Name: recipe.Name}
	log := s.log.With("collection", recipe.Name)

	src, err := s.sources(recipe.Source)
	if err != nil {
		cr.Err = fmt.Errorf("invalid source: %w", err)
		return cr
	}
	tmdbIDs, err := src.MovieIDs(ctx)
	if err != nil {
		cr.Err = fmt.Errorf("failed to fetch list: %w", err)
		return cr
	}
	cr.Listed = len(tmdbIDs)

	var itemIDs, listed []string
	for _, id := range tmdbIDs {
		key := strconv.Itoa(id)
		listed = append(listed, key)
		if itemID, ok := session.movies[key]; ok {
			itemIDs = append(itemIDs, itemID)
		} else {
			cr.Missing++
		}
	}
	log.Debug("list resolved", "listed", cr.Listed, "in_library", len(itemIDs), "missing", cr.Missing)

	if err := s.syncItems(ctx, session, recipe, itemIDs, opts, &cr); err != nil {
		cr.Err = err
		return cr
	}

	if !opts.NoArtwork && s.resolver != nil {
		s.syncArtwork(ctx, session, recipe, listed, opts, &cr)
	}
	return cr
}

// syncItems finds or creates the collection and reconciles its members.
func (s *Syncer) syncItems(ctx context.Context, session *Session, recipe config.Recipe, itemIDs []string, opts Options, cr *CollectionResult) error {
	id, ok := session.Created(recipe.Name)
	if !ok {
		existing, err := s.server.FindCollection(ctx, recipe.Name)
		if err != nil {
			return fmt.Errorf("failed to look up collection: %w", err)
		}
		if existing != nil {
			id = existing.ID
		}
	}

	if id == "" {
		if len(itemIDs) == 0 {
			return errors.New("no listed movie is in the library, collection not created")
		}
		cr.Created = true
		cr.Added = len(itemIDs)
		if opts.DryRun {
			return nil
		}
		newID, err := s.server.CreateCollection(ctx, recipe.Name, itemIDs)
		if newID != "" {
			session.trackCreated(recipe.Name, newID)
			cr.ID = newID
		}
		if err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		return nil
	}
	cr.ID = id

	current, err := s.server.CollectionItems(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch collection items: %w", err)
	}
	toAdd, toRemove := diff(itemIDs, current)
	if opts.Append || recipe.Append {
		toRemove = nil
	}
	cr.Added, cr.Removed = len(toAdd), len(toRemove)

	if opts.DryRun {
		return nil
	}
	if err := s.server.AddToCollection(ctx, id, toAdd); err != nil {
		return fmt.Errorf("failed to add items: %w", err)
	}
	if err := s.server.RemoveFromCollection(ctx, id, toRemove); err != nil {
		return fmt.Errorf("failed to remove items: %w", err)
	}
	return nil
}

// syncArtwork resolves and uploads artwork. Failures here never fail the recipe.
func (s *Syncer) syncArtwork(ctx context.Context, session *Session, recipe config.Recipe, listed []string, opts Options, cr *CollectionResult) {
	req := artwork.Request{
		Name:                recipe.Name,
		CategoryID:          recipe.Category,
		ItemIDs:             listed,
		ExplicitPosterURL:   recipe.PosterURL,
		ExplicitBackdropURL: recipe.BackdropURL,
	}
	if recipe.Source.Type == lists.TypeTMDBCollection && recipe.Source.ID > 0 {
		req.ProviderCollectionID = strconv.Itoa(recipe.Source.ID)
	}

	res := s.resolver.Resolve(ctx, req)
	cr.PosterSource, cr.BackdropSource = res.PosterSource, res.BackdropSource
	if res.Generated != nil {
		session.trackPoster(*res.Generated)
		defer s.removePoster(session, *res.Generated)
	}

	if opts.DryRun || cr.ID == "" {
		return
	}

	slots := []struct {
		imageType string
		url       string
	}{
		{mediaserver.ImagePrimary, res.PosterURL},
		{mediaserver.ImageBackdrop, res.BackdropURL},
	}
	for _, slot := range slots {
		if slot.url == "" {
			continue
		}
		if err := s.server.SetImageFromURL(ctx, cr.ID, slot.imageType, slot.url); err != nil {
			s.log.Warn("artwork upload failed", "collection", recipe.Name, "type", slot.imageType, "error", err)
			cr.ArtworkErrors = append(cr.ArtworkErrors, err)
		}
	}
}

func (s *Syncer) removePoster(session *Session, p poster.RenderedPoster) {
	if s.posters == nil {
		return
	}
	if err := s.posters.Remove(p); err != nil {
		s.log.Debug("could not remove generated poster", "path", p.Path, "error", err)
		return
	}
	session.untrackPoster(p.Path)
}

// cleanup removes posters left behind by an interrupted run.
func (s *Syncer) cleanup(session *Session) {
	for _, p := range session.Posters() {
		s.removePoster(session, p)
	}
}

// diff returns desired items missing from current and current items not desired.
func diff(desired []string, current []mediaserver.Item) (toAdd, toRemove []string) {
	have := make(map[string]bool, len(current))
	for _, item := range current {
		have[item.ID] = true
	}
	want := make(map[string]bool, len(desired))
	for _, id := range desired {
		want[id] = true
		if !have[id] {
			toAdd = append(toAdd, id)
		}
	}
	for _, item := range current {
		if !want[item.ID] {
			toRemove = append(toRemove, item.ID)
		}
	}
	return toAdd, toRemove
}

func summary(cr CollectionResult) string {
	if cr.Err != nil {
		return "failed: " + cr.Err.Error()
	}
	verb := "updated"
	if cr.Created {
		verb = "created"
	}
	return fmt.Sprintf("%s: +%d -%d, %d missing", verb, cr.Added, cr.Removed, cr.Missing)
}
