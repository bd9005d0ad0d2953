package artwork

import (
	"context"
	"errors"
	"log/slog"

	"github.com/kozaktomas/collection-sync/internal/constants"
	"github.com/kozaktomas/collection-sync/internal/poster"
)

// Resolver runs the artwork cascade: explicit URL, provider collection art,
// generated poster, member item art. Each slot is resolved independently and a
// step only runs while its slot is still empty.
type Resolver struct {
	classifier Classifier
	source     ArtworkSource
	renderer   Renderer
	urls       URLMapper
	generate   bool
	maxItems   int
	log        *slog.Logger
}

type Option func(*Resolver)

// WithURLMapper sets how generated poster paths become URLs (default file://).
func WithURLMapper(m URLMapper) Option {
	return func(r *Resolver) {
		r.urls = m
	}
}

// WithGeneration enables or disables poster generation.
func WithGeneration(enabled bool) Option {
	return func(r *Resolver) {
		r.generate = enabled
	}
}

// WithMaxFallbackItems limits how many member items are inspected for fallback art.
func WithMaxFallbackItems(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxItems = n
		}
	}
}

// NewResolver creates a resolver. source and renderer may be nil, which
// disables the steps that need them.
func NewResolver(classifier Classifier, source ArtworkSource, renderer Renderer, opts ...Option) *Resolver {
	r := &Resolver{
		classifier: classifier,
		source:     source,
		renderer:   renderer,
		urls:       FileURLMapper{},
		generate:   renderer != nil,
		maxItems:   constants.FallbackItemLimit,
		log:        slog.Default().With("component", "artwork"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve never fails: lookups and renders that go wrong are logged and the
// cascade moves on to the next step.
func (r *Resolver) Resolve(ctx context.Context, req Request) Result {
	var res Result
	log := r.log.With("collection", req.Name)

	if req.ExplicitPosterURL != "" {
		res.PosterURL, res.PosterSource = req.ExplicitPosterURL, SourceExplicit
	}
	if req.ExplicitBackdropURL != "" {
		res.BackdropURL, res.BackdropSource = req.ExplicitBackdropURL, SourceExplicit
	}
	if res.complete() {
		return res
	}

	cat := r.classifier.Resolve(req.CategoryID)

	if cat.ProviderArt && req.ProviderCollectionID != "" && r.source != nil {
		images, err := r.source.CollectionImages(ctx, req.ProviderCollectionID)
		if err != nil {
			log.Warn("provider lookup failed", "collection_id", req.ProviderCollectionID, "error", err)
		} else {
			r.fill(&res, images, SourceProvider)
		}
	}

	if res.PosterURL == "" && r.generate && r.renderer != nil {
		templateName := cat.Template
		if templateName == "" {
			templateName = constants.DefaultTemplateName
		}
		r.render(&res, req.Name, templateName, log)
	}

	if !res.complete() && r.source != nil {
		r.fallback(ctx, &res, req.ItemIDs, log)
	}

	log.Debug("artwork resolved",
		"category", cat.DisplayName,
		"poster_source", res.PosterSource.String(),
		"backdrop_source", res.BackdropSource.String())
	return res
}

func (r *Resolver) render(res *Result, name, templateName string, log *slog.Logger) {
	rendered, err := r.renderer.Render(name, templateName)
	if err != nil {
		if errors.Is(err, poster.ErrNoUsableTemplate) {
			log.Warn("poster generation skipped, no usable template", "template", templateName)
		} else {
			log.Warn("poster generation failed", "template", templateName, "error", err)
		}
		return
	}

	u, err := r.urls.URL(rendered.Path)
	if err != nil {
		log.Warn("could not map poster path to URL", "path", rendered.Path, "error", err)
		if rmErr := r.renderer.Remove(rendered); rmErr != nil {
			log.Debug("could not remove poster", "path", rendered.Path, "error", rmErr)
		}
		return
	}

	res.PosterURL, res.PosterSource = u, SourceGenerated
	res.Generated = &rendered
}

// fallback takes each empty slot from the first member item exposing an image
// for it.
func (r *Resolver) fallback(ctx context.Context, res *Result, itemIDs []string, log *slog.Logger) {
	inspected := 0
	for _, id := range itemIDs {
		if res.complete() || inspected >= r.maxItems {
			return
		}
		if id == "" {
			continue
		}
		inspected++

		images, err := r.source.ItemImages(ctx, id)
		if err != nil {
			log.Warn("item image lookup failed", "item_id", id, "error", err)
			continue
		}
		r.fill(res, images, SourceItem)
	}
}

// fill sets every empty slot that has a usable candidate.
func (r *Resolver) fill(res *Result, images Images, src Source) {
	if res.PosterURL == "" {
		if c, ok := Best(images.Posters); ok {
			res.PosterURL, res.PosterSource = c.URL, src
		}
	}
	if res.BackdropURL == "" {
		if c, ok := Best(images.Backdrops); ok {
			res.BackdropURL, res.BackdropSource = c.URL, src
		}
	}
}
