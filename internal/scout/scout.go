// Package scout implements the discovery engine: it runs a categorized
// catalog of search queries against external providers and turns the hits
// into deduplicated candidate leads.
package scout

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/timkosters/edge-city-finder/internal/extract"
	"github.com/timkosters/edge-city-finder/internal/model"
)

const (
	// defaultLookback restricts searches to recently published content.
	defaultLookback = 90 * 24 * time.Hour
	// resultsPerQuery caps hits requested per catalog query.
	resultsPerQuery = 5
	// excerptChars bounds the body-text excerpt requested per hit.
	excerptChars = 1500
	// descriptionLimit is the character budget for stored descriptions.
	descriptionLimit = 500
)

// Engine discovers candidate leads via search providers. Construct with
// New; the zero value is not usable.
type Engine struct {
	primary   Provider // may be nil when no search credential is configured
	secondary Provider // may be nil
	catalog   Catalog
	limiter   *rate.Limiter
	lookback  time.Duration
}

// Option configures the Engine.
type Option func(*Engine)

// WithCatalog replaces the built-in query catalog.
func WithCatalog(c Catalog) Option {
	return func(e *Engine) {
		e.catalog = c
	}
}

// WithLookback overrides the published-date window for searches.
func WithLookback(d time.Duration) Option {
	return func(e *Engine) {
		e.lookback = d
	}
}

// WithRateLimit caps provider queries per second.
func WithRateLimit(perSecond float64) Option {
	return func(e *Engine) {
		e.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// New creates a discovery Engine. Either provider may be nil: a nil
// primary degrades to an empty result, a nil secondary just skips the
// secondary pass.
func New(primary, secondary Provider, opts ...Option) *Engine {
	e := &Engine{
		primary:   primary,
		secondary: secondary,
		catalog:   DefaultCatalog(),
		limiter:   rate.NewLimiter(rate.Limit(2), 1),
		lookback:  defaultLookback,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// FindRequest parameterizes a discovery run.
type FindRequest struct {
	// KnownURLs holds normalized URLs already persisted; hits matching
	// them are skipped.
	KnownURLs map[string]struct{}
	// CustomQuery, when set, runs first under the "manual" channel and
	// suppresses the secondary provider pass.
	CustomQuery string
	// Categories selects catalog categories to run; empty means all.
	Categories []Category
	// DismissedPatterns carries patterns extracted from dismissed leads.
	// Collected for future filtering; discovery does not yet act on them.
	DismissedPatterns []string
}

// FindCandidates runs the query catalog and returns new, deduplicated
// candidate leads in discovery order. Single-query failures are logged
// and skipped; they never abort the run.
func (e *Engine) FindCandidates(ctx context.Context, req FindRequest) ([]model.Lead, error) {
	log := zap.L().With(zap.String("engine", "scout"))

	if e.primary == nil {
		log.Warn("no primary search provider configured, returning empty list")
		return nil, nil
	}

	known := req.KnownURLs
	if known == nil {
		known = map[string]struct{}{}
	}
	categories := req.Categories
	if len(categories) == 0 {
		categories = e.catalog.Categories()
	}
	if len(req.DismissedPatterns) > 0 {
		log.Debug("dismissed patterns loaded but not applied",
			zap.Int("patterns", len(req.DismissedPatterns)))
	}

	queries := make([]CatalogQuery, 0, 20)
	if req.CustomQuery != "" {
		queries = append(queries, CatalogQuery{Query: req.CustomQuery, Channel: "manual"})
	}
	for _, cat := range categories {
		queries = append(queries, e.catalog[cat]...)
	}

	opts := SearchOptions{
		MaxResults:     resultsPerQuery,
		PublishedAfter: time.Now().Add(-e.lookback),
		ExcerptChars:   excerptChars,
	}

	var found []model.Lead
	seen := map[string]struct{}{}

	for _, q := range queries {
		if err := e.limiter.Wait(ctx); err != nil {
			return found, err
		}

		hits, err := e.primary.Search(ctx, q.Query, opts)
		if err != nil {
			log.Warn("query failed, skipping",
				zap.String("query", q.Query),
				zap.Error(err),
			)
			continue
		}

		for _, hit := range hits {
			if lead, ok := e.buildLead(hit, q, known, seen); ok {
				found = append(found, lead)
			}
		}
	}

	// The secondary provider adds news coverage only on catalog runs;
	// manual queries stay scoped to the primary provider.
	if e.secondary != nil && req.CustomQuery == "" {
		found = e.searchSecondary(ctx, found, known, seen)
	}

	log.Info("scout finished", zap.Int("new_leads", len(found)))
	return found, nil
}

func (e *Engine) searchSecondary(ctx context.Context, found []model.Lead, known, seen map[string]struct{}) []model.Lead {
	log := zap.L().With(zap.String("engine", "scout"), zap.String("provider", e.secondary.Name()))

	for _, query := range secondaryQueries {
		if err := e.limiter.Wait(ctx); err != nil {
			return found
		}

		hits, err := e.secondary.Search(ctx, query, SearchOptions{MaxResults: resultsPerQuery})
		if err != nil {
			log.Warn("secondary query failed, skipping",
				zap.String("query", query),
				zap.Error(err),
			)
			continue
		}

		channel := e.secondary.Name() + "_news"
		for _, hit := range hits {
			q := CatalogQuery{Query: query, Channel: channel}
			if lead, ok := e.buildLead(hit, q, known, seen); ok {
				lead.SourceType = model.SourceNews
				found = append(found, lead)
			}
		}
	}
	return found
}

// buildLead turns a hit into a candidate lead unless its normalized URL
// is already known (cross-run) or seen (intra-run). On success the URL is
// recorded in seen, so the first query to surface a URL gets the credit.
func (e *Engine) buildLead(hit Hit, q CatalogQuery, known, seen map[string]struct{}) (model.Lead, bool) {
	normalized := extract.NormalizeURL(hit.URL)
	if _, ok := known[normalized]; ok {
		zap.L().Debug("skipping duplicate", zap.String("url", normalized))
		return model.Lead{}, false
	}
	if _, ok := seen[normalized]; ok {
		zap.L().Debug("skipping duplicate", zap.String("url", normalized))
		return model.Lead{}, false
	}
	seen[normalized] = struct{}{}

	title := hit.Title
	if title == "" {
		title = "Untitled Property"
	}

	description := hit.Text
	if runes := []rune(description); len(runes) > descriptionLimit {
		description = string(runes[:descriptionLimit]) + "..."
	}

	return model.Lead{
		Title:         title,
		URL:           hit.URL,
		Location:      extract.Location(hit.Text, hit.Title),
		Price:         extract.Price(hit.Text),
		Description:   description,
		Status:        model.StatusNew,
		Score:         50,
		ImageURL:      hit.ImageURL,
		FunnelStage:   model.StageDiscovered,
		IsNew:         true,
		SourceType:    extract.ClassifySource(hit.URL, q.Channel),
		DiscoveredVia: q.Channel,
		SearchQuery:   q.Query,
	}, true
}
