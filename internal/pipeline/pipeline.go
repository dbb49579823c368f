package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/timkosters/edge-city-finder/internal/model"
	"github.com/timkosters/edge-city-finder/internal/scout"
	"github.com/timkosters/edge-city-finder/internal/store"
)

// ErrRunInProgress is returned when Run is called while another run holds
// the pipeline lock. Scheduled and manual runs share one lock so they never
// race the same search budget.
var ErrRunInProgress = eris.New("pipeline: a run is already in progress")

// Finder discovers candidate leads. Implemented by scout.Engine.
type Finder interface {
	FindCandidates(ctx context.Context, req scout.FindRequest) ([]model.Lead, error)
}

// Verifier checks a single lead and enriches it. Implemented by
// analyst.Analyst.
type Verifier interface {
	VerifyAndAnalyze(ctx context.Context, lead model.Lead) (model.Lead, error)
}

// Pipeline orchestrates discover, verify and persist for one run.
type Pipeline struct {
	finder   Finder
	verifier Verifier
	store    store.Store
	lock     *semaphore.Weighted
}

// New creates a Pipeline with all dependencies. verifier may be nil, in
// which case leads are persisted as discovered.
func New(finder Finder, verifier Verifier, st store.Store) *Pipeline {
	return &Pipeline{
		finder:   finder,
		verifier: verifier,
		store:    st,
		lock:     semaphore.NewWeighted(1),
	}
}

// Request describes one pipeline run.
type Request struct {
	// Query overrides the built-in catalog when set.
	Query string
	// Categories restricts catalog categories. Empty means all.
	Categories []scout.Category
	// Verify runs the analyst over each discovered lead.
	Verify bool
}

// Result summarizes a completed run.
type Result struct {
	Discovered  int           `json:"discovered"`
	Qualified   int           `json:"qualified"`
	Interesting int           `json:"interesting"`
	Dismissed   int           `json:"dismissed"`
	Duration    time.Duration `json:"duration"`
	Leads       []model.Lead  `json:"leads"`
}

// Run executes one discover-verify-persist cycle. Only one run may be in
// flight at a time; concurrent calls get ErrRunInProgress.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	if !p.lock.TryAcquire(1) {
		return nil, ErrRunInProgress
	}
	defer p.lock.Release(1)

	log := zap.L().With(zap.String("query", req.Query), zap.Bool("verify", req.Verify))
	log.Info("pipeline: starting run")
	start := time.Now()

	known, err := p.store.ListURLs(ctx)
	if err != nil {
		log.Warn("pipeline: loading known urls failed, dedup limited to this run", zap.Error(err))
		known = map[string]struct{}{}
	}
	patterns, err := p.store.ListDismissedPatterns(ctx)
	if err != nil {
		log.Warn("pipeline: loading dismissed patterns failed", zap.Error(err))
	}

	leads, err := p.finder.FindCandidates(ctx, scout.FindRequest{
		KnownURLs:         known,
		CustomQuery:       req.Query,
		Categories:        req.Categories,
		DismissedPatterns: patterns,
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: discovery")
	}
	log.Info("pipeline: discovery complete", zap.Int("candidates", len(leads)))

	if req.Verify && p.verifier != nil && len(leads) > 0 {
		if err := p.verifyAll(ctx, leads); err != nil {
			return nil, err
		}
	}

	saved, err := p.store.UpsertLeads(ctx, leads)
	if err != nil {
		log.Warn("pipeline: persisting batch failed",
			zap.Int("saved", len(saved)), zap.Error(err))
	}
	if len(saved) > 0 {
		leads = saved
	}

	result := summarize(leads, time.Since(start))
	log.Info("pipeline: run complete",
		zap.Int("discovered", result.Discovered),
		zap.Int("qualified", result.Qualified),
		zap.Int("interesting", result.Interesting),
		zap.Int("dismissed", result.Dismissed),
		zap.Duration("duration", result.Duration))
	return result, nil
}

// verifyAll runs the analyst over the leads one at a time, in discovery
// order, so verification outcomes and provider spend stay reproducible.
func (p *Pipeline) verifyAll(ctx context.Context, leads []model.Lead) error {
	for i := range leads {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "pipeline: verify")
		}
		out, err := p.verifier.VerifyAndAnalyze(ctx, leads[i])
		if err != nil {
			return eris.Wrap(err, "pipeline: verify")
		}
		leads[i] = out
	}
	return nil
}

// VerifyLead re-runs verification for a single stored lead and persists
// the outcome.
func (p *Pipeline) VerifyLead(ctx context.Context, id string) (*model.Lead, error) {
	if p.verifier == nil {
		return nil, eris.New("pipeline: no verifier configured")
	}
	lead, err := p.store.GetLead(ctx, id)
	if err != nil {
		return nil, err
	}
	out, err := p.verifier.VerifyAndAnalyze(ctx, *lead)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: verify lead %s", id)
	}
	return p.store.UpsertLead(ctx, out)
}

func summarize(leads []model.Lead, dur time.Duration) *Result {
	result := &Result{
		Discovered: len(leads),
		Duration:   dur,
		Leads:      leads,
	}
	for _, lead := range leads {
		switch lead.FunnelStage {
		case model.StageQualified:
			result.Qualified++
		case model.StageInteresting:
			result.Interesting++
		case model.StageDismissed:
			result.Dismissed++
		}
	}
	return result
}
