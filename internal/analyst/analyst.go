// Package analyst implements the verification and scoring engine: a
// liveness probe followed by LLM content classification, then a second
// scoring pass for leads that survive the funnel.
package analyst

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/timkosters/edge-city-finder/internal/model"
	"github.com/timkosters/edge-city-finder/pkg/anthropic"
)

const maxVerdictTokens = 1024

// Analyst verifies and scores candidate leads. A nil LLM client degrades
// to a permissive pass-through: leads are assumed qualified because no
// verification signal exists. Construct with New.
type Analyst struct {
	llm    anthropic.Client // may be nil when no LLM credential is configured
	model  string
	prober Prober
}

// New creates an Analyst. llm may be nil; prober must not be.
func New(llm anthropic.Client, modelID string, prober Prober) *Analyst {
	return &Analyst{
		llm:    llm,
		model:  modelID,
		prober: prober,
	}
}

// Verify checks a lead's URL liveness and classifies its content via the
// LLM, mutating funnel stage and verification metadata. All failure modes
// resolve in-place: the returned lead always carries a stage.
func (a *Analyst) Verify(ctx context.Context, lead model.Lead) model.Lead {
	log := zap.L().With(zap.String("engine", "analyst"), zap.String("url", lead.URL))

	if a.llm == nil {
		// No way to verify; assume the lead passes rather than hold the
		// funnel hostage to a missing credential.
		log.Warn("no LLM credential configured, skipping verification")
		lead.FunnelStage = model.StageQualified
		return lead
	}

	status, err := a.prober.Probe(ctx, lead.URL)
	if err != nil || status < 200 || status >= 300 {
		reason := fmt.Sprintf("HTTP %d", status)
		if err != nil {
			reason = "Error accessing URL: " + err.Error()
		} else if status == 404 {
			reason = "URL not found (404)"
		}
		lead.VerificationResult = model.VerifyInvalidURL
		lead.VerificationReason = reason
		lead.FunnelStage = model.StageDismissed
		lead.LastVerifiedAt = timePtr(time.Now().UTC())
		return lead
	}

	resp, err := a.llm.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     a.model,
		MaxTokens: maxVerdictTokens,
		Messages:  []anthropic.Message{{Role: "user", Content: verifyPrompt(lead)}},
	})
	if err != nil {
		return failOpen(lead, err, log)
	}
	resp.Usage.LogCost(a.model, "verify")

	verdict, err := decodeVerifyVerdict(resp.Text())
	if err != nil {
		return failOpen(lead, err, log)
	}

	if verdict.IsAvailable {
		lead.VerificationResult = model.VerifyAvailable
	} else {
		lead.VerificationResult = model.VerifyNotAvailable
	}
	lead.VerificationReason = verdict.Reason
	lead.FunnelStage = model.FunnelStage(verdict.Classification)
	lead.LastVerifiedAt = timePtr(time.Now().UTC())

	if verdict.ExtractedPrice != nil && *verdict.ExtractedPrice != "" {
		lead.Price = *verdict.ExtractedPrice
	}
	if verdict.ExtractedBeds != nil {
		lead.BedCount = verdict.ExtractedBeds
	}
	if verdict.ExtractedAcreage != nil {
		lead.Acreage = verdict.ExtractedAcreage
	}

	return lead
}

// failOpen marks a lead as errored but keeps it in the funnel. Losing a
// real opportunity to a model glitch costs more than a wasted review.
func failOpen(lead model.Lead, err error, log *zap.Logger) model.Lead {
	log.Warn("verification failed, keeping lead as interesting", zap.Error(err))
	lead.VerificationResult = model.VerifyError
	lead.VerificationReason = err.Error()
	lead.FunnelStage = model.StageInteresting
	lead.LastVerifiedAt = timePtr(time.Now().UTC())
	return lead
}

// Analyze asks the LLM for a 0-100 viability score and a one-sentence
// summary. Inferred stats apply only where verification did not already
// extract a value. Failures are logged and the lead returned unmodified.
func (a *Analyst) Analyze(ctx context.Context, lead model.Lead) model.Lead {
	if a.llm == nil {
		return lead
	}
	log := zap.L().With(zap.String("engine", "analyst"), zap.String("url", lead.URL))

	resp, err := a.llm.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     a.model,
		MaxTokens: maxVerdictTokens,
		Messages:  []anthropic.Message{{Role: "user", Content: analyzePrompt(lead)}},
	})
	if err != nil {
		log.Warn("analysis failed, leaving lead unscored", zap.Error(err))
		return lead
	}
	resp.Usage.LogCost(a.model, "analyze")

	verdict, err := decodeAnalyzeVerdict(resp.Text())
	if err != nil {
		log.Warn("analysis verdict unparseable, leaving lead unscored", zap.Error(err))
		return lead
	}

	if verdict.Score != nil {
		lead.Score = *verdict.Score
	}
	if verdict.AISummary != "" {
		lead.AISummary = verdict.AISummary
	}
	if verdict.InferredBeds != nil && lead.BedCount == nil {
		lead.BedCount = verdict.InferredBeds
	}
	if verdict.InferredAcreage != nil && lead.Acreage == nil {
		lead.Acreage = verdict.InferredAcreage
	}

	return lead
}

// VerifyAndAnalyze runs the full per-lead funnel: verify, then analyze
// when the lead is still qualified or interesting. The returned error is
// only ever a context cancellation; classification failures resolve
// inside Verify and Analyze.
func (a *Analyst) VerifyAndAnalyze(ctx context.Context, lead model.Lead) (model.Lead, error) {
	if err := ctx.Err(); err != nil {
		return lead, err
	}

	lead = a.Verify(ctx, lead)

	if lead.FunnelStage == model.StageQualified || lead.FunnelStage == model.StageInteresting {
		if err := ctx.Err(); err != nil {
			return lead, err
		}
		lead = a.Analyze(ctx, lead)
	}

	return lead, nil
}

func timePtr(t time.Time) *time.Time { return &t }
