// Package store persists leads behind a Store interface with Postgres and
// SQLite implementations, selected by configuration.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/timkosters/edge-city-finder/internal/model"
)

// ErrNotFound is returned when a lead cannot be located by ID.
var ErrNotFound = eris.New("lead not found")

// LeadFilter specifies criteria for listing leads. Zero values mean no
// filtering on that attribute; dismissed leads are excluded unless a
// funnel stage is requested explicitly or IncludeDismissed is set.
type LeadFilter struct {
	Status           model.Status      `json:"status,omitempty"`
	FunnelStage      model.FunnelStage `json:"funnel_stage,omitempty"`
	IncludeDismissed bool              `json:"include_dismissed,omitempty"`
}

// Store defines the persistence interface for the lead pipeline. Upserts
// merge by unique URL; the pipeline depends only on URL-keyed upsert and
// URL-set retrieval plus simple equality filters.
type Store interface {
	// Leads
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)
	GetLead(ctx context.Context, id string) (*model.Lead, error)
	UpsertLead(ctx context.Context, lead model.Lead) (*model.Lead, error)
	UpsertLeads(ctx context.Context, leads []model.Lead) ([]model.Lead, error)
	DeleteLead(ctx context.Context, id string) error

	// Dedup and feedback
	ListURLs(ctx context.Context) (map[string]struct{}, error)
	ListDismissedPatterns(ctx context.Context) ([]string, error)

	// Workflow
	UpdateStatus(ctx context.Context, id string, status model.Status) (*model.Lead, error)
	Dismiss(ctx context.Context, id, reason, pattern string) (*model.Lead, error)
	MarkSeen(ctx context.Context, id string) (*model.Lead, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
