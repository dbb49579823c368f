package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/timkosters/edge-city-finder/internal/db"
	"github.com/timkosters/edge-city-finder/internal/extract"
	"github.com/timkosters/edge-city-finder/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests and callers
// that manage the pool themselves.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id                  TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	title               TEXT NOT NULL DEFAULT '',
	url                 TEXT NOT NULL UNIQUE,
	price               TEXT NOT NULL DEFAULT '',
	location            TEXT NOT NULL DEFAULT '',
	description         TEXT NOT NULL DEFAULT '',
	status              TEXT NOT NULL DEFAULT 'New',
	score               INTEGER NOT NULL DEFAULT 0,
	acreage             DOUBLE PRECISION,
	bed_count           INTEGER,
	year_built          INTEGER,
	nearest_airport     TEXT NOT NULL DEFAULT '',
	drive_time_minutes  INTEGER,
	ai_summary          TEXT NOT NULL DEFAULT '',
	image_url           TEXT NOT NULL DEFAULT '',
	funnel_stage        TEXT NOT NULL DEFAULT 'discovered',
	is_new              BOOLEAN NOT NULL DEFAULT TRUE,
	verification_result TEXT NOT NULL DEFAULT '',
	verification_reason TEXT NOT NULL DEFAULT '',
	last_verified_at    TIMESTAMPTZ,
	source_type         TEXT NOT NULL DEFAULT '',
	discovered_via      TEXT NOT NULL DEFAULT '',
	search_query        TEXT NOT NULL DEFAULT '',
	dismissed_reason    TEXT NOT NULL DEFAULT '',
	dismissed_pattern   TEXT NOT NULL DEFAULT '',
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_leads_funnel_stage ON leads(funnel_stage);
CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at DESC);
`

// leadColumns is the canonical column list shared by every SELECT and
// RETURNING clause.
const leadColumns = `id, title, url, price, location, description, status, score, acreage, bed_count, year_built, nearest_airport, drive_time_minutes, ai_summary, image_url, funnel_stage, is_new, verification_result, verification_reason, last_verified_at, source_type, discovered_via, search_query, dismissed_reason, dismissed_pattern, created_at, updated_at`

const postgresUpsert = `INSERT INTO leads (` + leadColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)
ON CONFLICT (url) DO UPDATE SET
	title = EXCLUDED.title,
	price = EXCLUDED.price,
	location = EXCLUDED.location,
	description = EXCLUDED.description,
	status = EXCLUDED.status,
	score = EXCLUDED.score,
	acreage = EXCLUDED.acreage,
	bed_count = EXCLUDED.bed_count,
	year_built = EXCLUDED.year_built,
	nearest_airport = EXCLUDED.nearest_airport,
	drive_time_minutes = EXCLUDED.drive_time_minutes,
	ai_summary = EXCLUDED.ai_summary,
	image_url = EXCLUDED.image_url,
	funnel_stage = EXCLUDED.funnel_stage,
	is_new = EXCLUDED.is_new,
	verification_result = EXCLUDED.verification_result,
	verification_reason = EXCLUDED.verification_reason,
	last_verified_at = EXCLUDED.last_verified_at,
	source_type = EXCLUDED.source_type,
	discovered_via = EXCLUDED.discovered_via,
	search_query = EXCLUDED.search_query,
	dismissed_reason = EXCLUDED.dismissed_reason,
	dismissed_pattern = EXCLUDED.dismissed_pattern,
	updated_at = EXCLUDED.updated_at
RETURNING ` + leadColumns

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func upsertArgs(lead model.Lead) []any {
	return []any{
		lead.ID, lead.Title, lead.URL, lead.Price, lead.Location, lead.Description,
		string(lead.Status), lead.Score, lead.Acreage, lead.BedCount, lead.YearBuilt,
		lead.NearestAirport, lead.DriveTimeMinutes, lead.AISummary, lead.ImageURL,
		string(lead.FunnelStage), lead.IsNew, string(lead.VerificationResult),
		lead.VerificationReason, lead.LastVerifiedAt, string(lead.SourceType),
		lead.DiscoveredVia, lead.SearchQuery, lead.DismissedReason, lead.DismissedPattern,
		lead.CreatedAt, lead.UpdatedAt,
	}
}

// prepareForUpsert stamps identity and timestamps on a lead about to be
// written. On URL conflict the existing row keeps its id and created_at,
// so the fresh values only land on true inserts.
func prepareForUpsert(lead model.Lead) model.Lead {
	now := time.Now().UTC()
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	lead.UpdatedAt = now
	return lead
}

func (s *PostgresStore) UpsertLead(ctx context.Context, lead model.Lead) (*model.Lead, error) {
	lead = prepareForUpsert(lead)

	row := s.pool.QueryRow(ctx, postgresUpsert, upsertArgs(lead)...)
	saved, err := scanPgLead(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: upsert lead %s", lead.URL)
	}
	return saved, nil
}

func (s *PostgresStore) UpsertLeads(ctx context.Context, leads []model.Lead) ([]model.Lead, error) {
	saved := make([]model.Lead, 0, len(leads))
	for _, lead := range leads {
		out, err := s.UpsertLead(ctx, lead)
		if err != nil {
			return saved, err
		}
		saved = append(saved, *out)
	}
	return saved, nil
}

func (s *PostgresStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanPgLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get lead %s", id)
	}
	return lead, nil
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.FunnelStage != "" {
		query += fmt.Sprintf(` AND funnel_stage = $%d`, argIdx)
		args = append(args, string(filter.FunnelStage))
		argIdx++
	} else if !filter.IncludeDismissed {
		// Dismissed leads stay out of default listings.
		query += ` AND funnel_stage != 'dismissed'`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		lead, err := scanPgLead(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		leads = append(leads, *lead)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}

func (s *PostgresStore) ListURLs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.pool.Query(ctx, `SELECT url FROM leads`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list urls")
	}
	defer rows.Close()

	urls := map[string]struct{}{}
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, eris.Wrap(err, "postgres: scan url")
		}
		urls[extract.NormalizeURL(u)] = struct{}{}
	}
	return urls, eris.Wrap(rows.Err(), "postgres: list urls iterate")
}

func (s *PostgresStore) ListDismissedPatterns(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT dismissed_pattern FROM leads WHERE funnel_stage = 'dismissed' AND dismissed_pattern != ''`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list dismissed patterns")
	}
	defer rows.Close()

	var patterns []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, eris.Wrap(err, "postgres: scan pattern")
		}
		patterns = append(patterns, p)
	}
	return patterns, eris.Wrap(rows.Err(), "postgres: list patterns iterate")
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, status model.Status) (*model.Lead, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE leads SET status = $1, updated_at = $2 WHERE id = $3 RETURNING `+leadColumns,
		string(status), time.Now().UTC(), id,
	)
	lead, err := scanPgLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: update status %s", id)
	}
	return lead, nil
}

func (s *PostgresStore) Dismiss(ctx context.Context, id, reason, pattern string) (*model.Lead, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE leads SET funnel_stage = 'dismissed', status = 'Archived', dismissed_reason = $1, dismissed_pattern = $2, updated_at = $3 WHERE id = $4 RETURNING `+leadColumns,
		reason, pattern, time.Now().UTC(), id,
	)
	lead, err := scanPgLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: dismiss lead %s", id)
	}
	return lead, nil
}

func (s *PostgresStore) MarkSeen(ctx context.Context, id string) (*model.Lead, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE leads SET is_new = FALSE, updated_at = $1 WHERE id = $2 RETURNING `+leadColumns,
		time.Now().UTC(), id,
	)
	lead, err := scanPgLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: mark seen %s", id)
	}
	return lead, nil
}

func (s *PostgresStore) DeleteLead(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete lead %s", id)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scanPgLead scans one lead row in leadColumns order.
func scanPgLead(row pgx.Row) (*model.Lead, error) {
	var lead model.Lead
	err := row.Scan(
		&lead.ID, &lead.Title, &lead.URL, &lead.Price, &lead.Location, &lead.Description,
		&lead.Status, &lead.Score, &lead.Acreage, &lead.BedCount, &lead.YearBuilt,
		&lead.NearestAirport, &lead.DriveTimeMinutes, &lead.AISummary, &lead.ImageURL,
		&lead.FunnelStage, &lead.IsNew, &lead.VerificationResult,
		&lead.VerificationReason, &lead.LastVerifiedAt, &lead.SourceType,
		&lead.DiscoveredVia, &lead.SearchQuery, &lead.DismissedReason, &lead.DismissedPattern,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &lead, nil
}
