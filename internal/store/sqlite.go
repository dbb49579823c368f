package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite" // pure-Go sqlite driver

	"github.com/timkosters/edge-city-finder/internal/extract"
	"github.com/timkosters/edge-city-finder/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It serves local
// development and tests; production deployments use Postgres.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a SQLiteStore at the given path (":memory:" works).
func NewSQLite(path string) (*SQLiteStore, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// SQLite handles one writer at a time.
	sqlDB.SetMaxOpenConns(1)
	return &SQLiteStore{db: sqlDB}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id                  TEXT PRIMARY KEY,
	title               TEXT NOT NULL DEFAULT '',
	url                 TEXT NOT NULL UNIQUE,
	price               TEXT NOT NULL DEFAULT '',
	location            TEXT NOT NULL DEFAULT '',
	description         TEXT NOT NULL DEFAULT '',
	status              TEXT NOT NULL DEFAULT 'New',
	score               INTEGER NOT NULL DEFAULT 0,
	acreage             REAL,
	bed_count           INTEGER,
	year_built          INTEGER,
	nearest_airport     TEXT NOT NULL DEFAULT '',
	drive_time_minutes  INTEGER,
	ai_summary          TEXT NOT NULL DEFAULT '',
	image_url           TEXT NOT NULL DEFAULT '',
	funnel_stage        TEXT NOT NULL DEFAULT 'discovered',
	is_new              INTEGER NOT NULL DEFAULT 1,
	verification_result TEXT NOT NULL DEFAULT '',
	verification_reason TEXT NOT NULL DEFAULT '',
	last_verified_at    TIMESTAMP,
	source_type         TEXT NOT NULL DEFAULT '',
	discovered_via      TEXT NOT NULL DEFAULT '',
	search_query        TEXT NOT NULL DEFAULT '',
	dismissed_reason    TEXT NOT NULL DEFAULT '',
	dismissed_pattern   TEXT NOT NULL DEFAULT '',
	created_at          TIMESTAMP NOT NULL,
	updated_at          TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_leads_funnel_stage ON leads(funnel_stage);
CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
`

const sqliteUpsert = `INSERT INTO leads (` + leadColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (url) DO UPDATE SET
	title = excluded.title,
	price = excluded.price,
	location = excluded.location,
	description = excluded.description,
	status = excluded.status,
	score = excluded.score,
	acreage = excluded.acreage,
	bed_count = excluded.bed_count,
	year_built = excluded.year_built,
	nearest_airport = excluded.nearest_airport,
	drive_time_minutes = excluded.drive_time_minutes,
	ai_summary = excluded.ai_summary,
	image_url = excluded.image_url,
	funnel_stage = excluded.funnel_stage,
	is_new = excluded.is_new,
	verification_result = excluded.verification_result,
	verification_reason = excluded.verification_reason,
	last_verified_at = excluded.last_verified_at,
	source_type = excluded.source_type,
	discovered_via = excluded.discovered_via,
	search_query = excluded.search_query,
	dismissed_reason = excluded.dismissed_reason,
	dismissed_pattern = excluded.dismissed_pattern,
	updated_at = excluded.updated_at
RETURNING ` + leadColumns

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return eris.Wrap(s.db.Close(), "sqlite: close")
}

func (s *SQLiteStore) UpsertLead(ctx context.Context, lead model.Lead) (*model.Lead, error) {
	lead = prepareForUpsert(lead)

	row := s.db.QueryRowContext(ctx, sqliteUpsert, upsertArgs(lead)...)
	saved, err := scanSQLiteLead(row)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: upsert lead %s", lead.URL)
	}
	return saved, nil
}

func (s *SQLiteStore) UpsertLeads(ctx context.Context, leads []model.Lead) ([]model.Lead, error) {
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

func (s *SQLiteStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = ?`, id)
	lead, err := scanSQLiteLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get lead %s", id)
	}
	return lead, nil
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE true`
	args := []any{}

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.FunnelStage != "" {
		query += ` AND funnel_stage = ?`
		args = append(args, string(filter.FunnelStage))
	} else if !filter.IncludeDismissed {
		query += ` AND funnel_stage != 'dismissed'`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		lead, err := scanSQLiteLead(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		leads = append(leads, *lead)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: list leads iterate")
}

func (s *SQLiteStore) ListURLs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT url FROM leads`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list urls")
	}
	defer rows.Close()

	urls := map[string]struct{}{}
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan url")
		}
		urls[extract.NormalizeURL(u)] = struct{}{}
	}
	return urls, eris.Wrap(rows.Err(), "sqlite: list urls iterate")
}

func (s *SQLiteStore) ListDismissedPatterns(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT dismissed_pattern FROM leads WHERE funnel_stage = 'dismissed' AND dismissed_pattern != ''`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list dismissed patterns")
	}
	defer rows.Close()

	var patterns []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan pattern")
		}
		patterns = append(patterns, p)
	}
	return patterns, eris.Wrap(rows.Err(), "sqlite: list patterns iterate")
}

func (s *SQLiteStore) UpdateStatus(ctx context.Context, id string, status model.Status) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE leads SET status = ?, updated_at = ? WHERE id = ? RETURNING `+leadColumns,
		string(status), time.Now().UTC(), id,
	)
	lead, err := scanSQLiteLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: update status %s", id)
	}
	return lead, nil
}

func (s *SQLiteStore) Dismiss(ctx context.Context, id, reason, pattern string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE leads SET funnel_stage = 'dismissed', status = 'Archived', dismissed_reason = ?, dismissed_pattern = ?, updated_at = ? WHERE id = ? RETURNING `+leadColumns,
		reason, pattern, time.Now().UTC(), id,
	)
	lead, err := scanSQLiteLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: dismiss lead %s", id)
	}
	return lead, nil
}

func (s *SQLiteStore) MarkSeen(ctx context.Context, id string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE leads SET is_new = 0, updated_at = ? WHERE id = ? RETURNING `+leadColumns,
		time.Now().UTC(), id,
	)
	lead, err := scanSQLiteLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: mark seen %s", id)
	}
	return lead, nil
}

func (s *SQLiteStore) DeleteLead(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM leads WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete lead %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

// scanSQLiteLead scans one lead row in leadColumns order, converting
// database/sql null types to the model's pointer fields.
func scanSQLiteLead(row scannable) (*model.Lead, error) {
	var (
		lead      model.Lead
		acreage   sql.NullFloat64
		bedCount  sql.NullInt64
		yearBuilt sql.NullInt64
		driveTime sql.NullInt64
		verified  sql.NullTime
		isNew     int
	)

	err := row.Scan(
		&lead.ID, &lead.Title, &lead.URL, &lead.Price, &lead.Location, &lead.Description,
		&lead.Status, &lead.Score, &acreage, &bedCount, &yearBuilt,
		&lead.NearestAirport, &driveTime, &lead.AISummary, &lead.ImageURL,
		&lead.FunnelStage, &isNew, &lead.VerificationResult,
		&lead.VerificationReason, &verified, &lead.SourceType,
		&lead.DiscoveredVia, &lead.SearchQuery, &lead.DismissedReason, &lead.DismissedPattern,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	lead.IsNew = isNew != 0
	if acreage.Valid {
		lead.Acreage = &acreage.Float64
	}
	if bedCount.Valid {
		v := int(bedCount.Int64)
		lead.BedCount = &v
	}
	if yearBuilt.Valid {
		v := int(yearBuilt.Int64)
		lead.YearBuilt = &v
	}
	if driveTime.Valid {
		v := int(driveTime.Int64)
		lead.DriveTimeMinutes = &v
	}
	if verified.Valid {
		lead.LastVerifiedAt = &verified.Time
	}
	return &lead, nil
}
