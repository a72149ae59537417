package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amara/opportunity-finder/internal/models"
	"github.com/amara/opportunity-finder/internal/scrape"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

type ListParams struct {
	Type     string
	Country  string
	Query    string
	Inactive bool // include inactive records
	Limit    int
	Offset   int
}

type ListResult struct {
	Opportunities []models.Opportunity `json:"opportunities"`
	Total         int                  `json:"total"`
	Limit         int                  `json:"limit"`
	Offset        int                  `json:"offset"`
}

// selectCols is the full column list for opportunity queries.
const selectCols = `id, title, type, organization, description, location, country,
	deadline, application_url, requirements, benefits, eligibility,
	amount, currency, source_url, is_active, scraped_at, created_at, updated_at`

func scanOpportunity(scan func(dest ...interface{}) error) (models.Opportunity, error) {
	var o models.Opportunity
	err := scan(
		&o.ID, &o.Title, &o.Type, &o.Organization, &o.Description, &o.Location, &o.Country,
		&o.Deadline, &o.ApplicationURL, &o.Requirements, &o.Benefits, &o.Eligibility,
		&o.Amount, &o.Currency, &o.SourceURL, &o.IsActive, &o.ScrapedAt, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

// Upsert inserts an opportunity or refreshes the stored row that shares its
// title and organization. The returned outcome reports whether a new row
// was created; xmax = 0 holds only for freshly inserted rows.
func (s *Store) Upsert(ctx context.Context, opp models.Opportunity) (scrape.UpsertOutcome, error) {
	var id string
	var inserted bool
	err := s.pool.QueryRow(ctx, `
		INSERT INTO opportunities (
			title, type, organization, description, location, country,
			deadline, application_url, requirements, benefits, eligibility,
			amount, currency, source_url, is_active, scraped_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW())
		ON CONFLICT ON CONSTRAINT opportunities_identity DO UPDATE SET
			type = EXCLUDED.type,
			description = EXCLUDED.description,
			location = EXCLUDED.location,
			country = EXCLUDED.country,
			deadline = EXCLUDED.deadline,
			application_url = EXCLUDED.application_url,
			requirements = EXCLUDED.requirements,
			benefits = EXCLUDED.benefits,
			eligibility = EXCLUDED.eligibility,
			amount = EXCLUDED.amount,
			currency = EXCLUDED.currency,
			source_url = EXCLUDED.source_url,
			is_active = TRUE,
			scraped_at = NOW(),
			updated_at = NOW()
		RETURNING id, (xmax = 0) AS inserted
	`,
		opp.Title, opp.Type, opp.Organization, opp.Description, opp.Location, opp.Country,
		opp.Deadline, opp.ApplicationURL, opp.Requirements, opp.Benefits, opp.Eligibility,
		opp.Amount, opp.Currency, opp.SourceURL, opp.IsActive,
	).Scan(&id, &inserted)
	if err != nil {
		return scrape.UpsertUpdated, fmt.Errorf("upsert failed: %w", err)
	}
	if inserted {
		return scrape.UpsertCreated, nil
	}
	return scrape.UpsertUpdated, nil
}

// FindByIdentity looks up the stored row for a (title, organization) pair.
func (s *Store) FindByIdentity(ctx context.Context, title, organization string) (*models.Opportunity, error) {
	sql := fmt.Sprintf(`SELECT %s FROM opportunities WHERE title = $1 AND organization = $2`, selectCols)
	row := s.pool.QueryRow(ctx, sql, title, organization)

	o, err := scanOpportunity(row.Scan)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Store) ListOpportunities(ctx context.Context, params ListParams) (*ListResult, error) {
	where := "WHERE 1=1"
	var args []interface{}
	argIdx := 1

	if !params.Inactive {
		where += " AND is_active = TRUE"
	}
	if params.Type != "" {
		where += fmt.Sprintf(" AND type = $%d", argIdx)
		args = append(args, params.Type)
		argIdx++
	}
	if params.Country != "" {
		where += fmt.Sprintf(" AND country ILIKE '%%' || $%d || '%%'", argIdx)
		args = append(args, params.Country)
		argIdx++
	}
	if params.Query != "" {
		where += fmt.Sprintf(" AND (title ILIKE '%%' || $%d || '%%' OR organization ILIKE '%%' || $%d || '%%' OR description ILIKE '%%' || $%d || '%%')", argIdx, argIdx, argIdx)
		args = append(args, params.Query)
		argIdx++
	}

	var total int
	countSQL := "SELECT COUNT(*) FROM opportunities " + where
	if err := s.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count failed: %w", err)
	}

	if params.Limit <= 0 || params.Limit > 100 {
		params.Limit = 20
	}

	selectSQL := fmt.Sprintf(
		"SELECT %s FROM opportunities %s ORDER BY deadline ASC NULLS LAST, created_at DESC LIMIT $%d OFFSET $%d",
		selectCols, where, argIdx, argIdx+1,
	)
	args = append(args, params.Limit, params.Offset)

	rows, err := s.pool.Query(ctx, selectSQL, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var opps []models.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		opps = append(opps, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	if opps == nil {
		opps = []models.Opportunity{}
	}

	return &ListResult{
		Opportunities: opps,
		Total:         total,
		Limit:         params.Limit,
		Offset:        params.Offset,
	}, nil
}

func (s *Store) GetOpportunity(ctx context.Context, id string) (*models.Opportunity, error) {
	sql := fmt.Sprintf(`SELECT %s FROM opportunities WHERE id = $1`, selectCols)
	row := s.pool.QueryRow(ctx, sql, id)

	o, err := scanOpportunity(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("not found: %w", err)
	}
	return &o, nil
}

// DeactivateExpired marks records whose deadline has passed as inactive
// and reports how many rows changed.
func (s *Store) DeactivateExpired(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE opportunities
		SET is_active = FALSE, updated_at = NOW()
		WHERE is_active = TRUE AND deadline IS NOT NULL AND deadline < NOW()
	`)
	if err != nil {
		return 0, fmt.Errorf("deactivate failed: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM opportunities WHERE is_active = TRUE").Scan(&total); err != nil {
		return nil, err
	}
	stats["total_active"] = total

	typeCounts := map[string]int{}
	rows, err := s.pool.Query(ctx, "SELECT type, COUNT(*) FROM opportunities WHERE is_active = TRUE GROUP BY type")
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var typ string
			var count int
			if scanErr := rows.Scan(&typ, &count); scanErr == nil {
				typeCounts[typ] = count
			}
		}
	}
	stats["by_type"] = typeCounts

	var upcoming int
	s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM opportunities WHERE is_active = TRUE AND deadline IS NOT NULL AND deadline <= NOW() + INTERVAL '30 days' AND deadline >= NOW()").Scan(&upcoming)
	stats["closing_within_30_days"] = upcoming

	var lastRun *time.Time
	s.pool.QueryRow(ctx, "SELECT MAX(completed_at) FROM scraper_runs WHERE status = 'success'").Scan(&lastRun)
	if lastRun != nil {
		stats["last_successful_run"] = lastRun.UTC().Format(time.RFC3339)
	}

	return stats, nil
}

// StartRun opens a run record in the running state and returns its id.
func (s *Store) StartRun(ctx context.Context, sourceName, scraperType string, startedAt time.Time) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx, `
		INSERT INTO scraper_runs (source_name, scraper_type, status, started_at)
		VALUES ($1, $2, 'running', $3)
		RETURNING id
	`, sourceName, scraperType, startedAt).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("start run failed: %w", err)
	}
	return id, nil
}

// CompleteRun finalizes a run record with its terminal status and counters.
func (s *Store) CompleteRun(ctx context.Context, runID string, c scrape.RunCompletion) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE scraper_runs
		SET status = $2,
			items_scraped = $3,
			items_added = $4,
			items_updated = $5,
			error_message = $6,
			completed_at = NOW(),
			execution_time_seconds = $7
		WHERE id = $1
	`, runID, c.Status, c.ItemsScraped, c.ItemsAdded, c.ItemsUpdated, c.ErrorMessage, c.ExecutionSeconds)
	if err != nil {
		return fmt.Errorf("complete run failed: %w", err)
	}
	return nil
}

// ListRuns returns the most recent run records, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]models.ScraperRun, error) {
	if limit <= 0 {
		limit = 15
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, source_name, scraper_type, status, items_scraped, items_added,
			items_updated, error_message, started_at, completed_at, execution_time_seconds
		FROM scraper_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var runs []models.ScraperRun
	for rows.Next() {
		var r models.ScraperRun
		err := rows.Scan(
			&r.ID, &r.SourceName, &r.ScraperType, &r.Status, &r.ItemsScraped, &r.ItemsAdded,
			&r.ItemsUpdated, &r.ErrorMessage, &r.StartedAt, &r.CompletedAt, &r.ExecutionSeconds,
		)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return runs, nil
}
