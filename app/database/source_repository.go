package database

import (
	"database/sql"
	"fmt"
	"time"
)

// SourceRepo handles database operations for sources and their windowed
// credibility scores
type SourceRepo struct {
	db *DB
}

func NewSourceRepo(db *DB) *SourceRepo {
	return &SourceRepo{db: db}
}

func (r *SourceRepo) List() ([]Source, error) {
	rows, err := r.db.Query(`
		SELECT id, name, COALESCE(category, 'general'), created_at
		FROM sources
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var source Source
		if err := rows.Scan(&source.ID, &source.Name, &source.Category, &source.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, source)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source rows: %w", err)
	}

	return sources, nil
}

func (r *SourceRepo) GetByID(id string) (*Source, error) {
	var source Source
	err := r.db.QueryRow(`
		SELECT id, name, COALESCE(category, 'general'), created_at
		FROM sources
		WHERE id = $1
	`, id).Scan(&source.ID, &source.Name, &source.Category, &source.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}

	return &source, nil
}

const scoreColumns = `
	id, source_id, period_type, period_start,
	articles_fact_checked, articles_verified, articles_false,
	articles_misleading, articles_unverified,
	accuracy_score, rating,
	verified_pct, false_pct, misleading_pct, unverified_pct,
	score_change, trend, category_rank, overall_rank, computed_at`

func (r *SourceRepo) GetScore(sourceID string, periodType PeriodType, periodStart time.Time) (*SourceCredibilityScore, error) {
	row := r.db.QueryRow(`
		SELECT `+scoreColumns+`
		FROM source_credibility_scores
		WHERE source_id = $1 AND period_type = $2 AND period_start = $3
	`, sourceID, string(periodType), periodStart)

	return scanScore(row)
}

func (r *SourceRepo) GetLatestScore(sourceID string, periodType PeriodType) (*SourceCredibilityScore, error) {
	row := r.db.QueryRow(`
		SELECT `+scoreColumns+`
		FROM source_credibility_scores
		WHERE source_id = $1 AND period_type = $2
		ORDER BY period_start DESC
		LIMIT 1
	`, sourceID, string(periodType))

	return scanScore(row)
}

func (r *SourceRepo) UpsertScore(score *SourceCredibilityScore) error {
	_, err := r.db.Exec(`
		INSERT INTO source_credibility_scores (
			source_id, period_type, period_start,
			articles_fact_checked, articles_verified, articles_false,
			articles_misleading, articles_unverified,
			accuracy_score, rating,
			verified_pct, false_pct, misleading_pct, unverified_pct,
			score_change, trend, category_rank, overall_rank, computed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, NOW())
		ON CONFLICT (source_id, period_type, period_start) DO UPDATE SET
			articles_fact_checked = EXCLUDED.articles_fact_checked,
			articles_verified = EXCLUDED.articles_verified,
			articles_false = EXCLUDED.articles_false,
			articles_misleading = EXCLUDED.articles_misleading,
			articles_unverified = EXCLUDED.articles_unverified,
			accuracy_score = EXCLUDED.accuracy_score,
			rating = EXCLUDED.rating,
			verified_pct = EXCLUDED.verified_pct,
			false_pct = EXCLUDED.false_pct,
			misleading_pct = EXCLUDED.misleading_pct,
			unverified_pct = EXCLUDED.unverified_pct,
			score_change = EXCLUDED.score_change,
			trend = EXCLUDED.trend,
			category_rank = EXCLUDED.category_rank,
			overall_rank = EXCLUDED.overall_rank,
			computed_at = NOW()
	`, score.SourceID, string(score.PeriodType), score.PeriodStart,
		score.ArticlesFactChecked, score.ArticlesVerified, score.ArticlesFalse,
		score.ArticlesMisleading, score.ArticlesUnverified,
		score.AccuracyScore, score.Rating,
		score.VerifiedPct, score.FalsePct, score.MisleadingPct, score.UnverifiedPct,
		score.ScoreChange, score.Trend, score.CategoryRank, score.OverallRank)

	if err != nil {
		return fmt.Errorf("failed to upsert source credibility score: %w", err)
	}

	return nil
}

func (r *SourceRepo) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM sources").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get source count: %w", err)
	}
	return count, nil
}

func scanScore(row rowScanner) (*SourceCredibilityScore, error) {
	var score SourceCredibilityScore
	err := row.Scan(
		&score.ID, &score.SourceID, &score.PeriodType, &score.PeriodStart,
		&score.ArticlesFactChecked, &score.ArticlesVerified, &score.ArticlesFalse,
		&score.ArticlesMisleading, &score.ArticlesUnverified,
		&score.AccuracyScore, &score.Rating,
		&score.VerifiedPct, &score.FalsePct, &score.MisleadingPct, &score.UnverifiedPct,
		&score.ScoreChange, &score.Trend, &score.CategoryRank, &score.OverallRank, &score.ComputedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan source credibility score: %w", err)
	}

	return &score, nil
}
