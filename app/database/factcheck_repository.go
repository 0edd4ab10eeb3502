package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/credo-news/credo/app/scoring"
)

// ErrDuplicateFactCheck signals that a fact-check record already exists for
// the article. The unique constraint on article_id makes the first
// successful insert the winner of any submission race.
var ErrDuplicateFactCheck = errors.New("fact check already exists for article")

const uniqueViolation = "23505"

// FactCheckRepo handles database operations for article fact-check records
type FactCheckRepo struct {
	db *DB
}

func NewFactCheckRepo(db *DB) *FactCheckRepo {
	return &FactCheckRepo{db: db}
}

const factCheckColumns = `
	id, article_id, COALESCE(job_id, ''), status, verdict,
	credibility_score, confidence, summary,
	claims_analyzed, claims_validated, claims_true, claims_false,
	claims_misleading, claims_unverified,
	validation_data, num_sources, source_consensus, requested_mode,
	error_message, processing_time_seconds, submitted_at, completed_at,
	created_at, updated_at`

func (r *FactCheckRepo) Insert(articleID, mode string) (*ArticleFactCheck, error) {
	row := r.db.QueryRow(`
		INSERT INTO article_fact_checks (article_id, status, requested_mode)
		VALUES ($1, 'pending', $2)
		RETURNING `+factCheckColumns+`
	`, articleID, mode)

	fc, err := scanFactCheck(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrDuplicateFactCheck
		}
		return nil, fmt.Errorf("failed to insert fact check: %w", err)
	}

	return fc, nil
}

func (r *FactCheckRepo) GetByArticleID(articleID string) (*ArticleFactCheck, error) {
	row := r.db.QueryRow(`
		SELECT `+factCheckColumns+`
		FROM article_fact_checks
		WHERE article_id = $1
	`, articleID)

	fc, err := scanFactCheck(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fact check by article: %w", err)
	}

	return fc, nil
}

func (r *FactCheckRepo) GetByJobID(jobID string) (*ArticleFactCheck, error) {
	row := r.db.QueryRow(`
		SELECT `+factCheckColumns+`
		FROM article_fact_checks
		WHERE job_id = $1
	`, jobID)

	fc, err := scanFactCheck(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fact check by job: %w", err)
	}

	return fc, nil
}

func (r *FactCheckRepo) SetSubmitted(id, jobID string) error {
	_, err := r.db.Exec(`
		UPDATE article_fact_checks
		SET job_id = $2, submitted_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`, id, jobID)

	if err != nil {
		return fmt.Errorf("failed to set fact check submitted: %w", err)
	}

	return nil
}

func (r *FactCheckRepo) SetPolling(id string) error {
	_, err := r.db.Exec(`
		UPDATE article_fact_checks
		SET status = 'polling', updated_at = NOW()
		WHERE id = $1
		  AND status = 'pending'
	`, id)

	if err != nil {
		return fmt.Errorf("failed to set fact check polling: %w", err)
	}

	return nil
}

func (r *FactCheckRepo) ResetForRetry(id string) error {
	_, err := r.db.Exec(`
		UPDATE article_fact_checks
		SET status = 'pending', verdict = '', error_message = '', updated_at = NOW()
		WHERE id = $1
		  AND status = 'error'
		  AND job_id IS NULL
	`, id)

	if err != nil {
		return fmt.Errorf("failed to reset fact check for retry: %w", err)
	}

	return nil
}

func (r *FactCheckRepo) Complete(id string, result CompletedFactCheck) error {
	// The status guard makes terminal writes exactly-once: zero rows
	// affected means the record already reached a terminal state.
	_, err := r.db.Exec(`
		UPDATE article_fact_checks
		SET status = 'completed',
		    verdict = $2,
		    credibility_score = $3,
		    confidence = $4,
		    summary = $5,
		    claims_analyzed = $6,
		    claims_validated = $7,
		    claims_true = $8,
		    claims_false = $9,
		    claims_misleading = $10,
		    claims_unverified = $11,
		    validation_data = $12,
		    num_sources = $13,
		    source_consensus = $14,
		    processing_time_seconds = $15,
		    completed_at = NOW(),
		    updated_at = NOW()
		WHERE id = $1
		  AND status NOT IN ('completed', 'error', 'timeout', 'cancelled')
	`, id, result.Verdict, result.CredibilityScore, result.Confidence, result.Summary,
		result.Counts.Analyzed, result.Counts.Validated, result.Counts.True,
		result.Counts.False, result.Counts.Misleading, result.Counts.Unverified,
		nullBytes(result.ValidationData), result.NumSources, result.SourceConsensus,
		result.ProcessingTimeSeconds)

	if err != nil {
		return fmt.Errorf("failed to complete fact check: %w", err)
	}

	return nil
}

func (r *FactCheckRepo) MarkTerminal(id string, status FactCheckStatus, verdict, message string) error {
	if !status.Terminal() {
		return fmt.Errorf("status %q is not terminal", status)
	}

	_, err := r.db.Exec(`
		UPDATE article_fact_checks
		SET status = $2,
		    verdict = $3,
		    error_message = $4,
		    completed_at = NOW(),
		    updated_at = NOW()
		WHERE id = $1
		  AND status NOT IN ('completed', 'error', 'timeout', 'cancelled')
	`, id, string(status), verdict, message)

	if err != nil {
		return fmt.Errorf("failed to mark fact check terminal: %w", err)
	}

	return nil
}

// TallyForSource buckets a source's completed fact checks within
// [start, end) by dominant verdict.
func (r *FactCheckRepo) TallyForSource(sourceID string, start, end time.Time) (scoring.SourceTally, error) {
	var tally scoring.SourceTally

	err := r.db.QueryRow(`
		SELECT
			COUNT(*) FILTER (WHERE fc.verdict IN ('TRUE', 'MOSTLY_TRUE')),
			COUNT(*) FILTER (WHERE fc.verdict IN ('FALSE', 'MISINFORMATION')),
			COUNT(*) FILTER (WHERE fc.verdict IN ('MISLEADING', 'PARTIALLY_TRUE')),
			COUNT(*) FILTER (WHERE fc.verdict = 'UNVERIFIED')
		FROM article_fact_checks fc
		JOIN articles a ON a.id = fc.article_id
		WHERE a.source_id = $1
		  AND fc.status = 'completed'
		  AND fc.completed_at >= $2
		  AND fc.completed_at < $3
	`, sourceID, start, end).Scan(&tally.Verified, &tally.False, &tally.Misleading, &tally.Unverified)

	if err != nil {
		return tally, fmt.Errorf("failed to tally fact checks for source: %w", err)
	}

	return tally, nil
}

func (r *FactCheckRepo) ListHighRisk(since time.Time, maxScore, limit int) ([]HighRiskArticle, error) {
	rows, err := r.db.Query(`
		SELECT a.id, a.source_id, a.url, COALESCE(a.title, ''),
		       fc.verdict, fc.credibility_score,
		       fc.claims_false, fc.claims_misleading, fc.completed_at
		FROM article_fact_checks fc
		JOIN articles a ON a.id = fc.article_id
		WHERE fc.status = 'completed'
		  AND fc.completed_at >= $1
		  AND fc.credibility_score <= $2
		  AND fc.claims_false + fc.claims_misleading > 0
		ORDER BY fc.credibility_score ASC, fc.claims_false + fc.claims_misleading DESC
		LIMIT $3
	`, since, maxScore, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list high risk articles: %w", err)
	}
	defer rows.Close()

	var articles []HighRiskArticle
	for rows.Next() {
		var a HighRiskArticle
		err := rows.Scan(&a.ArticleID, &a.SourceID, &a.URL, &a.Title,
			&a.Verdict, &a.CredibilityScore, &a.ClaimsFalse, &a.ClaimsMisleading, &a.CompletedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan high risk article row: %w", err)
		}
		articles = append(articles, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating high risk article rows: %w", err)
	}

	return articles, nil
}

func (r *FactCheckRepo) CountByStatus() (map[string]int, error) {
	rows, err := r.db.Query(`
		SELECT status, COUNT(*)
		FROM article_fact_checks
		GROUP BY status
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count fact checks by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count row: %w", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status count rows: %w", err)
	}

	return counts, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFactCheck(row rowScanner) (*ArticleFactCheck, error) {
	var fc ArticleFactCheck
	var validationData []byte

	err := row.Scan(
		&fc.ID, &fc.ArticleID, &fc.JobID, &fc.Status, &fc.Verdict,
		&fc.CredibilityScore, &fc.Confidence, &fc.Summary,
		&fc.ClaimsAnalyzed, &fc.ClaimsValidated, &fc.ClaimsTrue, &fc.ClaimsFalse,
		&fc.ClaimsMisleading, &fc.ClaimsUnverified,
		&validationData, &fc.NumSources, &fc.SourceConsensus, &fc.RequestedMode,
		&fc.ErrorMessage, &fc.ProcessingTimeSeconds, &fc.SubmittedAt, &fc.CompletedAt,
		&fc.CreatedAt, &fc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	fc.ValidationData = validationData
	return &fc, nil
}

func nullBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
