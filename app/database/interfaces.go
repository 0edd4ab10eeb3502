package database

import (
	"time"

	"github.com/credo-news/credo/app/scoring"
)

// FactCheckRepository is the persistence contract for per-article
// fact-check records. Writes go through the orchestrator only; reads are
// shared with the API and aggregator.
type FactCheckRepository interface {
	// Insert creates the record in PENDING. Returns ErrDuplicateFactCheck
	// when a row for the article already exists; the unique constraint on
	// article_id is the final authority under concurrent submissions.
	Insert(articleID, mode string) (*ArticleFactCheck, error)

	GetByArticleID(articleID string) (*ArticleFactCheck, error)
	GetByJobID(jobID string) (*ArticleFactCheck, error)

	SetSubmitted(id, jobID string) error
	SetPolling(id string) error

	// ResetForRetry returns an errored record that never reached the
	// external service (no job id) to PENDING so a retried submission can
	// reuse it. No-op for any other state.
	ResetForRetry(id string) error

	// Complete persists the scored result. Only applies while the record
	// is non-terminal, so a terminal state is written exactly once.
	Complete(id string, result CompletedFactCheck) error

	// MarkTerminal moves a non-terminal record to error/timeout/cancelled
	// with a process verdict. No-op if the record is already terminal.
	MarkTerminal(id string, status FactCheckStatus, verdict, message string) error

	TallyForSource(sourceID string, start, end time.Time) (scoring.SourceTally, error)
	ListHighRisk(since time.Time, maxScore, limit int) ([]HighRiskArticle, error)
	CountByStatus() (map[string]int, error)
}

// CompletedFactCheck carries everything the orchestrator persists on the
// COMPLETED path.
type CompletedFactCheck struct {
	Verdict               string
	CredibilityScore      int
	Confidence            float64
	Summary               string
	Counts                scoring.Counts
	ValidationData        []byte
	NumSources            int
	SourceConsensus       string
	ProcessingTimeSeconds int
}

// ArticleRepository reads article identities and writes the three
// fact-check cache fields, the only cross-ownership write in the system.
type ArticleRepository interface {
	GetByID(id string) (*Article, error)

	// UpdateFactCheckCache sets all three cache fields in one statement.
	UpdateFactCheckCache(id string, score int, verdict string, checkedAt time.Time) error

	// ListUnchecked returns articles with no fact-check record yet, oldest
	// first, for the periodic enqueue sweep.
	ListUnchecked(limit int) ([]Article, error)

	Count() (int, error)
}

// SourceRepository reads sources and owns source_credibility_scores rows
// on behalf of the aggregator.
type SourceRepository interface {
	List() ([]Source, error)
	GetByID(id string) (*Source, error)

	GetScore(sourceID string, periodType PeriodType, periodStart time.Time) (*SourceCredibilityScore, error)
	GetLatestScore(sourceID string, periodType PeriodType) (*SourceCredibilityScore, error)

	// UpsertScore writes a window row keyed on
	// (source_id, period_type, period_start); re-runs for the same window
	// overwrite in place.
	UpsertScore(score *SourceCredibilityScore) error

	Count() (int, error)
}

var _ FactCheckRepository = (*FactCheckRepo)(nil)
var _ ArticleRepository = (*ArticleRepo)(nil)
var _ SourceRepository = (*SourceRepo)(nil)
