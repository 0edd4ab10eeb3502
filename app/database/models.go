package database

import (
	"time"
)

// FactCheckStatus is the lifecycle state of a fact-check job. PENDING and
// POLLING are transient; the other four are terminal with no transitions out.
type FactCheckStatus string

const (
	StatusPending   FactCheckStatus = "pending"
	StatusPolling   FactCheckStatus = "polling"
	StatusCompleted FactCheckStatus = "completed"
	StatusError     FactCheckStatus = "error"
	StatusTimeout   FactCheckStatus = "timeout"
	StatusCancelled FactCheckStatus = "cancelled"
)

func (s FactCheckStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusError, StatusTimeout, StatusCancelled:
		return true
	}
	return false
}

// Article is owned by the ingestion subsystem; this system reads identity
// columns and writes only the three fact_check cache fields. The cache
// fields are either all null (never checked) or all set.
type Article struct {
	ID          string
	SourceID    string
	URL         string
	Title       string
	PublishedAt *time.Time

	FactCheckScore   *int
	FactCheckVerdict *string
	FactCheckedAt    *time.Time

	CreatedAt time.Time
}

// Source is a publisher record, owned externally. Read for aggregation.
type Source struct {
	ID        string
	Name      string
	Category  string
	CreatedAt time.Time
}

// ArticleFactCheck is the per-article verification record, one non-deleted
// row per article, written exclusively by the orchestrator.
type ArticleFactCheck struct {
	ID        string
	ArticleID string
	JobID     string
	Status    FactCheckStatus
	Verdict   string

	CredibilityScore *int
	Confidence       float64
	Summary          string

	ClaimsAnalyzed   int
	ClaimsValidated  int
	ClaimsTrue       int
	ClaimsFalse      int
	ClaimsMisleading int
	ClaimsUnverified int

	// ValidationData is the full evidence payload from the external
	// service, stored opaquely and never parsed further here.
	ValidationData []byte

	NumSources      int
	SourceConsensus string
	RequestedMode   string
	ErrorMessage    string

	ProcessingTimeSeconds *int
	SubmittedAt           *time.Time
	CompletedAt           *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// PeriodType is the granularity of a source credibility window.
type PeriodType string

const (
	PeriodDaily   PeriodType = "daily"
	PeriodWeekly  PeriodType = "weekly"
	PeriodMonthly PeriodType = "monthly"
	PeriodAllTime PeriodType = "all_time"
)

func (p PeriodType) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodAllTime:
		return true
	}
	return false
}

// SourceCredibilityScore is one source's rolled-up accuracy for one
// (period type, period start) window, written exclusively by the aggregator.
// Invariant: ArticlesFactChecked equals the sum of the four verdict buckets.
type SourceCredibilityScore struct {
	ID          string
	SourceID    string
	PeriodType  PeriodType
	PeriodStart time.Time

	ArticlesFactChecked int
	ArticlesVerified    int
	ArticlesFalse       int
	ArticlesMisleading  int
	ArticlesUnverified  int

	AccuracyScore float64
	Rating        string

	VerifiedPct   float64
	FalsePct      float64
	MisleadingPct float64
	UnverifiedPct float64

	ScoreChange float64
	Trend       string

	CategoryRank int
	OverallRank  int

	ComputedAt time.Time
}

// Trend labels for period-over-period score movement.
const (
	TrendImproving = "IMPROVING"
	TrendDeclining = "DECLINING"
	TrendStable    = "STABLE"
)

// HighRiskArticle is an article joined to the claim-count fields of its
// completed fact-check, used by the high-risk listing.
type HighRiskArticle struct {
	ArticleID        string
	SourceID         string
	URL              string
	Title            string
	Verdict          string
	CredibilityScore int
	ClaimsFalse      int
	ClaimsMisleading int
	CompletedAt      time.Time
}
