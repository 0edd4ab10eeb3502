package api

import (
	"github.com/credo-news/credo/app/cache"
	"github.com/credo-news/credo/app/database"
	"github.com/credo-news/credo/app/orchestrator"
	"github.com/credo-news/credo/app/tasks"
)

type Handler struct {
	factCheckRepo    database.FactCheckRepository
	articleRepo      database.ArticleRepository
	sourceRepo       database.SourceRepository
	orchestrator     *orchestrator.Orchestrator
	scheduler        tasks.TaskSchedulerInterface
	cache            cache.Cache
	highRiskMaxScore int
}

type triggerRequest struct {
	Mode string `json:"mode"`
	URL  string `json:"url"`
}

type factCheckResponse struct {
	ArticleID             string  `json:"article_id"`
	JobID                 string  `json:"job_id,omitempty"`
	Status                string  `json:"status"`
	Verdict               string  `json:"verdict"`
	CredibilityScore      *int    `json:"credibility_score"`
	Confidence            float64 `json:"confidence"`
	Summary               string  `json:"summary,omitempty"`
	ClaimsAnalyzed        int     `json:"claims_analyzed"`
	ClaimsValidated       int     `json:"claims_validated"`
	ClaimsTrue            int     `json:"claims_true"`
	ClaimsFalse           int     `json:"claims_false"`
	ClaimsMisleading      int     `json:"claims_misleading"`
	ClaimsUnverified      int     `json:"claims_unverified"`
	NumSources            int     `json:"num_sources"`
	SourceConsensus       string  `json:"source_consensus,omitempty"`
	RequestedMode         string  `json:"requested_mode"`
	ErrorMessage          string  `json:"error_message,omitempty"`
	ProcessingTimeSeconds *int    `json:"processing_time_seconds"`
	SubmittedAt           string  `json:"submitted_at,omitempty"`
	CompletedAt           string  `json:"completed_at,omitempty"`
}

type sourceCredibilityResponse struct {
	SourceID            string  `json:"source_id"`
	SourceName          string  `json:"source_name"`
	Category            string  `json:"category"`
	PeriodType          string  `json:"period_type"`
	PeriodStart         string  `json:"period_start"`
	ArticlesFactChecked int     `json:"articles_fact_checked"`
	ArticlesVerified    int     `json:"articles_verified"`
	ArticlesFalse       int     `json:"articles_false"`
	ArticlesMisleading  int     `json:"articles_misleading"`
	ArticlesUnverified  int     `json:"articles_unverified"`
	AccuracyScore       float64 `json:"accuracy_score"`
	Rating              string  `json:"rating"`
	VerifiedPct         float64 `json:"verified_pct"`
	FalsePct            float64 `json:"false_pct"`
	MisleadingPct       float64 `json:"misleading_pct"`
	UnverifiedPct       float64 `json:"unverified_pct"`
	ScoreChange         float64 `json:"score_change"`
	Trend               string  `json:"trend"`
	CategoryRank        int     `json:"category_rank"`
	OverallRank         int     `json:"overall_rank"`
	ComputedAt          string  `json:"computed_at"`
}

type highRiskArticleResponse struct {
	ArticleID        string `json:"article_id"`
	SourceID         string `json:"source_id"`
	URL              string `json:"url"`
	Title            string `json:"title"`
	Verdict          string `json:"verdict"`
	CredibilityScore int    `json:"credibility_score"`
	ClaimsFalse      int    `json:"claims_false"`
	ClaimsMisleading int    `json:"claims_misleading"`
	CompletedAt      string `json:"completed_at"`
}
