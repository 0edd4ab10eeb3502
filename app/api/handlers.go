package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/credo-news/credo/app/cache"
	"github.com/credo-news/credo/app/database"
	"github.com/credo-news/credo/app/orchestrator"
	"github.com/credo-news/credo/app/tasks"
)

const credibilityCacheTTL = 10 * time.Minute

func NewHandler(factCheckRepo database.FactCheckRepository, articleRepo database.ArticleRepository,
	sourceRepo database.SourceRepository, orch *orchestrator.Orchestrator,
	scheduler tasks.TaskSchedulerInterface, c cache.Cache, highRiskMaxScore int) *Handler {
	return &Handler{
		factCheckRepo:    factCheckRepo,
		articleRepo:      articleRepo,
		sourceRepo:       sourceRepo,
		orchestrator:     orch,
		scheduler:        scheduler,
		cache:            c,
		highRiskMaxScore: highRiskMaxScore,
	}
}

// TriggerFactCheck enqueues a fact check for an article. Always answers
// 202 once the article exists: orchestration failures stay internal so the
// caller's article flow never breaks on fact-check issues.
func (h *Handler) TriggerFactCheck(c *gin.Context) {
	articleID := c.Param("id")

	article, err := h.articleRepo.GetByID(articleID)
	if err != nil {
		slog.Error("Database error", "operation", "get_article", "article_id", articleID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if article == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		return
	}

	if article.FactCheckedAt != nil {
		// Checks are permanent; return the existing state instead of an error.
		c.JSON(http.StatusOK, gin.H{
			"status":  "already_checked",
			"score":   article.FactCheckScore,
			"verdict": article.FactCheckVerdict,
		})
		return
	}

	// Body is optional; defaults apply when absent.
	var req triggerRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	h.scheduler.TriggerFactCheck(articleID, req.URL, req.Mode)

	c.JSON(http.StatusAccepted, gin.H{"status": "queued", "article_id": articleID})
}

// CancelFactCheck requests cancellation of an in-flight job.
func (h *Handler) CancelFactCheck(c *gin.Context) {
	jobID := c.Param("job_id")

	if err := h.orchestrator.Cancel(c.Request.Context(), jobID); err != nil {
		slog.Error("Cancel failed", "job_id", jobID, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cancelled", "job_id": jobID})
}

func (h *Handler) GetFactCheck(c *gin.Context) {
	articleID := c.Param("article_id")

	fc, err := h.factCheckRepo.GetByArticleID(articleID)
	if err != nil {
		slog.Error("Database error", "operation", "get_fact_check", "article_id", articleID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if fc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no fact check for article"})
		return
	}

	c.JSON(http.StatusOK, factCheckToResponse(fc))
}

func (h *Handler) GetSourceCredibility(c *gin.Context) {
	sourceID := c.Param("id")

	periodType := database.PeriodType(c.DefaultQuery("period", string(database.PeriodWeekly)))
	if !periodType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period type"})
		return
	}

	cacheKey := "source_credibility:" + sourceID + ":" + string(periodType)
	if cached, err := h.cache.Get(cacheKey); err == nil && cached != "" {
		c.Header("X-Cache", "HIT")
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(cached))
		return
	}

	source, err := h.sourceRepo.GetByID(sourceID)
	if err != nil {
		slog.Error("Database error", "operation", "get_source", "source_id", sourceID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if source == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "source not found"})
		return
	}

	score, err := h.sourceRepo.GetLatestScore(sourceID, periodType)
	if err != nil {
		slog.Error("Database error", "operation", "get_latest_score", "source_id", sourceID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if score == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no credibility score for source and period"})
		return
	}

	resp := sourceCredibilityToResponse(source, score)

	if data, err := json.Marshal(resp); err == nil {
		if err := h.cache.Set(cacheKey, string(data), credibilityCacheTTL); err != nil {
			slog.Warn("Failed to cache source credibility", "source_id", sourceID, "error", err)
		}
	}

	c.Header("X-Cache", "MISS")
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ListHighRiskArticles(c *gin.Context) {
	hours, err := strconv.Atoi(c.DefaultQuery("hours", "24"))
	if err != nil || hours <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hours parameter"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 200 {
		limit = 50
	}

	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)

	articles, err := h.factCheckRepo.ListHighRisk(since, h.highRiskMaxScore, limit)
	if err != nil {
		slog.Error("Database error", "operation", "list_high_risk", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	resp := make([]highRiskArticleResponse, 0, len(articles))
	for _, a := range articles {
		resp = append(resp, highRiskArticleResponse{
			ArticleID:        a.ArticleID,
			SourceID:         a.SourceID,
			URL:              a.URL,
			Title:            a.Title,
			Verdict:          a.Verdict,
			CredibilityScore: a.CredibilityScore,
			ClaimsFalse:      a.ClaimsFalse,
			ClaimsMisleading: a.ClaimsMisleading,
			CompletedAt:      a.CompletedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{"articles": resp, "count": len(resp), "window_hours": hours})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if articleCount, err := h.articleRepo.Count(); err == nil {
		health["articles"] = articleCount
	}
	if sourceCount, err := h.sourceRepo.Count(); err == nil {
		health["sources"] = sourceCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if counts, err := h.factCheckRepo.CountByStatus(); err == nil {
		stats["fact_checks_by_status"] = counts
		total := 0
		for _, n := range counts {
			total += n
		}
		stats["fact_checks_total"] = total
	}

	if articleCount, err := h.articleRepo.Count(); err == nil {
		stats["articles"] = articleCount
	}
	if sourceCount, err := h.sourceRepo.Count(); err == nil {
		stats["sources"] = sourceCount
	}

	c.JSON(http.StatusOK, stats)
}

func factCheckToResponse(fc *database.ArticleFactCheck) factCheckResponse {
	resp := factCheckResponse{
		ArticleID:             fc.ArticleID,
		JobID:                 fc.JobID,
		Status:                string(fc.Status),
		Verdict:               fc.Verdict,
		CredibilityScore:      fc.CredibilityScore,
		Confidence:            fc.Confidence,
		Summary:               fc.Summary,
		ClaimsAnalyzed:        fc.ClaimsAnalyzed,
		ClaimsValidated:       fc.ClaimsValidated,
		ClaimsTrue:            fc.ClaimsTrue,
		ClaimsFalse:           fc.ClaimsFalse,
		ClaimsMisleading:      fc.ClaimsMisleading,
		ClaimsUnverified:      fc.ClaimsUnverified,
		NumSources:            fc.NumSources,
		SourceConsensus:       fc.SourceConsensus,
		RequestedMode:         fc.RequestedMode,
		ErrorMessage:          fc.ErrorMessage,
		ProcessingTimeSeconds: fc.ProcessingTimeSeconds,
	}

	if fc.SubmittedAt != nil {
		resp.SubmittedAt = fc.SubmittedAt.Format(time.RFC3339)
	}
	if fc.CompletedAt != nil {
		resp.CompletedAt = fc.CompletedAt.Format(time.RFC3339)
	}

	return resp
}

func sourceCredibilityToResponse(source *database.Source, score *database.SourceCredibilityScore) sourceCredibilityResponse {
	return sourceCredibilityResponse{
		SourceID:            source.ID,
		SourceName:          source.Name,
		Category:            source.Category,
		PeriodType:          string(score.PeriodType),
		PeriodStart:         score.PeriodStart.Format("2006-01-02"),
		ArticlesFactChecked: score.ArticlesFactChecked,
		ArticlesVerified:    score.ArticlesVerified,
		ArticlesFalse:       score.ArticlesFalse,
		ArticlesMisleading:  score.ArticlesMisleading,
		ArticlesUnverified:  score.ArticlesUnverified,
		AccuracyScore:       score.AccuracyScore,
		Rating:              score.Rating,
		VerifiedPct:         score.VerifiedPct,
		FalsePct:            score.FalsePct,
		MisleadingPct:       score.MisleadingPct,
		UnverifiedPct:       score.UnverifiedPct,
		ScoreChange:         score.ScoreChange,
		Trend:               score.Trend,
		CategoryRank:        score.CategoryRank,
		OverallRank:         score.OverallRank,
		ComputedAt:          score.ComputedAt.Format(time.RFC3339),
	}
}
