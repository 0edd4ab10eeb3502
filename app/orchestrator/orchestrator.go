package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/credo-news/credo/app/database"
	"github.com/credo-news/credo/app/factcheck"
	"github.com/credo-news/credo/app/scoring"
)

const (
	DefaultPollInterval    = 5 * time.Second
	DefaultMaxPollAttempts = 60
)

// Orchestrator drives fact-check jobs through the external service:
// submit, poll to a terminal state, transform the verdict payload, and
// commit the result. It is the only writer of article_fact_checks rows.
type Orchestrator struct {
	client          factcheck.Client
	factCheckRepo   database.FactCheckRepository
	articleRepo     database.ArticleRepository
	engine          *scoring.Engine
	pollInterval    time.Duration
	maxPollAttempts int
}

func New(client factcheck.Client, factCheckRepo database.FactCheckRepository,
	articleRepo database.ArticleRepository, engine *scoring.Engine,
	pollInterval time.Duration, maxPollAttempts int) *Orchestrator {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if maxPollAttempts <= 0 {
		maxPollAttempts = DefaultMaxPollAttempts
	}
	return &Orchestrator{
		client:          client,
		factCheckRepo:   factCheckRepo,
		articleRepo:     articleRepo,
		engine:          engine,
		pollInterval:    pollInterval,
		maxPollAttempts: maxPollAttempts,
	}
}

// Submit creates the PENDING record and starts a remote job for the
// article. Returns AlreadyCheckedError when a record exists: one fact check
// per article, with the unique constraint as the final authority under
// concurrent submissions. A record left in ERROR by a failed submission
// that never reached the service is reused on retry.
func (o *Orchestrator) Submit(ctx context.Context, articleID, url string, mode factcheck.Mode) (string, error) {
	article, err := o.articleRepo.GetByID(articleID)
	if err != nil {
		return "", fmt.Errorf("failed to load article: %w", err)
	}
	if article == nil {
		return "", &ArticleNotFoundError{ArticleID: articleID}
	}

	if url == "" {
		url = article.URL
	}
	if !mode.Valid() {
		mode = factcheck.ModeStandard
	}

	fc, err := o.claimArticle(articleID, mode)
	if err != nil {
		return "", err
	}

	resp, err := o.client.Submit(ctx, factcheck.SubmitRequest{URL: url, Mode: mode})
	if err != nil {
		if markErr := o.factCheckRepo.MarkTerminal(fc.ID, database.StatusError, string(scoring.VerdictError), err.Error()); markErr != nil {
			slog.Error("Failed to mark fact check errored after submit failure", "article_id", articleID, "error", markErr)
		}
		return "", &FactCheckAPIError{Op: "submit", Err: err}
	}

	if err := o.factCheckRepo.SetSubmitted(fc.ID, resp.JobID); err != nil {
		return "", fmt.Errorf("failed to record job id: %w", err)
	}

	slog.Info("Fact check job submitted",
		"article_id", articleID,
		"job_id", resp.JobID,
		"mode", string(mode),
		"estimated_seconds", resp.EstimatedTimeSeconds)

	return resp.JobID, nil
}

// claimArticle wins or loses the check-then-insert race for the article's
// single fact-check record.
func (o *Orchestrator) claimArticle(articleID string, mode factcheck.Mode) (*database.ArticleFactCheck, error) {
	existing, err := o.factCheckRepo.GetByArticleID(articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing fact check: %w", err)
	}

	if existing != nil {
		// A failed submission that never obtained a job id is resumable;
		// everything else means the article is taken.
		if existing.Status == database.StatusError && existing.JobID == "" {
			if err := o.factCheckRepo.ResetForRetry(existing.ID); err != nil {
				return nil, fmt.Errorf("failed to reset fact check for retry: %w", err)
			}
			return existing, nil
		}
		return nil, &AlreadyCheckedError{ArticleID: articleID}
	}

	fc, err := o.factCheckRepo.Insert(articleID, string(mode))
	if err == database.ErrDuplicateFactCheck {
		return nil, &AlreadyCheckedError{ArticleID: articleID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create fact check record: %w", err)
	}

	return fc, nil
}

// Poll performs a single non-blocking status check against the external
// service.
func (o *Orchestrator) Poll(ctx context.Context, jobID string) (factcheck.JobStatus, error) {
	status, err := o.client.Status(ctx, jobID)
	if err != nil {
		return "", &FactCheckAPIError{Op: "status", Err: err}
	}
	return status.Status, nil
}

// RunToCompletion polls the job on a fixed interval until it reaches a
// terminal state, the attempt budget runs out, or ctx is done. The record
// always ends in exactly one of COMPLETED, ERROR, TIMEOUT, or CANCELLED;
// calling it on an already-terminal record is a no-op.
func (o *Orchestrator) RunToCompletion(ctx context.Context, jobID string) (*database.ArticleFactCheck, error) {
	fc, err := o.factCheckRepo.GetByJobID(jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load fact check for job: %w", err)
	}
	if fc == nil {
		return nil, fmt.Errorf("no fact check record for job %s", jobID)
	}
	if fc.Status.Terminal() {
		return fc, nil
	}

	if err := o.factCheckRepo.SetPolling(fc.ID); err != nil {
		return nil, fmt.Errorf("failed to enter polling state: %w", err)
	}

	for attempt := 1; attempt <= o.maxPollAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return o.finishInterrupted(fc, jobID, err)
		}

		status, err := o.client.Status(ctx, jobID)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return o.finishInterrupted(fc, jobID, ctxErr)
			}
			// Transient poll failures consume an attempt and wait out the
			// interval like any non-terminal status.
			slog.Warn("Fact check status poll failed", "job_id", jobID, "attempt", attempt, "error", err)
		} else {
			switch status.Status {
			case factcheck.JobStatusFinished:
				return o.complete(ctx, fc, jobID)
			case factcheck.JobStatusFailed:
				if err := o.factCheckRepo.MarkTerminal(fc.ID, database.StatusError, string(scoring.VerdictError), status.ErrorMessage); err != nil {
					return nil, fmt.Errorf("failed to mark fact check errored: %w", err)
				}
				slog.Info("Fact check job failed remotely", "job_id", jobID, "error_message", status.ErrorMessage)
				return o.reload(fc), fmt.Errorf("fact check job %s failed: %s", jobID, status.ErrorMessage)
			default:
				slog.Debug("Fact check job still running",
					"job_id", jobID, "status", string(status.Status),
					"phase", status.Phase, "attempt", attempt)
			}
		}

		select {
		case <-ctx.Done():
			return o.finishInterrupted(fc, jobID, ctx.Err())
		case <-time.After(o.pollInterval):
		}
	}

	o.cancelRemote(jobID)
	if err := o.factCheckRepo.MarkTerminal(fc.ID, database.StatusTimeout, string(scoring.VerdictTimeout), "poll attempt budget exhausted"); err != nil {
		return nil, fmt.Errorf("failed to mark fact check timed out: %w", err)
	}

	return o.reload(fc), &FactCheckTimeoutError{JobID: jobID, Attempts: o.maxPollAttempts}
}

// Cancel issues a best-effort remote cancellation and marks the local
// record CANCELLED unless it is already terminal.
func (o *Orchestrator) Cancel(ctx context.Context, jobID string) error {
	o.cancelRemote(jobID)

	fc, err := o.factCheckRepo.GetByJobID(jobID)
	if err != nil {
		return fmt.Errorf("failed to load fact check for job: %w", err)
	}
	if fc == nil {
		return fmt.Errorf("no fact check record for job %s", jobID)
	}
	if fc.Status.Terminal() {
		return nil
	}

	if err := o.factCheckRepo.MarkTerminal(fc.ID, database.StatusCancelled, string(scoring.VerdictCancelled), "cancelled by caller"); err != nil {
		return fmt.Errorf("failed to mark fact check cancelled: %w", err)
	}

	return nil
}

// Abandon persists ERROR on a job left non-terminal after its retry
// budget is spent. Called by the task runner after the final retryable
// failure; no-op on records that already reached a terminal state.
func (o *Orchestrator) Abandon(jobID, reason string) error {
	fc, err := o.factCheckRepo.GetByJobID(jobID)
	if err != nil {
		return fmt.Errorf("failed to load fact check for job: %w", err)
	}
	if fc == nil {
		return fmt.Errorf("no fact check record for job %s", jobID)
	}
	if fc.Status.Terminal() {
		return nil
	}

	if err := o.factCheckRepo.MarkTerminal(fc.ID, database.StatusError, string(scoring.VerdictError), reason); err != nil {
		return fmt.Errorf("failed to mark fact check errored: %w", err)
	}

	slog.Info("Fact check abandoned after retries", "job_id", jobID, "reason", reason)

	return nil
}

// finishInterrupted classifies a done context: a deadline is a TIMEOUT,
// an explicit cancellation is CANCELLED. Both issue a best-effort remote
// cancel before persisting.
func (o *Orchestrator) finishInterrupted(fc *database.ArticleFactCheck, jobID string, ctxErr error) (*database.ArticleFactCheck, error) {
	o.cancelRemote(jobID)

	if ctxErr == context.DeadlineExceeded {
		if err := o.factCheckRepo.MarkTerminal(fc.ID, database.StatusTimeout, string(scoring.VerdictTimeout), "deadline exceeded"); err != nil {
			return nil, fmt.Errorf("failed to mark fact check timed out: %w", err)
		}
		return o.reload(fc), &FactCheckTimeoutError{JobID: jobID, Attempts: o.maxPollAttempts}
	}

	if err := o.factCheckRepo.MarkTerminal(fc.ID, database.StatusCancelled, string(scoring.VerdictCancelled), "cancelled"); err != nil {
		return nil, fmt.Errorf("failed to mark fact check cancelled: %w", err)
	}
	return o.reload(fc), ctxErr
}

// complete fetches the result payload, scores it, and commits. The only
// path that sets the article's fact_check_score cache field.
func (o *Orchestrator) complete(ctx context.Context, fc *database.ArticleFactCheck, jobID string) (*database.ArticleFactCheck, error) {
	result, err := o.client.Result(ctx, jobID)
	if err != nil {
		// The job finished remotely; only the fetch failed. Leave the
		// record in POLLING so a retried run can resume by job id instead
		// of losing the verdict. Abandon persists ERROR once retries are
		// spent.
		slog.Warn("Fact check result fetch failed", "job_id", jobID, "error", err)
		return nil, &FactCheckAPIError{Op: "result", Err: err}
	}

	claims := make([]scoring.ClaimVerdict, 0, len(result.Claims))
	for _, c := range result.Claims {
		claims = append(claims, scoring.ClaimVerdict{
			Verdict:    normalizeVerdict(c.Verdict),
			Confidence: c.Confidence,
		})
	}

	score := o.engine.ComputeCredibilityScore(claims)
	counts := o.engine.ClaimCounts(claims)

	verdict := normalizeVerdict(result.Verdict)
	if result.Verdict == "" {
		verdict = o.engine.DominantVerdict(claims)
	}

	processingSeconds := 0
	if fc.SubmittedAt != nil {
		processingSeconds = int(time.Since(*fc.SubmittedAt).Seconds())
	}

	completed := database.CompletedFactCheck{
		Verdict:               string(verdict),
		CredibilityScore:      score,
		Confidence:            result.Confidence,
		Summary:               result.Summary,
		Counts:                counts,
		ValidationData:        result.Raw,
		NumSources:            result.NumSources,
		SourceConsensus:       result.SourceConsensus,
		ProcessingTimeSeconds: processingSeconds,
	}

	if err := o.factCheckRepo.Complete(fc.ID, completed); err != nil {
		return nil, fmt.Errorf("failed to persist fact check result: %w", err)
	}

	now := time.Now().UTC()
	if err := o.articleRepo.UpdateFactCheckCache(fc.ArticleID, score, string(verdict), now); err != nil {
		return nil, fmt.Errorf("failed to update article cache fields: %w", err)
	}

	slog.Info("Fact check completed",
		"article_id", fc.ArticleID,
		"job_id", jobID,
		"verdict", string(verdict),
		"score", score,
		"claims", counts.Analyzed,
		"processing_seconds", processingSeconds)

	return o.reload(fc), nil
}

func (o *Orchestrator) cancelRemote(jobID string) {
	// Detached context: the caller's may already be done.
	cancelCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := o.client.Cancel(cancelCtx, jobID); err != nil {
		slog.Warn("Best-effort remote cancel failed", "job_id", jobID, "error", err)
	}
}

func (o *Orchestrator) reload(fc *database.ArticleFactCheck) *database.ArticleFactCheck {
	fresh, err := o.factCheckRepo.GetByArticleID(fc.ArticleID)
	if err != nil || fresh == nil {
		return fc
	}
	return fresh
}

// normalizeVerdict maps service verdict spellings onto the fixed
// vocabulary, e.g. "mostly true" -> MOSTLY_TRUE.
func normalizeVerdict(v string) scoring.Verdict {
	normalized := strings.ToUpper(strings.TrimSpace(v))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.ReplaceAll(normalized, "-", "_")
	if normalized == "" {
		return scoring.VerdictUnverified
	}
	return scoring.Verdict(normalized)
}
