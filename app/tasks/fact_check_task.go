package tasks

import (
	"context"
	"errors"
	"log/slog"

	"github.com/credo-news/credo/app/factcheck"
	"github.com/credo-news/credo/app/orchestrator"
)

// FactCheckTask runs one article through the orchestrator: submit the
// remote job, then poll it to a terminal state. Idempotent: an article
// that already has a fact-check record is a clean no-op, so re-enqueuing
// the same article is always safe.
type FactCheckTask struct {
	Task
	ArticleID    string
	URL          string
	Mode         factcheck.Mode
	orchestrator *orchestrator.Orchestrator

	// jobID survives retries: a re-executed task resumes polling the
	// in-flight job instead of re-submitting the article.
	jobID string
}

func NewFactCheckTask(articleID, url string, mode factcheck.Mode, orch *orchestrator.Orchestrator) *FactCheckTask {
	return &FactCheckTask{
		Task:         NewTask(TaskTypeFactCheck, articleID),
		ArticleID:    articleID,
		URL:          url,
		Mode:         mode,
		orchestrator: orch,
	}
}

func (t *FactCheckTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if t.jobID == "" {
		jobID, err := t.orchestrator.Submit(ctx, t.ArticleID, t.URL, t.Mode)
		if err != nil {
			var already *orchestrator.AlreadyCheckedError
			if errors.As(err, &already) {
				slog.Debug("Article already fact checked, skipping", "article_id", t.ArticleID)
				return nil
			}
			return err
		}
		t.jobID = jobID
	}

	fc, err := t.orchestrator.RunToCompletion(ctx, t.jobID)
	if err != nil {
		var timeoutErr *orchestrator.FactCheckTimeoutError
		if errors.As(err, &timeoutErr) {
			// Persisted as TIMEOUT; not retried automatically, a manual
			// re-trigger is the recovery path.
			slog.Warn("Fact check timed out",
				"article_id", t.ArticleID,
				"job_id", t.jobID,
				"attempts", timeoutErr.Attempts)
			return nil
		}
		if orchestrator.IsRetryable(err) && !t.CanRetry() {
			// Last attempt: the record must not stay non-terminal.
			if abandonErr := t.orchestrator.Abandon(t.jobID, err.Error()); abandonErr != nil {
				slog.Error("Failed to abandon fact check", "job_id", t.jobID, "error", abandonErr)
			}
		}
		return err
	}

	slog.Info("Task completed",
		"type", "FactCheck",
		"article_id", t.ArticleID,
		"job_id", t.jobID,
		"status", string(fc.Status),
		"verdict", fc.Verdict,
		"duration", t.GetDuration())

	return nil
}
