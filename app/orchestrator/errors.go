package orchestrator

import (
	"errors"
	"fmt"
)

// AlreadyCheckedError is returned when a fact-check record already exists
// for the article. Local and non-retryable: checks are permanent.
type AlreadyCheckedError struct {
	ArticleID string
}

func (e *AlreadyCheckedError) Error() string {
	return fmt.Sprintf("article %s already has a fact check", e.ArticleID)
}

// ArticleNotFoundError is returned when the referenced article does not
// exist. Local and non-retryable.
type ArticleNotFoundError struct {
	ArticleID string
}

func (e *ArticleNotFoundError) Error() string {
	return fmt.Sprintf("article %s not found", e.ArticleID)
}

// FactCheckAPIError wraps a transport or 5xx failure from the external
// service. The task runner retries these with backoff; nothing else does.
type FactCheckAPIError struct {
	Op  string
	Err error
}

func (e *FactCheckAPIError) Error() string {
	return fmt.Sprintf("fact check API %s failed: %v", e.Op, e.Err)
}

func (e *FactCheckAPIError) Unwrap() error {
	return e.Err
}

// FactCheckTimeoutError signals poll budget or deadline exhaustion while
// the remote job stayed non-terminal. Not retried automatically; surfaced
// for manual re-trigger.
type FactCheckTimeoutError struct {
	JobID    string
	Attempts int
}

func (e *FactCheckTimeoutError) Error() string {
	return fmt.Sprintf("fact check job %s did not finish within %d poll attempts", e.JobID, e.Attempts)
}

// IsRetryable reports whether the task runner may re-enqueue the work that
// produced err. Only remote API failures qualify.
func IsRetryable(err error) bool {
	var apiErr *FactCheckAPIError
	return errors.As(err, &apiErr)
}
