package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/credo-news/credo/app/cfg"
	"github.com/credo-news/credo/app/database"
	"github.com/credo-news/credo/app/orchestrator"
)

type stubArticleRepo struct {
	unchecked []database.Article
}

func (r *stubArticleRepo) GetByID(id string) (*database.Article, error) { return nil, nil }
func (r *stubArticleRepo) UpdateFactCheckCache(id string, score int, verdict string, checkedAt time.Time) error {
	return nil
}
func (r *stubArticleRepo) ListUnchecked(limit int) ([]database.Article, error) {
	return r.unchecked, nil
}
func (r *stubArticleRepo) Count() (int, error) { return len(r.unchecked), nil }

// stubTask records executions and returns a scripted error.
type stubTask struct {
	Task
	err      error
	executed chan struct{}
}

func newStubTask(err error) *stubTask {
	return &stubTask{
		Task:     NewTask(TaskTypeFactCheck, "article-1"),
		err:      err,
		executed: make(chan struct{}, 8),
	}
}

func (t *stubTask) Execute(ctx context.Context) error {
	t.executed <- struct{}{}
	return t.err
}

func testCfg() *cfg.Cfg {
	return &cfg.Cfg{
		WorkerCount:         2,
		FactCheckMode:       "standard",
		PollIntervalSeconds: 1,
		MaxPollAttempts:     5,
		SchedulerInterval:   3600,
		AggregationSchedule: "30 2 * * *",
	}
}

func newTestScheduler(t *testing.T, articles ...database.Article) *Scheduler {
	t.Helper()
	cfg.Set(testCfg())
	s := NewScheduler(nil, nil, &stubArticleRepo{unchecked: articles}).(*Scheduler)
	return s
}

func TestEnqueueTask(t *testing.T) {
	s := newTestScheduler(t)

	if err := s.EnqueueTask(newStubTask(nil)); err != nil {
		t.Fatalf("EnqueueTask failed: %v", err)
	}
	if len(s.taskQueue) != 1 {
		t.Errorf("Expected 1 queued task, got %d", len(s.taskQueue))
	}
}

func TestEnqueueTask_QueueFull(t *testing.T) {
	s := newTestScheduler(t)
	s.taskQueue = make(chan TaskInterface, 1)

	if err := s.EnqueueTask(newStubTask(nil)); err != nil {
		t.Fatalf("First enqueue failed: %v", err)
	}
	if err := s.EnqueueTask(newStubTask(nil)); err == nil {
		t.Error("Expected error when queue is full")
	}
}

func TestTriggerFactCheck_EnqueuesWithDefaultMode(t *testing.T) {
	s := newTestScheduler(t)

	s.TriggerFactCheck("article-1", "https://example.com/a", "bogus-mode")

	select {
	case queued := <-s.taskQueue:
		fcTask, ok := queued.(*FactCheckTask)
		if !ok {
			t.Fatalf("Expected FactCheckTask, got %T", queued)
		}
		if fcTask.Mode != s.defaultMode {
			t.Errorf("Expected invalid mode replaced by default, got %s", fcTask.Mode)
		}
		if fcTask.ArticleID != "article-1" {
			t.Errorf("Expected article-1, got %s", fcTask.ArticleID)
		}
	default:
		t.Fatal("Expected a queued task")
	}
}

func TestStartExecutesQueuedTasks(t *testing.T) {
	s := newTestScheduler(t)

	task := newStubTask(nil)
	if err := s.EnqueueTask(task); err != nil {
		t.Fatalf("EnqueueTask failed: %v", err)
	}

	s.Start()
	defer s.Stop()

	select {
	case <-task.executed:
	case <-time.After(2 * time.Second):
		t.Fatal("Task was not executed")
	}
}

func TestStartSweepsUncheckedArticles(t *testing.T) {
	cfg.Set(testCfg())
	repo := &stubArticleRepo{unchecked: []database.Article{
		{ID: "a1", URL: "https://example.com/1"},
		{ID: "a2", URL: "https://example.com/2"},
	}}
	s := NewScheduler(nil, nil, repo).(*Scheduler)
	// No workers: queued tasks stay observable.
	s.workerCount = 0

	s.Start()
	defer s.Stop()

	deadline := time.After(2 * time.Second)
	for len(s.taskQueue) < 2 {
		select {
		case <-deadline:
			t.Fatalf("Expected 2 swept tasks, got %d", len(s.taskQueue))
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestExecuteTask_NonRetryableNotRequeued(t *testing.T) {
	s := newTestScheduler(t)

	task := newStubTask(errors.New("permanent failure"))
	s.executeTask(0, task)

	if task.GetRetryCount() != 0 {
		t.Errorf("Expected no retry for non-retryable error, got count %d", task.GetRetryCount())
	}
}

func TestExecuteTask_RetryableIncrementsCount(t *testing.T) {
	s := newTestScheduler(t)

	task := newStubTask(&orchestrator.FactCheckAPIError{Op: "submit", Err: errors.New("connection refused")})
	s.executeTask(0, task)

	if task.GetRetryCount() != 1 {
		t.Errorf("Expected retry count 1 after retryable failure, got %d", task.GetRetryCount())
	}

	s.cancel()
}

func TestStopWaitsForPendingRetry(t *testing.T) {
	s := newTestScheduler(t)

	task := newStubTask(&orchestrator.FactCheckAPIError{Op: "submit", Err: errors.New("connection refused")})
	s.executeTask(0, task)

	// The retry goroutine is armed; Stop must wait it out before closing
	// the queue instead of racing its enqueue.
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return with a retry pending")
	}
}

func TestExecuteTask_RetriesExhausted(t *testing.T) {
	s := newTestScheduler(t)

	task := newStubTask(&orchestrator.FactCheckAPIError{Op: "submit", Err: errors.New("connection refused")})
	task.RetryCount = task.MaxRetries

	s.executeTask(0, task)

	if task.GetRetryCount() != task.GetMaxRetries() {
		t.Errorf("Expected count unchanged at max, got %d", task.GetRetryCount())
	}

	s.cancel()
}
