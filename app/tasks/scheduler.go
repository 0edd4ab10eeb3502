package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/credo-news/credo/app/aggregator"
	"github.com/credo-news/credo/app/cfg"
	"github.com/credo-news/credo/app/database"
	"github.com/credo-news/credo/app/factcheck"
	"github.com/credo-news/credo/app/orchestrator"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// uncheckedSweepLimit caps how many unchecked articles one sweep enqueues,
// keeping queue pressure bounded by the worker pool drain rate.
const uncheckedSweepLimit = 50

// Scheduler runs the worker pool that executes fact-check and aggregation
// tasks. A ticker sweeps articles without a fact-check record into the
// queue; a cron entry enqueues the recurring aggregation passes. Each
// fact-check task occupies one worker for the full polling duration.
type Scheduler struct {
	orchestrator *orchestrator.Orchestrator
	aggregator   *aggregator.Aggregator
	articleRepo  database.ArticleRepository
	defaultMode  factcheck.Mode
	interval     time.Duration
	workerCount  int
	taskTimeout  time.Duration
	cronSchedule string
	cron         *cron.Cron
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	taskQueue    chan TaskInterface
}

func NewScheduler(orch *orchestrator.Orchestrator, agg *aggregator.Aggregator,
	articleRepo database.ArticleRepository) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	// A fact-check task blocks for up to the whole poll budget, so the
	// per-task timeout has to sit above it.
	pollBudget := time.Duration(cfg.PollIntervalSeconds*cfg.MaxPollAttempts) * time.Second

	return &Scheduler{
		orchestrator: orch,
		aggregator:   agg,
		articleRepo:  articleRepo,
		defaultMode:  factcheck.Mode(cfg.FactCheckMode),
		interval:     time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount:  cfg.WorkerCount,
		taskTimeout:  pollBudget + 2*time.Minute,
		cronSchedule: cfg.AggregationSchedule,
		cron:         cron.New(),
		ctx:          ctx,
		cancel:       cancel,
		taskQueue:    make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueUncheckedArticles()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueUncheckedArticles()
			}
		}
	}()

	if _, err := s.cron.AddFunc(s.cronSchedule, s.enqueueAggregationTasks); err != nil {
		slog.Error("Invalid aggregation schedule, periodic aggregation disabled",
			"schedule", s.cronSchedule, "error", err)
	} else {
		s.cron.Start()
		slog.Info("Aggregation schedule registered", "schedule", s.cronSchedule)
	}
}

func (s *Scheduler) Stop() {
	cronCtx := s.cron.Stop()
	<-cronCtx.Done()
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// TriggerFactCheck enqueues a fact check for an article without blocking.
// Errors are swallowed after logging: article creation must never fail
// because of fact-check issues.
func (s *Scheduler) TriggerFactCheck(articleID, url string, mode string) {
	m := factcheck.Mode(mode)
	if !m.Valid() {
		m = s.defaultMode
	}

	task := NewFactCheckTask(articleID, url, m, s.orchestrator)
	if err := s.EnqueueTask(task); err != nil {
		slog.Error("Failed to enqueue fact check", "article_id", articleID, "error", err)
	}
}

// enqueueUncheckedArticles sweeps articles that never got a fact-check
// record into the queue. Duplicate enqueues across sweeps are harmless:
// the record uniqueness guard turns the losers into no-ops.
func (s *Scheduler) enqueueUncheckedArticles() {
	articles, err := s.articleRepo.ListUnchecked(uncheckedSweepLimit)
	if err != nil {
		slog.Warn("Failed to list unchecked articles", "error", err)
		return
	}

	if len(articles) == 0 {
		slog.Debug("No unchecked articles found")
		return
	}

	slog.Debug("Enqueueing unchecked articles", "count", len(articles))

	for _, article := range articles {
		task := NewFactCheckTask(article.ID, article.URL, s.defaultMode, s.orchestrator)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue FactCheckTask", "article_id", article.ID, "error", err)
			return
		}
	}
}

func (s *Scheduler) enqueueAggregationTasks() {
	for _, periodType := range []database.PeriodType{
		database.PeriodDaily, database.PeriodWeekly, database.PeriodMonthly, database.PeriodAllTime,
	} {
		task := NewAggregateSourcesTask(periodType, s.aggregator)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue AggregateSourcesTask", "period_type", string(periodType), "error", err)
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, s.taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "subject", task.GetSubject(), "retry_count", task.GetRetryCount(), "error", err)

	if !orchestrator.IsRetryable(err) {
		slog.Debug("Task error is not retryable", "type", string(task.GetType()), "id", task.GetID())
		return
	}

	if !task.CanRetry() {
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		return
	}

	task.IncrementRetryCount()
	retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Minute

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "subject", task.GetSubject(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	// Tracked in the WaitGroup so Stop cannot close the queue while a
	// fired retry is enqueueing.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		timer := time.NewTimer(retryDelay)
		defer timer.Stop()

		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
			return
		case <-timer.C:
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			}
		}
	}()
}
