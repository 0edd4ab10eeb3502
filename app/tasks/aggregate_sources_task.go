package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/credo-news/credo/app/aggregator"
	"github.com/credo-news/credo/app/database"
)

// AggregateSourcesTask recomputes one period type's source credibility
// windows. Safe to re-run: the aggregator upserts on the window key.
type AggregateSourcesTask struct {
	Task
	PeriodType database.PeriodType
	aggregator *aggregator.Aggregator
}

func NewAggregateSourcesTask(periodType database.PeriodType, agg *aggregator.Aggregator) *AggregateSourcesTask {
	return &AggregateSourcesTask{
		Task:       NewTask(TaskTypeAggregateSources, string(periodType)),
		PeriodType: periodType,
		aggregator: agg,
	}
}

func (t *AggregateSourcesTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := t.aggregator.Run(ctx, t.PeriodType, time.Now().UTC()); err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", "AggregateSources",
		"period_type", string(t.PeriodType),
		"duration", t.GetDuration())

	return nil
}
