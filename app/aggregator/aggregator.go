package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/credo-news/credo/app/database"
	"github.com/credo-news/credo/app/scoring"
)

// trendDeadBand is the score delta below which period-over-period movement
// reads as STABLE.
const trendDeadBand = 2.0

// Aggregator recomputes rolling per-source accuracy windows from completed
// fact-check records. It is the only writer of source_credibility_scores
// rows; re-running a window with unchanged input is a no-op upsert.
type Aggregator struct {
	sourceRepo    database.SourceRepository
	factCheckRepo database.FactCheckRepository
	engine        *scoring.Engine
}

func New(sourceRepo database.SourceRepository, factCheckRepo database.FactCheckRepository,
	engine *scoring.Engine) *Aggregator {
	return &Aggregator{
		sourceRepo:    sourceRepo,
		factCheckRepo: factCheckRepo,
		engine:        engine,
	}
}

// Run recomputes the window containing now for every source, then ranks
// and upserts. Fact checks committing mid-scan roll into the next run;
// the aggregate layer is eventually consistent by design.
func (a *Aggregator) Run(ctx context.Context, periodType database.PeriodType, now time.Time) error {
	sources, err := a.sourceRepo.List()
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}

	start, end := PeriodBounds(periodType, now)

	type scoredSource struct {
		score    *database.SourceCredibilityScore
		category string
	}

	var scored []scoredSource
	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}

		tally, err := a.factCheckRepo.TallyForSource(source.ID, start, end)
		if err != nil {
			return fmt.Errorf("failed to tally source %s: %w", source.ID, err)
		}
		if tally.Total() == 0 {
			continue
		}

		row := a.buildScore(source.ID, periodType, start, now, tally)
		scored = append(scored, scoredSource{score: row, category: source.Category})
	}

	// Rank by accuracy descending, ties broken by checked volume descending.
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i].score, scored[j].score
		if a.AccuracyScore != b.AccuracyScore {
			return a.AccuracyScore > b.AccuracyScore
		}
		return a.ArticlesFactChecked > b.ArticlesFactChecked
	})

	categoryRank := make(map[string]int)
	for i, s := range scored {
		s.score.OverallRank = i + 1
		categoryRank[s.category]++
		s.score.CategoryRank = categoryRank[s.category]
	}

	for _, s := range scored {
		if err := a.sourceRepo.UpsertScore(s.score); err != nil {
			return fmt.Errorf("failed to upsert score for source %s: %w", s.score.SourceID, err)
		}
	}

	slog.Info("Source credibility aggregation completed",
		"period_type", string(periodType),
		"period_start", start.Format("2006-01-02"),
		"sources_scored", len(scored),
		"sources_total", len(sources))

	return nil
}

// RunAll recomputes every period type for the instant now.
func (a *Aggregator) RunAll(ctx context.Context, now time.Time) error {
	for _, periodType := range []database.PeriodType{
		database.PeriodDaily, database.PeriodWeekly, database.PeriodMonthly, database.PeriodAllTime,
	} {
		if err := a.Run(ctx, periodType, now); err != nil {
			return fmt.Errorf("aggregation failed for period %s: %w", periodType, err)
		}
	}
	return nil
}

func (a *Aggregator) buildScore(sourceID string, periodType database.PeriodType,
	start, now time.Time, tally scoring.SourceTally) *database.SourceCredibilityScore {

	total := tally.Total()
	accuracy := a.engine.AccuracyScore(tally)

	row := &database.SourceCredibilityScore{
		SourceID:    sourceID,
		PeriodType:  periodType,
		PeriodStart: start,

		ArticlesFactChecked: total,
		ArticlesVerified:    tally.Verified,
		ArticlesFalse:       tally.False,
		ArticlesMisleading:  tally.Misleading,
		ArticlesUnverified:  tally.Unverified,

		AccuracyScore: accuracy,
		Rating:        string(a.engine.AssignRating(accuracy)),

		VerifiedPct:   pct(tally.Verified, total),
		FalsePct:      pct(tally.False, total),
		MisleadingPct: pct(tally.Misleading, total),
		UnverifiedPct: pct(tally.Unverified, total),

		Trend:      database.TrendStable,
		ComputedAt: now,
	}

	if priorStart, ok := PriorPeriodStart(periodType, now); ok {
		prior, err := a.sourceRepo.GetScore(sourceID, periodType, priorStart)
		if err != nil {
			slog.Warn("Failed to load prior period score", "source_id", sourceID, "period_type", string(periodType), "error", err)
		} else if prior != nil {
			row.ScoreChange = accuracy - prior.AccuracyScore
			row.Trend = classifyTrend(row.ScoreChange)
		}
	}

	return row
}

func classifyTrend(delta float64) string {
	switch {
	case delta > trendDeadBand:
		return database.TrendImproving
	case delta < -trendDeadBand:
		return database.TrendDeclining
	default:
		return database.TrendStable
	}
}

func pct(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(part) / float64(total)
}
