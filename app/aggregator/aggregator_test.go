package aggregator

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/credo-news/credo/app/database"
	"github.com/credo-news/credo/app/scoring"
)

type fakeSourceRepo struct {
	sources []database.Source
	scores  map[string]*database.SourceCredibilityScore
	upserts int
}

func newFakeSourceRepo(sources ...database.Source) *fakeSourceRepo {
	return &fakeSourceRepo{
		sources: sources,
		scores:  make(map[string]*database.SourceCredibilityScore),
	}
}

func scoreKey(sourceID string, periodType database.PeriodType, periodStart time.Time) string {
	return fmt.Sprintf("%s|%s|%s", sourceID, periodType, periodStart.Format("2006-01-02"))
}

func (r *fakeSourceRepo) List() ([]database.Source, error) {
	return r.sources, nil
}

func (r *fakeSourceRepo) GetByID(id string) (*database.Source, error) {
	for _, s := range r.sources {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, nil
}

func (r *fakeSourceRepo) GetScore(sourceID string, periodType database.PeriodType, periodStart time.Time) (*database.SourceCredibilityScore, error) {
	if score, ok := r.scores[scoreKey(sourceID, periodType, periodStart)]; ok {
		clone := *score
		return &clone, nil
	}
	return nil, nil
}

func (r *fakeSourceRepo) GetLatestScore(sourceID string, periodType database.PeriodType) (*database.SourceCredibilityScore, error) {
	return nil, nil
}

func (r *fakeSourceRepo) UpsertScore(score *database.SourceCredibilityScore) error {
	clone := *score
	r.scores[scoreKey(score.SourceID, score.PeriodType, score.PeriodStart)] = &clone
	r.upserts++
	return nil
}

func (r *fakeSourceRepo) Count() (int, error) {
	return len(r.sources), nil
}

// tallyRepo serves canned per-source tallies; the other repository methods
// are unused by the aggregator.
type tallyRepo struct {
	tallies map[string]scoring.SourceTally
}

func (r *tallyRepo) TallyForSource(sourceID string, start, end time.Time) (scoring.SourceTally, error) {
	return r.tallies[sourceID], nil
}

func (r *tallyRepo) Insert(articleID, mode string) (*database.ArticleFactCheck, error) {
	return nil, nil
}
func (r *tallyRepo) GetByArticleID(articleID string) (*database.ArticleFactCheck, error) {
	return nil, nil
}
func (r *tallyRepo) GetByJobID(jobID string) (*database.ArticleFactCheck, error) { return nil, nil }
func (r *tallyRepo) SetSubmitted(id, jobID string) error                         { return nil }
func (r *tallyRepo) SetPolling(id string) error                                  { return nil }
func (r *tallyRepo) ResetForRetry(id string) error                               { return nil }
func (r *tallyRepo) Complete(id string, result database.CompletedFactCheck) error {
	return nil
}
func (r *tallyRepo) MarkTerminal(id string, status database.FactCheckStatus, verdict, message string) error {
	return nil
}
func (r *tallyRepo) ListHighRisk(since time.Time, maxScore, limit int) ([]database.HighRiskArticle, error) {
	return nil, nil
}
func (r *tallyRepo) CountByStatus() (map[string]int, error) { return nil, nil }

var testNow = time.Date(2025, 6, 18, 14, 30, 0, 0, time.UTC) // a Wednesday

func TestRun_ScoresAndRanksSources(t *testing.T) {
	sourceRepo := newFakeSourceRepo(
		database.Source{ID: "reliable", Category: "news"},
		database.Source{ID: "tabloid", Category: "news"},
		database.Source{ID: "blog", Category: "opinion"},
	)
	fcRepo := &tallyRepo{tallies: map[string]scoring.SourceTally{
		"reliable": {Verified: 7, False: 1, Misleading: 2},
		"tabloid":  {Verified: 1, False: 6, Misleading: 3},
		"blog":     {Verified: 3, Unverified: 1},
	}}
	agg := New(sourceRepo, fcRepo, scoring.NewEngine())

	if err := agg.Run(context.Background(), database.PeriodWeekly, testNow); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	start, _ := PeriodBounds(database.PeriodWeekly, testNow)

	reliable, _ := sourceRepo.GetScore("reliable", database.PeriodWeekly, start)
	if reliable == nil {
		t.Fatal("Expected score row for reliable")
	}
	if reliable.AccuracyScore != 75 {
		t.Errorf("Expected accuracy 75, got %.1f", reliable.AccuracyScore)
	}
	if reliable.Rating != string(scoring.RatingGood) {
		t.Errorf("Expected GOOD rating, got %s", reliable.Rating)
	}
	if reliable.ArticlesFactChecked != 10 {
		t.Errorf("Expected 10 checked articles, got %d", reliable.ArticlesFactChecked)
	}

	// blog: (100*3 + 70*1) / 4 = 92.5, the best accuracy.
	blog, _ := sourceRepo.GetScore("blog", database.PeriodWeekly, start)
	if blog.OverallRank != 1 {
		t.Errorf("Expected blog at overall rank 1, got %d", blog.OverallRank)
	}
	if blog.CategoryRank != 1 {
		t.Errorf("Expected blog at category rank 1, got %d", blog.CategoryRank)
	}
	if reliable.OverallRank != 2 {
		t.Errorf("Expected reliable at overall rank 2, got %d", reliable.OverallRank)
	}
	if reliable.CategoryRank != 1 {
		t.Errorf("Expected reliable first in its category, got %d", reliable.CategoryRank)
	}

	tabloid, _ := sourceRepo.GetScore("tabloid", database.PeriodWeekly, start)
	if tabloid.OverallRank != 3 {
		t.Errorf("Expected tabloid at overall rank 3, got %d", tabloid.OverallRank)
	}
	if tabloid.CategoryRank != 2 {
		t.Errorf("Expected tabloid second in news, got %d", tabloid.CategoryRank)
	}
}

func TestRun_BucketSumInvariant(t *testing.T) {
	sourceRepo := newFakeSourceRepo(database.Source{ID: "s1", Category: "news"})
	fcRepo := &tallyRepo{tallies: map[string]scoring.SourceTally{
		"s1": {Verified: 4, False: 2, Misleading: 1, Unverified: 3},
	}}
	agg := New(sourceRepo, fcRepo, scoring.NewEngine())

	if err := agg.Run(context.Background(), database.PeriodDaily, testNow); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	start, _ := PeriodBounds(database.PeriodDaily, testNow)
	row, _ := sourceRepo.GetScore("s1", database.PeriodDaily, start)

	sum := row.ArticlesVerified + row.ArticlesFalse + row.ArticlesMisleading + row.ArticlesUnverified
	if sum != row.ArticlesFactChecked {
		t.Errorf("Bucket sum %d != total %d", sum, row.ArticlesFactChecked)
	}

	pctSum := row.VerifiedPct + row.FalsePct + row.MisleadingPct + row.UnverifiedPct
	if pctSum < 99.9 || pctSum > 100.1 {
		t.Errorf("Percentages should sum to 100, got %.2f", pctSum)
	}
}

func TestRun_SkipsSourcesWithoutFactChecks(t *testing.T) {
	sourceRepo := newFakeSourceRepo(
		database.Source{ID: "active", Category: "news"},
		database.Source{ID: "silent", Category: "news"},
	)
	fcRepo := &tallyRepo{tallies: map[string]scoring.SourceTally{
		"active": {Verified: 2},
	}}
	agg := New(sourceRepo, fcRepo, scoring.NewEngine())

	if err := agg.Run(context.Background(), database.PeriodDaily, testNow); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	start, _ := PeriodBounds(database.PeriodDaily, testNow)
	if row, _ := sourceRepo.GetScore("silent", database.PeriodDaily, start); row != nil {
		t.Error("Expected no row for a source with zero checked articles")
	}
	if row, _ := sourceRepo.GetScore("active", database.PeriodDaily, start); row == nil {
		t.Error("Expected a row for the active source")
	}
}

func TestRun_RerunOverwritesInPlace(t *testing.T) {
	sourceRepo := newFakeSourceRepo(database.Source{ID: "s1", Category: "news"})
	fcRepo := &tallyRepo{tallies: map[string]scoring.SourceTally{
		"s1": {Verified: 5, False: 1},
	}}
	agg := New(sourceRepo, fcRepo, scoring.NewEngine())

	if err := agg.Run(context.Background(), database.PeriodWeekly, testNow); err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	first := len(sourceRepo.scores)

	if err := agg.Run(context.Background(), database.PeriodWeekly, testNow.Add(time.Hour)); err != nil {
		t.Fatalf("Second run failed: %v", err)
	}

	if len(sourceRepo.scores) != first {
		t.Errorf("Re-running the same window must not add rows: %d -> %d", first, len(sourceRepo.scores))
	}
	if sourceRepo.upserts != 2 {
		t.Errorf("Expected 2 upserts, got %d", sourceRepo.upserts)
	}
}

func TestRun_TrendAgainstPriorPeriod(t *testing.T) {
	sourceRepo := newFakeSourceRepo(database.Source{ID: "s1", Category: "news"})
	fcRepo := &tallyRepo{tallies: map[string]scoring.SourceTally{
		"s1": {Verified: 9, False: 1}, // (900-50)/10 = 85
	}}
	agg := New(sourceRepo, fcRepo, scoring.NewEngine())

	priorStart, _ := PriorPeriodStart(database.PeriodWeekly, testNow)
	sourceRepo.scores[scoreKey("s1", database.PeriodWeekly, priorStart)] = &database.SourceCredibilityScore{
		SourceID:      "s1",
		PeriodType:    database.PeriodWeekly,
		PeriodStart:   priorStart,
		AccuracyScore: 70,
	}

	if err := agg.Run(context.Background(), database.PeriodWeekly, testNow); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	start, _ := PeriodBounds(database.PeriodWeekly, testNow)
	row, _ := sourceRepo.GetScore("s1", database.PeriodWeekly, start)
	if row.ScoreChange != 15 {
		t.Errorf("Expected score change 15, got %.1f", row.ScoreChange)
	}
	if row.Trend != database.TrendImproving {
		t.Errorf("Expected IMPROVING trend, got %s", row.Trend)
	}
}

func TestRun_SmallDeltaReadsStable(t *testing.T) {
	sourceRepo := newFakeSourceRepo(database.Source{ID: "s1", Category: "news"})
	fcRepo := &tallyRepo{tallies: map[string]scoring.SourceTally{
		"s1": {Verified: 9, False: 1},
	}}
	agg := New(sourceRepo, fcRepo, scoring.NewEngine())

	priorStart, _ := PriorPeriodStart(database.PeriodWeekly, testNow)
	sourceRepo.scores[scoreKey("s1", database.PeriodWeekly, priorStart)] = &database.SourceCredibilityScore{
		SourceID:      "s1",
		PeriodType:    database.PeriodWeekly,
		PeriodStart:   priorStart,
		AccuracyScore: 84,
	}

	if err := agg.Run(context.Background(), database.PeriodWeekly, testNow); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	start, _ := PeriodBounds(database.PeriodWeekly, testNow)
	row, _ := sourceRepo.GetScore("s1", database.PeriodWeekly, start)
	if row.Trend != database.TrendStable {
		t.Errorf("Expected STABLE inside the dead band, got %s", row.Trend)
	}
}

func TestRunAll_CoversEveryPeriodType(t *testing.T) {
	sourceRepo := newFakeSourceRepo(database.Source{ID: "s1", Category: "news"})
	fcRepo := &tallyRepo{tallies: map[string]scoring.SourceTally{
		"s1": {Verified: 3},
	}}
	agg := New(sourceRepo, fcRepo, scoring.NewEngine())

	if err := agg.RunAll(context.Background(), testNow); err != nil {
		t.Fatalf("RunAll failed: %v", err)
	}

	if len(sourceRepo.scores) != 4 {
		t.Errorf("Expected one row per period type, got %d", len(sourceRepo.scores))
	}
}

func TestPeriodBounds(t *testing.T) {
	cases := []struct {
		periodType database.PeriodType
		now        time.Time
		start      time.Time
		end        time.Time
	}{
		{
			database.PeriodDaily,
			time.Date(2025, 6, 18, 14, 30, 0, 0, time.UTC),
			time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 6, 19, 0, 0, 0, 0, time.UTC),
		},
		{
			// Wednesday maps back to Monday.
			database.PeriodWeekly,
			time.Date(2025, 6, 18, 14, 30, 0, 0, time.UTC),
			time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 6, 23, 0, 0, 0, 0, time.UTC),
		},
		{
			// Sunday belongs to the week started the prior Monday.
			database.PeriodWeekly,
			time.Date(2025, 6, 22, 8, 0, 0, 0, time.UTC),
			time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 6, 23, 0, 0, 0, 0, time.UTC),
		},
		{
			database.PeriodMonthly,
			time.Date(2025, 6, 18, 14, 30, 0, 0, time.UTC),
			time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			database.PeriodAllTime,
			time.Date(2025, 6, 18, 14, 30, 0, 0, time.UTC),
			time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 6, 19, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		start, end := PeriodBounds(tc.periodType, tc.now)
		if !start.Equal(tc.start) {
			t.Errorf("%s: expected start %s, got %s", tc.periodType, tc.start, start)
		}
		if !end.Equal(tc.end) {
			t.Errorf("%s: expected end %s, got %s", tc.periodType, tc.end, end)
		}
	}
}

func TestPriorPeriodStart(t *testing.T) {
	now := time.Date(2025, 6, 18, 14, 30, 0, 0, time.UTC)

	cases := []struct {
		periodType database.PeriodType
		expected   time.Time
		ok         bool
	}{
		{database.PeriodDaily, time.Date(2025, 6, 17, 0, 0, 0, 0, time.UTC), true},
		{database.PeriodWeekly, time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC), true},
		{database.PeriodMonthly, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), true},
		{database.PeriodAllTime, time.Time{}, false},
	}

	for _, tc := range cases {
		start, ok := PriorPeriodStart(tc.periodType, now)
		if ok != tc.ok {
			t.Errorf("%s: expected ok=%v, got %v", tc.periodType, tc.ok, ok)
			continue
		}
		if ok && !start.Equal(tc.expected) {
			t.Errorf("%s: expected prior start %s, got %s", tc.periodType, tc.expected, start)
		}
	}
}
