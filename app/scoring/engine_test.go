package scoring

import (
	"testing"
)

func TestComputeCredibilityScore_ZeroConfidence(t *testing.T) {
	engine := NewEngine()

	claims := []ClaimVerdict{
		{Verdict: VerdictTrue, Confidence: 0},
		{Verdict: VerdictFalse, Confidence: -0.5},
	}

	score := engine.ComputeCredibilityScore(claims)
	if score != NeutralScore {
		t.Errorf("Expected neutral score %d with zero total confidence, got %d", NeutralScore, score)
	}

	if score := engine.ComputeCredibilityScore(nil); score != NeutralScore {
		t.Errorf("Expected neutral score %d for empty claim set, got %d", NeutralScore, score)
	}
}

func TestComputeCredibilityScore_SingleTrueClaim(t *testing.T) {
	engine := NewEngine()

	// One TRUE claim at 0.9 confidence: weighted average is exactly the
	// base score regardless of the weight.
	claims := []ClaimVerdict{{Verdict: VerdictTrue, Confidence: 0.9}}

	score := engine.ComputeCredibilityScore(claims)
	if score != 100 {
		t.Errorf("Expected score 100 for a single TRUE claim, got %d", score)
	}
}

func TestComputeCredibilityScore_WeightedMix(t *testing.T) {
	engine := NewEngine()

	// (100*0.8 + 10*0.2) / 1.0 = 82
	claims := []ClaimVerdict{
		{Verdict: VerdictTrue, Confidence: 0.8},
		{Verdict: VerdictFalse, Confidence: 0.2},
	}

	score := engine.ComputeCredibilityScore(claims)
	if score != 82 {
		t.Errorf("Expected weighted score 82, got %d", score)
	}
}

func TestComputeCredibilityScore_Bounds(t *testing.T) {
	engine := NewEngine()

	cases := [][]ClaimVerdict{
		{{Verdict: VerdictMisinformation, Confidence: 1.0}},
		{{Verdict: VerdictTrue, Confidence: 1.0}},
		{{Verdict: VerdictTrue, Confidence: 0.01}, {Verdict: VerdictMisinformation, Confidence: 0.99}},
		{{Verdict: Verdict("SOMETHING_NEW"), Confidence: 0.5}},
	}

	for i, claims := range cases {
		score := engine.ComputeCredibilityScore(claims)
		if score < 0 || score > 100 {
			t.Errorf("Case %d: score %d out of [0,100]", i, score)
		}
	}
}

func TestComputeCredibilityScore_UnknownVerdictScoresNeutral(t *testing.T) {
	engine := NewEngine()

	claims := []ClaimVerdict{{Verdict: Verdict("BIZARRE"), Confidence: 1.0}}
	if score := engine.ComputeCredibilityScore(claims); score != 50 {
		t.Errorf("Expected unknown verdict to score as UNVERIFIED (50), got %d", score)
	}
}

func TestDominantVerdict(t *testing.T) {
	engine := NewEngine()

	claims := []ClaimVerdict{
		{Verdict: VerdictTrue, Confidence: 0.9},
		{Verdict: VerdictTrue, Confidence: 0.8},
		{Verdict: VerdictFalse, Confidence: 0.7},
	}

	if v := engine.DominantVerdict(claims); v != VerdictTrue {
		t.Errorf("Expected TRUE dominant, got %s", v)
	}

	if v := engine.DominantVerdict(nil); v != VerdictUnverified {
		t.Errorf("Expected UNVERIFIED for empty claim set, got %s", v)
	}
}

func TestDominantVerdict_TieBreaksLessFavorable(t *testing.T) {
	engine := NewEngine()

	claims := []ClaimVerdict{
		{Verdict: VerdictTrue, Confidence: 0.5},
		{Verdict: VerdictFalse, Confidence: 0.5},
	}

	if v := engine.DominantVerdict(claims); v != VerdictFalse {
		t.Errorf("Expected tie to resolve to FALSE, got %s", v)
	}
}

func TestClaimCounts(t *testing.T) {
	engine := NewEngine()

	claims := []ClaimVerdict{
		{Verdict: VerdictTrue, Confidence: 0.9},
		{Verdict: VerdictMostlyTrue, Confidence: 0.8},
		{Verdict: VerdictFalse, Confidence: 0.9},
		{Verdict: VerdictMisinformation, Confidence: 0.7},
		{Verdict: VerdictMisleading, Confidence: 0.6},
		{Verdict: VerdictPartiallyTrue, Confidence: 0.5},
		{Verdict: VerdictUnverified, Confidence: 0.1},
	}

	counts := engine.ClaimCounts(claims)

	if counts.Analyzed != 7 {
		t.Errorf("Expected 7 analyzed, got %d", counts.Analyzed)
	}
	if counts.True != 2 {
		t.Errorf("Expected 2 true, got %d", counts.True)
	}
	if counts.False != 2 {
		t.Errorf("Expected 2 false, got %d", counts.False)
	}
	if counts.Misleading != 2 {
		t.Errorf("Expected 2 misleading, got %d", counts.Misleading)
	}
	if counts.Unverified != 1 {
		t.Errorf("Expected 1 unverified, got %d", counts.Unverified)
	}
	if counts.Validated != counts.True+counts.False+counts.Misleading {
		t.Errorf("Validated %d should equal true+false+misleading", counts.Validated)
	}
	if counts.Validated > counts.Analyzed {
		t.Errorf("Validated %d exceeds analyzed %d", counts.Validated, counts.Analyzed)
	}
}

func TestAssignRating(t *testing.T) {
	engine := NewEngine()

	cases := []struct {
		score    float64
		expected Rating
	}{
		{95, RatingExcellent},
		{90, RatingExcellent},
		{89.9, RatingGood},
		{75, RatingGood},
		{74.9, RatingFair},
		{60, RatingFair},
		{59.9, RatingPoor},
		{40, RatingPoor},
		{39.9, RatingFailing},
		{0, RatingFailing},
	}

	for _, tc := range cases {
		if rating := engine.AssignRating(tc.score); rating != tc.expected {
			t.Errorf("Score %.1f: expected %s, got %s", tc.score, tc.expected, rating)
		}
	}
}

func TestAccuracyScore_PublisherScenario(t *testing.T) {
	engine := NewEngine()

	// 10 checked articles: 7 verified, 1 false, 2 misleading.
	// (100*7 + 50*2 + 70*0 - 50*1) / 10 = 75
	tally := SourceTally{Verified: 7, False: 1, Misleading: 2}

	accuracy := engine.AccuracyScore(tally)
	if accuracy != 75 {
		t.Errorf("Expected accuracy 75, got %.2f", accuracy)
	}

	if rating := engine.AssignRating(accuracy); rating != RatingGood {
		t.Errorf("Expected GOOD rating at 75, got %s", rating)
	}
}

func TestAccuracyScore_Clamping(t *testing.T) {
	engine := NewEngine()

	// All false: (0 - 50*10) / 10 = -50, clamps to 0.
	allFalse := SourceTally{False: 10}
	if accuracy := engine.AccuracyScore(allFalse); accuracy != 0 {
		t.Errorf("Expected 0 for all-false tally, got %.2f", accuracy)
	}

	allVerified := SourceTally{Verified: 5}
	if accuracy := engine.AccuracyScore(allVerified); accuracy != 100 {
		t.Errorf("Expected 100 for all-verified tally, got %.2f", accuracy)
	}

	if accuracy := engine.AccuracyScore(SourceTally{}); accuracy != NeutralScore {
		t.Errorf("Expected neutral score for empty tally, got %.2f", accuracy)
	}
}

func TestNewEngineWithScores_Overrides(t *testing.T) {
	engine := NewEngineWithScores(map[Verdict]int{
		VerdictMisleading: 20,
		Verdict("CUSTOM"): 150, // clamped to 100
	})

	claims := []ClaimVerdict{{Verdict: VerdictMisleading, Confidence: 1.0}}
	if score := engine.ComputeCredibilityScore(claims); score != 20 {
		t.Errorf("Expected overridden score 20, got %d", score)
	}

	custom := []ClaimVerdict{{Verdict: Verdict("CUSTOM"), Confidence: 1.0}}
	if score := engine.ComputeCredibilityScore(custom); score != 100 {
		t.Errorf("Expected clamped custom score 100, got %d", score)
	}

	// Untouched verdicts keep defaults
	trueClaims := []ClaimVerdict{{Verdict: VerdictTrue, Confidence: 1.0}}
	if score := engine.ComputeCredibilityScore(trueClaims); score != 100 {
		t.Errorf("Expected default TRUE score 100, got %d", score)
	}
}
