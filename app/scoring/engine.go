package scoring

// NeutralScore is the score assigned when the verdict set carries no
// positive confidence: insufficient signal, not a penalty.
const NeutralScore = 50

var defaultBaseScores = map[Verdict]int{
	VerdictTrue:           100,
	VerdictMostlyTrue:     85,
	VerdictPartiallyTrue:  70,
	VerdictUnverified:     50,
	VerdictMisleading:     30,
	VerdictFalse:          10,
	VerdictMisinformation: 0,
}

type ratingThreshold struct {
	min    float64
	rating Rating
}

var defaultRatingThresholds = []ratingThreshold{
	{90, RatingExcellent},
	{75, RatingGood},
	{60, RatingFair},
	{40, RatingPoor},
}

// Engine maps verdict payloads to credibility scores. All methods are pure
// and safe for concurrent use; the base-score table and rating thresholds
// are fixed at construction.
type Engine struct {
	baseScores map[Verdict]int
	thresholds []ratingThreshold
}

func NewEngine() *Engine {
	return &Engine{
		baseScores: defaultBaseScores,
		thresholds: defaultRatingThresholds,
	}
}

// NewEngineWithScores builds an engine with a custom base-score table,
// e.g. from a scoring profile file. Verdicts missing from the table fall
// back to the defaults; unknown verdicts score as UNVERIFIED.
func NewEngineWithScores(scores map[Verdict]int) *Engine {
	merged := make(map[Verdict]int, len(defaultBaseScores))
	for v, s := range defaultBaseScores {
		merged[v] = s
	}
	for v, s := range scores {
		merged[v] = clampInt(s, 0, 100)
	}
	return &Engine{
		baseScores: merged,
		thresholds: defaultRatingThresholds,
	}
}

// ComputeCredibilityScore returns the confidence-weighted average of the
// per-claim base scores, clamped to [0,100]. Claims with non-positive
// confidence contribute nothing; if no claim carries positive confidence
// the result is NeutralScore.
func (e *Engine) ComputeCredibilityScore(claims []ClaimVerdict) int {
	var weighted, totalConfidence float64
	for _, c := range claims {
		if c.Confidence <= 0 {
			continue
		}
		weighted += float64(e.baseScore(c.Verdict)) * c.Confidence
		totalConfidence += c.Confidence
	}

	if totalConfidence == 0 {
		return NeutralScore
	}

	return clampInt(int(weighted/totalConfidence+0.5), 0, 100)
}

// DominantVerdict returns the verdict carrying the largest share of total
// confidence across the claim set. Ties resolve toward the less favorable
// verdict so an article is never labeled better than its worst half.
func (e *Engine) DominantVerdict(claims []ClaimVerdict) Verdict {
	weights := make(map[Verdict]float64)
	for _, c := range claims {
		if c.Confidence <= 0 {
			continue
		}
		weights[c.Verdict] += c.Confidence
	}

	if len(weights) == 0 {
		return VerdictUnverified
	}

	dominant := VerdictUnverified
	best := -1.0
	for verdict, weight := range weights {
		if weight > best || (weight == best && e.baseScore(verdict) < e.baseScore(dominant)) {
			dominant = verdict
			best = weight
		}
	}

	return dominant
}

// ClaimCounts tallies the claim set into the per-verdict buckets persisted
// on a fact-check record. Validated counts every claim with a recognized
// non-UNVERIFIED verdict.
func (e *Engine) ClaimCounts(claims []ClaimVerdict) Counts {
	counts := Counts{Analyzed: len(claims)}
	for _, c := range claims {
		switch c.Verdict {
		case VerdictTrue, VerdictMostlyTrue:
			counts.True++
			counts.Validated++
		case VerdictFalse, VerdictMisinformation:
			counts.False++
			counts.Validated++
		case VerdictMisleading, VerdictPartiallyTrue:
			counts.Misleading++
			counts.Validated++
		default:
			counts.Unverified++
		}
	}
	return counts
}

// AssignRating maps a 0-100 accuracy score onto the fixed rating bands.
func (e *Engine) AssignRating(score float64) Rating {
	for _, t := range e.thresholds {
		if score >= t.min {
			return t.rating
		}
	}
	return RatingFailing
}

// SourceTally holds the per-verdict article buckets for one source within
// one aggregation window.
type SourceTally struct {
	Verified   int
	False      int
	Misleading int
	Unverified int
}

func (t SourceTally) Total() int {
	return t.Verified + t.False + t.Misleading + t.Unverified
}

// AccuracyScore computes the windowed source accuracy:
//
//	(100*verified + 50*misleading + 70*unverified - 50*false) / total
//
// clamped to [0,100]. A source with no checked articles scores neutral.
func (e *Engine) AccuracyScore(tally SourceTally) float64 {
	total := tally.Total()
	if total == 0 {
		return NeutralScore
	}

	raw := (100*float64(tally.Verified) +
		50*float64(tally.Misleading) +
		70*float64(tally.Unverified) -
		50*float64(tally.False)) / float64(total)

	if raw < 0 {
		return 0
	}
	if raw > 100 {
		return 100
	}
	return raw
}

func (e *Engine) baseScore(v Verdict) int {
	if s, ok := e.baseScores[v]; ok {
		return s
	}
	return e.baseScores[VerdictUnverified]
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
