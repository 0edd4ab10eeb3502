package scoring

// Verdict is the categorical outcome assigned to a single claim or to a
// whole article. Claim-level verdicts come from the external fact-check
// service; the process verdicts (ERROR, TIMEOUT, CANCELLED) are assigned
// locally when a job terminates without a usable result.
type Verdict string

const (
	VerdictTrue           Verdict = "TRUE"
	VerdictMostlyTrue     Verdict = "MOSTLY_TRUE"
	VerdictPartiallyTrue  Verdict = "PARTIALLY_TRUE"
	VerdictUnverified     Verdict = "UNVERIFIED"
	VerdictMisleading     Verdict = "MISLEADING"
	VerdictFalse          Verdict = "FALSE"
	VerdictMisinformation Verdict = "MISINFORMATION"

	VerdictError     Verdict = "ERROR"
	VerdictTimeout   Verdict = "TIMEOUT"
	VerdictCancelled Verdict = "CANCELLED"
)

// Rating is the categorical band derived from a 0-100 accuracy score.
// Shared between article-level badges and source-level credibility ratings.
type Rating string

const (
	RatingExcellent Rating = "EXCELLENT"
	RatingGood      Rating = "GOOD"
	RatingFair      Rating = "FAIR"
	RatingPoor      Rating = "POOR"
	RatingFailing   Rating = "FAILING"
)

// ClaimVerdict is one fact-checked claim with the service's confidence in
// its verdict.
type ClaimVerdict struct {
	Verdict    Verdict
	Confidence float64
}

// Counts holds per-verdict claim tallies for one article.
type Counts struct {
	Analyzed   int
	Validated  int
	True       int
	False      int
	Misleading int
	Unverified int
}
