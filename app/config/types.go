package config

// Profile is an optional scoring profile overriding the built-in verdict
// base scores and aggregation knobs.
type Profile struct {
	Scoring     ScoringSettings     `yaml:"scoring"`
	Aggregation AggregationSettings `yaml:"aggregation"`
}

// ScoringSettings overrides per-verdict base scores, keyed by verdict name
// (e.g. MOSTLY_TRUE: 85). Verdicts not listed keep their defaults.
type ScoringSettings struct {
	VerdictScores map[string]int `yaml:"verdict_scores"`
}

// AggregationSettings tunes the source aggregation windows.
type AggregationSettings struct {
	HighRiskMaxScore int `yaml:"high_risk_max_score"`
}
