package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultHighRiskMaxScore is the score at or below which a completed
// fact check marks its article high-risk.
const DefaultHighRiskMaxScore = 40

// Load reads an optional scoring profile. An empty path returns the
// defaults, so the profile file is never required.
func Load(path string) (*Profile, error) {
	profile := &Profile{
		Aggregation: AggregationSettings{HighRiskMaxScore: DefaultHighRiskMaxScore},
	}

	if path == "" {
		return profile, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scoring profile: %w", err)
	}

	if err := yaml.Unmarshal(data, profile); err != nil {
		return nil, fmt.Errorf("failed to parse scoring profile: %w", err)
	}

	if err := validate(profile); err != nil {
		return nil, fmt.Errorf("invalid scoring profile %s: %w", path, err)
	}

	if profile.Aggregation.HighRiskMaxScore == 0 {
		profile.Aggregation.HighRiskMaxScore = DefaultHighRiskMaxScore
	}

	return profile, nil
}

func validate(profile *Profile) error {
	for verdict, score := range profile.Scoring.VerdictScores {
		if score < 0 || score > 100 {
			return fmt.Errorf("verdict %s score %d out of range [0,100]", verdict, score)
		}
	}

	if profile.Aggregation.HighRiskMaxScore < 0 || profile.Aggregation.HighRiskMaxScore > 100 {
		return fmt.Errorf("high_risk_max_score %d out of range [0,100]", profile.Aggregation.HighRiskMaxScore)
	}

	return nil
}
