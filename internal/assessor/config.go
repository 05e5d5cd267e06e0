package assessor

// Config holds runtime settings for the assessor. Keep small initially.
type Config struct {
	// ScoringVersion is echoed in every result so stored checks can be traced
	// back to the heuristics that produced them.
	ScoringVersion string `json:"scoring_version"`

	// RulepackPath optionally replaces the embedded rulepack.
	RulepackPath string `json:"rulepack_path"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() *Config {
	return &Config{
		ScoringVersion: "v1.0.0",
	}
}
