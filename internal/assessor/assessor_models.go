package assessor

// Level is the coarse classification derived from a risk score.
type Level string

const (
	LevelSafe    Level = "safe"
	LevelWarning Level = "warning"
	LevelDanger  Level = "danger"

	// LevelUnknown is only produced when the input could not be scored.
	LevelUnknown Level = "unknown"
)

// Severity orders levels; unknown sorts below safe.
func (l Level) Severity() int {
	switch l {
	case LevelSafe:
		return 1
	case LevelWarning:
		return 2
	case LevelDanger:
		return 3
	default:
		return 0
	}
}

// PageSignals are structural observations about the rendered page. They
// adjust, never determine, the URL-based score.
type PageSignals struct {
	HasLoginForm      bool `json:"hasLoginForm"`
	HiddenIframeCount int  `json:"hiddenIframeCount"`
}

// RiskInput is one evaluation request.
type RiskInput struct {
	URL         string       `json:"url"`
	PageSignals *PageSignals `json:"pageSignals,omitempty"`
}

// EvidenceItem explains one triggered rule.
type EvidenceItem struct {
	// RuleID identifies the rule that produced this evidence.
	RuleID string `json:"ruleId"`

	// Description is the human-readable text also listed in Risks or SafeIndicators.
	Description string `json:"description"`

	// Points is the signed score contribution of this rule.
	Points int `json:"points"`

	// Value contains the raw value that triggered the rule (matched keywords, punycode host...).
	Value any `json:"value,omitempty"`
}

// RiskResult is the outcome of an evaluation.
type RiskResult struct {
	URL            string         `json:"url,omitempty"`
	Safe           bool           `json:"safe"`
	Level          Level          `json:"level"`
	RiskScore      int            `json:"riskScore"`
	Risks          []string       `json:"risks"`
	SafeIndicators []string       `json:"safeIndicators"`
	Evidence       []EvidenceItem `json:"evidence,omitempty"`
	ScoringVersion string         `json:"scoringVersion,omitempty"`
	Error          string         `json:"error,omitempty"`

	// internal marks the browser-internal short-circuit result.
	internal bool
}

// Internal reports whether the result came from the internal-page short-circuit.
func (r RiskResult) Internal() bool {
	return r.internal
}

// clone returns a deep copy so later stages never alias earlier slices.
func (r RiskResult) clone() RiskResult {
	out := r
	out.Risks = append([]string{}, r.Risks...)
	out.SafeIndicators = append([]string{}, r.SafeIndicators...)
	if r.Evidence != nil {
		out.Evidence = append([]EvidenceItem{}, r.Evidence...)
	}
	return out
}
