package history

import (
	"time"

	"github.com/raysh454/netshield/internal/assessor"
)

// Source says which entry point produced a check.
type Source string

const (
	SourceURL  Source = "url"
	SourcePage Source = "page"
)

// Record is one stored check.
type Record struct {
	ID             string                `json:"id"`
	URL            string                `json:"url"`
	RiskScore      int                   `json:"riskScore"`
	Level          assessor.Level        `json:"level"`
	Safe           bool                  `json:"safe"`
	Risks          []string              `json:"risks"`
	SafeIndicators []string              `json:"safeIndicators"`
	PageSignals    *assessor.PageSignals `json:"pageSignals,omitempty"`
	ScoringVersion string                `json:"scoringVersion,omitempty"`
	Error          string                `json:"error,omitempty"`
	Source         Source                `json:"source"`
	CreatedAt      time.Time             `json:"createdAt"`
}

// FromResult builds an unsaved Record from a scored result.
func FromResult(r assessor.RiskResult, signals *assessor.PageSignals, source Source) Record {
	return Record{
		URL:            r.URL,
		RiskScore:      r.RiskScore,
		Level:          r.Level,
		Safe:           r.Safe,
		Risks:          r.Risks,
		SafeIndicators: r.SafeIndicators,
		PageSignals:    signals,
		ScoringVersion: r.ScoringVersion,
		Error:          r.Error,
		Source:         source,
	}
}
