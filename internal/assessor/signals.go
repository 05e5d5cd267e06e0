package assessor

import "fmt"

// Page-signal adjustment ids, weighted in the rulepack alongside URL rules.
const (
	RuleLoginForm     = "login-form"
	RuleHiddenIframes = "hidden-iframes"
)

// ApplyPageSignals is the second scoring stage. It returns a new result with
// the page evidence folded in; the input result is not modified. Results
// that were not URL-scored (unknown level, internal pages) and nil signals
// pass through unchanged.
func (h *HeuristicsAssessor) ApplyPageSignals(result RiskResult, signals *PageSignals) RiskResult {
	if signals == nil || result.Level == LevelUnknown || result.internal {
		return result
	}

	rs := h.ruleset
	out := result.clone()
	score := result.RiskScore

	if signals.HasLoginForm && result.RiskScore > rs.LoginFormMinScore {
		pts := rs.Points(RuleLoginForm)
		score += pts
		out.Evidence = append(out.Evidence, EvidenceItem{
			RuleID:      RuleLoginForm,
			Description: "Login form on suspicious page",
			Points:      pts,
			Value:       true,
		})
	}

	if signals.HiddenIframeCount > 0 {
		pts := rs.Points(RuleHiddenIframes)
		desc := fmt.Sprintf("Hidden iframes (%d)", signals.HiddenIframeCount)
		score += pts
		out.Risks = append(out.Risks, desc)
		out.Evidence = append(out.Evidence, EvidenceItem{
			RuleID:      RuleHiddenIframes,
			Description: desc,
			Points:      pts,
			Value:       signals.HiddenIframeCount,
		})
	}

	h.finalize(&out, score)
	return out
}
