package assessor

// Assessor is the cross-package contract for phishing scoring. Implementations
// perform no network I/O and never fail; bad input is reported inside the
// returned RiskResult.
type Assessor interface {
	// Evaluate scores a URL on its own.
	Evaluate(rawURL string) RiskResult

	// ApplyPageSignals folds page observations into a URL score.
	ApplyPageSignals(result RiskResult, signals *PageSignals) RiskResult

	// EvaluateInput runs both stages.
	EvaluateInput(in RiskInput) RiskResult

	// Close releases any resources held by the assessor.
	Close() error
}

var _ Assessor = (*HeuristicsAssessor)(nil)
