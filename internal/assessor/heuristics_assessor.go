package assessor

import (
	"errors"
	"fmt"
	"sync"

	"github.com/raysh454/netshield/internal/logging"
	"github.com/raysh454/netshield/internal/utils"
)

// ErrUnparseableURL is the only failure the scorer knows about. It is never
// returned; it is reported through RiskResult.Error on a fail-open result.
var ErrUnparseableURL = errors.New("unparseable url")

// HeuristicsAssessor scores URLs with the additive rule table. It holds no
// state between calls and is safe for concurrent use.
type HeuristicsAssessor struct {
	cfg     *Config
	ruleset *Ruleset
	logger  logging.Logger
}

// NewHeuristicsAssessor builds an assessor from cfg. A nil logger discards
// output. The rulepack at cfg.RulepackPath is used when set, the embedded
// default otherwise.
func NewHeuristicsAssessor(cfg *Config, logger logging.Logger) (*HeuristicsAssessor, error) {
	if cfg == nil {
		return nil, ErrNilConfig()
	}
	if logger == nil {
		logger = logging.Nop()
	}

	rs := DefaultRuleset()
	if cfg.RulepackPath != "" {
		loaded, err := LoadRuleset(cfg.RulepackPath)
		if err != nil {
			return nil, fmt.Errorf("assessor: %w", err)
		}
		rs = loaded
	}

	l := logger.With(logging.Field{Key: "component", Value: "heuristics-assessor"})
	l.Info("heuristics assessor constructed",
		logging.Field{Key: "scoring_version", Value: cfg.ScoringVersion},
		logging.Field{Key: "rulepack_version", Value: rs.Version},
		logging.Field{Key: "keywords", Value: len(rs.Keywords)})

	return &HeuristicsAssessor{cfg: cfg, ruleset: rs, logger: l}, nil
}

// NewWithRuleset builds an assessor around an already compiled ruleset.
func NewWithRuleset(rs *Ruleset, logger logging.Logger) *HeuristicsAssessor {
	if logger == nil {
		logger = logging.Nop()
	}
	return &HeuristicsAssessor{cfg: DefaultConfig(), ruleset: rs, logger: logger}
}

// Ruleset exposes the compiled rule tables.
func (h *HeuristicsAssessor) Ruleset() *Ruleset {
	return h.ruleset
}

// Evaluate scores a URL on its own. It never fails: internal pages
// short-circuit to a safe result and unparseable input yields an
// unknown-level result with Error set.
func (h *HeuristicsAssessor) Evaluate(rawURL string) RiskResult {
	rs := h.ruleset

	if rawURL == "" || utils.HasPrefixAny(rawURL, rs.InternalPrefixes) {
		return RiskResult{
			URL:            rawURL,
			Safe:           true,
			Level:          LevelSafe,
			RiskScore:      rs.InternalScore,
			Risks:          []string{},
			SafeIndicators: []string{"Internal page"},
			ScoringVersion: h.cfg.ScoringVersion,
			internal:       true,
		}
	}

	target, err := utils.ParseTarget(rawURL)
	if err != nil {
		h.logger.Debug("url not scored", logging.Field{Key: "url", Value: rawURL}, logging.Field{Key: "error", Value: err.Error()})
		return h.unknown(rawURL, fmt.Errorf("%w: %v", ErrUnparseableURL, err))
	}

	result := RiskResult{
		URL:            rawURL,
		Risks:          []string{},
		SafeIndicators: []string{},
		ScoringVersion: h.cfg.ScoringVersion,
	}

	score := 0
	for _, r := range rules {
		m, hit := r.check(rs, target)
		if !hit {
			if r.otherwise != "" {
				result.SafeIndicators = append(result.SafeIndicators, r.otherwise)
			}
			continue
		}

		mult := m.multiplier
		if mult == 0 {
			mult = 1
		}
		pts := rs.Points(r.ID) * mult
		score += pts

		if r.Mitigating {
			result.SafeIndicators = append(result.SafeIndicators, m.description)
		} else {
			result.Risks = append(result.Risks, m.description)
		}
		result.Evidence = append(result.Evidence, EvidenceItem{
			RuleID:      r.ID,
			Description: m.description,
			Points:      pts,
			Value:       m.value,
		})
	}

	h.finalize(&result, score)

	h.logger.Debug("url scored",
		logging.Field{Key: "url", Value: rawURL},
		logging.Field{Key: "score", Value: result.RiskScore},
		logging.Field{Key: "level", Value: string(result.Level)})

	return result
}

// EvaluateInput runs both stages: the URL score, then the page-signal
// adjustment when signals are present.
func (h *HeuristicsAssessor) EvaluateInput(in RiskInput) RiskResult {
	return h.ApplyPageSignals(h.Evaluate(in.URL), in.PageSignals)
}

// finalize clamps score and derives Level and Safe from it.
func (h *HeuristicsAssessor) finalize(r *RiskResult, score int) {
	r.RiskScore = clamp(score)
	r.Level = h.ruleset.Classify(r.RiskScore)
	r.Safe = h.ruleset.IsSafeScore(r.RiskScore)
}

func (h *HeuristicsAssessor) unknown(rawURL string, err error) RiskResult {
	return RiskResult{
		URL:            rawURL,
		Safe:           true,
		Level:          LevelUnknown,
		RiskScore:      0,
		Risks:          []string{},
		SafeIndicators: []string{},
		ScoringVersion: h.cfg.ScoringVersion,
		Error:          err.Error(),
	}
}

// Close releases resources (currently a no-op) and logs lifecycle.
func (h *HeuristicsAssessor) Close() error {
	if h == nil || h.logger == nil {
		return nil
	}
	h.logger.Info("heuristics-assessor: closed")
	return nil
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

var (
	pkgOnce     sync.Once
	pkgAssessor *HeuristicsAssessor
)

// Evaluate scores rawURL with the default rulepack and applies signals when
// non-nil.
func Evaluate(rawURL string, signals *PageSignals) RiskResult {
	pkgOnce.Do(func() {
		pkgAssessor = NewWithRuleset(DefaultRuleset(), nil)
	})
	return pkgAssessor.EvaluateInput(RiskInput{URL: rawURL, PageSignals: signals})
}

// ErrNilConfig returns a small typed error for missing config.
func ErrNilConfig() error {
	return errors.New("assessor: nil config")
}
