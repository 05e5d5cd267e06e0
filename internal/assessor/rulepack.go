package assessor

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"
	"gopkg.in/yaml.v3"
)

//go:embed rulepack.yaml
var defaultRulepack []byte

var ErrInvalidRulepack = errors.New("invalid rulepack")

// KeywordScope selects which part of the URL keywords are matched against.
type KeywordScope string

const (
	ScopeDomain        KeywordScope = "domain"
	ScopeDomainAndPath KeywordScope = "domain+path"
)

type rawRulepack struct {
	Version    int `yaml:"version"`
	Thresholds struct {
		Warning int `yaml:"warning"`
		Danger  int `yaml:"danger"`
	} `yaml:"thresholds"`
	InternalPrefixes []string       `yaml:"internal_prefixes"`
	InternalScore    int            `yaml:"internal_score"`
	Points           map[string]int `yaml:"points"`
	Limits           struct {
		MaxSubdomains         int    `yaml:"max_subdomains"`
		MaxDomainLength       int    `yaml:"max_domain_length"`
		KeywordsInDescription int    `yaml:"keywords_in_description"`
		LoginFormMinScore     int    `yaml:"login_form_min_score"`
		KeywordScope          string `yaml:"keyword_scope"`
	} `yaml:"limits"`
	Keywords       []string `yaml:"keywords"`
	Shorteners     []string `yaml:"shorteners"`
	SuspiciousTLDs []string `yaml:"suspicious_tlds"`
	TrustedTLDs    []string `yaml:"trusted_tlds"`
}

// Ruleset is the compiled, read-only form of a rulepack. It is safe for
// concurrent use once returned by ParseRuleset.
type Ruleset struct {
	Version          int
	WarningThreshold int
	DangerThreshold  int
	InternalPrefixes []string
	InternalScore    int

	MaxSubdomains         int
	MaxDomainLength       int
	KeywordsInDescription int
	LoginFormMinScore     int
	KeywordScope          KeywordScope

	Keywords       []string
	Shorteners     []string
	SuspiciousTLDs []string
	TrustedTLDs    []string

	points         map[string]int
	keywordMatcher *ahocorasick.Matcher
}

var (
	defaultOnce    sync.Once
	defaultRuleset *Ruleset
)

// DefaultRuleset returns the ruleset compiled from the embedded rulepack.
func DefaultRuleset() *Ruleset {
	defaultOnce.Do(func() {
		rs, err := ParseRuleset(defaultRulepack)
		if err != nil {
			panic(fmt.Sprintf("assessor: embedded rulepack: %v", err))
		}
		defaultRuleset = rs
	})
	return defaultRuleset
}

// LoadRuleset reads and compiles a rulepack file.
func LoadRuleset(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rulepack %s: %w", path, err)
	}
	rs, err := ParseRuleset(data)
	if err != nil {
		return nil, fmt.Errorf("rulepack %s: %w", path, err)
	}
	return rs, nil
}

// ParseRuleset decodes YAML rulepack data, validates it and compiles the
// keyword automaton.
func ParseRuleset(data []byte) (*Ruleset, error) {
	var raw rawRulepack
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRulepack, err)
	}
	if raw.Version == 0 {
		raw.Version = 1
	}
	if raw.Limits.KeywordScope == "" {
		raw.Limits.KeywordScope = string(ScopeDomainAndPath)
	}

	if err := validate(&raw); err != nil {
		return nil, err
	}

	rs := &Ruleset{
		Version:               raw.Version,
		WarningThreshold:      raw.Thresholds.Warning,
		DangerThreshold:       raw.Thresholds.Danger,
		InternalPrefixes:      lowerAll(raw.InternalPrefixes),
		InternalScore:         raw.InternalScore,
		MaxSubdomains:         raw.Limits.MaxSubdomains,
		MaxDomainLength:       raw.Limits.MaxDomainLength,
		KeywordsInDescription: raw.Limits.KeywordsInDescription,
		LoginFormMinScore:     raw.Limits.LoginFormMinScore,
		KeywordScope:          KeywordScope(raw.Limits.KeywordScope),
		Keywords:              dedupe(lowerAll(raw.Keywords)),
		Shorteners:            lowerAll(raw.Shorteners),
		SuspiciousTLDs:        lowerAll(raw.SuspiciousTLDs),
		TrustedTLDs:           lowerAll(raw.TrustedTLDs),
		points:                make(map[string]int, len(raw.Points)),
	}
	for id, p := range raw.Points {
		rs.points[id] = p
	}

	if len(rs.Keywords) > 0 {
		patterns := make([][]byte, 0, len(rs.Keywords))
		for _, k := range rs.Keywords {
			patterns = append(patterns, []byte(k))
		}
		rs.keywordMatcher = ahocorasick.NewMatcher(patterns)
	}

	return rs, nil
}

func validate(raw *rawRulepack) error {
	w, d := raw.Thresholds.Warning, raw.Thresholds.Danger
	if w <= 0 || d > 100 || w >= d {
		return fmt.Errorf("%w: thresholds must satisfy 0 < warning < danger <= 100, got warning=%d danger=%d", ErrInvalidRulepack, w, d)
	}
	if raw.InternalScore < 0 || raw.InternalScore > 100 {
		return fmt.Errorf("%w: internal_score %d out of range", ErrInvalidRulepack, raw.InternalScore)
	}
	switch KeywordScope(raw.Limits.KeywordScope) {
	case ScopeDomain, ScopeDomainAndPath:
	default:
		return fmt.Errorf("%w: unknown keyword_scope %q", ErrInvalidRulepack, raw.Limits.KeywordScope)
	}
	if raw.Limits.KeywordsInDescription <= 0 {
		return fmt.Errorf("%w: keywords_in_description must be positive", ErrInvalidRulepack)
	}

	var missing []string
	for _, id := range append(RuleIDs(), RuleLoginForm, RuleHiddenIframes) {
		if _, ok := raw.Points[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: no points for rules %s", ErrInvalidRulepack, strings.Join(missing, ", "))
	}

	for _, k := range raw.Keywords {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("%w: empty keyword", ErrInvalidRulepack)
		}
	}
	return nil
}

// Points returns the configured weight of a rule.
func (rs *Ruleset) Points(ruleID string) int {
	return rs.points[ruleID]
}

// Classify maps a clamped score onto a Level.
func (rs *Ruleset) Classify(score int) Level {
	switch {
	case score >= rs.DangerThreshold:
		return LevelDanger
	case score >= rs.WarningThreshold:
		return LevelWarning
	default:
		return LevelSafe
	}
}

// IsSafeScore reports whether score sits below the warning threshold.
func (rs *Ruleset) IsSafeScore(score int) bool {
	return score < rs.WarningThreshold
}

// MatchKeywords returns the distinct keywords contained in s, in rulepack order.
func (rs *Ruleset) MatchKeywords(s string) []string {
	if rs.keywordMatcher == nil || s == "" {
		return nil
	}
	hits := rs.keywordMatcher.MatchThreadSafe([]byte(strings.ToLower(s)))
	if len(hits) == 0 {
		return nil
	}

	seen := make(map[int]struct{}, len(hits))
	idx := make([]int, 0, len(hits))
	for _, h := range hits {
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		idx = append(idx, h)
	}
	sort.Ints(idx)

	out := make([]string, 0, len(idx))
	for _, i := range idx {
		out = append(out, rs.Keywords[i])
	}
	return out
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
