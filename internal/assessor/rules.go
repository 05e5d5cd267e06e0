package assessor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mtibben/confusables"
	"github.com/raysh454/netshield/internal/utils"
)

// Rule ids, also the keys of the rulepack "points" table.
const (
	RuleIPLiteral           = "ip-literal"
	RuleExcessiveSubdomains = "excessive-subdomains"
	RuleLongDomain          = "long-domain"
	RuleNonASCIIHost        = "non-ascii-host"
	RuleSuspiciousKeywords  = "suspicious-keywords"
	RuleNotHTTPS            = "not-https"
	RuleURLShortener        = "url-shortener"
	RuleSuspiciousTLD       = "suspicious-tld"
	RuleAtSymbol            = "at-symbol"
	RuleDoubleSlashPath     = "double-slash-path"
	RuleTrustedTLD          = "trusted-tld"
)

var ipv4Literal = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}$`)

// match is what a triggered rule reports back to the evaluator.
type match struct {
	description string
	// multiplier scales the rule's points; zero means one.
	multiplier int
	value      any
}

// rule is a single independent heuristic. Mitigating rules report to
// SafeIndicators instead of Risks. When otherwise is set and the rule does
// not trigger, it is appended to SafeIndicators with no score effect.
type rule struct {
	ID         string
	Mitigating bool
	otherwise  string
	check      func(rs *Ruleset, t *utils.Target) (match, bool)
}

// rules is evaluated in order; order only affects explanation order.
var rules = []rule{
	{
		ID: RuleIPLiteral,
		check: func(_ *Ruleset, t *utils.Target) (match, bool) {
			if !ipv4Literal.MatchString(t.Hostname) {
				return match{}, false
			}
			return match{description: "IP-based URL", value: t.Hostname}, true
		},
	},
	{
		ID: RuleExcessiveSubdomains,
		check: func(rs *Ruleset, t *utils.Target) (match, bool) {
			n := len(t.Labels()) - 2
			if n <= rs.MaxSubdomains {
				return match{}, false
			}
			return match{description: "Excessive subdomains", value: n}, true
		},
	},
	{
		ID: RuleLongDomain,
		check: func(rs *Ruleset, t *utils.Target) (match, bool) {
			if len(t.Domain) <= rs.MaxDomainLength {
				return match{}, false
			}
			return match{description: "Unusually long domain", value: len(t.Domain)}, true
		},
	},
	{
		ID: RuleNonASCIIHost,
		check: func(_ *Ruleset, t *utils.Target) (match, bool) {
			if utils.IsASCII(t.Hostname) {
				return match{}, false
			}
			return match{
				description: "Non-ASCII characters (homograph risk)",
				value: map[string]string{
					"punycode": utils.PunycodeHost(t.Hostname),
					"skeleton": confusables.Skeleton(t.Hostname),
				},
			}, true
		},
	},
	{
		ID: RuleSuspiciousKeywords,
		check: func(rs *Ruleset, t *utils.Target) (match, bool) {
			text := t.Domain
			if rs.KeywordScope == ScopeDomainAndPath {
				text += t.Pathname
			}
			found := rs.MatchKeywords(text)
			if len(found) == 0 {
				return match{}, false
			}
			shown := found
			if len(shown) > rs.KeywordsInDescription {
				shown = shown[:rs.KeywordsInDescription]
			}
			return match{
				description: fmt.Sprintf("Suspicious keywords: %s", strings.Join(shown, ", ")),
				multiplier:  len(found),
				value:       found,
			}, true
		},
	},
	{
		ID:        RuleNotHTTPS,
		otherwise: "HTTPS secured",
		check: func(_ *Ruleset, t *utils.Target) (match, bool) {
			if t.Protocol == "https:" {
				return match{}, false
			}
			return match{description: "Not using HTTPS", value: t.Protocol}, true
		},
	},
	{
		ID: RuleURLShortener,
		check: func(rs *Ruleset, t *utils.Target) (match, bool) {
			s := utils.ContainsAny(t.Hostname, rs.Shorteners)
			if s == "" {
				return match{}, false
			}
			return match{description: "URL shortener detected", value: s}, true
		},
	},
	{
		ID: RuleSuspiciousTLD,
		check: func(rs *Ruleset, t *utils.Target) (match, bool) {
			tld := utils.HasSuffixAny(t.Hostname, rs.SuspiciousTLDs)
			if tld == "" {
				return match{}, false
			}
			return match{description: "Suspicious TLD", value: tld}, true
		},
	},
	{
		ID: RuleAtSymbol,
		check: func(_ *Ruleset, t *utils.Target) (match, bool) {
			if !strings.Contains(t.Raw, "@") {
				return match{}, false
			}
			return match{description: "@ symbol in URL"}, true
		},
	},
	{
		ID: RuleDoubleSlashPath,
		check: func(_ *Ruleset, t *utils.Target) (match, bool) {
			if !strings.Contains(t.Pathname, "//") {
				return match{}, false
			}
			return match{description: "Double slashes in path", value: t.Pathname}, true
		},
	},
	{
		ID:         RuleTrustedTLD,
		Mitigating: true,
		check: func(rs *Ruleset, t *utils.Target) (match, bool) {
			tld := utils.HasSuffixAny(t.Hostname, rs.TrustedTLDs)
			if tld == "" {
				return match{}, false
			}
			return match{description: "Government/Educational domain", value: tld}, true
		},
	},
}

// RuleIDs lists every rule id in evaluation order.
func RuleIDs() []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.ID)
	}
	return out
}
