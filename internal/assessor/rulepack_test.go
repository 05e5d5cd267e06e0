package assessor_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/raysh454/netshield/internal/assessor"
)

func TestDefaultRuleset_Tables(t *testing.T) {
	t.Parallel()
	rs := assessor.DefaultRuleset()

	if rs.WarningThreshold != 30 || rs.DangerThreshold != 60 {
		t.Errorf("thresholds = %d/%d, want 30/60", rs.WarningThreshold, rs.DangerThreshold)
	}
	if len(rs.Keywords) != 22 {
		t.Errorf("keywords = %d, want 22", len(rs.Keywords))
	}
	if len(rs.Shorteners) != 7 || len(rs.SuspiciousTLDs) != 9 || len(rs.TrustedTLDs) != 3 {
		t.Errorf("tables = %d shorteners, %d suspicious, %d trusted", len(rs.Shorteners), len(rs.SuspiciousTLDs), len(rs.TrustedTLDs))
	}
	if rs.KeywordScope != assessor.ScopeDomainAndPath {
		t.Errorf("KeywordScope = %q", rs.KeywordScope)
	}

	points := map[string]int{
		assessor.RuleIPLiteral:           40,
		assessor.RuleExcessiveSubdomains: 20,
		assessor.RuleLongDomain:          15,
		assessor.RuleNonASCIIHost:        30,
		assessor.RuleSuspiciousKeywords:  8,
		assessor.RuleNotHTTPS:            25,
		assessor.RuleURLShortener:        20,
		assessor.RuleSuspiciousTLD:       20,
		assessor.RuleAtSymbol:            35,
		assessor.RuleDoubleSlashPath:     10,
		assessor.RuleTrustedTLD:          -20,
		assessor.RuleLoginForm:           10,
		assessor.RuleHiddenIframes:       15,
	}
	for id, want := range points {
		if got := rs.Points(id); got != want {
			t.Errorf("Points(%s) = %d, want %d", id, got, want)
		}
	}
}

func TestRuleset_Classify(t *testing.T) {
	t.Parallel()
	rs := assessor.DefaultRuleset()

	tests := []struct {
		score int
		want  assessor.Level
		safe  bool
	}{
		{0, assessor.LevelSafe, true},
		{29, assessor.LevelSafe, true},
		{30, assessor.LevelWarning, false},
		{59, assessor.LevelWarning, false},
		{60, assessor.LevelDanger, false},
		{100, assessor.LevelDanger, false},
	}
	for _, tt := range tests {
		if got := rs.Classify(tt.score); got != tt.want {
			t.Errorf("Classify(%d) = %s, want %s", tt.score, got, tt.want)
		}
		if got := rs.IsSafeScore(tt.score); got != tt.safe {
			t.Errorf("IsSafeScore(%d) = %v, want %v", tt.score, got, tt.safe)
		}
	}
}

func TestRuleset_MatchKeywords(t *testing.T) {
	t.Parallel()
	rs := assessor.DefaultRuleset()

	tests := []struct {
		in   string
		want []string
	}{
		{"example.com", nil},
		{"paypal-login.com", []string{"login", "paypal"}},
		{"VERIFY-Account.net", []string{"account", "verify"}},
		{"signin-signin-signin.io", []string{"signin"}},
		{"", nil},
	}
	for _, tt := range tests {
		got := rs.MatchKeywords(tt.in)
		if len(got) == 0 && len(tt.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("MatchKeywords(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseRuleset_Invalid(t *testing.T) {
	t.Parallel()
	valid := string(mustReadDefaultPack(t))

	tests := []struct {
		name string
		data string
	}{
		{"not yaml", "thresholds: [unterminated"},
		{"thresholds inverted", strings.Replace(valid, "danger: 60", "danger: 20", 1)},
		{"danger above 100", strings.Replace(valid, "danger: 60", "danger: 120", 1)},
		{"missing points", strings.Replace(valid, "  at-symbol: 35\n", "", 1)},
		{"unknown scope", strings.Replace(valid, "keyword_scope: domain+path", "keyword_scope: everywhere", 1)},
		{"empty keyword", strings.Replace(valid, "  - login\n", "  - \"\"\n", 1)},
		{"zero description keywords", strings.Replace(valid, "keywords_in_description: 2", "keywords_in_description: 0", 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := assessor.ParseRuleset([]byte(tt.data))
			if !errors.Is(err, assessor.ErrInvalidRulepack) {
				t.Errorf("err = %v, want ErrInvalidRulepack", err)
			}
		})
	}
}

func TestParseRuleset_DomainScope(t *testing.T) {
	t.Parallel()
	data := strings.Replace(string(mustReadDefaultPack(t)), "keyword_scope: domain+path", "keyword_scope: domain", 1)
	rs, err := assessor.ParseRuleset([]byte(data))
	if err != nil {
		t.Fatalf("ParseRuleset returned error: %v", err)
	}

	got := assessor.NewWithRuleset(rs, nil).Evaluate("http://192.168.1.1/login")
	if got.RiskScore != 65 {
		t.Errorf("RiskScore = %d, want 65 with domain-only keyword matching", got.RiskScore)
	}
}

func TestParseRuleset_ScopeDefaultsToDomainAndPath(t *testing.T) {
	t.Parallel()
	data := strings.Replace(string(mustReadDefaultPack(t)), "keyword_scope: domain+path", "", 1)
	rs, err := assessor.ParseRuleset([]byte(data))
	if err != nil {
		t.Fatalf("ParseRuleset returned error: %v", err)
	}
	if rs.KeywordScope != assessor.ScopeDomainAndPath {
		t.Errorf("KeywordScope = %q, want %q", rs.KeywordScope, assessor.ScopeDomainAndPath)
	}
	if got := assessor.NewWithRuleset(rs, nil).Evaluate("http://192.168.1.1/login"); got.RiskScore != 73 {
		t.Errorf("RiskScore = %d, want 73", got.RiskScore)
	}
}

func TestRuleIDs_Ordered(t *testing.T) {
	t.Parallel()
	ids := assessor.RuleIDs()
	if len(ids) != 11 {
		t.Fatalf("RuleIDs = %d entries, want 11", len(ids))
	}
	if ids[0] != assessor.RuleIPLiteral || ids[len(ids)-1] != assessor.RuleTrustedTLD {
		t.Errorf("unexpected order: %q", ids)
	}
}

func TestLevel_Severity(t *testing.T) {
	t.Parallel()
	if !(assessor.LevelDanger.Severity() > assessor.LevelWarning.Severity() &&
		assessor.LevelWarning.Severity() > assessor.LevelSafe.Severity() &&
		assessor.LevelSafe.Severity() > assessor.LevelUnknown.Severity()) {
		t.Error("severity order broken")
	}
}
