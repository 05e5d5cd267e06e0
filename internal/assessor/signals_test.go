package assessor_test

import (
	"reflect"
	"testing"

	"github.com/raysh454/netshield/internal/assessor"
)

func TestApplyPageSignals_LoginAndIframeEscalate(t *testing.T) {
	t.Parallel()
	a := newAssessor(t)

	base := a.Evaluate("http://example.com")
	if base.RiskScore != 25 || base.Level != assessor.LevelSafe {
		t.Fatalf("base got score=%d level=%s, want 25 safe", base.RiskScore, base.Level)
	}

	got := a.ApplyPageSignals(base, &assessor.PageSignals{HasLoginForm: true, HiddenIframeCount: 1})

	if got.RiskScore != 50 {
		t.Errorf("RiskScore = %d, want 50", got.RiskScore)
	}
	if got.Level != assessor.LevelWarning || got.Safe {
		t.Errorf("level=%s safe=%v, want warning false", got.Level, got.Safe)
	}
	want := []string{"Not using HTTPS", "Hidden iframes (1)"}
	if !reflect.DeepEqual(got.Risks, want) {
		t.Errorf("Risks = %q, want %q", got.Risks, want)
	}

	// input untouched
	if base.RiskScore != 25 || len(base.Risks) != 1 {
		t.Errorf("base result mutated: %+v", base)
	}
}

func TestApplyPageSignals_LoginIgnoredOnLowScore(t *testing.T) {
	t.Parallel()
	a := newAssessor(t)

	base := a.Evaluate("https://bit.ly/x") // 20, not above the login threshold
	got := a.ApplyPageSignals(base, &assessor.PageSignals{HasLoginForm: true})

	if got.RiskScore != 20 {
		t.Errorf("RiskScore = %d, want 20", got.RiskScore)
	}
	if !reflect.DeepEqual(got.Risks, base.Risks) {
		t.Errorf("Risks = %q, want %q", got.Risks, base.Risks)
	}
}

func TestApplyPageSignals_LoginNotListedAsRisk(t *testing.T) {
	t.Parallel()
	a := newAssessor(t)

	base := a.Evaluate("http://example.com")
	got := a.ApplyPageSignals(base, &assessor.PageSignals{HasLoginForm: true})

	if got.RiskScore != 35 || got.Level != assessor.LevelWarning {
		t.Errorf("got score=%d level=%s, want 35 warning", got.RiskScore, got.Level)
	}
	if len(got.Risks) != 1 {
		t.Errorf("Risks = %q, want only the URL risk", got.Risks)
	}
	found := false
	for _, e := range got.Evidence {
		if e.RuleID == assessor.RuleLoginForm && e.Points == 10 {
			found = true
		}
	}
	if !found {
		t.Error("missing login-form evidence")
	}
}

func TestApplyPageSignals_IframesWithoutLogin(t *testing.T) {
	t.Parallel()
	a := newAssessor(t)

	got := a.ApplyPageSignals(a.Evaluate("https://example.com"), &assessor.PageSignals{HiddenIframeCount: 3})

	if got.RiskScore != 15 || got.Level != assessor.LevelSafe {
		t.Errorf("got score=%d level=%s, want 15 safe", got.RiskScore, got.Level)
	}
	if !reflect.DeepEqual(got.Risks, []string{"Hidden iframes (3)"}) {
		t.Errorf("Risks = %q", got.Risks)
	}
}

func TestApplyPageSignals_ClampedAfterAdjustment(t *testing.T) {
	t.Parallel()
	a := newAssessor(t)

	base := a.Evaluate("http://192.168.1.1/login")
	got := a.ApplyPageSignals(base, &assessor.PageSignals{HasLoginForm: true, HiddenIframeCount: 2})

	if got.RiskScore != 98 {
		t.Errorf("RiskScore = %d, want 98", got.RiskScore)
	}

	again := a.ApplyPageSignals(got, &assessor.PageSignals{HasLoginForm: true, HiddenIframeCount: 2})
	if again.RiskScore != 100 {
		t.Errorf("RiskScore = %d, want clamp at 100", again.RiskScore)
	}
}

func TestApplyPageSignals_PassThrough(t *testing.T) {
	t.Parallel()
	a := newAssessor(t)
	signals := &assessor.PageSignals{HasLoginForm: true, HiddenIframeCount: 4}

	tests := []struct {
		name    string
		result  assessor.RiskResult
		signals *assessor.PageSignals
	}{
		{"nil signals", a.Evaluate("http://example.com"), nil},
		{"unknown level", a.Evaluate("not a url"), signals},
		{"internal page", a.Evaluate("chrome://settings"), signals},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.ApplyPageSignals(tt.result, tt.signals)
			if !reflect.DeepEqual(got, tt.result) {
				t.Errorf("result changed: got %+v, want %+v", got, tt.result)
			}
		})
	}
}

func TestEvaluateInput_MatchesTwoStages(t *testing.T) {
	t.Parallel()
	a := newAssessor(t)
	in := assessor.RiskInput{
		URL:         "http://login.example.tk",
		PageSignals: &assessor.PageSignals{HasLoginForm: true, HiddenIframeCount: 1},
	}

	got := a.EvaluateInput(in)
	want := a.ApplyPageSignals(a.Evaluate(in.URL), in.PageSignals)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("EvaluateInput = %+v, want %+v", got, want)
	}
}
