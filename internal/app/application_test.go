package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/raysh454/netshield/internal/app"
	"github.com/raysh454/netshield/internal/assessor"
	"github.com/raysh454/netshield/internal/cli"
	"github.com/raysh454/netshield/internal/history"
	"github.com/raysh454/netshield/internal/netinfo"
)

func runJob(t *testing.T, f *fixture, args ...string) []byte {
	t.Helper()
	parsed, err := cli.ParseArgs(args)
	if err != nil {
		t.Fatalf("ParseArgs returned error: %v", err)
	}
	a := app.NewApplication(app.DefaultConfig(), parsed, f.logger, f.svc)

	var out bytes.Buffer
	if err := a.Run(context.Background(), &out); err != nil {
		t.Fatalf("Run(%v) returned error: %v", args, err)
	}
	return out.Bytes()
}

func TestApplication_RunCheck(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	var got assessor.RiskResult
	if err := json.Unmarshal(runJob(t, f, "-url", "http://example.com", "-login-form", "-hidden-iframes", "1"), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.RiskScore != 50 || got.Level != assessor.LevelWarning {
		t.Errorf("got score=%d level=%s, want 50 warning", got.RiskScore, got.Level)
	}
}

func TestApplication_RunPageAndHistory(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	var pc app.PageCheck
	if err := json.Unmarshal(runJob(t, f, "-job", "page", "-url", harvestURL), &pc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if pc.Result.RiskScore != 58 || pc.CheckID == "" {
		t.Fatalf("page check = %+v", pc)
	}

	var recs []history.Record
	if err := json.Unmarshal(runJob(t, f, "-job", "history"), &recs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != pc.CheckID {
		t.Errorf("history = %+v", recs)
	}

	var rec history.Record
	if err := json.Unmarshal(runJob(t, f, "-job", "history", "-id", pc.CheckID), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.URL != harvestURL {
		t.Errorf("record URL = %q", rec.URL)
	}
}

func TestApplication_RunNetwork(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	var info netinfo.Info
	if err := json.Unmarshal(runJob(t, f, "-job", "network"), &info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.IP != "203.0.113.7" || info.ISP != "Example ISP" {
		t.Errorf("info = %+v", info)
	}
}

func TestApplication_RunServeUnsupported(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	a := app.NewApplication(app.DefaultConfig(), &cli.CLIArgs{JobType: cli.JobServe}, nil, f.svc)

	if err := a.Run(context.Background(), &bytes.Buffer{}); !errors.Is(err, app.ErrUnsupportedJob) {
		t.Errorf("err = %v, want ErrUnsupportedJob", err)
	}
}

func TestApplication_Shutdown(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	a := app.NewApplication(app.DefaultConfig(), &cli.CLIArgs{JobType: cli.JobCheck}, nil, f.svc)

	if err := a.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown returned error: %v", err)
	}
	select {
	case <-a.Context().Done():
	default:
		t.Error("application context not cancelled")
	}
}
