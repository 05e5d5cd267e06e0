package app_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/raysh454/netshield/internal/app"
	"github.com/raysh454/netshield/internal/webclient"
)

// LoadConfig reads process environment, so these tests do not run in parallel.

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := app.LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	def := app.DefaultConfig()
	if cfg.ListenAddr != def.ListenAddr || cfg.PageTimeout != def.PageTimeout || !cfg.HistoryEnabled {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
	if cfg.WebClientCfg.Client != webclient.ClientNetHTTP {
		t.Errorf("Client = %q", cfg.WebClientCfg.Client)
	}
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("NETSHIELD_LISTEN_ADDR", "0.0.0.0:9999")
	t.Setenv("NETSHIELD_HISTORY", "false")
	t.Setenv("NETSHIELD_PAGE_TIMEOUT", "3s")
	t.Setenv("NETSHIELD_WEBCLIENT", "ChromeDP")
	t.Setenv("NETSHIELD_MAX_BODY_BYTES", "1024")
	t.Setenv("NETSHIELD_LOG_FORMAT", "  json ")

	cfg, err := app.LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ListenAddr != "0.0.0.0:9999" || cfg.HistoryEnabled || cfg.PageTimeout != 3*time.Second {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.WebClientCfg.Client != webclient.ClientChromedp || cfg.WebClientCfg.MaxBodyBytes != 1024 {
		t.Errorf("webclient cfg = %+v", cfg.WebClientCfg)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q", cfg.LogFormat)
	}
}

func TestLoadConfig_Dotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	body := "NETSHIELD_STORAGE_ROOT=/tmp/netshield-test\nNETSHIELD_NETINFO_TTL=1m\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}
	// godotenv never overrides variables that are already set
	t.Setenv("NETSHIELD_STORAGE_ROOT", "")
	t.Setenv("NETSHIELD_NETINFO_TTL", "2m")
	os.Unsetenv("NETSHIELD_STORAGE_ROOT")

	cfg, err := app.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.StorageRoot != "/tmp/netshield-test" {
		t.Errorf("StorageRoot = %q", cfg.StorageRoot)
	}
	if cfg.NetInfoTTL != 2*time.Minute {
		t.Errorf("NetInfoTTL = %s, want the environment to win", cfg.NetInfoTTL)
	}
	got, err := cfg.HistoryPath()
	if err != nil || got != filepath.Join("/tmp/netshield-test", "history.db") {
		t.Errorf("HistoryPath = %q, %v", got, err)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("NETSHIELD_PAGE_TIMEOUT", "soon")
	t.Setenv("NETSHIELD_HEADLESS", "maybe")
	t.Setenv("NETSHIELD_MAX_BODY_BYTES", "lots")

	_, err := app.LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	if err == nil {
		t.Fatal("expected error")
	}
	for _, name := range []string{"PAGE_TIMEOUT", "HEADLESS", "MAX_BODY_BYTES"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not mention %s", err, name)
		}
	}
}

func TestConfig_HistoryPathExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	cfg := app.DefaultConfig()
	got, err := cfg.HistoryPath()
	if err != nil {
		t.Fatalf("HistoryPath returned error: %v", err)
	}
	if want := filepath.Join(home, ".config", "netshield", "history.db"); got != want {
		t.Errorf("HistoryPath = %q, want %q", got, want)
	}
}
