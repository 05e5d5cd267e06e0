package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/raysh454/netshield/internal/assessor"
	"github.com/raysh454/netshield/internal/netinfo"
	"github.com/raysh454/netshield/internal/webclient"
)

// EnvPrefix prefixes every environment variable LoadConfig reads.
const EnvPrefix = "NETSHIELD_"

// Config holds the runtime configuration shared by the CLI and the API server.
type Config struct {
	// ListenAddr is the API server address.
	ListenAddr string

	// StorageRoot is the base path for the history database. "~" expands to
	// the user's home directory.
	StorageRoot string

	// HistoryEnabled turns check recording on.
	HistoryEnabled bool

	// PageTimeout bounds a single page fetch and analysis.
	PageTimeout time.Duration

	// NetInfoTTL is how long a network identity lookup is reused.
	NetInfoTTL time.Duration

	// GeoIPCityDB and GeoIPASNDB point at GeoLite2 .mmdb files; both optional.
	GeoIPCityDB string
	GeoIPASNDB  string

	LogFormat string
	LogLevel  string

	WebClientCfg webclient.Config
	AssessorCfg  assessor.Config
}

// DefaultConfig returns a Config populated with sensible development defaults.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:     "127.0.0.1:8787",
		StorageRoot:    "~/.config/netshield",
		HistoryEnabled: true,
		PageTimeout:    20 * time.Second,
		NetInfoTTL:     netinfo.DefaultTTL,
		LogFormat:      "console",
		LogLevel:       "info",
		WebClientCfg:   webclient.DefaultConfig(),
		AssessorCfg:    *assessor.DefaultConfig(),
	}
}

// HistoryPath is where the history database lives.
func (c *Config) HistoryPath() (string, error) {
	root, err := expandPath(c.StorageRoot)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "history.db"), nil
}

// LoadConfig starts from DefaultConfig, loads the given dotenv files (".env"
// when none are given; missing files are skipped) and then applies
// NETSHIELD_* environment variables.
func LoadConfig(dotenvPaths ...string) (*Config, error) {
	if err := loadDotenvIfPresent(dotenvPaths...); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	var errs []error

	str := func(name string, dst *string) {
		if v, ok := lookupEnv(name); ok {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) {
		v, ok := lookupEnv(name)
		if !ok {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			errs = append(errs, fmt.Errorf("%s%s: invalid duration %q", EnvPrefix, name, v))
			return
		}
		*dst = d
	}
	boolean := func(name string, dst *bool) {
		v, ok := lookupEnv(name)
		if !ok {
			return
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: invalid bool %q", EnvPrefix, name, v))
			return
		}
		*dst = b
	}

	str("LISTEN_ADDR", &cfg.ListenAddr)
	str("STORAGE_ROOT", &cfg.StorageRoot)
	boolean("HISTORY", &cfg.HistoryEnabled)
	dur("PAGE_TIMEOUT", &cfg.PageTimeout)
	dur("NETINFO_TTL", &cfg.NetInfoTTL)
	str("GEOIP_CITY_DB", &cfg.GeoIPCityDB)
	str("GEOIP_ASN_DB", &cfg.GeoIPASNDB)
	str("LOG_FORMAT", &cfg.LogFormat)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("RULEPACK", &cfg.AssessorCfg.RulepackPath)

	var client string
	str("WEBCLIENT", &client)
	if client != "" {
		cfg.WebClientCfg.Client = webclient.Client(strings.ToLower(client))
	}
	dur("WEBCLIENT_TIMEOUT", &cfg.WebClientCfg.Timeout)
	str("USER_AGENT", &cfg.WebClientCfg.UserAgent)
	boolean("HEADLESS", &cfg.WebClientCfg.Headless)
	if v, ok := lookupEnv("MAX_BODY_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sMAX_BODY_BYTES: invalid integer %q", EnvPrefix, v))
		} else {
			cfg.WebClientCfg.MaxBodyBytes = n
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func lookupEnv(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func loadDotenvIfPresent(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("stat dotenv file failed path=%s: %w", path, err)
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load dotenv file failed path=%s: %w", path, err)
		}
	}
	return nil
}

func expandPath(p string) (string, error) {
	if strings.HasPrefix(p, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, p[1:]), nil
	}
	return p, nil
}
