package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/raysh454/netshield/internal/assessor"
	"github.com/raysh454/netshield/internal/assessor/pagesignals"
	"github.com/raysh454/netshield/internal/history"
	"github.com/raysh454/netshield/internal/logging"
	"github.com/raysh454/netshield/internal/netinfo"
	"github.com/raysh454/netshield/internal/utils"
	"github.com/raysh454/netshield/internal/webclient"
)

var (
	ErrNotFetchable     = errors.New("url cannot be fetched")
	ErrHistoryDisabled  = errors.New("history is disabled")
	ErrNetInfoDisabled  = errors.New("network info is disabled")
	ErrPageFetchFailure = errors.New("page fetch failed")
)

// NetworkIdentity resolves the public network identity; *netinfo.Service
// implements it.
type NetworkIdentity interface {
	Lookup(ctx context.Context) (*netinfo.Info, error)
}

// Deps are the collaborators a Service runs on. Nil History disables
// recording; nil NetInfo disables network lookups.
type Deps struct {
	Assessor  assessor.Assessor
	WebClient webclient.WebClient
	NetInfo   NetworkIdentity
	Locator   *netinfo.GeoIPLocator
	History   *history.Store
}

// PageCheck is a URL score refined by what the fetched page contains.
type PageCheck struct {
	Result assessor.RiskResult    `json:"result"`
	Page   *pagesignals.PageInfo `json:"page,omitempty"`

	// PageError explains why the page could not be analysed; Result is then
	// the URL-only score.
	PageError string `json:"pageError,omitempty"`

	CheckID string `json:"checkId,omitempty"`
}

// Report combines a page check with the user's own network identity, as the
// browser popup shows them side by side.
type Report struct {
	URL          string            `json:"url"`
	Check        *PageCheck        `json:"check"`
	Network      *netinfo.Info     `json:"network,omitempty"`
	NetworkError string            `json:"networkError,omitempty"`
	HostLocation *netinfo.Location `json:"hostLocation,omitempty"`
	GeneratedAt  time.Time         `json:"generatedAt"`
}

// Service is the NetShield use-case layer shared by the CLI and the API
// server. It is safe for concurrent use.
type Service struct {
	cfg    *Config
	deps   Deps
	logger logging.Logger
}

// NewService builds every collaborator from cfg.
func NewService(cfg *Config, logger logging.Logger) (*Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.Nop()
	}

	a, err := assessor.NewHeuristicsAssessor(&cfg.AssessorCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("new assessor: %w", err)
	}

	wc, err := webclient.NewWebClient(cfg.WebClientCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("new webclient: %w", err)
	}

	// providers share the plain HTTP client even when pages are rendered
	apiClient, err := webclient.NewNetHTTPClient(webclient.Config{Timeout: 10 * time.Second, MaxBodyBytes: 1 << 20}, logger, nil)
	if err != nil {
		_ = wc.Close()
		return nil, fmt.Errorf("new api client: %w", err)
	}
	ni := netinfo.NewService([]netinfo.Provider{
		&netinfo.IPWhoIs{Client: apiClient},
		&netinfo.IPAPICo{Client: apiClient},
	}, cfg.NetInfoTTL, logger)

	locator, err := netinfo.NewGeoIPLocator(cfg.GeoIPCityDB, cfg.GeoIPASNDB)
	if err != nil {
		_ = wc.Close()
		return nil, fmt.Errorf("new geoip locator: %w", err)
	}

	var store *history.Store
	if cfg.HistoryEnabled {
		path, err := cfg.HistoryPath()
		if err != nil {
			_ = wc.Close()
			locator.Close()
			return nil, fmt.Errorf("history path: %w", err)
		}
		store, err = history.Open(path, logger)
		if err != nil {
			_ = wc.Close()
			locator.Close()
			return nil, fmt.Errorf("open history: %w", err)
		}
	}

	return NewServiceWith(cfg, Deps{
		Assessor:  a,
		WebClient: wc,
		NetInfo:   ni,
		Locator:   locator,
		History:   store,
	}, logger), nil
}

// NewServiceWith wires a Service around already constructed collaborators.
func NewServiceWith(cfg *Config, deps Deps, logger logging.Logger) *Service {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	if deps.Assessor == nil {
		deps.Assessor = assessor.NewWithRuleset(assessor.DefaultRuleset(), logger)
	}
	return &Service{
		cfg:    cfg,
		deps:   deps,
		logger: logger.With(logging.Field{Key: "component", Value: "service"}),
	}
}

// CheckURL scores in.URL, folds in any page signals the caller observed and
// records the check.
func (s *Service) CheckURL(ctx context.Context, in assessor.RiskInput) assessor.RiskResult {
	result := s.deps.Assessor.EvaluateInput(in)
	s.record(ctx, history.FromResult(result, in.PageSignals, history.SourceURL))
	return result
}

// AnalyzePage fetches rawURL and extracts its page structure.
func (s *Service) AnalyzePage(ctx context.Context, rawURL string) (*pagesignals.PageInfo, error) {
	target, err := utils.ParseTarget(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFetchable, err)
	}
	if target.Protocol != "http:" && target.Protocol != "https:" {
		return nil, fmt.Errorf("%w: scheme %s", ErrNotFetchable, strings.TrimSuffix(target.Protocol, ":"))
	}
	if s.deps.WebClient == nil {
		return nil, fmt.Errorf("%w: no web client", ErrPageFetchFailure)
	}

	if s.cfg.PageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.PageTimeout)
		defer cancel()
	}

	resp, err := s.deps.WebClient.Get(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPageFetchFailure, err)
	}
	if resp.StatusCode >= 400 {
		s.logger.Debug("analysing error page",
			logging.Field{Key: "url", Value: rawURL},
			logging.Field{Key: "status", Value: resp.StatusCode})
	}

	info, err := pagesignals.Extract(rawURL, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("extract page: %w", err)
	}
	return info, nil
}

// CheckPage scores rawURL, then fetches the page and folds its signals in.
// A page that cannot be fetched leaves the URL-only score and is reported in
// PageError; only context cancellation fails the call.
func (s *Service) CheckPage(ctx context.Context, rawURL string) (*PageCheck, error) {
	result := s.deps.Assessor.Evaluate(rawURL)
	pc := &PageCheck{Result: result}

	if result.Level != assessor.LevelUnknown && !result.Internal() {
		page, err := s.AnalyzePage(ctx, rawURL)
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			s.logger.Warn("page analysis failed, using url score",
				logging.Field{Key: "url", Value: rawURL},
				logging.Field{Key: "error", Value: err.Error()})
			pc.PageError = err.Error()
		default:
			pc.Page = page
			pc.Result = s.deps.Assessor.ApplyPageSignals(result, page.Signals())
		}
	}

	var signals *assessor.PageSignals
	if pc.Page != nil {
		signals = pc.Page.Signals()
	}
	if rec := s.record(ctx, history.FromResult(pc.Result, signals, history.SourcePage)); rec != nil {
		pc.CheckID = rec.ID
	}
	return pc, nil
}

// NetworkInfo returns the caller's public network identity.
func (s *Service) NetworkInfo(ctx context.Context) (*netinfo.Info, error) {
	if s.deps.NetInfo == nil {
		return nil, ErrNetInfoDisabled
	}
	return s.deps.NetInfo.Lookup(ctx)
}

// Report runs the page check and the network lookup concurrently. A failed
// network lookup is carried in NetworkError rather than failing the report.
func (s *Service) Report(ctx context.Context, rawURL string) (*Report, error) {
	rep := &Report{URL: rawURL}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pc, err := s.CheckPage(gctx, rawURL)
		if err != nil {
			return fmt.Errorf("page check: %w", err)
		}
		rep.Check = pc
		return nil
	})
	g.Go(func() error {
		info, err := s.NetworkInfo(gctx)
		if err != nil {
			rep.NetworkError = err.Error()
			return nil
		}
		rep.Network = info
		return nil
	})
	g.Go(func() error {
		rep.HostLocation = s.locateHost(rawURL)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	rep.GeneratedAt = time.Now().UTC()
	return rep, nil
}

// locateHost looks up IP-literal hosts in the GeoIP databases.
func (s *Service) locateHost(rawURL string) *netinfo.Location {
	if s.deps.Locator == nil {
		return nil
	}
	target, err := utils.ParseTarget(rawURL)
	if err != nil || net.ParseIP(target.Hostname) == nil {
		return nil
	}
	loc, err := s.deps.Locator.Locate(target.Hostname)
	if err != nil {
		s.logger.Debug("geoip lookup failed",
			logging.Field{Key: "host", Value: target.Hostname},
			logging.Field{Key: "error", Value: err.Error()})
		return nil
	}
	return loc
}

// History lists recorded checks, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]history.Record, error) {
	if s.deps.History == nil {
		return nil, ErrHistoryDisabled
	}
	return s.deps.History.List(ctx, limit)
}

// GetCheck returns one recorded check.
func (s *Service) GetCheck(ctx context.Context, id string) (*history.Record, error) {
	if s.deps.History == nil {
		return nil, ErrHistoryDisabled
	}
	return s.deps.History.Get(ctx, id)
}

// record stores rec when history is enabled. Failures are logged only; a
// check result is never withheld because it could not be recorded.
func (s *Service) record(ctx context.Context, rec history.Record) *history.Record {
	if s.deps.History == nil {
		return nil
	}
	saved, err := s.deps.History.Save(context.WithoutCancel(ctx), rec)
	if err != nil {
		s.logger.Warn("recording check failed",
			logging.Field{Key: "url", Value: rec.URL},
			logging.Field{Key: "error", Value: err.Error()})
		return nil
	}
	return saved
}

// Close releases every collaborator.
func (s *Service) Close() error {
	var errs []error
	if s.deps.WebClient != nil {
		errs = append(errs, s.deps.WebClient.Close())
	}
	if s.deps.History != nil {
		errs = append(errs, s.deps.History.Close())
	}
	s.deps.Locator.Close()
	errs = append(errs, s.deps.Assessor.Close())
	return errors.Join(errs...)
}
