package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/raysh454/netshield/internal/assessor"
	"github.com/raysh454/netshield/internal/cli"
	"github.com/raysh454/netshield/internal/logging"
)

var ErrUnsupportedJob = errors.New("job is not run by the application")

// Application is the global runtime state container.
// It holds config, parsed CLI args and the core services that are shared
// across modules. Pass Application into modules that need access to the
// global state rather than using package-level variables.
type Application struct {
	Config *Config
	Args   *cli.CLIArgs

	Logger  logging.Logger
	Service *Service

	// internal context for cancellation / lifecycle
	ctx    context.Context
	cancel context.CancelFunc
}

// NewApplication constructs an Application from the provided parts.
// Keep the constructor simple: pass already-constructed parts so this function
// is easy to test.
func NewApplication(cfg *Config, args *cli.CLIArgs, logger logging.Logger, svc *Service) *Application {
	ctx, cancel := context.WithCancel(context.Background())
	if logger == nil {
		logger = logging.Nop()
	}

	return &Application{
		Config:  cfg,
		Args:    args,
		Logger:  logger,
		Service: svc,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Context is cancelled once Shutdown runs.
func (a *Application) Context() context.Context {
	return a.ctx
}

// Run executes a one-shot job and writes its result to out as JSON. The
// serve job is started by the caller, which owns the server.
func (a *Application) Run(ctx context.Context, out io.Writer) error {
	if a == nil {
		return errors.New("application is nil")
	}
	if a.Args == nil || a.Service == nil {
		return errors.New("application is not fully wired")
	}

	a.Logger.Debug("running job",
		logging.Field{Key: "job", Value: a.Args.JobType},
		logging.Field{Key: "url", Value: a.Args.URL})

	var (
		result any
		err    error
	)
	switch a.Args.JobType {
	case cli.JobCheck:
		in := assessor.RiskInput{URL: a.Args.URL}
		if a.Args.LoginForm || a.Args.HiddenIframes > 0 {
			in.PageSignals = &assessor.PageSignals{
				HasLoginForm:      a.Args.LoginForm,
				HiddenIframeCount: a.Args.HiddenIframes,
			}
		}
		result = a.Service.CheckURL(ctx, in)
	case cli.JobPage:
		result, err = a.Service.CheckPage(ctx, a.Args.URL)
	case cli.JobNetwork:
		result, err = a.Service.NetworkInfo(ctx)
	case cli.JobReport:
		result, err = a.Service.Report(ctx, a.Args.URL)
	case cli.JobHistory:
		if a.Args.ID != "" {
			result, err = a.Service.GetCheck(ctx, a.Args.ID)
		} else {
			result, err = a.Service.History(ctx, a.Args.Limit)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedJob, a.Args.JobType)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", a.Args.JobType, err)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// Shutdown releases the service and cancels the application context.
func (a *Application) Shutdown(ctx context.Context) error {
	if a == nil {
		return errors.New("application is nil")
	}
	a.Logger.Info("application shutdown initiated")

	done := make(chan error, 1)
	go func() {
		if a.Service == nil {
			done <- nil
			return
		}
		done <- a.Service.Close()
	}()

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	var err error
	select {
	case err = <-done:
		if err != nil {
			a.Logger.Warn("service close returned error", logging.Field{Key: "error", Value: err.Error()})
		}
	case <-shutdownCtx.Done():
		err = shutdownCtx.Err()
	}

	// cancel internal ctx to signal local components/tests
	a.cancel()
	return err
}
