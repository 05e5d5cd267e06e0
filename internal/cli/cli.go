package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

// Job names accepted by -job.
const (
	JobServe   = "serve"
	JobCheck   = "check"
	JobPage    = "page"
	JobNetwork = "network"
	JobReport  = "report"
	JobHistory = "history"
)

var ErrMissingURL = errors.New("missing required -url argument")

// CLIArgs are the command-line arguments that control a single run.
type CLIArgs struct {
	// JobType selects what to do; see the Job constants.
	JobType string

	// URL is the address to score for check, page and report.
	URL string

	// LoginForm and HiddenIframes feed observed page signals into a check job
	// without fetching the page.
	LoginForm     bool
	HiddenIframes int

	// Limit and ID select history entries.
	Limit int
	ID    string

	// ListenAddr overrides the configured API address for serve; empty keeps it.
	ListenAddr string

	// EnvFile is an optional dotenv file read before the environment.
	EnvFile string

	// RawArgs is the original args slice (useful for debugging/tests).
	RawArgs []string
}

var jobs = map[string]bool{
	JobServe: true, JobCheck: true, JobPage: true,
	JobNetwork: true, JobReport: true, JobHistory: true,
}

// ParseArgs parses a slice of args and returns CLIArgs. Use in tests by passing
// arbitrary slices. The function is deterministic and does not read os.Args.
func ParseArgs(args []string) (*CLIArgs, error) {
	fs := flag.NewFlagSet("netshield", flag.ContinueOnError)
	var (
		jobType    = fs.String("job", JobCheck, "Job type: serve|check|page|network|report|history")
		target     = fs.String("url", "", "URL to score (check, page, report)")
		loginForm  = fs.Bool("login-form", false, "Page has a password field (check only)")
		iframes    = fs.Int("hidden-iframes", 0, "Number of hidden iframes on the page (check only)")
		limit      = fs.Int("limit", 0, "Number of history entries to list (0=default)")
		id         = fs.String("id", "", "History entry to show")
		listenAddr = fs.String("addr", "", "API listen address for serve (empty=use config)")
		envFile    = fs.String("env", "", "Dotenv file to load before the environment")
	)

	// Ensure Parse doesn't write to stdout/stderr in tests
	fs.SetOutput(io.Discard)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	job := strings.ToLower(strings.TrimSpace(*jobType))
	if !jobs[job] {
		return nil, fmt.Errorf("unknown job %q", *jobType)
	}

	url := strings.TrimSpace(*target)
	switch job {
	case JobCheck, JobPage, JobReport:
		// an empty URL is a valid check input (internal page), but only when
		// asked for explicitly
		if url == "" && !flagSet(fs, "url") {
			return nil, ErrMissingURL
		}
	}

	if *iframes < 0 {
		return nil, fmt.Errorf("-hidden-iframes must not be negative")
	}
	if *limit < 0 {
		return nil, fmt.Errorf("-limit must not be negative")
	}

	return &CLIArgs{
		JobType:       job,
		URL:           url,
		LoginForm:     *loginForm,
		HiddenIframes: *iframes,
		Limit:         *limit,
		ID:            strings.TrimSpace(*id),
		ListenAddr:    strings.TrimSpace(*listenAddr),
		EnvFile:       strings.TrimSpace(*envFile),
		RawArgs:       args,
	}, nil
}

func flagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
