package webclient

import "time"

type Client string

const (
	ClientNetHTTP  Client = "nethttp"
	ClientChromedp Client = "chromedp"
)

// Config selects and tunes a WebClient backend. app.Config builds one from
// the environment so this package never imports app.
type Config struct {
	Client Client

	// Timeout bounds a whole fetch, including rendering for chromedp.
	Timeout time.Duration

	// MaxBodyBytes caps how much of a body is kept; <= 0 disables the cap.
	MaxBodyBytes int64

	UserAgent string

	// IdleAfter is how long the network must stay quiet before chromedp
	// considers a page rendered.
	IdleAfter time.Duration
	Headless  bool
}

// DefaultConfig returns the nethttp settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Client:       ClientNetHTTP,
		Timeout:      15 * time.Second,
		MaxBodyBytes: 5 << 20,
		UserAgent:    "NetShield/1.0 (+page-analyzer)",
		IdleAfter:    2 * time.Second,
		Headless:     true,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.IdleAfter <= 0 {
		c.IdleAfter = d.IdleAfter
	}
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	return c
}
