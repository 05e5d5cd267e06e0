package webclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/raysh454/netshield/internal/logging"
)

// maxIdleWaits bounds the wait for network idle to this many IdleAfter periods.
const maxIdleWaits = 5

// ChromedpClient renders pages in a headless browser so script-built login
// forms and iframes are visible to the page analyzer. Only GET is supported.
type ChromedpClient struct {
	cfg         Config
	logger      logging.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

func NewChromedpClient(cfg Config, logger logging.Logger) (*ChromedpClient, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	cfg = cfg.withDefaults()

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", cfg.Headless),
		chromedp.UserAgent(cfg.UserAgent),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	l := logger.With(logging.Field{Key: "backend", Value: "chromedp"})
	l.Info("created chromedp webclient",
		logging.Field{Key: "idle_after", Value: cfg.IdleAfter.String()},
		logging.Field{Key: "headless", Value: cfg.Headless})

	return &ChromedpClient{cfg: cfg, logger: l, allocCtx: allocCtx, allocCancel: allocCancel}, nil
}

// waitNetworkIdle signals once no request has been in flight for idleAfter.
func waitNetworkIdle(ctx context.Context, idleAfter time.Duration) <-chan struct{} {
	idleChan := make(chan struct{}, 1)
	var activeReqs int32
	var timer *time.Timer
	var timerMutex sync.Mutex
	var once sync.Once

	startTimer := func() {
		timerMutex.Lock()
		defer timerMutex.Unlock()

		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(idleAfter, func() {
			if atomic.LoadInt32(&activeReqs) == 0 {
				once.Do(func() { idleChan <- struct{}{} })
			}
		})
	}

	chromedp.ListenTarget(ctx, func(ev any) {
		switch ev.(type) {
		case *network.EventRequestWillBeSent:
			atomic.AddInt32(&activeReqs, 1)
		case *network.EventLoadingFinished, *network.EventLoadingFailed:
			if atomic.AddInt32(&activeReqs, -1) <= 0 {
				atomic.StoreInt32(&activeReqs, 0)
				startTimer()
			}
		}
	})

	return idleChan
}

// documentResponse records the status and headers of the top-level document.
type documentResponse struct {
	mu      sync.Mutex
	status  int
	headers http.Header
}

func (d *documentResponse) listen(ctx context.Context) {
	chromedp.ListenTarget(ctx, func(ev any) {
		e, ok := ev.(*network.EventResponseReceived)
		if !ok || e.Type != network.ResourceTypeDocument || e.Response == nil {
			return
		}
		d.mu.Lock()
		defer d.mu.Unlock()
		// the top-level page arrives before any iframe document
		if d.status != 0 {
			return
		}
		d.status = int(e.Response.Status)
		d.headers = http.Header{}
		for k, v := range e.Response.Headers {
			d.headers.Set(k, fmt.Sprint(v))
		}
	})
}

func (cdc *ChromedpClient) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, ErrNilRequest
	}
	if m := strings.ToUpper(req.Method); m != "" && m != http.MethodGet {
		return nil, fmt.Errorf("chromedp: %w: %s", ErrMethodNotSupported, m)
	}

	tabCtx, cancelTab := chromedp.NewContext(cdc.allocCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, cdc.cfg.Timeout)
	defer cancelTimeout()

	// stop rendering when the caller gives up
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	doc := &documentResponse{}
	doc.listen(tabCtx)
	idle := waitNetworkIdle(tabCtx, cdc.cfg.IdleAfter)

	actions := []chromedp.Action{network.Enable()}
	if len(req.Headers) > 0 {
		h := network.Headers{}
		for k := range req.Headers {
			h[k] = req.Headers.Get(k)
		}
		actions = append(actions, network.SetExtraHTTPHeaders(h))
	}
	actions = append(actions, chromedp.Navigate(req.URL))

	cdc.logger.Debug("rendering page", logging.Field{Key: "url", Value: req.URL})
	if err := chromedp.Run(tabCtx, actions...); err != nil {
		return nil, fmt.Errorf("chromedp navigate: %w", err)
	}

	// a page that never settles is still worth analysing
	select {
	case <-idle:
	case <-time.After(cdc.cfg.IdleAfter * maxIdleWaits):
		cdc.logger.Debug("network never idle", logging.Field{Key: "url", Value: req.URL})
	case <-tabCtx.Done():
		return nil, fmt.Errorf("chromedp render %s: %w", req.URL, tabCtx.Err())
	}

	var html string
	if err := chromedp.Run(tabCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("chromedp snapshot: %w", err)
	}

	body, truncated, _ := readCapped(strings.NewReader(html), cdc.cfg.MaxBodyBytes)

	doc.mu.Lock()
	status, headers := doc.status, doc.headers
	doc.mu.Unlock()
	if status == 0 {
		status = http.StatusOK
	}

	return &Response{
		Request:    req,
		Headers:    headers,
		Body:       body,
		StatusCode: status,
		FetchedAt:  time.Now(),
		Truncated:  truncated,
	}, nil
}

func (cdc *ChromedpClient) Get(ctx context.Context, url string) (*Response, error) {
	return cdc.Do(ctx, &Request{Method: http.MethodGet, URL: url})
}

func (cdc *ChromedpClient) Close() error {
	cdc.logger.Info("closing chromedp webclient")
	cdc.allocCancel()
	return nil
}

var (
	_ WebClient = (*NetHTTPClient)(nil)
	_ WebClient = (*ChromedpClient)(nil)
)
