package netinfo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/raysh454/netshield/internal/logging"
)

// DefaultTTL is how long a successful lookup is reused.
const DefaultTTL = 5 * time.Minute

// Service tries its providers in order and caches the first success.
type Service struct {
	providers []Provider
	ttl       time.Duration
	logger    logging.Logger
	now       func() time.Time

	mu       sync.Mutex
	cached   *Info
	cachedAt time.Time
}

// NewService builds a Service. A ttl <= 0 uses DefaultTTL.
func NewService(providers []Provider, ttl time.Duration, logger logging.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Service{
		providers: providers,
		ttl:       ttl,
		logger:    logger.With(logging.Field{Key: "component", Value: "netinfo"}),
		now:       time.Now,
	}
}

// SetClock replaces the time source; tests use it to expire the cache.
func (s *Service) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Lookup returns the cached Info while it is fresh, otherwise asks each
// provider in turn. Concurrent callers share one refresh.
func (s *Service) Lookup(ctx context.Context) (*Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil && s.now().Sub(s.cachedAt) < s.ttl {
		out := *s.cached
		return &out, nil
	}
	if len(s.providers) == 0 {
		return nil, ErrNoProvider
	}

	var errs []error
	for _, p := range s.providers {
		info, err := p.Lookup(ctx)
		if err != nil {
			s.logger.Warn("netinfo provider failed",
				logging.Field{Key: "provider", Value: p.Name()},
				logging.Field{Key: "error", Value: err.Error()})
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		s.cached = info
		s.cachedAt = s.now()
		s.logger.Debug("netinfo lookup succeeded", logging.Field{Key: "provider", Value: p.Name()})
		out := *info
		return &out, nil
	}

	return nil, fmt.Errorf("%w: %w", ErrLookupFailed, errors.Join(errs...))
}

// Invalidate drops the cached Info.
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = nil
}
