package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/raysh454/netshield/internal/assessor"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultBatchConcurrency bounds concurrent page fetches in CheckPages.
	DefaultBatchConcurrency = 4

	// MaxBatchSize is the largest URL list CheckPages accepts.
	MaxBatchSize = 50
)

var ErrBatchTooLarge = fmt.Errorf("batch exceeds %d urls", MaxBatchSize)

// CheckPages runs CheckPage over urls with at most concurrency fetches in
// flight. Results keep the order of urls. Individual page failures are soft
// as in CheckPage; only cancellation fails the batch.
func (s *Service) CheckPages(ctx context.Context, urls []string, concurrency int) ([]*PageCheck, error) {
	if len(urls) > MaxBatchSize {
		return nil, ErrBatchTooLarge
	}
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}

	out := make([]*PageCheck, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, u := range urls {
		g.Go(func() error {
			pc, err := s.CheckPage(gctx, u)
			if err != nil {
				return err
			}
			out[i] = pc
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("batch check: %w", err)
	}
	return out, nil
}

// WorstLevel returns the most severe level among checks. An empty or
// unscorable batch yields LevelUnknown.
func WorstLevel(checks []*PageCheck) assessor.Level {
	worst := assessor.LevelUnknown
	for _, pc := range checks {
		if pc != nil && pc.Result.Level.Severity() > worst.Severity() {
			worst = pc.Result.Level
		}
	}
	return worst
}
