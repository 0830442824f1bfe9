package analysis

import (
	"context"

	"golang.org/x/sync/errgroup"

	"novellens/internal/artifact"
)

// prefetchLimit bounds the gateway calls Prefetch keeps in flight.
const prefetchLimit = 4

// Request names one artifact query.
type Request struct {
	Kind  artifact.Kind
	Query artifact.Query
}

// Prefetch fetches several artifacts concurrently so that later Fetch calls
// hit the cache. It returns the first error; the remaining fetches are
// canceled.
func (s *Store) Prefetch(ctx context.Context, reqs ...Request) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(prefetchLimit)
	for _, r := range reqs {
		g.Go(func() error {
			_, err := s.Fetch(gctx, r.Kind, r.Query)
			return err
		})
	}
	return g.Wait()
}
