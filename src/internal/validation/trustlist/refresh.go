// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package trustlist

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/H0llyW00dzZ/x509-trust-validator/src/logger"
)

// Default refresh settings.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultConcurrency = 4
	DefaultCacheSize   = 256
)

// Option configures a Refresher.
type Option func(*Refresher)

// WithTimeout bounds each source fetch.
func WithTimeout(d time.Duration) Option {
	return func(r *Refresher) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithMaxAge sets how long a snapshot stays fresh after the issue date of its
// oldest list. Zero disables staleness.
func WithMaxAge(d time.Duration) Option {
	return func(r *Refresher) { r.maxAge = d }
}

// WithCacheSize sets the number of certificate lookups a snapshot memoizes.
func WithCacheSize(n int) Option {
	return func(r *Refresher) {
		if n > 0 {
			r.cacheSize = n
		}
	}
}

// WithLogger sets the logger receiving one line per fetched list.
func WithLogger(l logger.Logger) Option {
	return func(r *Refresher) { r.log = logger.OrDiscard(l) }
}

// Refresher fetches every configured source concurrently and assembles a Snapshot.
type Refresher struct {
	sources   []Source
	timeout   time.Duration
	maxAge    time.Duration
	cacheSize int
	log       logger.Logger
}

// NewRefresher creates a Refresher over sources.
func NewRefresher(sources []Source, opts ...Option) *Refresher {
	r := &Refresher{
		sources:   sources,
		timeout:   DefaultTimeout,
		cacheSize: DefaultCacheSize,
		log:       logger.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Refresh fetches all sources, at most DefaultConcurrency at a time, each bounded
// by the configured timeout.
//
// Parameters:
//   - ctx: Cancels every pending fetch
//
// Returns:
//   - *Snapshot: The merged lists
//   - error: ErrNoSources, or the first fetch error. A failed refresh returns no
//     snapshot so callers keep validating against their previous one, which then
//     turns stale.
func (r *Refresher) Refresh(ctx context.Context) (*Snapshot, error) {
	if len(r.sources) == 0 {
		return nil, ErrNoSources
	}

	lists := make([]*List, len(r.sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(DefaultConcurrency)

	for i, src := range r.sources {
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(gctx, r.timeout)
			defer cancel()

			l, err := src.Fetch(fctx)
			if err != nil {
				return fmt.Errorf("trustlist: fetch %s: %w", src.Name(), err)
			}
			lists[i] = l
			r.log.Printf("Fetched trusted list %s (%s) issued %s with %d entries",
				l.Territory, src.Name(), l.IssuedAt.UTC().Format(time.RFC3339), len(l.Entries))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return NewSnapshot(lists, r.maxAge, r.cacheSize)
}
