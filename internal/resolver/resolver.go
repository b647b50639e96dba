// Package resolver finds, verifies and remembers the backend base URL.
package resolver

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/proyectoj/assistant/internal/cache"
	"github.com/proyectoj/assistant/internal/endpoint"
	"github.com/proyectoj/assistant/internal/logging"
	"github.com/proyectoj/assistant/internal/metrics"
	"github.com/proyectoj/assistant/internal/probe"
	"github.com/proyectoj/assistant/internal/state"
)

// CandidateSource yields tiered candidates and the local /24 prefix.
type CandidateSource interface {
	Candidates() iter.Seq[endpoint.Candidate]
	Prefix() (string, bool)
}

// Sweeper scans a /24 for a healthy host.
type Sweeper interface {
	Sweep(ctx context.Context, prefix string, skip endpoint.Set) (endpoint.Endpoint, bool)
}

const resolveKey = "resolve"

// Options configure a Resolver.
type Options struct {
	Source  CandidateSource
	Prober  probe.Prober
	Sweeper Sweeper
	Cache   cache.Cache

	// DiscoveryTimeout bounds probes of cached and LAN candidates.
	DiscoveryTimeout time.Duration
	// ConfirmTimeout bounds the probe of the public relay.
	ConfirmTimeout time.Duration

	Logger  *zerolog.Logger
	Metrics *metrics.Metrics
}

// Resolver owns the process's trusted endpoint. It is safe for concurrent use.
type Resolver struct {
	source  CandidateSource
	prober  probe.Prober
	sweeper Sweeper
	cache   cache.Cache

	discoveryTimeout time.Duration
	confirmTimeout   time.Duration

	state   state.Store
	flight  singleflight.Group
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// New builds a Resolver. A prober is required; Cache defaults to an
// in-memory slot.
func New(opts Options) (*Resolver, error) {
	if opts.Prober == nil {
		return nil, fmt.Errorf("prober is nil")
	}
	r := &Resolver{
		source:           opts.Source,
		prober:           opts.Prober,
		sweeper:          opts.Sweeper,
		cache:            opts.Cache,
		discoveryTimeout: opts.DiscoveryTimeout,
		confirmTimeout:   opts.ConfirmTimeout,
		log:              zerolog.Nop(),
		metrics:          opts.Metrics,
	}
	if r.cache == nil {
		r.cache = &cache.Memory{}
	}
	if opts.Logger != nil {
		r.log = logging.Component(*opts.Logger, "resolver")
	}
	return r, nil
}

// Resolve returns the trusted endpoint, discovering one if needed. The
// second result is false when no candidate passed its health check; callers
// must treat that as the service being unreachable.
func (r *Resolver) Resolve(ctx context.Context) (endpoint.Endpoint, bool) {
	snap, ok := r.Lookup(ctx)
	return snap.Candidate.Endpoint, ok
}

// Lookup is Resolve returning the whole resolution: the candidate with its
// source and when it was trusted.
//
// A trusted endpoint is returned without probing. Concurrent callers that
// find no trusted endpoint share a single discovery run; a caller whose ctx
// ends stops waiting but does not cancel the shared run.
func (r *Resolver) Lookup(ctx context.Context) (state.Snapshot, bool) {
	if snap := r.state.Snapshot(); snap.Resolved {
		return snap, true
	}

	ch := r.flight.DoChan(resolveKey, func() (any, error) {
		if snap := r.state.Snapshot(); snap.Resolved {
			return snap, nil
		}
		return r.discover(context.WithoutCancel(ctx)), nil
	})

	select {
	case res := <-ch:
		snap := res.Val.(state.Snapshot)
		return snap, snap.Resolved
	case <-ctx.Done():
		return state.Snapshot{}, false
	}
}

// Current returns the trusted candidate without triggering discovery.
func (r *Resolver) Current() (endpoint.Candidate, bool) {
	snap := r.state.Snapshot()
	return snap.Candidate, snap.Resolved
}

// Invalidate forgets the trusted endpoint both in memory and on disk. The
// next Resolve runs full discovery.
func (r *Resolver) Invalidate() {
	prev, had := r.state.Load()
	r.state.Clear()
	if err := r.cache.Clear(); err != nil {
		r.log.Warn().Err(err).Msg("clear endpoint cache")
	}
	r.metrics.ObserveInvalidation()
	if had {
		r.log.Info().Str("endpoint", prev.String()).Msg("invalidated assistant server")
	}
}

func (r *Resolver) discover(ctx context.Context) state.Snapshot {
	tried := endpoint.Set{}

	if r.source != nil {
		for c := range r.source.Candidates() {
			if ctx.Err() != nil {
				break
			}
			tried.Add(c.Endpoint)
			if r.prober.Probe(ctx, c.Endpoint, r.timeoutFor(c.Source)) {
				return r.accept(c)
			}
			r.log.Debug().Str("candidate", c.String()).Msg("candidate unhealthy")
		}

		if prefix, ok := r.source.Prefix(); ok && r.sweeper != nil && ctx.Err() == nil {
			r.log.Info().Str("prefix", prefix).Msg("sweeping subnet")
			if e, found := r.sweeper.Sweep(ctx, prefix, tried); found {
				return r.accept(endpoint.Candidate{Endpoint: e, Source: endpoint.SourceSweep})
			}
		}
	}

	r.metrics.ObserveResolution("none")
	r.log.Error().Int("tried", len(tried)).Msg("server discovery failed: no healthy /health endpoint found")
	return state.Snapshot{}
}

func (r *Resolver) accept(c endpoint.Candidate) state.Snapshot {
	if err := r.cache.Put(c.Endpoint); err != nil {
		r.log.Warn().Err(err).Str("endpoint", c.Endpoint.String()).Msg("persist endpoint")
	}
	snap := r.state.Set(c)
	r.metrics.ObserveResolution(c.Source.String())
	r.log.Info().Str("endpoint", c.Endpoint.String()).Stringer("source", c.Source).Msg("using assistant server")
	return snap
}

func (r *Resolver) timeoutFor(src endpoint.Source) time.Duration {
	if src == endpoint.SourcePublic && r.confirmTimeout > 0 {
		return r.confirmTimeout
	}
	return r.discoveryTimeout
}
