// Package sweep probes every host of a /24 concurrently and returns the first
// healthy one.
package sweep

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/proyectoj/assistant/internal/endpoint"
	"github.com/proyectoj/assistant/internal/logging"
	"github.com/proyectoj/assistant/internal/metrics"
	"github.com/proyectoj/assistant/internal/probe"
)

const (
	DefaultWorkers      = 24
	DefaultDeadline     = 8 * time.Second
	DefaultProbeTimeout = 700 * time.Millisecond
)

// Options configure a Sweeper. Zero values take the defaults above.
type Options struct {
	Prober       probe.Prober
	Port         int
	Workers      int
	Deadline     time.Duration
	ProbeTimeout time.Duration
	Logger       *zerolog.Logger
	Metrics      *metrics.Metrics
}

// Sweeper runs bounded-concurrency subnet scans.
type Sweeper struct {
	prober       probe.Prober
	port         int
	workers      int
	deadline     time.Duration
	probeTimeout time.Duration
	log          zerolog.Logger
	metrics      *metrics.Metrics
}

// New builds a Sweeper.
func New(opts Options) *Sweeper {
	s := &Sweeper{
		prober:       opts.Prober,
		port:         opts.Port,
		workers:      opts.Workers,
		deadline:     opts.Deadline,
		probeTimeout: opts.ProbeTimeout,
		log:          zerolog.Nop(),
		metrics:      opts.Metrics,
	}
	if s.workers <= 0 {
		s.workers = DefaultWorkers
	}
	if s.deadline <= 0 {
		s.deadline = DefaultDeadline
	}
	if s.probeTimeout <= 0 {
		s.probeTimeout = DefaultProbeTimeout
	}
	if opts.Logger != nil {
		s.log = logging.Component(*opts.Logger, "sweep")
	}
	return s
}

// Hosts lists prefix.1 through prefix.254 on port.
func Hosts(prefix string, port int) []endpoint.Endpoint {
	out := make([]endpoint.Endpoint, 0, 254)
	for host := 1; host <= 254; host++ {
		out = append(out, endpoint.ForHost(prefix+"."+strconv.Itoa(host), port))
	}
	return out
}

// Sweep probes every host in prefix except those in skip and returns the
// first one found healthy. It gives up when the deadline passes. A blank
// prefix returns immediately with nothing.
//
// Once a winner is recorded no new probes start; probes already running are
// left to finish against the sweep deadline and their results are dropped.
func (s *Sweeper) Sweep(ctx context.Context, prefix string, skip endpoint.Set) (endpoint.Endpoint, bool) {
	if prefix == "" || s.prober == nil {
		return "", false
	}
	start := time.Now()
	sweepCtx, cancel := context.WithTimeout(ctx, s.deadline)

	var winner atomic.Pointer[endpoint.Endpoint]
	won := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer cancel()

		var g errgroup.Group
		g.SetLimit(s.workers)
		for _, candidate := range Hosts(prefix, s.port) {
			if winner.Load() != nil || sweepCtx.Err() != nil {
				break
			}
			if skip.Has(candidate) {
				continue
			}
			g.Go(func() error {
				if winner.Load() != nil || sweepCtx.Err() != nil {
					return nil
				}
				if s.prober.Probe(sweepCtx, candidate, s.probeTimeout) && winner.CompareAndSwap(nil, &candidate) {
					close(won)
				}
				return nil
			})
		}
		_ = g.Wait()
	}()

	select {
	case <-won:
	case <-done:
	case <-sweepCtx.Done():
	}

	elapsed := time.Since(start)
	found := winner.Load()
	s.metrics.ObserveSweep(elapsed, found != nil)
	if found == nil {
		s.log.Info().Str("prefix", prefix).Dur("elapsed", elapsed).Msg("sweep found no healthy host")
		return "", false
	}
	s.log.Info().Str("prefix", prefix).Str("endpoint", found.String()).Dur("elapsed", elapsed).Msg("sweep found server")
	return *found, true
}
