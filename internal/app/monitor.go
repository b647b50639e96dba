package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/proyectoj/assistant/internal/endpoint"
	"github.com/proyectoj/assistant/internal/logging"
	"github.com/proyectoj/assistant/internal/probe"
)

const (
	defaultMonitorInterval = 10 * time.Second
	defaultMonitorTimeout  = 15 * time.Second
	maxBackoff             = 30 * time.Second
	offlineAfter           = 2
)

var errUnreachable = errors.New("assistant server unreachable")

// Target is the resolver surface the monitor drives.
type Target interface {
	Resolve(ctx context.Context) (endpoint.Endpoint, bool)
	Current() (endpoint.Candidate, bool)
	Invalidate()
}

// Status is a point-in-time view of endpoint health.
type Status struct {
	Endpoint            endpoint.Endpoint
	Source              endpoint.Source
	LastChecked         time.Time
	LastError           error
	ConsecutiveFailures int
}

// IsOffline reports whether enough consecutive checks failed to call the
// server gone.
func (s Status) IsOffline() bool {
	return s.ConsecutiveFailures >= offlineAfter
}

// MonitorOptions configure StartMonitor.
type MonitorOptions struct {
	Interval     time.Duration
	ProbeTimeout time.Duration
	OnStatus     func(Status)
	Logger       *zerolog.Logger
}

// StartMonitor launches a goroutine that re-checks the trusted endpoint at
// opts.Interval, stretching the wait while checks keep failing. It returns a
// channel closed when the goroutine exits.
func StartMonitor(ctx context.Context, target Target, prober probe.Prober, opts MonitorOptions) <-chan struct{} {
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultMonitorInterval
	}
	timeout := opts.ProbeTimeout
	if timeout <= 0 {
		timeout = defaultMonitorTimeout
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = logging.Component(*opts.Logger, "monitor")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		failures := 0
		for {
			err := check(ctx, target, prober, timeout)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				failures++
				log.Warn().Err(err).Int("failures", failures).Msg("health check failed")
			} else {
				failures = 0
			}

			current, _ := target.Current()
			if opts.OnStatus != nil {
				opts.OnStatus(Status{
					Endpoint:            current.Endpoint,
					Source:              current.Source,
					LastChecked:         time.Now(),
					LastError:           err,
					ConsecutiveFailures: failures,
				})
			}

			timer := time.NewTimer(calculateBackoff(failures, interval))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
	return done
}

// check confirms the trusted endpoint. A failed probe invalidates it and runs
// discovery again; finding a replacement counts as success.
func check(ctx context.Context, target Target, prober probe.Prober, timeout time.Duration) error {
	e, ok := target.Resolve(ctx)
	if !ok {
		return errUnreachable
	}
	if prober.Probe(ctx, e, timeout) {
		return nil
	}
	target.Invalidate()
	if _, ok := target.Resolve(ctx); !ok {
		return fmt.Errorf("%w: %s stopped answering", errUnreachable, e)
	}
	return nil
}

// calculateBackoff doubles base for each consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures && d < maxBackoff; i++ {
		d *= 2
	}
	if d > maxBackoff {
		d = max(maxBackoff, base)
	}
	return d
}
