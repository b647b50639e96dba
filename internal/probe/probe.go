// Package probe implements the single-shot liveness check used to verify
// candidate endpoints.
package probe

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/proyectoj/assistant/internal/endpoint"
	"github.com/proyectoj/assistant/internal/logging"
	"github.com/proyectoj/assistant/internal/metrics"
)

// HealthPath is the liveness route every backend exposes.
const HealthPath = "/health"

const userAgent = "assistant/1.0"

// Prober reports whether an endpoint answers its health check within timeout.
// Every failure mode collapses into false.
type Prober interface {
	Probe(ctx context.Context, e endpoint.Endpoint, timeout time.Duration) bool
}

// Func adapts a plain function to Prober.
type Func func(ctx context.Context, e endpoint.Endpoint, timeout time.Duration) bool

// Probe calls f.
func (f Func) Probe(ctx context.Context, e endpoint.Endpoint, timeout time.Duration) bool {
	return f(ctx, e, timeout)
}

// Ensure HTTPProber implements Prober at compile time.
var _ Prober = (*HTTPProber)(nil)

// Options configure an HTTPProber.
type Options struct {
	Logger  *zerolog.Logger
	Metrics *metrics.Metrics
}

// HTTPProber issues GET <endpoint>/health and expects {"status":"ok"}.
type HTTPProber struct {
	http    *resty.Client
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// NewHTTPProber builds a prober. The per-call timeout is applied through the
// request context so it bounds connect, write and read together.
func NewHTTPProber(opts Options) *HTTPProber {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = logging.Component(*opts.Logger, "probe")
	}
	client := resty.New().
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent).
		SetRetryCount(0).
		SetLogger(logging.RestyLogger{Log: log})
	return &HTTPProber{http: client, log: log, metrics: opts.Metrics}
}

// Probe performs one health check.
func (p *HTTPProber) Probe(ctx context.Context, e endpoint.Endpoint, timeout time.Duration) bool {
	healthy := p.check(ctx, e, timeout)
	p.metrics.ObserveProbe(healthy)
	p.log.Debug().Str("endpoint", e.String()).Bool("healthy", healthy).Msg("probe")
	return healthy
}

func (p *HTTPProber) check(ctx context.Context, e endpoint.Endpoint, timeout time.Duration) bool {
	if e.IsZero() {
		return false
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	resp, err := p.http.R().SetContext(ctx).Get(e.Join(HealthPath))
	if err != nil {
		return false
	}
	if !resp.IsSuccess() {
		return false
	}
	return HealthyBody(resp.Body())
}

// HealthyBody reports whether body is a JSON object whose status field is
// the string "ok".
func HealthyBody(body []byte) bool {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return false
	}
	raw, ok := payload["status"]
	if !ok {
		return false
	}
	var status string
	if err := json.Unmarshal(raw, &status); err != nil {
		return false
	}
	return status == "ok"
}
