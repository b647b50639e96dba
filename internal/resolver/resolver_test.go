package resolver

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proyectoj/assistant/internal/cache"
	"github.com/proyectoj/assistant/internal/candidates"
	"github.com/proyectoj/assistant/internal/endpoint"
	"github.com/proyectoj/assistant/internal/metrics"
	"github.com/proyectoj/assistant/internal/netinfo"
	"github.com/proyectoj/assistant/internal/sweep"
)

const (
	public    endpoint.Endpoint = "https://relay.example.com"
	cachedLAN endpoint.Endpoint = "http://192.168.1.77:8000"
	prefix                      = "192.168.1"

	discoveryTimeout = 700 * time.Millisecond
	confirmTimeout   = 15 * time.Second
)

type probeCall struct {
	endpoint endpoint.Endpoint
	timeout  time.Duration
}

// fakeProber answers from a mutable healthy set and records every call.
type fakeProber struct {
	mu      sync.Mutex
	healthy endpoint.Set
	calls   []probeCall
}

func newFakeProber(healthy ...endpoint.Endpoint) *fakeProber {
	p := &fakeProber{healthy: endpoint.Set{}}
	for _, e := range healthy {
		p.healthy.Add(e)
	}
	return p
}

func (p *fakeProber) Probe(_ context.Context, e endpoint.Endpoint, timeout time.Duration) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, probeCall{endpoint: e, timeout: timeout})
	return p.healthy.Has(e)
}

func (p *fakeProber) setHealthy(healthy ...endpoint.Endpoint) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.healthy = endpoint.Set{}
	for _, e := range healthy {
		p.healthy.Add(e)
	}
}

func (p *fakeProber) probed() []probeCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]probeCall(nil), p.calls...)
}

func (p *fakeProber) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = nil
}

type fakeSweeper struct {
	calls  atomic.Int32
	result endpoint.Endpoint
	skip   endpoint.Set
}

func (s *fakeSweeper) Sweep(_ context.Context, _ string, skip endpoint.Set) (endpoint.Endpoint, bool) {
	s.calls.Add(1)
	s.skip = skip
	return s.result, !s.result.IsZero()
}

type harness struct {
	resolver *Resolver
	prober   *fakeProber
	sweeper  *fakeSweeper
	cache    *cache.Memory
	metrics  *metrics.Metrics
}

func newHarness(t *testing.T, publicURL endpoint.Endpoint, cached endpoint.Endpoint, prober *fakeProber) *harness {
	t.Helper()
	c := &cache.Memory{}
	if cached != "" {
		require.NoError(t, c.Put(cached))
	}
	m := metrics.New(prometheus.NewRegistry())
	sw := &fakeSweeper{}
	src := candidates.New(candidates.Options{
		Public:       publicURL,
		Cache:        c,
		Prefix:       netinfo.Static(prefix),
		Port:         8000,
		EmulatorHost: "10.0.2.2",
		FallbackHost: "192.168.1.2",
	})
	r := mustNew(t, Options{
		Source:           src,
		Prober:           prober,
		Sweeper:          sw,
		Cache:            c,
		DiscoveryTimeout: discoveryTimeout,
		ConfirmTimeout:   confirmTimeout,
		Metrics:          m,
	})
	return &harness{resolver: r, prober: prober, sweeper: sw, cache: c, metrics: m}
}

func TestResolve_PublicFirstWithConfirmTimeout(t *testing.T) {
	h := newHarness(t, public, cachedLAN, newFakeProber(public, cachedLAN))

	got, ok := h.resolver.Resolve(context.Background())
	require.True(t, ok)
	assert.Equal(t, public, got)

	calls := h.prober.probed()
	require.Len(t, calls, 1)
	assert.Equal(t, confirmTimeout, calls[0].timeout)

	stored, _ := h.cache.Get()
	assert.Equal(t, public, stored, "public success should be persisted")
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.ResolutionsTotal.WithLabelValues("public")))
}

func TestResolve_CachedHealthySkipsLaterTiers(t *testing.T) {
	h := newHarness(t, public, cachedLAN, newFakeProber(cachedLAN, "http://10.0.2.2:8000"))

	got, ok := h.resolver.Resolve(context.Background())
	require.True(t, ok)
	assert.Equal(t, cachedLAN, got)

	calls := h.prober.probed()
	require.Len(t, calls, 2)
	assert.Equal(t, public, calls[0].endpoint)
	assert.Equal(t, cachedLAN, calls[1].endpoint)
	assert.Equal(t, discoveryTimeout, calls[1].timeout)
	assert.Zero(t, h.sweeper.calls.Load())

	current, ok := h.resolver.Current()
	require.True(t, ok)
	assert.Equal(t, endpoint.SourceCached, current.Source)
}

func TestResolve_WellKnownOnlyAfterPublicAndCached(t *testing.T) {
	wellKnown := endpoint.Endpoint("http://192.168.1.100:8000")
	h := newHarness(t, public, cachedLAN, newFakeProber(wellKnown))

	got, ok := h.resolver.Resolve(context.Background())
	require.True(t, ok)
	assert.Equal(t, wellKnown, got)

	calls := h.prober.probed()
	require.GreaterOrEqual(t, len(calls), 3)
	assert.Equal(t, public, calls[0].endpoint)
	assert.Equal(t, cachedLAN, calls[1].endpoint)
	assert.Equal(t, endpoint.Endpoint("http://10.0.2.2:8000"), calls[2].endpoint)
	assert.Equal(t, wellKnown, calls[len(calls)-1].endpoint)
	for _, c := range calls[1:] {
		assert.Equal(t, discoveryTimeout, c.timeout)
	}

	stored, _ := h.cache.Get()
	assert.Equal(t, wellKnown, stored)
}

func TestResolve_FallsBackToSweepWithTriedSet(t *testing.T) {
	swept := endpoint.Endpoint("http://192.168.1.117:8000")
	h := newHarness(t, "", "", newFakeProber(swept))
	h.sweeper.result = swept

	got, ok := h.resolver.Resolve(context.Background())
	require.True(t, ok)
	assert.Equal(t, swept, got)
	assert.Equal(t, int32(1), h.sweeper.calls.Load())

	for _, c := range h.prober.probed() {
		assert.True(t, h.sweeper.skip.Has(c.endpoint), "tiered candidate %s not passed to sweep skip set", c.endpoint)
	}
	current, _ := h.resolver.Current()
	assert.Equal(t, endpoint.SourceSweep, current.Source)
}

func TestResolve_FastPathDoesNotProbe(t *testing.T) {
	h := newHarness(t, public, "", newFakeProber(public))

	_, ok := h.resolver.Resolve(context.Background())
	require.True(t, ok)
	h.prober.reset()
	h.prober.setHealthy()

	got, ok := h.resolver.Resolve(context.Background())
	require.True(t, ok)
	assert.Equal(t, public, got)
	assert.Empty(t, h.prober.probed())
}

func TestResolve_ReturnedEndpointWasHealthy(t *testing.T) {
	wellKnown := endpoint.Endpoint("http://192.168.1.150:8000")
	p := newFakeProber(wellKnown)
	h := newHarness(t, public, cachedLAN, p)

	got, ok := h.resolver.Resolve(context.Background())
	require.True(t, ok)
	assert.True(t, p.Probe(context.Background(), got, time.Second))
}

func TestInvalidate_ThenAllUnhealthyReturnsNothing(t *testing.T) {
	h := newHarness(t, public, "", newFakeProber(public))

	_, ok := h.resolver.Resolve(context.Background())
	require.True(t, ok)

	h.prober.setHealthy()
	h.resolver.Invalidate()

	_, cached := h.cache.Get()
	assert.False(t, cached, "invalidate should clear the persisted record")
	_, current := h.resolver.Current()
	assert.False(t, current)

	var got endpoint.Endpoint
	assert.NotPanics(t, func() { got, ok = h.resolver.Resolve(context.Background()) })
	assert.False(t, ok)
	assert.Empty(t, got)
	assert.Equal(t, int32(1), h.sweeper.calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.ResolutionsTotal.WithLabelValues("none")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.InvalidationsTotal))
}

func TestInvalidate_ForcesFullWalk(t *testing.T) {
	h := newHarness(t, public, "", newFakeProber(public))
	_, ok := h.resolver.Resolve(context.Background())
	require.True(t, ok)

	h.resolver.Invalidate()
	h.prober.reset()

	_, ok = h.resolver.Resolve(context.Background())
	require.True(t, ok)
	assert.Len(t, h.prober.probed(), 1, "resolve after invalidate must probe again")
}

func TestResolve_NoPrefixSkipsSweep(t *testing.T) {
	p := newFakeProber()
	sw := &fakeSweeper{result: "http://192.168.1.9:8000"}
	r := mustNew(t, Options{
		Source:  candidates.New(candidates.Options{Port: 8000, Prefix: netinfo.Static("")}),
		Prober:  p,
		Sweeper: sw,
	})

	_, ok := r.Resolve(context.Background())
	assert.False(t, ok)
	assert.Zero(t, sw.calls.Load())
}

func TestResolve_ConcurrentCallersShareDiscovery(t *testing.T) {
	release := make(chan struct{})
	var publicProbes atomic.Int32
	blocking := &gatedProber{release: release, healthy: public, count: &publicProbes}

	src := candidates.New(candidates.Options{Public: public, Port: 8000})
	r := mustNew(t, Options{Source: src, Prober: blocking, ConfirmTimeout: time.Second})

	const callers = 8
	var wg sync.WaitGroup
	results := make([]endpoint.Endpoint, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = r.Resolve(context.Background())
		}(i)
	}

	require.Eventually(t, func() bool { return publicProbes.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), publicProbes.Load())
	for _, got := range results {
		assert.Equal(t, public, got)
	}
}

func TestResolve_CallerContextCancelStopsWaiting(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	var probes atomic.Int32
	src := candidates.New(candidates.Options{Public: public, Port: 8000})
	r := mustNew(t, Options{Source: src, Prober: &gatedProber{release: release, healthy: public, count: &probes}})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, ok := r.Resolve(ctx)
	assert.False(t, ok)
}

func TestResolve_WithRealSweeper(t *testing.T) {
	target := endpoint.Endpoint("http://192.168.1.117:8000")
	p := newFakeProber(target)
	src := candidates.New(candidates.Options{Port: 8000, Prefix: netinfo.Static(prefix), Hosts: []int{}})
	r := mustNew(t, Options{
		Source:           src,
		Prober:           p,
		Sweeper:          sweep.New(sweep.Options{Prober: p, Port: 8000, Deadline: 2 * time.Second}),
		DiscoveryTimeout: discoveryTimeout,
	})

	got, ok := r.Resolve(context.Background())
	require.True(t, ok)
	assert.Equal(t, target, got)
}

type gatedProber struct {
	release <-chan struct{}
	healthy endpoint.Endpoint
	count   *atomic.Int32
}

func (g *gatedProber) Probe(_ context.Context, e endpoint.Endpoint, _ time.Duration) bool {
	g.count.Add(1)
	<-g.release
	return e == g.healthy
}

func mustNew(t *testing.T, opts Options) *Resolver {
	t.Helper()
	r, err := New(opts)
	require.NoError(t, err)
	return r
}

func TestNew_RejectsMissingReachabilityCheck(t *testing.T) {
	r, err := New(Options{Source: candidates.New(candidates.Options{Public: public})})
	assert.Error(t, err)
	assert.Nil(t, r)
}

func TestLookup_ReturnsCandidateWithResolvedTime(t *testing.T) {
	h := newHarness(t, public, cachedLAN, newFakeProber(cachedLAN))

	before := time.Now()
	snap, ok := h.resolver.Lookup(context.Background())
	require.True(t, ok)
	assert.Equal(t, cachedLAN, snap.Candidate.Endpoint)
	assert.Equal(t, endpoint.SourceCached, snap.Candidate.Source)
	assert.False(t, snap.ResolvedAt.Before(before))

	h.resolver.Invalidate()

	again, ok := h.resolver.Lookup(context.Background())
	require.True(t, ok)
	assert.False(t, again.ResolvedAt.Before(snap.ResolvedAt))
}

func TestLookup_FastPathKeepsResolvedTime(t *testing.T) {
	h := newHarness(t, public, "", newFakeProber(public))

	first, ok := h.resolver.Lookup(context.Background())
	require.True(t, ok)
	second, ok := h.resolver.Lookup(context.Background())
	require.True(t, ok)
	assert.Equal(t, first.ResolvedAt, second.ResolvedAt)
	assert.Equal(t, first.Candidate, second.Candidate)
}
