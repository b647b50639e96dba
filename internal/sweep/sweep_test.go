package sweep

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proyectoj/assistant/internal/endpoint"
	"github.com/proyectoj/assistant/internal/metrics"
	"github.com/proyectoj/assistant/internal/probe"
)

const testPrefix = "192.168.50"

func TestHosts(t *testing.T) {
	hosts := Hosts(testPrefix, 8000)
	require.Len(t, hosts, 254)
	assert.Equal(t, endpoint.Endpoint("http://192.168.50.1:8000"), hosts[0])
	assert.Equal(t, endpoint.Endpoint("http://192.168.50.254:8000"), hosts[253])
}

func TestSweep_FindsOnlyHealthyHost(t *testing.T) {
	want := endpoint.ForHost(testPrefix+".117", 8000)
	prober := probe.Func(func(ctx context.Context, e endpoint.Endpoint, _ time.Duration) bool {
		select {
		case <-time.After(time.Duration(rand.IntN(20)) * time.Millisecond):
		case <-ctx.Done():
			return false
		}
		return e == want
	})

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	s := New(Options{Prober: prober, Port: 8000, Deadline: 5 * time.Second, Metrics: m})

	start := time.Now()
	got, ok := s.Sweep(context.Background(), testPrefix, nil)
	require.True(t, ok)
	assert.Equal(t, want, got)
	assert.Less(t, time.Since(start), 5*time.Second)

	count, err := testutil.GatherAndCount(reg, "assistant_discovery_sweep_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSweep_DeadlineReturnsNothing(t *testing.T) {
	prober := probe.Func(func(ctx context.Context, _ endpoint.Endpoint, _ time.Duration) bool {
		<-ctx.Done()
		return false
	})
	s := New(Options{Prober: prober, Port: 8000, Deadline: 150 * time.Millisecond})

	start := time.Now()
	got, ok := s.Sweep(context.Background(), testPrefix, nil)
	assert.False(t, ok)
	assert.Empty(t, got)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestSweep_RespectsWorkerCap(t *testing.T) {
	var inFlight, peak atomic.Int32
	prober := probe.Func(func(context.Context, endpoint.Endpoint, time.Duration) bool {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return false
	})
	s := New(Options{Prober: prober, Port: 8000, Workers: 4, Deadline: 10 * time.Second})

	_, ok := s.Sweep(context.Background(), testPrefix, nil)
	assert.False(t, ok)
	assert.LessOrEqual(t, peak.Load(), int32(4))
	assert.Positive(t, peak.Load())
}

func TestSweep_StopsDispatchingAfterWinner(t *testing.T) {
	first := endpoint.ForHost(testPrefix+".1", 8000)
	var calls atomic.Int32
	prober := probe.Func(func(ctx context.Context, e endpoint.Endpoint, _ time.Duration) bool {
		calls.Add(1)
		if e == first {
			return true
		}
		select {
		case <-time.After(50 * time.Millisecond):
		case <-ctx.Done():
		}
		return false
	})
	s := New(Options{Prober: prober, Port: 8000, Workers: 8, Deadline: 5 * time.Second})

	got, ok := s.Sweep(context.Background(), testPrefix, nil)
	require.True(t, ok)
	assert.Equal(t, first, got)

	time.Sleep(100 * time.Millisecond)
	assert.LessOrEqual(t, calls.Load(), int32(8))
}

func TestSweep_SkipsAlreadyTriedHosts(t *testing.T) {
	var mu sync.Mutex
	probed := endpoint.Set{}
	healthy := endpoint.ForHost(testPrefix+".10", 8000)
	prober := probe.Func(func(_ context.Context, e endpoint.Endpoint, _ time.Duration) bool {
		mu.Lock()
		probed.Add(e)
		mu.Unlock()
		return e == healthy
	})
	s := New(Options{Prober: prober, Port: 8000, Deadline: 5 * time.Second})

	skip := endpoint.Set{}
	skip.Add(healthy)
	_, ok := s.Sweep(context.Background(), testPrefix, skip)
	assert.False(t, ok, "skipped host must not be probed again")

	mu.Lock()
	defer mu.Unlock()
	assert.False(t, probed.Has(healthy))
	assert.Len(t, probed, 253)
}

func TestSweep_BlankPrefixIsSkipped(t *testing.T) {
	var calls atomic.Int32
	prober := probe.Func(func(context.Context, endpoint.Endpoint, time.Duration) bool {
		calls.Add(1)
		return true
	})
	s := New(Options{Prober: prober, Port: 8000})

	_, ok := s.Sweep(context.Background(), "", nil)
	assert.False(t, ok)
	assert.Zero(t, calls.Load())
}

func TestSweep_MultipleHealthyReturnsOneOfThem(t *testing.T) {
	healthy := endpoint.Set{}
	healthy.Add(endpoint.ForHost(testPrefix+".30", 8000))
	healthy.Add(endpoint.ForHost(testPrefix+".31", 8000))
	prober := probe.Func(func(_ context.Context, e endpoint.Endpoint, _ time.Duration) bool {
		return healthy.Has(e)
	})
	s := New(Options{Prober: prober, Port: 8000})

	got, ok := s.Sweep(context.Background(), testPrefix, nil)
	require.True(t, ok)
	assert.True(t, healthy.Has(got), "winner %s is not one of the healthy hosts", got)
}
