package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/proyectoj/assistant/internal/assistant"
	"github.com/proyectoj/assistant/internal/cache"
	"github.com/proyectoj/assistant/internal/candidates"
	"github.com/proyectoj/assistant/internal/config"
	"github.com/proyectoj/assistant/internal/metrics"
	"github.com/proyectoj/assistant/internal/netinfo"
	"github.com/proyectoj/assistant/internal/probe"
	"github.com/proyectoj/assistant/internal/resolver"
	"github.com/proyectoj/assistant/internal/state"
	"github.com/proyectoj/assistant/internal/sweep"
)

// Options configure the application.
type Options struct {
	Logger *zerolog.Logger
	// Registry receives the metrics collectors; nil creates a private one.
	Registry *prometheus.Registry
	// NoPersist keeps the trusted endpoint in memory only.
	NoPersist bool

	// Prober and Prefix replace the HTTP prober and interface-based prefix
	// detection. Tests use them to run without a real LAN.
	Prober probe.Prober
	Prefix netinfo.PrefixFunc
}

// App wires configuration, discovery and the API client together.
type App struct {
	cfg      config.Config
	log      zerolog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	cache    cache.Cache
	prober   probe.Prober
	resolver *resolver.Resolver
	client   *assistant.Client
}

// New builds the object graph for cfg. Nothing touches the network until a
// method that needs an endpoint is called.
func New(cfg config.Config, opts Options) (*App, error) {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := metrics.New(reg)

	var store cache.Cache = &cache.Memory{}
	if !opts.NoPersist {
		fc, err := cache.NewFileCache(cfg.CachePath)
		if err != nil {
			return nil, fmt.Errorf("init endpoint cache: %w", err)
		}
		store = fc
	}

	prober := opts.Prober
	if prober == nil {
		prober = probe.NewHTTPProber(probe.Options{Logger: &log, Metrics: m})
	}

	prefix := opts.Prefix
	if prefix == nil {
		prefix = netinfo.SubnetPrefix
		if cfg.SubnetPrefix != "" {
			prefix = netinfo.Static(cfg.SubnetPrefix)
		}
	}

	source := candidates.New(candidates.Options{
		Public:       cfg.PublicBaseURL,
		Cache:        store,
		Prefix:       prefix,
		Port:         cfg.ServicePort,
		EmulatorHost: cfg.EmulatorHost,
		FallbackHost: cfg.FallbackHost,
		Hosts:        cfg.WellKnownHosts,
	})
	sweeper := sweep.New(sweep.Options{
		Prober:       prober,
		Port:         cfg.ServicePort,
		Workers:      cfg.SweepWorkers,
		Deadline:     cfg.SweepDeadline,
		ProbeTimeout: cfg.DiscoveryTimeout,
		Logger:       &log,
		Metrics:      m,
	})
	res, err := resolver.New(resolver.Options{
		Source:           source,
		Prober:           prober,
		Sweeper:          sweeper,
		Cache:            store,
		DiscoveryTimeout: cfg.DiscoveryTimeout,
		ConfirmTimeout:   cfg.ConfirmTimeout,
		Logger:           &log,
		Metrics:          m,
	})
	if err != nil {
		return nil, fmt.Errorf("init resolver: %w", err)
	}
	client, err := assistant.NewClient(assistant.Options{
		Resolver:       res,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         &log,
		Metrics:        m,
	})
	if err != nil {
		return nil, fmt.Errorf("init assistant client: %w", err)
	}

	return &App{
		cfg:      cfg,
		log:      log,
		registry: reg,
		metrics:  m,
		cache:    store,
		prober:   prober,
		resolver: res,
		client:   client,
	}, nil
}

// Chat sends one message and returns the reply.
func (a *App) Chat(ctx context.Context, message string) (string, error) {
	return a.client.Send(ctx, message)
}

// Discover resolves the trusted endpoint and reports where it came from and
// when it was trusted.
func (a *App) Discover(ctx context.Context) (state.Snapshot, error) {
	snap, ok := a.resolver.Lookup(ctx)
	if !ok {
		if err := ctx.Err(); err != nil {
			return state.Snapshot{}, err
		}
		return state.Snapshot{}, assistant.ErrDiscoveryFailed
	}
	return snap, nil
}

// Forget drops the trusted endpoint from memory and from the cache file.
func (a *App) Forget() {
	a.resolver.Invalidate()
}

// UpdateCheck is the result of CheckUpdate.
type UpdateCheck struct {
	Current int
	Latest  *assistant.UpdateInfo
	Action  assistant.UpdateAction
}

// CheckUpdate compares the configured version code with the latest build.
func (a *App) CheckUpdate(ctx context.Context) (UpdateCheck, error) {
	info, err := a.client.CheckUpdate(ctx)
	if err != nil {
		return UpdateCheck{}, fmt.Errorf("check update: %w", err)
	}
	return UpdateCheck{
		Current: a.cfg.VersionCode,
		Latest:  info,
		Action:  assistant.DecideUpdateAction(a.cfg.VersionCode, info),
	}, nil
}

// Watch runs the re-validation monitor until ctx is cancelled.
func (a *App) Watch(ctx context.Context, interval time.Duration, onStatus func(Status)) {
	done := StartMonitor(ctx, a.resolver, a.prober, MonitorOptions{
		Interval:     interval,
		ProbeTimeout: a.cfg.ConfirmTimeout,
		OnStatus:     onStatus,
		Logger:       &a.log,
	})
	<-done
}

// ServeMetrics exposes the registry on addr at /metrics until ctx ends.
func (a *App) ServeMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{Registry: a.registry}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.log.Info().Str("addr", addr).Msg("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve metrics: %w", err)
	}
	return nil
}
