// Package app is the composition root for the assistant client.
//
// # Overview
//
// New turns a config.Config into a ready object graph: endpoint cache,
// health prober, candidate source, subnet sweeper, resolver and API client,
// all sharing one logger and one Prometheus registry. The CLI in
// cmd/assistant calls the App methods and never builds components itself.
//
// # Components
//
//   - app.go: New plus the operations behind each CLI command
//   - monitor.go: background re-validation of the trusted endpoint
//
// # Data Flow
//
//	┌──────────────┐
//	│   New()      │ Build the graph, no network I/O
//	└──────┬───────┘
//	       │
//	       ├─────> cache.NewFileCache()  Persisted endpoint (or cache.Memory)
//	       ├─────> probe.NewHTTPProber() GET /health
//	       ├─────> candidates.New()      public, cached, well-known tiers
//	       ├─────> sweep.New()           /24 fallback scan
//	       ├─────> resolver.New()        Trusted endpoint + single flight
//	       └─────> assistant.NewClient() /chat and /mobile/update/latest
//
//	Monitor Loop:
//	┌─────────────────────────────────────────┐
//	│ StartMonitor() goroutine                │
//	│  ├─> Resolve()                          │
//	│  ├─> Probe()  (confirmation timeout)    │
//	│  ├─> Invalidate() + Resolve() on fail   │
//	│  └─> OnStatus(Status)                   │
//	└─────────────────────────────────────────┘
//
// # Monitor Behavior
//
// The monitor checks at a fixed interval (default 10 seconds) while the
// server answers. Each consecutive failure doubles the wait, capped at 30
// seconds, and a Status with two or more consecutive failures reports
// IsOffline. A failed probe that leads to a different healthy server counts
// as a success.
//
// # Error Handling
//
// Construction errors (bad cache path) are returned from New. Discovery and
// request errors come back from each method using the sentinels defined in
// package assistant. The monitor never returns errors; they are reported
// through Status.LastError.
//
// # Usage Example
//
//	cfg, err := config.Load("")
//	if err != nil {
//		return err
//	}
//	a, err := app.New(cfg, app.Options{Logger: &log})
//	if err != nil {
//		return err
//	}
//	reply, err := a.Chat(ctx, "hola")
package app
