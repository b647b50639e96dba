// Package candidates produces the ordered endpoints the resolver verifies,
// cheapest and most likely first.
package candidates

import (
	"iter"
	"strconv"

	"github.com/proyectoj/assistant/internal/cache"
	"github.com/proyectoj/assistant/internal/endpoint"
	"github.com/proyectoj/assistant/internal/netinfo"
)

// DefaultHosts are the LAN host numbers tried before a full sweep.
var DefaultHosts = []int{2, 10, 11, 20, 50, 100, 101, 110, 120, 150, 200}

// Options configure a Source.
type Options struct {
	// Public is the normalized relay URL; zero disables the public tier.
	Public endpoint.Endpoint
	Cache  cache.Cache
	Prefix netinfo.PrefixFunc

	Port         int
	EmulatorHost string
	FallbackHost string
	Hosts        []int
}

// Source yields candidates in tier order: public, cached, well-known.
// The sweep tier is owned by the sweep package.
type Source struct {
	opts Options
}

// New builds a Source. A nil Prefix disables prefix-derived candidates.
func New(opts Options) *Source {
	if opts.Prefix == nil {
		opts.Prefix = func() (string, bool) { return "", false }
	}
	if opts.Hosts == nil {
		opts.Hosts = DefaultHosts
	}
	return &Source{opts: opts}
}

// Prefix reports the local /24 prefix.
func (s *Source) Prefix() (string, bool) {
	return s.opts.Prefix()
}

// Port returns the service port used for LAN candidates.
func (s *Source) Port() int { return s.opts.Port }

// Candidates returns a lazy, deduplicated sequence. The cache is read and
// the prefix detected only when iteration reaches those tiers.
func (s *Source) Candidates() iter.Seq[endpoint.Candidate] {
	return func(yield func(endpoint.Candidate) bool) {
		seen := endpoint.Set{}
		emit := func(e endpoint.Endpoint, src endpoint.Source) bool {
			if e.IsZero() || !seen.Add(e) {
				return true
			}
			return yield(endpoint.Candidate{Endpoint: e, Source: src})
		}

		if !emit(s.opts.Public, endpoint.SourcePublic) {
			return
		}
		if s.opts.Cache != nil {
			if cached, ok := s.opts.Cache.Get(); ok {
				if !emit(cached, endpoint.SourceCached) {
					return
				}
			}
		}
		prefix, ok := s.opts.Prefix()
		if !ok {
			return
		}
		for _, e := range s.WellKnown(prefix) {
			if !emit(e, endpoint.SourceWellKnown) {
				return
			}
		}
	}
}

// WellKnown lists the emulator alias, the LAN fallback, then the configured
// host numbers within prefix.
func (s *Source) WellKnown(prefix string) []endpoint.Endpoint {
	out := make([]endpoint.Endpoint, 0, len(s.opts.Hosts)+2)
	if s.opts.EmulatorHost != "" {
		out = append(out, endpoint.ForHost(s.opts.EmulatorHost, s.opts.Port))
	}
	if s.opts.FallbackHost != "" {
		out = append(out, endpoint.ForHost(s.opts.FallbackHost, s.opts.Port))
	}
	for _, host := range s.opts.Hosts {
		out = append(out, HostEndpoint(prefix, host, s.opts.Port))
	}
	return out
}

// HostEndpoint builds http://<prefix>.<host>:<port>.
func HostEndpoint(prefix string, host, port int) endpoint.Endpoint {
	return endpoint.ForHost(prefix+"."+strconv.Itoa(host), port)
}
