// Package endpoint defines the base-URL value the resolver hands out and the
// tagged candidates it verifies on the way there.
package endpoint

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Endpoint is a normalized backend base URL: scheme, host and optional port,
// without path or trailing slash.
type Endpoint string

// String returns the base URL.
func (e Endpoint) String() string { return string(e) }

// IsZero reports whether the endpoint is unset.
func (e Endpoint) IsZero() bool { return e == "" }

// Join appends an absolute path to the base URL.
func (e Endpoint) Join(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return string(e) + path
}

// Source tags where a candidate came from. Earlier sources are tried first.
type Source int

const (
	SourcePublic Source = iota
	SourceCached
	SourceWellKnown
	SourceSweep
)

func (s Source) String() string {
	switch s {
	case SourcePublic:
		return "public"
	case SourceCached:
		return "cached"
	case SourceWellKnown:
		return "well-known"
	case SourceSweep:
		return "sweep"
	default:
		return "unknown"
	}
}

// Candidate is an endpoint proposed for health verification.
type Candidate struct {
	Endpoint Endpoint
	Source   Source
}

func (c Candidate) String() string {
	return fmt.Sprintf("%s (%s)", c.Endpoint, c.Source)
}

// Normalize trims whitespace and trailing slashes and prepends defaultScheme
// when no scheme is present. Blank input yields the zero Endpoint.
func Normalize(raw, defaultScheme string) Endpoint {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return ""
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = defaultScheme + "://" + trimmed
	}
	return Endpoint(trimmed)
}

// NormalizePublic applies the public relay rules: https is assumed.
func NormalizePublic(raw string) Endpoint {
	return Normalize(raw, "https")
}

// ForHost builds a plain-http endpoint for a LAN host on the service port.
func ForHost(host string, port int) Endpoint {
	return Endpoint("http://" + net.JoinHostPort(host, strconv.Itoa(port)))
}

// Set tracks endpoints already tried during one resolution pass.
type Set map[Endpoint]struct{}

// Add records e and reports whether it was new.
func (s Set) Add(e Endpoint) bool {
	if _, ok := s[e]; ok {
		return false
	}
	s[e] = struct{}{}
	return true
}

// Has reports whether e was recorded. A nil Set holds nothing.
func (s Set) Has(e Endpoint) bool {
	_, ok := s[e]
	return ok
}
