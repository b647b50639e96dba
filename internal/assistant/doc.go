// Package assistant is the HTTP client for the assistant backend.
//
// Every call first asks a Resolver for the trusted base URL. Chat requests
// get one rediscovery-and-resend on failure; update checks do not.
//
// Errors are classified with sentinels so callers can use errors.Is:
//
//   - ErrDiscoveryFailed: nothing answered /health
//   - ErrTransport: network error, timeout or non-2xx status
//   - ErrInvalidPayload: 2xx with a body that could not be used
//   - ErrPermanentRequestFailure: the retry failed too
//
// ErrPermanentRequestFailure wraps the second failure, so a permanent
// failure caused by a blank reply matches both ErrPermanentRequestFailure
// and ErrInvalidPayload.
package assistant
