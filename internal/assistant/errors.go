package assistant

import "errors"

var (
	// ErrDiscoveryFailed means no candidate endpoint passed its health check.
	ErrDiscoveryFailed = errors.New("could not discover assistant server")
	// ErrTransport covers connection failures, timeouts and non-2xx statuses.
	ErrTransport = errors.New("transport failure")
	// ErrInvalidPayload means the server answered 2xx with an unusable body.
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrPermanentRequestFailure is returned when the request failed again
	// after rediscovery. It wraps the second failure.
	ErrPermanentRequestFailure = errors.New("request failed after rediscovery")
)
