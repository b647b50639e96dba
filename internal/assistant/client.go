package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/proyectoj/assistant/internal/endpoint"
	"github.com/proyectoj/assistant/internal/logging"
	"github.com/proyectoj/assistant/internal/metrics"
)

const (
	ChatPath         = "/chat"
	UpdateLatestPath = "/mobile/update/latest"

	defaultUserAgent      = "assistant/1.0"
	defaultRequestTimeout = 30 * time.Second
	requestIDHeader       = "X-Request-ID"
)

// Resolver supplies the base URL requests are sent to.
type Resolver interface {
	Resolve(ctx context.Context) (endpoint.Endpoint, bool)
	Invalidate()
}

// Sender defines the chat surface. Implemented by *Client.
type Sender interface {
	Send(ctx context.Context, message string) (string, error)
}

// Ensure Client implements Sender at compile time.
var _ Sender = (*Client)(nil)

// Options configure a Client.
type Options struct {
	Resolver       Resolver
	RequestTimeout time.Duration
	Logger         *zerolog.Logger
	Metrics        *metrics.Metrics
}

// Client talks to the assistant HTTP API through whatever endpoint the
// resolver currently trusts.
type Client struct {
	resolver Resolver
	http     *resty.Client
	timeout  time.Duration
	log      zerolog.Logger
	metrics  *metrics.Metrics
}

// NewClient builds a Client. A resolver is required.
func NewClient(opts Options) (*Client, error) {
	if opts.Resolver == nil {
		return nil, fmt.Errorf("resolver is nil")
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = logging.Component(*opts.Logger, "assistant")
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	client := resty.New().
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", defaultUserAgent).
		SetRetryCount(0).
		SetLogger(logging.RestyLogger{Log: log})
	return &Client{
		resolver: opts.Resolver,
		http:     client,
		timeout:  timeout,
		log:      log,
		metrics:  opts.Metrics,
	}, nil
}

// Send posts message to /chat and returns the reply text.
//
// When the first attempt fails for any reason the trusted endpoint is
// invalidated, rediscovered and the request sent once more. A second failure
// is returned wrapped in ErrPermanentRequestFailure. A cancelled ctx is
// returned as-is without rediscovery.
func (c *Client) Send(ctx context.Context, message string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("message required")
	}

	base, ok := c.resolver.Resolve(ctx)
	if !ok {
		c.metrics.ObserveRequest("chat", "undiscovered")
		return "", ErrDiscoveryFailed
	}
	reply, err := c.chat(ctx, base, message)
	if err == nil {
		c.metrics.ObserveRequest("chat", "ok")
		return reply, nil
	}
	if ctx.Err() != nil {
		c.metrics.ObserveRequest("chat", "cancelled")
		return "", err
	}

	c.log.Warn().Err(err).Str("endpoint", base.String()).Msg("request failed, rediscovering server")
	c.resolver.Invalidate()

	base, ok = c.resolver.Resolve(ctx)
	if !ok {
		c.metrics.ObserveRequest("chat", "undiscovered")
		return "", fmt.Errorf("%w: %w", ErrDiscoveryFailed, err)
	}
	reply, err = c.chat(ctx, base, message)
	if err != nil {
		c.metrics.ObserveRequest("chat", "failed")
		return "", fmt.Errorf("%w: %w", ErrPermanentRequestFailure, err)
	}
	c.metrics.ObserveRequest("chat", "retried")
	return reply, nil
}

// CheckUpdate fetches the latest published build. It makes a single attempt
// and does not trigger rediscovery.
func (c *Client) CheckUpdate(ctx context.Context) (*UpdateInfo, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	base, ok := c.resolver.Resolve(ctx)
	if !ok {
		c.metrics.ObserveRequest("update", "undiscovered")
		return nil, fmt.Errorf("%w for update checks", ErrDiscoveryFailed)
	}
	body, err := c.do(ctx, base, resty.MethodGet, UpdateLatestPath, nil)
	if err != nil {
		c.metrics.ObserveRequest("update", "failed")
		return nil, err
	}
	info, err := ParseUpdateInfo(body)
	if err != nil {
		c.metrics.ObserveRequest("update", "failed")
		return nil, err
	}
	c.metrics.ObserveRequest("update", "ok")
	return info, nil
}

func (c *Client) chat(ctx context.Context, base endpoint.Endpoint, message string) (string, error) {
	body, err := c.do(ctx, base, resty.MethodPost, ChatPath, chatRequest{Message: message})
	if err != nil {
		return "", err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return "", fmt.Errorf("%w: empty response body", ErrInvalidPayload)
	}
	var payload chatResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", ErrInvalidPayload, err)
	}
	if strings.TrimSpace(payload.Response) == "" {
		return "", fmt.Errorf("%w: response field missing or blank", ErrInvalidPayload)
	}
	return payload.Response, nil
}

func (c *Client) do(ctx context.Context, base endpoint.Endpoint, method, path string, payload any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := c.http.R().
		SetContext(ctx).
		SetHeader(requestIDHeader, uuid.NewString())
	if payload != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(payload)
	}
	resp, err := req.Execute(method, base.Join(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: api %s returned status %d", ErrTransport, path, resp.StatusCode())
	}
	return resp.Body(), nil
}
