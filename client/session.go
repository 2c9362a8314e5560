package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/stratusdrive/stratus-go/client/download"
	"github.com/stratusdrive/stratus-go/client/retry"
	"github.com/stratusdrive/stratus-go/client/throttle"
)

// Session is an established connection to the storage API: the base
// URL, the credentials applied to every request, and the underlying
// transport chain. Sessions are safe for concurrent use; the requests
// and responses they produce are not.
type Session struct {
	base   *url.URL
	hc     *http.Client
	logger *slog.Logger
	auth   Authorizer
	tracer trace.Tracer
}

// Authorizer applies session credentials to an outbound request.
// Token acquisition and refresh are the caller's concern.
type Authorizer interface {
	Apply(r *http.Request) error
}

// AccessToken is an [Authorizer] carrying a static bearer token.
type AccessToken string

func (t AccessToken) Apply(r *http.Request) error {
	r.Header.Set("Authorization", "Bearer "+string(t))
	return nil
}

// Config is the session configuration assembled from options and
// validated before the transport chain is built.
type Config struct {
	BaseURL       string `validate:"required,url"`
	UserAgent     string
	ThrottleRPS   int `validate:"gte=0"`
	ThrottleBurst int `validate:"gte=0"`
	MaxRetries    int `validate:"gte=0"`
}

// New establishes a session against the given API base URL. If not
// customized via options, a default http.Client and transport are used.
func New(baseURL string, optFns ...Option) (*Session, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying session option: %w", err)
		}
	}

	cfg := Config{
		BaseURL:    baseURL,
		UserAgent:  opts.userAgent,
		MaxRetries: opts.maxRetries,
	}
	if opts.throttle != nil {
		cfg.ThrottleRPS = opts.throttle.RPS
		cfg.ThrottleBurst = opts.throttle.Burst
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid session config: %w", err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	sess := &Session{
		base:   base,
		logger: slog.Default(),
		auth:   opts.auth,
		tracer: noop.NewTracerProvider().Tracer("no-op tracer"),
	}

	if opts.logger != nil {
		sess.logger = opts.logger
	}

	if opts.tracer != nil {
		sess.tracer = opts.tracer
	}

	hc := &http.Client{}
	if opts.client != nil {
		hc = opts.client
	}

	if opts.timeout != nil {
		hc.Timeout = *opts.timeout
	}

	if opts.noFollowRedirects {
		hc.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	var transport http.RoundTripper
	switch {
	case opts.rt != nil:
		transport = opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		transport = opts.client.Transport
	default:
		transport = http.DefaultTransport
	}
	if cfg.UserAgent != "" {
		transport = userAgent{value: cfg.UserAgent, base: transport}
	}
	if opts.requestIDs {
		transport = requestID{base: transport}
	}
	if opts.throttle != nil {
		rt, err := throttle.NewRoundTripper(opts.throttle.RPS, opts.throttle.Burst, func() *slog.Logger { return sess.logger }, transport)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		transport = rt
	}
	if opts.maxRetries > 0 {
		rt, err := retry.NewRoundTripper(opts.maxRetries, func() *slog.Logger { return sess.logger }, transport)
		if err != nil {
			return nil, fmt.Errorf("configuring retry: %w", err)
		}
		transport = rt
	}
	hc.Transport = transport
	sess.hc = hc

	return sess, nil
}

// Endpoint builds a request URL for the given API path and query
// parameters, resolved against the session base URL.
func (s *Session) Endpoint(path string, query map[string]string) *url.URL {
	u := s.base.JoinPath(path)

	if query != nil {
		q := url.Values{}
		for k, v := range query {
			q.Add(k, v)
		}
		u.RawQuery = q.Encode()
	}

	return u
}

// Download sends req and streams the response body to destPath. See
// the download package for checksum and progress options.
func (s *Session) Download(ctx context.Context, req *Request, destPath string, opts ...download.Option) error {
	if destPath == "" {
		return errors.New("destPath must not be empty")
	}

	resp, err := req.Send(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Disconnect(); err != nil {
			s.logger.Error("disconnecting response", "error", err)
		}
	}()

	body, err := resp.Body(nil)
	if err != nil {
		return err
	}

	if err := download.Handle(ctx, body, resp.ContentLength, destPath, s.logger, opts...); err != nil {
		return fmt.Errorf("download: %w", err)
	}

	return nil
}

// send dispatches a built request through the session transport and
// normalizes the result.
func (s *Session) send(ctx context.Context, method string, u *url.URL, headers http.Header, src *bodySource) (*Response, error) {
	var body io.Reader
	if src != nil {
		body = src.reader
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	for k, vals := range headers {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	if src != nil {
		if src.length >= 0 {
			req.ContentLength = src.length
		}
		if src.rewind != nil {
			req.GetBody = src.rewind
		}
	}

	if s.auth != nil {
		if err := s.auth.Apply(req); err != nil {
			return nil, fmt.Errorf("applying credentials: %w", err)
		}
	}

	ctx, span := s.tracer.Start(ctx, "client.send", trace.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.full", u.String()),
	))
	defer span.End()

	req = req.WithContext(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	loggable := ""
	if src != nil {
		loggable = src.loggable
	}
	s.logger.Debug("api request", "method", method, "url", u.String(), "body", loggable)

	resp, err := s.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	return newResponse(resp, s.logger)
}
