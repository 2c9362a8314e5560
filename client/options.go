package client

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/stratusdrive/stratus-go/client/throttle"
)

// Option is a functional option for configuring a [Session] via [New].
type Option func(*options) error

type options struct {
	client            *http.Client
	rt                http.RoundTripper
	timeout           *time.Duration
	userAgent         string
	throttle          *throttle.Config
	maxRetries        int
	requestIDs        bool
	noFollowRedirects bool
	logger            *slog.Logger
	tracer            trace.Tracer
	auth              Authorizer
}

// WithClient replaces the default [http.Client] used by the [Session].
func WithClient(hc *http.Client) Option {
	return func(o *options) error {
		if hc == nil {
			return errors.New("client must not be nil")
		}
		o.client = hc
		return nil
	}
}

// WithTransport sets a custom [http.RoundTripper] as the base transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) error {
		if rt == nil {
			return errors.New("transport must not be nil")
		}
		o.rt = rt
		return nil
	}
}

// WithTimeout sets the overall request timeout on the underlying [http.Client].
func WithTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		o.timeout = &d
		return nil
	}
}

// WithUserAgent adds a persistent User-Agent header to all outgoing requests.
func WithUserAgent(header string) Option {
	return func(o *options) error {
		o.userAgent = header
		return nil
	}
}

// WithThrottle enables token-bucket rate limiting with the given
// requests per second and burst capacity.
func WithThrottle(rps, burst int) Option {
	return func(o *options) error {
		if rps <= 0 || burst <= 0 {
			return fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, throttle.ErrMustNotBeZero)
		}
		o.throttle = &throttle.Config{RPS: rps, Burst: burst}
		return nil
	}
}

// WithRetry enables transport-level retries of transient failures, up
// to maxRetries re-sends per request with exponential backoff.
func WithRetry(maxRetries int) Option {
	return func(o *options) error {
		if maxRetries <= 0 {
			return errors.New("maxRetries must be greater than zero")
		}
		o.maxRetries = maxRetries
		return nil
	}
}

// WithRequestIDs stamps every outgoing request with a unique
// X-Request-Id header for server-side correlation.
func WithRequestIDs() Option {
	return func(o *options) error {
		o.requestIDs = true
		return nil
	}
}

// WithNoFollowRedirects prevents the [Session] from following HTTP
// redirects; redirect responses pass through to the caller.
func WithNoFollowRedirects() Option {
	return func(o *options) error {
		o.noFollowRedirects = true
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Session].
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}

// WithTracer records a span for every request sent through the
// [Session] and propagates trace context on outgoing headers.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		o.tracer = tracer
		return nil
	}
}

// WithAuthorizer sets the credentials applied to every request.
func WithAuthorizer(a Authorizer) Option {
	return func(o *options) error {
		if a == nil {
			return errors.New("authorizer must not be nil")
		}
		o.auth = a
		return nil
	}
}

// WithAccessToken is shorthand for WithAuthorizer with a static bearer token.
func WithAccessToken(token string) Option {
	return WithAuthorizer(AccessToken(token))
}

// userAgent is an http.RoundTripper, enabling the persistent User-Agent header.
type userAgent struct {
	value string
	base  http.RoundTripper
}

func (ua userAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	cpy := r.Clone(r.Context())
	cpy.Header.Set("User-Agent", ua.value)
	return ua.base.RoundTrip(cpy)
}

// requestID is an http.RoundTripper stamping each request with a
// unique id.
type requestID struct {
	base http.RoundTripper
}

func (rt requestID) RoundTrip(r *http.Request) (*http.Response, error) {
	cpy := r.Clone(r.Context())
	cpy.Header.Set("X-Request-Id", uuid.NewString())
	return rt.base.RoundTrip(cpy)
}
