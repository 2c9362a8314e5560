package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/araddon/dateparse"
	"github.com/cenkalti/backoff/v4"
)

var (
	ErrMustNotBeZero = errors.New("must be greater than zero")
	// ErrBodyNotResettable is returned when a request needs to be
	// re-sent but its body stream cannot be reproduced. Stream-backed
	// bodies must expose a rewind hook (http.Request.GetBody) to be
	// retryable.
	ErrBodyNotResettable = errors.New("request body cannot be reset for retry")
)

// Defaults for the exponential backoff policy.
const (
	defaultInitialInterval = 500 * time.Millisecond
	defaultMaxInterval     = 30 * time.Second
)

// transport is an http.RoundTripper retrying transient failures:
// network errors and 429/5xx responses. Backoff is exponential; a
// Retry-After response header, when present, overrides the computed
// wait. Exhausting the attempts hands the last response (or error)
// back unchanged so the response reader can translate it.
type transport struct {
	maxRetries int
	initial    time.Duration
	max        time.Duration
	next       http.RoundTripper
	logFn      func() *slog.Logger
}

// NewRoundTripper returns an http.RoundTripper that retries transient
// failures up to maxRetries times with exponential backoff. logFn
// lazily resolves the logger at request time, making session option
// ordering irrelevant.
func NewRoundTripper(maxRetries int, logFn func() *slog.Logger, next http.RoundTripper) (http.RoundTripper, error) {
	if maxRetries <= 0 {
		return nil, fmt.Errorf("maxRetries[%d] %w", maxRetries, ErrMustNotBeZero)
	}

	return &transport{
		maxRetries: maxRetries,
		initial:    defaultInitialInterval,
		max:        defaultMaxInterval,
		next:       next,
		logFn:      logFn,
	}, nil
}

func (t *transport) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx := r.Context()

	bo := newPolicy(t.initial, t.max)

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			if err := rewind(r); err != nil {
				return nil, err
			}
		}

		resp, err := t.next.RoundTrip(r)
		if err == nil && !retryable(resp.StatusCode) {
			return resp, nil
		}
		if err != nil && ctx.Err() != nil {
			return nil, err
		}

		if attempt >= t.maxRetries {
			if err != nil {
				return nil, err
			}
			// Out of attempts: surface the last response so the caller
			// translates the status into an API error.
			return resp, nil
		}

		wait := bo.NextBackOff()
		status := 0
		if err == nil {
			status = resp.StatusCode
			if ra, ok := retryAfter(resp.Header); ok {
				wait = ra
			}
			drain(resp)
		}

		if logger := t.logFn(); logger != nil {
			logger.Info("retrying request",
				"method", r.Method,
				"path", r.URL.Path,
				"attempt", attempt+1,
				"status", status,
				"wait", wait.String(),
			)
		}

		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

// newPolicy builds the wait schedule for one request. MaxElapsedTime is
// disabled so the schedule never returns backoff.Stop mid-flight; the
// attempt count bounds retries, not elapsed time.
func newPolicy(initial, max time.Duration) *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initial
	bo.MaxInterval = max
	bo.MaxElapsedTime = 0
	bo.Reset()

	return bo
}

// rewind restores the request body before a re-send.
func rewind(r *http.Request) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	if r.GetBody == nil {
		return ErrBodyNotResettable
	}

	body, err := r.GetBody()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBodyNotResettable, err)
	}
	r.Body = body

	return nil
}

func sleep(ctx context.Context, wait time.Duration) error {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// retryable reports whether the status indicates a transient server
// condition worth retrying.
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// retryAfter parses a Retry-After header, accepting both delta-seconds
// and HTTP-date forms.
func retryAfter(h http.Header) (time.Duration, bool) {
	v := h.Get("Retry-After")
	if v == "" {
		return 0, false
	}

	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}

	at, err := dateparse.ParseAny(v)
	if err != nil {
		return 0, false
	}

	d := time.Until(at)
	if d < 0 {
		return 0, false
	}

	return d, true
}

// drain exhausts and closes a response body that will not be surfaced,
// letting the transport reuse the connection.
func drain(resp *http.Response) {
	if resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	_ = resp.Body.Close()
}
