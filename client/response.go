package client

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/stratusdrive/stratus-go/client/progress"
)

// Response is a normalized API response. One only ever exists for a
// success (or pass-through redirect) status; any other status is
// translated into an [APIError] before a Response is constructed.
//
// The body stream is single-pass and single-consumer. Callers that
// read the body must release the underlying connection with
// [Response.Disconnect].
type Response struct {
	StatusCode    int
	ContentType   string
	ContentLength int64

	method  string
	url     string
	headers http.Header
	logger  *slog.Logger

	// raw is the stream handed over by the transport. body is the
	// stream returned by Body, possibly wrapping raw in progress and
	// gzip decoders. Both are tracked so Disconnect can close whichever
	// is open.
	raw    io.ReadCloser
	body   io.Reader
	gz     *gzip.Reader
	closed bool

	jsonText []byte
	parsed   any
}

// newResponse normalizes a transport response. Error statuses yield an
// [APIError] carrying the status, best-effort body text, and headers —
// never a usable Response. Success responses come back empty, with an
// eagerly parsed JSON structure, or with a lazily wrapped body stream,
// depending on content type.
func newResponse(resp *http.Response, logger *slog.Logger) (*Response, error) {
	r := &Response{
		StatusCode:    resp.StatusCode,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
		method:        resp.Request.Method,
		url:           resp.Request.URL.String(),
		headers:       resp.Header,
		logger:        logger,
	}

	r.log()

	// Redirects pass through untouched when the session is configured
	// not to follow them.
	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		body := "body unavailable"
		if b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrBodySize)); err == nil {
			body = string(b)
		}
		_ = resp.Body.Close()

		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Body:       body,
			Headers:    resp.Header,
			Err:        ErrResponseStatus,
		}
	}

	if resp.ContentLength == 0 || r.ContentType == "" {
		_ = resp.Body.Close()
		return r, nil
	}

	if strings.Contains(r.ContentType, "application/json") {
		text, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading JSON body: %w", err)
		}

		r.jsonText = text
		if err := json.Unmarshal(text, &r.parsed); err != nil {
			return nil, &JSONParseError{Text: string(text), Err: err}
		}

		return r, nil
	}

	r.raw = resp.Body

	return r, nil
}

// Header returns the first value of the named response header,
// case-insensitively.
func (r *Response) Header(name string) string {
	return r.headers.Get(name)
}

// Headers returns the response header multimap.
func (r *Response) Headers() http.Header {
	return r.headers
}

// JSON returns the parsed body of an application/json response, nil
// otherwise.
func (r *Response) JSON() any {
	return r.parsed
}

// Decode unmarshals the JSON body of an application/json response into
// dest. dest must be a pointer.
func (r *Response) Decode(dest any) error {
	if r.jsonText == nil {
		return fmt.Errorf("response has no JSON body (content type %q)", r.ContentType)
	}

	if err := json.Unmarshal(r.jsonText, dest); err != nil {
		return &JSONParseError{Text: string(r.jsonText), Err: err}
	}

	return nil
}

// Body returns the response body stream, materializing it on first
// access: the raw transport stream is wrapped with a progress decorator
// when listener is non-nil, then with transparent gzip decompression
// when the Content-Encoding header equals "gzip" case-insensitively.
// Subsequent calls return the same stream; the listener of the first
// call wins.
//
// The stream is single-pass. JSON and empty responses return an empty
// stream; use [Response.JSON] or [Response.Decode] for parsed bodies.
func (r *Response) Body(listener progress.Listener) (io.Reader, error) {
	if r.body != nil {
		return r.body, nil
	}

	if r.raw == nil {
		r.body = bytes.NewReader(nil)
		return r.body, nil
	}

	stream := io.Reader(r.raw)
	if listener != nil {
		stream = progress.NewReader(stream, r.ContentLength, listener)
	}

	if strings.EqualFold(r.headers.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(stream)
		if err != nil {
			return nil, fmt.Errorf("opening gzip body: %w", err)
		}
		r.gz = gz
		stream = gz
	}

	r.body = stream

	return r.body, nil
}

// Disconnect releases the network resources held by the response body.
// It is safe to call before the body was ever read and safe to call
// more than once; only the first call can return an error.
func (r *Response) Disconnect() error {
	if r.closed {
		return nil
	}
	r.closed = true

	if r.gz != nil {
		if err := r.gz.Close(); err != nil {
			_ = r.raw.Close()
			return fmt.Errorf("closing gzip stream: %w", err)
		}
	}

	if r.raw != nil {
		if err := r.raw.Close(); err != nil {
			return fmt.Errorf("closing response body: %w", err)
		}
	}

	return nil
}

// log records the response at a level decided purely by status code:
// debug for success, warn for client errors, error for server errors.
// Headers only; the body is never logged.
func (r *Response) log() {
	attrs := []any{
		"method", r.method,
		"url", r.url,
		"status", r.StatusCode,
		"headers", headerSummary(r.headers),
	}

	switch {
	case r.StatusCode >= 500:
		r.logger.Error("api response", attrs...)
	case r.StatusCode >= 400:
		r.logger.Warn("api response", attrs...)
	default:
		r.logger.Debug("api response", attrs...)
	}
}

func headerSummary(h http.Header) string {
	var sb strings.Builder
	for k, vals := range h {
		if sb.Len() > 0 {
			sb.WriteString("; ")
		}
		fmt.Fprintf(&sb, "%s: %v", strings.ToLower(k), vals)
	}

	return sb.String()
}
