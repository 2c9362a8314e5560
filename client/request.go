package client

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Request assembles an outbound API call: method, URL, headers, and at
// most one body source. Requests are built for a single send; resending
// after the body stream is exhausted requires a seekable source.
type Request struct {
	sess    *Session
	method  string
	url     *url.URL
	headers http.Header
	src     *bodySource
}

// bodySource captures exactly what the send routine needs to transmit
// a request body: the stream, its best-effort length, a rewind hook
// used by the retry transport before a re-send, and the loggable
// representation of the body.
type bodySource struct {
	reader io.Reader
	// length is the expected body size, -1 when unknown. Best-effort:
	// taken from the source at build time, never guaranteed exact.
	length int64
	// rewind returns a fresh body stream for a retried send. Nil when
	// the source cannot be re-read, which makes retries of this request
	// fail as non-retryable.
	rewind func() (io.ReadCloser, error)
	// loggable is the debug-log representation of the body. Binary
	// bodies are intentionally left blank.
	loggable string
}

// NewRequest builds a bodiless request against u using the session's
// credentials and transport.
func (s *Session) NewRequest(method string, u *url.URL) *Request {
	return &Request{
		sess:    s,
		method:  method,
		url:     u,
		headers: http.Header{},
	}
}

// AddHeader appends a header to the request. Repeated names accumulate
// in order.
func (r *Request) AddHeader(name, value string) {
	r.headers.Add(name, value)
}

// SetBodyString sets the request body from a string. The body source
// can be set at most once.
func (r *Request) SetBodyString(body string) error {
	if r.src != nil {
		return ErrBodyAlreadySet
	}

	r.src = &bodySource{
		reader: strings.NewReader(body),
		length: int64(len(body)),
		rewind: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
		loggable: body,
	}

	return nil
}

// SetBody sets the request body from a stream. The body source can be
// set at most once. The stream is consumed exactly once during send; a
// request that may be retried must supply an io.ReadSeeker so the
// transport can rewind it before re-sending.
func (r *Request) SetBody(body io.Reader) error {
	if r.src != nil {
		return ErrBodyAlreadySet
	}

	src := &bodySource{
		reader: body,
		length: -1,
	}

	if l, ok := body.(interface{ Len() int }); ok {
		src.length = int64(l.Len())
	}

	if sk, ok := body.(io.ReadSeeker); ok {
		src.rewind = func() (io.ReadCloser, error) {
			if _, err := sk.Seek(0, io.SeekStart); err != nil {
				return nil, err
			}
			return io.NopCloser(sk), nil
		}
	}

	r.src = src

	return nil
}

// Send dispatches the request and normalizes the response. A non-2xx
// status never yields a Response; it is translated into an [APIError].
func (r *Request) Send(ctx context.Context) (*Response, error) {
	return r.sess.send(ctx, r.method, r.url, r.headers, r.src)
}
