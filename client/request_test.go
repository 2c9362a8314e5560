package client_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stratusdrive/stratus-go/client"
)

func newSession(t *testing.T, baseURL string, opts ...client.Option) *client.Session {
	t.Helper()

	sess, err := client.New(baseURL, opts...)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	return sess
}

func endpoint(t *testing.T, rawURL string) *url.URL {
	t.Helper()

	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("failed to parse URL: %v", err)
	}

	return u
}

func TestRequest_AddHeader(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Values("X-Custom")
		if len(got) != 2 || got[0] != "one" || got[1] != "two" {
			t.Errorf("expected X-Custom [one two], got %v", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	sess := newSession(t, ts.URL)

	req := sess.NewRequest(http.MethodGet, endpoint(t, ts.URL))
	req.AddHeader("X-Custom", "one")
	req.AddHeader("X-Custom", "two")

	resp, err := req.Send(t.Context())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	defer resp.Disconnect()
}

func TestRequest_SetBodyString(t *testing.T) {
	const body = `{"name": "alice"}`

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ := io.ReadAll(r.Body)
		if string(got) != body {
			t.Errorf("expected body %q, got %q", body, got)
		}
		if r.ContentLength != int64(len(body)) {
			t.Errorf("expected Content-Length %d, got %d", len(body), r.ContentLength)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	sess := newSession(t, ts.URL)

	req := sess.NewRequest(http.MethodPost, endpoint(t, ts.URL))
	if err := req.SetBodyString(body); err != nil {
		t.Fatalf("SetBodyString: %v", err)
	}

	resp, err := req.Send(t.Context())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	defer resp.Disconnect()

	if resp.StatusCode != http.StatusCreated {
		t.Errorf("expected status 201, got %d", resp.StatusCode)
	}
}

func TestRequest_BodyCanOnlyBeSetOnce(t *testing.T) {
	sess := newSession(t, "http://localhost")
	u := endpoint(t, "http://localhost")

	tests := map[string]func(r *client.Request) error{
		"string then string": func(r *client.Request) error {
			_ = r.SetBodyString("first")
			return r.SetBodyString("second")
		},
		"string then stream": func(r *client.Request) error {
			_ = r.SetBodyString("first")
			return r.SetBody(strings.NewReader("second"))
		},
		"stream then string": func(r *client.Request) error {
			_ = r.SetBody(strings.NewReader("first"))
			return r.SetBodyString("second")
		},
	}

	for name, fn := range tests {
		t.Run(name, func(t *testing.T) {
			req := sess.NewRequest(http.MethodPost, u)
			if err := fn(req); !errors.Is(err, client.ErrBodyAlreadySet) {
				t.Errorf("expected ErrBodyAlreadySet, got %v", err)
			}
		})
	}
}

func TestRequest_ErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Trace", "abc123")
		http.Error(w, `{"code": "not_found"}`, http.StatusNotFound)
	}))
	defer ts.Close()

	sess := newSession(t, ts.URL)

	resp, err := sess.NewRequest(http.MethodGet, endpoint(t, ts.URL)).Send(t.Context())
	if resp != nil {
		t.Fatal("expected no response for an error status")
	}
	if !errors.Is(err, client.ErrResponseStatus) {
		t.Fatalf("expected ErrResponseStatus, got %v", err)
	}

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatal("expected an *client.APIError")
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", apiErr.StatusCode)
	}
	if !strings.Contains(apiErr.Body, "not_found") {
		t.Errorf("expected error body to carry the server payload, got %q", apiErr.Body)
	}
	if apiErr.Headers.Get("X-Trace") != "abc123" {
		t.Errorf("expected response headers on the error, got %v", apiErr.Headers)
	}
}
