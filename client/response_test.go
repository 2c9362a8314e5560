package client_test

import (
	"compress/gzip"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/stratusdrive/stratus-go/client"
)

func TestResponse_DecodeJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id": "123", "name": "report.pdf"}`)
	}))
	defer ts.Close()

	sess := newSession(t, ts.URL)

	resp, err := sess.NewRequest(http.MethodGet, endpoint(t, ts.URL)).Send(t.Context())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	defer resp.Disconnect()

	var got struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := resp.Decode(&got); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.ID != "123" || got.Name != "report.pdf" {
		t.Errorf("unexpected decoded value: %+v", got)
	}

	parsed, ok := resp.JSON().(map[string]any)
	if !ok {
		t.Fatalf("JSON() = %T, want map", resp.JSON())
	}
	if diff := cmp.Diff(map[string]any{"id": "123", "name": "report.pdf"}, parsed); diff != "" {
		t.Errorf("JSON mismatch (-want +got):\n%s", diff)
	}
}

func TestResponse_MalformedJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id": `)
	}))
	defer ts.Close()

	sess := newSession(t, ts.URL)

	resp, err := sess.NewRequest(http.MethodGet, endpoint(t, ts.URL)).Send(t.Context())
	if resp != nil {
		t.Fatal("expected no response for a malformed JSON body")
	}

	var perr *client.JSONParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected a *client.JSONParseError, got %v", err)
	}
	if perr.Text != `{"id": ` {
		t.Errorf("expected the offending text on the error, got %q", perr.Text)
	}
}

func TestResponse_EmptyBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	sess := newSession(t, ts.URL)

	resp, err := sess.NewRequest(http.MethodGet, endpoint(t, ts.URL)).Send(t.Context())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	defer resp.Disconnect()

	if resp.JSON() != nil {
		t.Error("expected no parsed JSON for an empty response")
	}

	body, err := resp.Body(nil)
	if err != nil {
		t.Fatalf("Body: %v", err)
	}
	data, _ := io.ReadAll(body)
	if len(data) != 0 {
		t.Errorf("expected empty body stream, got %d bytes", len(data))
	}
}

func TestResponse_GzipBody(t *testing.T) {
	const content = "compressed payload, long enough to bother compressing"

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = io.WriteString(gz, content)
		_ = gz.Close()
	}))
	defer ts.Close()

	sess := newSession(t, ts.URL)

	// Setting Accept-Encoding explicitly keeps the transport from
	// decompressing transparently, exercising the lazy gzip wrapping.
	req := sess.NewRequest(http.MethodGet, endpoint(t, ts.URL))
	req.AddHeader("Accept-Encoding", "gzip")

	resp, err := req.Send(t.Context())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	defer resp.Disconnect()

	var reports []int64
	body, err := resp.Body(func(transferred, total int64) {
		reports = append(reports, transferred)
	})
	if err != nil {
		t.Fatalf("Body: %v", err)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	if string(data) != content {
		t.Errorf("expected transparently decompressed body, got %q", data)
	}

	// Progress is measured on the wire stream, before decompression.
	if len(reports) == 0 {
		t.Fatal("expected progress reports")
	}
	if last := reports[len(reports)-1]; last >= int64(len(content))*2 {
		t.Errorf("progress should track compressed bytes, got %d", last)
	}
}

func TestResponse_BodyMemoized(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "stream me")
	}))
	defer ts.Close()

	sess := newSession(t, ts.URL)

	resp, err := sess.NewRequest(http.MethodGet, endpoint(t, ts.URL)).Send(t.Context())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	defer resp.Disconnect()

	first, err := resp.Body(nil)
	if err != nil {
		t.Fatalf("Body: %v", err)
	}
	second, err := resp.Body(nil)
	if err != nil {
		t.Fatalf("Body: %v", err)
	}
	if first != second {
		t.Error("expected Body to return the same stream on repeat calls")
	}
}

func TestResponse_DisconnectIdempotent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "body")
	}))
	defer ts.Close()

	sess := newSession(t, ts.URL)

	resp, err := sess.NewRequest(http.MethodGet, endpoint(t, ts.URL)).Send(t.Context())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if err := resp.Disconnect(); err != nil {
		t.Fatalf("first Disconnect: %v", err)
	}
	if err := resp.Disconnect(); err != nil {
		t.Fatalf("second Disconnect: %v", err)
	}
}

func TestResponse_RedirectPassThrough(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "https://cdn.example.com/files/123")
		w.WriteHeader(http.StatusFound)
	}))
	defer ts.Close()

	sess := newSession(t, ts.URL, client.WithNoFollowRedirects())

	resp, err := sess.NewRequest(http.MethodGet, endpoint(t, ts.URL)).Send(t.Context())
	if err != nil {
		t.Fatalf("expected the redirect to pass through, got: %v", err)
	}
	defer resp.Disconnect()

	if resp.StatusCode != http.StatusFound {
		t.Errorf("expected status 302, got %d", resp.StatusCode)
	}
	if got := resp.Header("Location"); got != "https://cdn.example.com/files/123" {
		t.Errorf("expected Location header, got %q", got)
	}
}

func TestResponse_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer ts.Close()

	sess := newSession(t, ts.URL)

	_, err := sess.NewRequest(http.MethodGet, endpoint(t, ts.URL)).Send(t.Context())

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected a *client.APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", apiErr.StatusCode)
	}
}
