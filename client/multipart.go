package client

import (
	"context"
	"fmt"
	"io"
	"maps"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"slices"
	"time"

	"github.com/stratusdrive/stratus-go/client/progress"
)

// UploadRequest is a multipart/form-data request carrying exactly one
// file section plus any number of named fields. The body cannot be set
// directly; it is modified via [UploadRequest.PutField],
// [UploadRequest.SetFile], and [UploadRequest.SetUploadCallback]. The
// body is never logged since it is likely to contain binary data.
type UploadRequest struct {
	Request

	spec     PartSpec
	fields   map[string]string
	source   io.Reader
	callback func(io.Writer) error
	filename string
	size     int64
	listener progress.Listener

	// pr and done track the most recent encode goroutine so a resend
	// can shut it down before rewinding the source.
	pr   *io.PipeReader
	done chan struct{}
}

// NewUpload builds a multipart upload request against u. The part name
// and per-filename content type of the file section come from spec,
// decided by each concrete request type.
func (s *Session) NewUpload(u *url.URL, spec PartSpec) *UploadRequest {
	up := &UploadRequest{
		Request: Request{
			sess:    s,
			method:  http.MethodPost,
			url:     u,
			headers: http.Header{},
		},
		spec:   spec,
		fields: make(map[string]string),
		size:   -1,
	}
	up.headers.Set("Content-Type", "multipart/form-data; boundary="+Boundary)

	return up
}

// SetFile registers the file content source. The stream is read exactly
// once during send; supply an io.ReadSeeker if the request may be
// retried by the transport.
func (u *UploadRequest) SetFile(r io.Reader, filename string) {
	u.source = r
	u.callback = nil
	u.filename = filename
}

// SetFileWithSize registers the file content source along with its
// size, used as the progress total instead of the stream's best-effort
// estimate.
func (u *UploadRequest) SetFileWithSize(r io.Reader, filename string, size int64) {
	u.SetFile(r, filename)
	u.size = size
}

// SetUploadCallback registers a callback that writes the file content
// into the multipart body on demand, as an alternative to supplying an
// input stream. Callback uploads are always safe to retry.
func (u *UploadRequest) SetUploadCallback(fn func(io.Writer) error, filename string) {
	u.callback = fn
	u.source = nil
	u.filename = filename
}

// PutField adds or overwrites a named form field. Last write wins per key.
func (u *UploadRequest) PutField(key, value string) {
	u.fields[key] = value
}

// PutFieldTime adds or overwrites a named form field, serializing the
// time with the API's canonical date format.
func (u *UploadRequest) PutFieldTime(key string, value time.Time) {
	u.fields[key] = value.Format(timeFormat)
}

// SetContentChecksum attaches the content hash of the file so the
// server can detect corruption in transit. The hash is not verified
// locally.
func (u *UploadRequest) SetContentChecksum(sum string) {
	u.headers.Set("Content-MD5", sum)
}

// OnProgress attaches a listener notified with (bytes written, total
// expected) after each chunk of file content. The total is best-effort
// when no size was supplied.
func (u *UploadRequest) OnProgress(l progress.Listener) {
	u.listener = l
}

// SetBodyString is unsupported for multipart requests.
func (u *UploadRequest) SetBodyString(string) error {
	return ErrUnsupportedOperation
}

// SetBody is unsupported for multipart requests.
func (u *UploadRequest) SetBody(io.Reader) error {
	return ErrUnsupportedOperation
}

// Send encodes and dispatches the upload. The file section is streamed
// from its source in fixed-size chunks; the whole file is never
// buffered in memory.
func (u *UploadRequest) Send(ctx context.Context) (*Response, error) {
	if u.source == nil && u.callback == nil {
		return nil, ErrNoFileSource
	}

	src := &bodySource{
		reader: u.openBody(),
		length: -1,
	}

	if u.reenterable() {
		src.rewind = func() (io.ReadCloser, error) {
			if err := u.reset(); err != nil {
				return nil, fmt.Errorf("resetting upload source: %w", err)
			}
			return u.openBody(), nil
		}
	}

	return u.sess.send(ctx, u.method, u.url, u.headers, src)
}

// openBody returns a fresh reader producing the encoded multipart body.
// Encoding runs on a pipe so the transport pulls sections as it writes
// them to the wire.
func (u *UploadRequest) openBody() io.ReadCloser {
	pr, pw := io.Pipe()
	done := make(chan struct{})
	u.pr, u.done = pr, done

	go func() {
		pw.CloseWithError(u.encode(pw))
		close(done)
	}()

	return pr
}

// encode writes the multipart body: the file section first, then one
// section per field in sorted key order, all delimited by the fixed
// boundary.
func (u *UploadRequest) encode(w io.Writer) error {
	mw := multipart.NewWriter(w)
	if err := mw.SetBoundary(Boundary); err != nil {
		return fmt.Errorf("setting boundary: %w", err)
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, u.spec.PartName, u.filename))
	if u.spec.ContentType != nil {
		if ct := u.spec.ContentType(u.filename); ct != "" {
			h.Set("Content-Type", ct)
		}
	}

	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("creating file part: %w", err)
	}

	sink := io.Writer(part)
	if u.listener != nil {
		sink = progress.NewWriter(part, u.expectedSize(), u.listener)
	}

	if u.callback != nil {
		if err := u.callback(sink); err != nil {
			return fmt.Errorf("upload callback: %w", err)
		}
	} else if err := copyChunks(sink, u.source); err != nil {
		return fmt.Errorf("streaming file part: %w", err)
	}

	for _, k := range slices.Sorted(maps.Keys(u.fields)) {
		if err := mw.WriteField(k, u.fields[k]); err != nil {
			return fmt.Errorf("writing field %q: %w", k, err)
		}
	}

	if err := mw.Close(); err != nil {
		return fmt.Errorf("closing multipart body: %w", err)
	}

	return nil
}

// expectedSize reports the progress total: the caller-supplied size if
// any, else the source's remaining length when it exposes one, else -1.
func (u *UploadRequest) expectedSize() int64 {
	if u.size >= 0 {
		return u.size
	}

	if l, ok := u.source.(interface{ Len() int }); ok {
		return int64(l.Len())
	}

	return -1
}

// reenterable reports whether the body can be produced again for a
// retried send.
func (u *UploadRequest) reenterable() bool {
	if u.callback != nil {
		return true
	}

	_, ok := u.source.(io.Seeker)
	return ok
}

// reset prepares the file source for a re-send. The previous encode
// goroutine may still be mid-copy; closing its pipe and waiting for it
// to exit keeps the seek from racing with a concurrent source read.
func (u *UploadRequest) reset() error {
	if u.pr != nil {
		_ = u.pr.Close()
		<-u.done
	}

	if sk, ok := u.source.(io.Seeker); ok {
		if _, err := sk.Seek(0, io.SeekStart); err != nil {
			return err
		}
	}

	return nil
}

// copyChunks streams src into dst in fixed-size chunks so progress
// reporting happens at chunk granularity regardless of source type.
func copyChunks(dst io.Writer, src io.Reader) error {
	buf := make([]byte, chunkSize)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
