// Package progress provides pass-through stream decorators that report
// cumulative transfer counts to a caller-supplied listener.
package progress

import "io"

// Listener receives the cumulative number of bytes transferred so far
// and the total expected, or -1 when the total is unknown. The total is
// a best-effort estimate taken when the transfer starts; streaming
// sources without a fixed length may under-report it.
//
// Listeners are invoked synchronously on the goroutine performing the
// I/O and must not block.
type Listener func(transferred, total int64)

// Reader decorates an io.Reader, invoking the listener after every read.
type Reader struct {
	r           io.Reader
	listener    Listener
	total       int64
	transferred int64
}

// NewReader wraps r so that each successful read reports the running
// byte count to listener. A nil listener disables reporting.
func NewReader(r io.Reader, total int64, listener Listener) *Reader {
	return &Reader{r: r, total: total, listener: listener}
}

func (p *Reader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.transferred += int64(n)
		if p.listener != nil {
			p.listener(p.transferred, p.total)
		}
	}

	return n, err
}

// Transferred reports the bytes read through the decorator so far.
func (p *Reader) Transferred() int64 {
	return p.transferred
}

// Writer decorates an io.Writer, invoking the listener after every write.
type Writer struct {
	w           io.Writer
	listener    Listener
	total       int64
	transferred int64
}

// NewWriter wraps w so that each successful write reports the running
// byte count to listener. A nil listener disables reporting.
func NewWriter(w io.Writer, total int64, listener Listener) *Writer {
	return &Writer{w: w, total: total, listener: listener}
}

func (p *Writer) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	if n > 0 {
		p.transferred += int64(n)
		if p.listener != nil {
			p.listener(p.transferred, p.total)
		}
	}

	return n, err
}

// Transferred reports the bytes written through the decorator so far.
func (p *Writer) Transferred() int64 {
	return p.transferred
}
