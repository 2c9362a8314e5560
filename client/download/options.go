package download

import (
	"errors"
	"hash"

	"github.com/stratusdrive/stratus-go/client/progress"
)

// Option defines optional settings for downloading files.
type Option func(*options) error

type options struct {
	checksum     *checksumVerifier
	listener     progress.Listener
	logProgress  bool
	skipExisting bool
}

// WithChecksum enables checksum validation of the downloaded file.
// h is a hash.Hash instance (e.g. sha256.New()), and expected is the
// hex-encoded expected checksum string.
func WithChecksum(h hash.Hash, expected string) Option {
	return func(opts *options) error {
		if h == nil {
			return errors.New("hash must not be nil")
		}

		if expected == "" {
			return errors.New("expected checksum must not be empty")
		}

		opts.checksum = &checksumVerifier{hash: h, expected: expected}
		return nil
	}
}

// WithListener invokes fn as bytes reach disk. fn receives the bytes
// written so far and the expected total, or -1 when unknown.
func WithListener(fn progress.Listener) Option {
	return func(opts *options) error {
		if fn == nil {
			return errors.New("listener must not be nil")
		}

		opts.listener = fn
		return nil
	}
}

// WithProgress enables periodic download progress logging via the
// logger supplied to Handle.
func WithProgress() Option {
	return func(opts *options) error {
		opts.logProgress = true
		return nil
	}
}

// WithSkipExisting causes Handle to return nil immediately when
// the destination file already exists, avoiding a redundant download.
func WithSkipExisting() Option {
	return func(opts *options) error {
		opts.skipExisting = true
		return nil
	}
}
