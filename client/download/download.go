package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/stratusdrive/stratus-go/client/progress"
)

// Handle streams body to a temp file in the same directory as destPath,
// renamed to destPath on success. On any error the temp file is removed.
func Handle(ctx context.Context, body io.Reader, contentLength int64, destPath string, logger *slog.Logger, optFns ...Option) error {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return fmt.Errorf("applying option: %w", err)
		}
	}

	if opts.skipExisting {
		if _, err := os.Stat(destPath); err == nil {
			logger.Info("skipping existing file", "path", destPath)
			return nil
		}
	}

	body = &contextReader{ctx: ctx, r: body}

	file, err := os.CreateTemp(filepath.Dir(destPath), ".stratus-dl-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	var successful bool
	defer func() {
		if err := file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			logger.Error("defer closing temp file", "error", err)
		}
		if !successful {
			if err := os.Remove(file.Name()); err != nil {
				logger.Error("failed to remove temp file", "error", err)
			}
		}
	}()

	var writer io.Writer = file
	if opts.checksum != nil {
		writer = io.MultiWriter(writer, opts.checksum)
	}

	listener := opts.listener
	if opts.logProgress {
		listener = chain(listener, logListener(logger, time.Now()))
	}
	if listener != nil {
		writer = progress.NewWriter(writer, contentLength, listener)
	}

	n, err := io.Copy(writer, body)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("%w: %w", ErrDownloadCancelled, err)
		}

		return fmt.Errorf("copying file body: %w", err)
	}

	if contentLength >= 0 && n != contentLength {
		return &Error{
			Err:    ErrContentLengthMismatch,
			Detail: fmt.Sprintf("expected %d bytes, got %d", contentLength, n),
		}
	}

	if err := opts.checksum.Verify(); err != nil {
		return err
	}

	if err := file.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(file.Name(), destPath); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	successful = true

	return nil
}

// chain combines two progress listeners, either of which may be nil.
func chain(a, b progress.Listener) progress.Listener {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(transferred, total int64) {
		a(transferred, total)
		b(transferred, total)
	}
}

// logListener returns a listener logging download progress at most
// once per second, plus a final entry on completion.
func logListener(logger *slog.Logger, start time.Time) progress.Listener {
	var lastLog time.Time

	return func(transferred, total int64) {
		msg := "downloading"
		switch {
		case total >= 0 && transferred == total:
			msg = "download complete"
		case time.Since(lastLog) < time.Second:
			return
		}
		lastLog = time.Now()

		elapsed := time.Since(start)
		attrs := []any{
			"elapsed", elapsed.Round(time.Millisecond),
			"transferred", transferred,
			"total", total,
			"mbps", fmt.Sprintf("%.2f", float64(transferred)/elapsed.Seconds()/(1024*1024)),
		}
		if total > 0 {
			attrs = append(attrs, "progress", fmt.Sprintf("%.1f%%", float64(transferred)/float64(total)*100))
		}
		logger.Info(msg, attrs...)
	}
}

// contextReader makes io.Copy abort promptly when ctx ends.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
