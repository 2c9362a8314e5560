// Package download streams response bodies to disk with optional
// checksum validation and progress reporting.
//
// [Handle] writes the body to a temporary file alongside the
// destination path, then atomically renames it on success:
//
//	err := download.Handle(ctx, body, resp.ContentLength, destPath, logger,
//		download.WithChecksum(sha256.New(), expectedHex),
//	)
//
// Most callers should use
// [github.com/stratusdrive/stratus-go/client.Session.Download], which
// invokes Handle internally after sending the request.
package download
