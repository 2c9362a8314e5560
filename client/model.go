package client

// Boundary is the fixed delimiter separating multipart sections. The
// API accepts any boundary token; a constant keeps encoded uploads
// reproducible.
const Boundary = "da39a3ee5e6b4b0d3255bfef95601890afd80709"

// chunkSize is the buffer size used when streaming file content into
// the multipart body. Progress is reported at this granularity.
const chunkSize = 8192

// maxErrBodySize caps the amount of response body read when building
// an [APIError]. This prevents unbounded memory usage when a large
// body arrives with an error status.
const maxErrBodySize = 4 << 10 // 4KB

// timeFormat is the canonical date format of the API: RFC 3339 at
// second precision.
const timeFormat = "2006-01-02T15:04:05Z07:00"

// PartSpec describes the file section of a multipart upload for one
// concrete request type: the part name used in the Content-Disposition
// header and the content type derived from the filename.
type PartSpec struct {
	// PartName names the file part, e.g. "file".
	PartName string
	// ContentType maps a filename to the part's media type. May be nil
	// or return "", in which case no Content-Type header is written for
	// the part.
	ContentType func(filename string) string
}
