package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrResponseStatus is the sentinel error wrapped by [APIError].
	ErrResponseStatus = errors.New("the API returned an error code")
	// ErrUnsupportedOperation is returned when a raw body is set on a
	// multipart request. Multipart bodies are built exclusively via
	// [UploadRequest.PutField] and [UploadRequest.SetFile].
	ErrUnsupportedOperation = errors.New("unsupported operation for multipart request")
	// ErrBodyAlreadySet is returned when a request body source is set twice.
	ErrBodyAlreadySet = errors.New("request body already set")
	// ErrNoFileSource is returned when an upload is sent without a file
	// source or upload callback.
	ErrNoFileSource = errors.New("upload has no file source")
)

// APIError is returned when the server responds with an error status
// code. It carries the status, the response body text read best-effort,
// and the response headers. No usable [Response] ever exists alongside
// an APIError.
type APIError struct {
	StatusCode int
	Body       string
	Headers    http.Header
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%v: %d, body: %s", e.Err, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// JSONParseError is returned when a success response declared
// application/json carries a body that cannot be parsed. Text holds
// the offending body.
type JSONParseError struct {
	Text string
	Err  error
}

func (e *JSONParseError) Error() string {
	return fmt.Sprintf("parsing JSON body: %v: %s", e.Err, e.Text)
}

func (e *JSONParseError) Unwrap() error {
	return e.Err
}
