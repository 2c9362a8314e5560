// Package retry provides an [http.RoundTripper] that re-sends requests
// after transient failures: network errors, 429 Too Many Requests, and
// 5xx responses.
//
// Waits between attempts follow an exponential backoff policy from
// [github.com/cenkalti/backoff/v4]; a Retry-After response header
// overrides the computed wait when present.
//
// Requests with a body are only retryable when the body can be
// reproduced via http.Request.GetBody. The session's request builders
// install that hook for string bodies, seekable streams, and callback
// uploads; one-shot streams make a retry fail with
// [ErrBodyNotResettable].
package retry
