// Package stratus exposes the session builder for the Stratus
// cloud-storage API client.
package stratus

import (
	"github.com/stratusdrive/stratus-go/client"
)

// NewSession instantiates a new *client.Session against the given API
// base URL. If not specified, a default http.Client and transport are used.
func NewSession(baseURL string, opts ...client.Option) (*client.Session, error) {
	return client.New(baseURL, opts...)
}
