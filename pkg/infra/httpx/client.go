package httpx

import (
	"net/http"
)

// Client is the outbound HTTP abstraction used by classifier providers.
//
//go:generate mockery --name=Client --dir=. --output=./mocks --filename=http_client_mock.go --case=underscore
type Client interface {
	Do(req *http.Request) (*http.Response, error)
}

type roundTripper struct {
	client Client
}

func (r roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return r.client.Do(req)
}

// StdClient adapts a Client for SDKs that insist on *http.Client.
func StdClient(c Client) *http.Client {
	if std, ok := c.(*http.Client); ok {
		return std
	}
	return &http.Client{Transport: roundTripper{client: c}}
}
