package boxclient

import (
	"context"
	"errors"
	"net/http"

	"github.com/AmmannChristian/go-boxclient/boxhttp"
)

// Transport sends normalized options to the API. The client never inspects
// the response and returns transport errors unchanged.
type Transport interface {
	Dispatch(ctx context.Context, opts *RequestOptions) (*http.Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, opts *RequestOptions) (*http.Response, error)

// Dispatch calls f.
func (f TransportFunc) Dispatch(ctx context.Context, opts *RequestOptions) (*http.Response, error) {
	return f(ctx, opts)
}

// HTTPTransport dispatches through a boxhttp.Client.
type HTTPTransport struct {
	// Client executes the requests. If nil, a default boxhttp client is used.
	Client *boxhttp.Client
}

// NewHTTPTransport creates an HTTPTransport. A nil client defaults to
// boxhttp.NewClient(nil).
func NewHTTPTransport(client *boxhttp.Client) *HTTPTransport {
	if client == nil {
		client = boxhttp.NewClient(nil)
	}
	return &HTTPTransport{Client: client}
}

// Dispatch implements Transport.
func (t *HTTPTransport) Dispatch(ctx context.Context, opts *RequestOptions) (*http.Response, error) {
	if opts == nil {
		return nil, errors.New("boxclient: request options are nil")
	}

	client := t.Client
	if client == nil {
		client = boxhttp.NewClient(nil)
	}
	return client.Do(ctx, opts.Request())
}
