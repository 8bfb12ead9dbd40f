package boxhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// ErrNilRequest is returned by Client.Do when no request is given.
var ErrNilRequest = errors.New("boxhttp: request is nil")

// Request describes a single API call. It carries fully resolved values;
// no defaulting other than the method happens here.
type Request struct {
	// Method is the HTTP method. Defaults to GET.
	Method string

	// URL is the absolute request URL. Existing query parameters are kept.
	URL string

	// Header is sent as is. Content-Type is only set when absent.
	Header http.Header

	// Params are encoded into the query string. String slices are joined with commas.
	Params map[string]any

	// Body is encoded according to its type: io.Reader, []byte and string are sent raw,
	// url.Values as a form, anything else as JSON.
	Body any
}

// Client executes Requests against the API. Build one with NewBuilder or NewClient.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient wraps an existing http.Client. A nil client gets a 30s timeout client
// on http.DefaultTransport.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{httpClient: httpClient}
}

// HTTPClient returns the underlying http.Client.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// Do encodes req and executes it. Non-2xx responses are not errors here;
// use CheckResponse to classify them.
func (c *Client) Do(ctx context.Context, req *Request) (*http.Response, error) {
	httpReq, err := c.NewHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("boxhttp: %s %s: %w", httpReq.Method, httpReq.URL.Redacted(), err)
	}
	return resp, nil
}

// NewHTTPRequest builds the *http.Request for req without sending it.
func (c *Client) NewHTTPRequest(ctx context.Context, req *Request) (*http.Request, error) {
	if req == nil {
		return nil, ErrNilRequest
	}
	if ctx == nil {
		ctx = context.Background()
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	target, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("boxhttp: invalid URL %q: %w", req.URL, err)
	}
	if len(req.Params) > 0 {
		query := target.Query()
		if err := encodeParams(query, req.Params); err != nil {
			return nil, err
		}
		target.RawQuery = query.Encode()
	}

	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("boxhttp: build request: %w", err)
	}

	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if c.userAgent != "" && httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	return httpReq, nil
}

// encodeParams adds params to query in key order so URLs are stable.
func encodeParams(query url.Values, params map[string]any) error {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		switch v := params[key].(type) {
		case nil:
			continue
		case string:
			query.Set(key, v)
		case []string:
			query.Set(key, strings.Join(v, ","))
		case []any:
			parts := make([]string, 0, len(v))
			for _, item := range v {
				parts = append(parts, fmt.Sprint(item))
			}
			query.Set(key, strings.Join(parts, ","))
		case fmt.Stringer:
			query.Set(key, v.String())
		case bool, int, int32, int64, uint, uint32, uint64, float32, float64:
			query.Set(key, fmt.Sprint(v))
		default:
			return fmt.Errorf("boxhttp: unsupported type %T for query parameter %q", v, key)
		}
	}
	return nil
}

// encodeBody returns the request body reader and the content type implied by its Go type.
func encodeBody(body any) (io.Reader, string, error) {
	switch v := body.(type) {
	case nil:
		return nil, "", nil
	case io.Reader:
		return v, "", nil
	case []byte:
		return bytes.NewReader(v), "", nil
	case string:
		return strings.NewReader(v), "", nil
	case url.Values:
		return strings.NewReader(v.Encode()), "application/x-www-form-urlencoded", nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("boxhttp: encode JSON body: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	}
}
