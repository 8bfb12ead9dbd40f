package boxclient

import (
	"fmt"
	"net/http"

	"github.com/mitchellh/mapstructure"

	"github.com/AmmannChristian/go-boxclient/boxhttp"
)

// ParamFields is the query parameter that carries field selection.
const ParamFields = "fields"

// RequestOptions describes one API call. It is built per call and mutated in
// place by Normalize before it is returned or dispatched.
type RequestOptions struct {
	// Method is the HTTP method; the transport defaults it to GET.
	Method string `mapstructure:"method" json:"method,omitempty"`

	// URL overrides the base URL plus path when set.
	URL string `mapstructure:"url" json:"url,omitempty"`

	Headers http.Header    `mapstructure:"headers" json:"headers,omitempty"`
	Params  map[string]any `mapstructure:"params" json:"params,omitempty"`

	// Fields selects response fields. It is moved into Params[ParamFields].
	Fields []string `mapstructure:"fields" json:"fields,omitempty"`

	// Body is kept even when empty.
	Body any `mapstructure:"body" json:"body,omitempty"`

	// SetAsNewAccessToken makes RemoveAccessTokenAndRerunRequest store the replacement token.
	SetAsNewAccessToken bool `mapstructure:"setAsNewAccessToken" json:"setAsNewAccessToken,omitempty"`

	// AccessToken is used when the client has no stored token. It is cleared
	// before the options leave the client.
	AccessToken TokenInput `mapstructure:"-" json:"-"`
}

// Result is returned by MakeRequest and RemoveAccessTokenAndRerunRequest.
// MakeRequest leaves Response nil in no-request mode.
type Result struct {
	Options  *RequestOptions
	Response *http.Response
}

// OptionsFromMap decodes the loosely typed option map used by resource
// managers, e.g. {"fields": [...], "params": {...}, "access_token": "..."}.
// Single header values are accepted in place of slices.
func OptionsFromMap(m map[string]any) (*RequestOptions, error) {
	opts := &RequestOptions{}
	if len(m) == 0 {
		return opts, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           opts,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("boxclient: options decoder: %w", err)
	}
	if err := decoder.Decode(m); err != nil {
		return nil, fmt.Errorf("boxclient: decode options: %w", err)
	}

	var token any
	for _, key := range tokenKeys {
		if v, ok := m[key]; ok {
			token = v
		}
	}
	opts.AccessToken = tokenFromValue(token)

	return opts, nil
}

// Request converts the options into the transport request.
func (o *RequestOptions) Request() *boxhttp.Request {
	return &boxhttp.Request{
		Method: o.Method,
		URL:    o.URL,
		Header: o.Headers,
		Params: o.Params,
		Body:   o.Body,
	}
}

// applyFields moves Fields into Params. An empty non-nil slice is moved too.
func applyFields(opts *RequestOptions) {
	if opts.Fields == nil {
		return
	}
	if opts.Params == nil {
		opts.Params = make(map[string]any, 1)
	}
	opts.Params[ParamFields] = opts.Fields
	opts.Fields = nil
}

// elideEmpty drops empty collections and per-call control fields. Body is
// left alone.
func elideEmpty(opts *RequestOptions) {
	if len(opts.Headers) == 0 {
		opts.Headers = nil
	}
	if len(opts.Params) == 0 {
		opts.Params = nil
	}
	if len(opts.Fields) == 0 {
		opts.Fields = nil
	}
	opts.AccessToken = TokenInput{}
	opts.SetAsNewAccessToken = false
}
