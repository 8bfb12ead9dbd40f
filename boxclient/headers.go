package boxclient

import (
	"net/http"
	"slices"
	"strings"
)

// Authorization header name and value prefix.
const (
	HeaderAuthorization       = "Authorization"
	HeaderAuthorizationPrefix = "Bearer "
)

// BuildHeaders returns a new header set with the Authorization entry for
// token, followed by the entries of opts.Headers. Explicit headers win on a
// key collision. opts.Headers is only read.
func BuildHeaders(opts *RequestOptions, token string) http.Header {
	headers := make(http.Header)
	if token != "" {
		headers.Set(HeaderAuthorization, authorizationValue(token))
	}

	if opts != nil {
		for key, values := range opts.Headers {
			headers[http.CanonicalHeaderKey(key)] = slices.Clone(values)
		}
	}

	return headers
}

func authorizationValue(token string) string {
	return HeaderAuthorizationPrefix + token
}

// removeAuthorization deletes every Authorization entry, whatever its key casing.
func removeAuthorization(headers http.Header) {
	for key := range headers {
		if strings.EqualFold(key, HeaderAuthorization) {
			delete(headers, key)
		}
	}
}
