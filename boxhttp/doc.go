// Package boxhttp is the HTTP transport used by boxclient to reach the Box API.
//
// It provides a fluent Builder for the underlying http.Client (custom CA, mTLS, insecure for tests,
// timeouts, base transports, redirect handling) and a Client that turns a transport-level Request
// into an *http.Request, encodes query parameters and bodies, and executes it.
//
// # Features
//
//   - Fluent builder with TLS 1.2+ by default, custom CA/mTLS and optional InsecureSkipVerify
//   - Query parameter encoding, with string slices joined by commas as Box expects for "fields"
//   - Body encoding for io.Reader, []byte, string, url.Values and JSON values
//   - CheckResponse and IsUnauthorized to classify Box error replies
//
// # Quick Start
//
//	client, err := boxhttp.NewBuilder().
//	    WithTLS("/path/to/ca.crt", "", "").
//	    WithTimeout(60 * time.Second).
//	    WithUserAgent("my-app/1.0").
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := client.Do(ctx, &boxhttp.Request{
//	    Method: http.MethodGet,
//	    URL:    "https://api.box.com/2.0/folders/0",
//	    Header: http.Header{"Authorization": {"Bearer " + token}},
//	    Params: map[string]any{"fields": []string{"id", "name"}},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := boxhttp.CheckResponse(resp); boxhttp.IsUnauthorized(err) {
//	    // obtain a new token and rerun the request
//	}
//
// The Client never interprets successful responses; callers own resp.Body.
// Client is safe for concurrent use.
package boxhttp
