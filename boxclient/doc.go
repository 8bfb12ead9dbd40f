// Package boxclient is the request-shaping core of a Box API SDK.
//
// A Client holds the API base URL, an optional stored access token and mode flags. Resource
// managers (folders, files, collaborations, ...) receive the Client and call MakeRequest with a
// path and RequestOptions; the Client fills in the URL, builds the Authorization header, moves
// field selection into the query parameters, drops empty option fields and hands the result to
// a Transport. In no-request mode the normalized options are returned instead of being sent.
//
// # Features
//
//   - TokenInput union for raw tokens and maps carrying "accessToken" or "access_token"
//   - Stored token precedence over per-request tokens, with the resolved provenance reported
//   - Field selection forwarded as the "fields" query parameter
//   - No-request (dry-run) mode for tests and request introspection
//   - RemoveAccessTokenAndRerunRequest to replay a request once with a replacement token
//   - Optional logging (WithLogger, WithLoggingEnabled); tokens are never logged
//
// # Quick Start
//
//	client := boxclient.New(boxclient.Config{
//	    AccessToken: boxclient.RawToken(os.Getenv("BOX_ACCESS_TOKEN")),
//	})
//
//	res, err := client.MakeRequest(ctx, "/folders/0", &boxclient.RequestOptions{
//	    Fields: []string{"id", "name", "item_collection"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer res.Response.Body.Close()
//
// # Replacing an expired token
//
//	if err := boxhttp.CheckResponse(res.Response); boxhttp.IsUnauthorized(err) {
//	    res, err = client.RemoveAccessTokenAndRerunRequest(ctx, res.Options, newToken, true)
//	}
//
// Token state is guarded by a mutex, so a Client may be shared between goroutines. A rerun that
// replaces the stored token affects requests whose headers are built after it.
package boxclient
