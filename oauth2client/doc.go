// Package oauth2client obtains and caches Box access tokens for server-side apps.
//
// It supports the Client Credentials Grant (service account or managed user) and JWT server
// authentication (an RS256 assertion exchanged at the token endpoint). Tokens are cached and
// refreshed before expiry; fetches honor contexts for cancellation, are thread-safe, and can
// log refresh events via an optional Logger.
//
// # Features
//
//   - Client Credentials Grant with box_subject_type / box_subject_id
//   - JWT assertion grant with key ID, random jti and short assertion lifetime
//   - Automatic caching and early refresh with double-checked locking
//   - Authorize to seed a boxclient.Client with the stored token
//   - RerunWithFreshToken to replay a request once after a 401
//
// # Quick Start
//
//	tm, err := oauth2client.NewTokenManager(
//	    ctx,
//	    "client-id",
//	    "client-secret",
//	    oauth2client.SubjectEnterprise,
//	    "123456",
//	    oauth2client.WithLoggingEnabled(),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	client := boxclient.New(boxclient.Config{})
//	if err := tm.Authorize(ctx, client); err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := client.MakeRequest(ctx, "/users/me", nil)
//	if err == nil && boxhttp.IsUnauthorized(boxhttp.CheckResponse(res.Response)) {
//	    res, err = tm.RerunWithFreshToken(ctx, client, res.Options)
//	}
//
// TokenManager is safe for concurrent use and may be shared by several clients.
package oauth2client
