package boxclient

import "context"

// RemoveAccessTokenAndRerunRequest replays a request with a replacement token,
// typically after the API rejected the previous one with 401.
//
// opts is expected to be the already normalized options of the failed call.
// If accessToken is empty it is taken from opts.AccessToken. A true
// opts.SetAsNewAccessToken overrides setAsNewAccessToken. Any Authorization
// header left in opts.Headers is removed and the stored token is cleared;
// with setAsNewAccessToken the replacement becomes the new stored token for
// all later calls.
//
// The request is dispatched exactly once, in no-request mode too. A second
// failure is the caller's to handle.
func (c *Client) RemoveAccessTokenAndRerunRequest(ctx context.Context, opts *RequestOptions, accessToken string, setAsNewAccessToken bool) (*Result, error) {
	if opts == nil {
		opts = &RequestOptions{}
	}

	if opts.SetAsNewAccessToken {
		setAsNewAccessToken = true
		opts.SetAsNewAccessToken = false
	}

	if accessToken == "" {
		accessToken, _ = Resolve(opts.AccessToken, true)
		opts.AccessToken = TokenInput{}
	}

	removeAuthorization(opts.Headers)

	c.mu.Lock()
	c.storedToken = ""
	c.hasStoredToken = false
	if setAsNewAccessToken {
		c.storedToken = accessToken
		c.hasStoredToken = true
	}
	c.mu.Unlock()

	if setAsNewAccessToken {
		c.logf("boxclient: replacement token stored")
	}

	opts.Headers = c.authorize(opts, accessToken)
	elideEmpty(opts)

	return c.dispatch(ctx, opts)
}
