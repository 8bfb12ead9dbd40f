package boxclient

import "net/http"

// Provenance tells which precedence tier supplied the token of a request.
type Provenance int

const (
	// ProvenanceNone means no token was resolved.
	ProvenanceNone Provenance = iota
	// ProvenanceStored is the client's stored token.
	ProvenanceStored
	// ProvenancePerRequest is a token passed explicitly for this call.
	ProvenancePerRequest
	// ProvenanceExtracted is a token taken out of RequestOptions.AccessToken.
	ProvenanceExtracted
)

func (p Provenance) String() string {
	switch p {
	case ProvenanceStored:
		return "stored"
	case ProvenancePerRequest:
		return "per-request"
	case ProvenanceExtracted:
		return "options"
	default:
		return "none"
	}
}

// ResolvedToken is a token together with the tier it came from.
type ResolvedToken struct {
	Value      string
	Provenance Provenance
}

// resolveAuthorization applies the precedence order: stored token, then the
// explicit accessToken argument, then the token carried by opts. The last
// tier strips the token from opts.
//
// A stored token always wins once set, even when it resolved to nothing; the
// result then has ProvenanceStored and an empty Value.
func (c *Client) resolveAuthorization(opts *RequestOptions, accessToken string) ResolvedToken {
	c.mu.RLock()
	stored, hasStored := c.storedToken, c.hasStoredToken
	c.mu.RUnlock()

	if hasStored {
		return ResolvedToken{Value: stored, Provenance: ProvenanceStored}
	}
	if accessToken != "" {
		return ResolvedToken{Value: accessToken, Provenance: ProvenancePerRequest}
	}

	token, ok := Resolve(opts.AccessToken, true)
	opts.AccessToken = TokenInput{}
	if !ok {
		return ResolvedToken{Provenance: ProvenanceNone}
	}
	return ResolvedToken{Value: token, Provenance: ProvenanceExtracted}
}

// authorize resolves the token for opts and builds the request headers.
func (c *Client) authorize(opts *RequestOptions, accessToken string) http.Header {
	resolved := c.resolveAuthorization(opts, accessToken)
	c.logf("boxclient: authorization token source: %s", resolved.Provenance)
	return BuildHeaders(opts, resolved.Value)
}
