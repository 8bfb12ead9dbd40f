package boxclient

import "golang.org/x/oauth2"

// Keys recognized in a wrapped token map, in inspection order.
const (
	KeyAccessToken      = "accessToken"
	KeyAccessTokenSnake = "access_token"
)

var tokenKeys = [...]string{KeyAccessToken, KeyAccessTokenSnake}

type tokenKind uint8

const (
	tokenNone tokenKind = iota
	tokenRaw
	tokenWrapped
)

// TokenInput is either a raw token string or a map holding the token under
// KeyAccessToken or KeyAccessTokenSnake. The zero value carries no token.
type TokenInput struct {
	kind    tokenKind
	raw     string
	wrapped map[string]any
}

// RawToken wraps a bearer token string.
func RawToken(token string) TokenInput {
	return TokenInput{kind: tokenRaw, raw: token}
}

// WrappedToken wraps a map that may carry the token. The map is not copied;
// Resolve with removeFromSource deletes the matched keys from it.
func WrappedToken(m map[string]any) TokenInput {
	if m == nil {
		return TokenInput{}
	}
	return TokenInput{kind: tokenWrapped, wrapped: m}
}

// TokenFromOAuth2 takes the access token of an oauth2.Token.
func TokenFromOAuth2(token *oauth2.Token) TokenInput {
	if token == nil {
		return TokenInput{}
	}
	return RawToken(token.AccessToken)
}

// IsZero reports whether no token input was given.
func (t TokenInput) IsZero() bool {
	return t.kind == tokenNone
}

// tokenFromValue maps a loosely typed value onto a TokenInput.
func tokenFromValue(v any) TokenInput {
	switch tv := v.(type) {
	case TokenInput:
		return tv
	case string:
		return RawToken(tv)
	case map[string]any:
		return WrappedToken(tv)
	case map[string]string:
		m := make(map[string]any, len(tv))
		for k, s := range tv {
			m[k] = s
		}
		return WrappedToken(m)
	case *oauth2.Token:
		return TokenFromOAuth2(tv)
	default:
		return TokenInput{}
	}
}

// Resolve extracts the bearer token from input.
//
// A raw token is returned unchanged. For a wrapped map, KeyAccessToken is
// inspected before KeyAccessTokenSnake and a later match overwrites an
// earlier one, so the snake-case key wins when both are present. With
// removeFromSource the matched keys are deleted from the map.
//
// The boolean is false when no non-empty string token was found; that is not
// an error, anonymous requests carry no Authorization header.
func Resolve(input TokenInput, removeFromSource bool) (string, bool) {
	switch input.kind {
	case tokenRaw:
		return input.raw, input.raw != ""
	case tokenWrapped:
		var found any
		for _, key := range tokenKeys {
			v, ok := input.wrapped[key]
			if !ok {
				continue
			}
			found = v
			if removeFromSource {
				delete(input.wrapped, key)
			}
		}
		token, ok := found.(string)
		if !ok || token == "" {
			return "", false
		}
		return token, true
	default:
		return "", false
	}
}
