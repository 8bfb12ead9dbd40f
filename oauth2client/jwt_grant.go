package oauth2client

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	jwtBearerGrantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"

	// assertionLifetime stays under the 60s maximum the token endpoint accepts.
	assertionLifetime = 45 * time.Second
)

// JWTConfig configures Box JWT server authentication.
type JWTConfig struct {
	ClientID     string
	ClientSecret string

	// PublicKeyID is the ID of the public key registered with the app; it is sent as the "kid" header.
	PublicKeyID string

	// PrivateKey is the PEM encoded RSA private key (PKCS#1 or unencrypted PKCS#8).
	PrivateKey []byte

	// SubjectType is SubjectEnterprise or SubjectUser; SubjectID is the matching enterprise or user ID.
	SubjectType string
	SubjectID   string
}

// NewJWTTokenManager creates a token manager that signs an RS256 assertion
// and exchanges it for an access token.
//
// Parameters:
//   - ctx: Context whose values (e.g. oauth2.HTTPClient) are used for token requests
//   - cfg: App credentials, signing key and subject
//   - opts: Optional configuration options (WithLogger, WithLoggingEnabled, WithTokenURL, WithExpiryLeeway)
//
// Returns an error if credentials are missing, the subject is incomplete or the key cannot be parsed.
func NewJWTTokenManager(ctx context.Context, cfg JWTConfig, opts ...Option) (*TokenManager, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}
	if cfg.SubjectType == "" || cfg.SubjectID == "" {
		return nil, errors.New("oauth2client: JWT subject type and ID are required")
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM(cfg.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("oauth2client: parse private key: %w", err)
	}

	tm := newTokenManager(ctx, "jwt", opts)
	grant := &jwtGrant{
		config:   cfg,
		key:      key,
		tokenURL: tm.tokenURL,
		now:      time.Now,
	}
	tm.fetch = grant.token

	return tm, nil
}

// jwtGrant performs the jwt-bearer exchange.
type jwtGrant struct {
	config   JWTConfig
	key      *rsa.PrivateKey
	tokenURL string
	now      func() time.Time
}

// assertion builds and signs the JWT sent to the token endpoint.
func (g *jwtGrant) assertion() (string, error) {
	now := g.now()
	claims := jwt.MapClaims{
		"iss":          g.config.ClientID,
		"sub":          g.config.SubjectID,
		"box_sub_type": g.config.SubjectType,
		"aud":          g.tokenURL,
		"jti":          uuid.NewString(),
		"exp":          jwt.NewNumericDate(now.Add(assertionLifetime)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if g.config.PublicKeyID != "" {
		token.Header["kid"] = g.config.PublicKeyID
	}

	signed, err := token.SignedString(g.key)
	if err != nil {
		return "", fmt.Errorf("sign assertion: %w", err)
	}
	return signed, nil
}

// token signs a fresh assertion and exchanges it. The client credentials
// config carries client_id and client_secret in the form and overrides the
// grant type.
func (g *jwtGrant) token(ctx context.Context) (*oauth2.Token, error) {
	assertion, err := g.assertion()
	if err != nil {
		return nil, err
	}

	config := &clientcredentials.Config{
		ClientID:     g.config.ClientID,
		ClientSecret: g.config.ClientSecret,
		TokenURL:     g.tokenURL,
		EndpointParams: url.Values{
			"grant_type": {jwtBearerGrantType},
			"assertion":  {assertion},
		},
		AuthStyle: oauth2.AuthStyleInParams,
	}
	return config.Token(ctx)
}
