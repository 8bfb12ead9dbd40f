package oauth2client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/AmmannChristian/go-boxclient/boxclient"
)

// TokenURL is the Box OAuth2 token endpoint.
const TokenURL = "https://api.box.com/oauth2/token"

// Subject types accepted by the token endpoint.
const (
	SubjectEnterprise = "enterprise"
	SubjectUser       = "user"
)

// ErrMissingCredentials is returned when a grant lacks the client ID or secret.
var ErrMissingCredentials = errors.New("oauth2client: client ID and client secret are required")

// Logger is an interface for optional logging in TokenManager.
// Implementations can log token refresh events if desired.
type Logger interface {
	Printf(format string, args ...any)
}

// fetchFunc obtains a new token from the token endpoint.
type fetchFunc func(ctx context.Context) (*oauth2.Token, error)

// TokenManager caches Box access tokens and refreshes them before expiry.
// It is safe for concurrent access.
type TokenManager struct {
	fetch        fetchFunc
	token        *oauth2.Token
	mu           sync.RWMutex
	ctx          context.Context // fallback context when callers pass nil
	expiryLeeway time.Duration
	tokenURL     string
	grant        string
	logger       Logger // optional logger
}

// Option is a functional option for configuring TokenManager.
type Option func(*TokenManager)

// WithLogger sets a custom logger for token refresh events.
// If not set, no logging will occur.
func WithLogger(logger Logger) Option {
	return func(tm *TokenManager) {
		tm.logger = logger
	}
}

// WithLoggingEnabled enables logging using the default Go log package.
// This is a convenience option that sets the logger to log.Default().
func WithLoggingEnabled() Option {
	return func(tm *TokenManager) {
		tm.logger = log.Default()
	}
}

// WithTokenURL overrides the token endpoint, e.g. for a regional or mocked deployment.
func WithTokenURL(tokenURL string) Option {
	return func(tm *TokenManager) {
		tm.tokenURL = tokenURL
	}
}

// WithExpiryLeeway sets how long before expiry a cached token is refreshed. Default is one minute.
func WithExpiryLeeway(leeway time.Duration) Option {
	return func(tm *TokenManager) {
		tm.expiryLeeway = leeway
	}
}

func newTokenManager(ctx context.Context, grant string, opts []Option) *TokenManager {
	// Keep token requests independent from caller cancellations while preserving values.
	if ctx == nil {
		ctx = context.Background()
	} else {
		ctx = context.WithoutCancel(ctx)
	}

	tm := &TokenManager{
		ctx:          ctx,
		expiryLeeway: time.Minute, // refresh a bit before expiry to avoid near-expiry races
		tokenURL:     TokenURL,
		grant:        grant,
	}

	for _, opt := range opts {
		opt(tm)
	}

	return tm
}

// NewTokenManager creates a token manager using the Box Client Credentials Grant.
//
// Parameters:
//   - ctx: Context whose values (e.g. oauth2.HTTPClient) are used for token requests
//   - clientID: Box application client ID
//   - clientSecret: Box application client secret
//   - subjectType: SubjectEnterprise for the service account, SubjectUser for a managed user
//   - subjectID: Enterprise ID or user ID matching subjectType
//   - opts: Optional configuration options (WithLogger, WithLoggingEnabled, WithTokenURL, WithExpiryLeeway)
//
// Returns ErrMissingCredentials if clientID or clientSecret is empty.
func NewTokenManager(ctx context.Context, clientID, clientSecret, subjectType, subjectID string, opts ...Option) (*TokenManager, error) {
	if clientID == "" || clientSecret == "" {
		return nil, ErrMissingCredentials
	}

	tm := newTokenManager(ctx, "client_credentials", opts)

	params := url.Values{}
	if subjectType != "" {
		params.Set("box_subject_type", subjectType)
	}
	if subjectID != "" {
		params.Set("box_subject_id", subjectID)
	}

	config := &clientcredentials.Config{
		ClientID:       clientID,
		ClientSecret:   clientSecret,
		TokenURL:       tm.tokenURL,
		EndpointParams: params,
		AuthStyle:      oauth2.AuthStyleInParams,
	}
	tm.fetch = config.Token

	return tm, nil
}

// GetToken returns a valid access token, fetching or refreshing if necessary.
// This method respects the provided context's cancellation and deadline and
// uses double-checked locking to minimize lock contention.
//
// Parameters:
//   - ctx: Context for the token request (nil falls back to the construction context)
//
// Returns:
//   - string: Valid access token
//   - error: Error if token fetch/refresh fails or context is cancelled
func (tm *TokenManager) GetToken(ctx context.Context) (string, error) {
	if ctx == nil {
		ctx = tm.ctx
	}

	// Fast path: check if we have a valid token without write lock
	tm.mu.RLock()
	if tm.tokenValid() {
		token := tm.token.AccessToken
		tm.mu.RUnlock()
		return token, nil
	}
	tm.mu.RUnlock()

	tm.mu.Lock()
	defer tm.mu.Unlock()

	// Double-check after acquiring write lock (another goroutine might have refreshed)
	if tm.tokenValid() {
		return tm.token.AccessToken, nil
	}

	return tm.refreshLocked(ctx)
}

// Invalidate drops the cached token so the next GetToken fetches a new one.
func (tm *TokenManager) Invalidate() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.token = nil
}

// refreshLocked fetches a new token. tm.mu must be held for writing.
func (tm *TokenManager) refreshLocked(ctx context.Context) (string, error) {
	token, err := tm.fetch(ctx)
	if err != nil {
		return "", fmt.Errorf("oauth2client: failed to fetch token: %w", err)
	}

	tm.token = token

	if tm.logger != nil {
		tm.logger.Printf("oauth2client: obtained new access token via %s grant (expires: %s)", tm.grant, token.Expiry.Format(time.RFC3339))
	}

	return token.AccessToken, nil
}

// tokenValid reports whether the cached token is still usable with a small safety window.
func (tm *TokenManager) tokenValid() bool {
	if tm.token == nil {
		return false
	}
	if !tm.token.Expiry.IsZero() {
		if time.Until(tm.token.Expiry) <= tm.expiryLeeway {
			return false
		}
	}
	return tm.token.Valid()
}

// Authorize fetches a token and stores it on client, so every later request
// carries it.
func (tm *TokenManager) Authorize(ctx context.Context, client *boxclient.Client) error {
	token, err := tm.GetToken(ctx)
	if err != nil {
		return err
	}
	client.SetAccessToken(boxclient.RawToken(token))
	return nil
}

// RerunWithFreshToken drops the cached token, fetches a new one and replays
// opts once through client.RemoveAccessTokenAndRerunRequest, storing the new
// token on the client. Use it after a request failed with 401.
func (tm *TokenManager) RerunWithFreshToken(ctx context.Context, client *boxclient.Client, opts *boxclient.RequestOptions) (*boxclient.Result, error) {
	tm.Invalidate()

	token, err := tm.GetToken(ctx)
	if err != nil {
		return nil, err
	}

	return client.RemoveAccessTokenAndRerunRequest(ctx, opts, token, true)
}
