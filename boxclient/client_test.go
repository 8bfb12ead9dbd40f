package boxclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"testing"
)

type stubLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *stubLogger) Printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf(format, args...))
}

func (l *stubLogger) getMessages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	msgs := make([]string, len(l.messages))
	copy(msgs, l.messages)
	return msgs
}

// recordingTransport captures every dispatched option set.
type recordingTransport struct {
	mu    sync.Mutex
	calls []*RequestOptions
	resp  *http.Response
	err   error
}

func (r *recordingTransport) Dispatch(_ context.Context, opts *RequestOptions) (*http.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, opts)
	if r.err != nil {
		return nil, r.err
	}
	if r.resp != nil {
		return r.resp, nil
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(`{}`)),
	}, nil
}

func (r *recordingTransport) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *recordingTransport) last() *RequestOptions {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

func TestNew_Defaults(t *testing.T) {
	client := New(Config{})

	if client.BaseURL() != DefaultBaseURL {
		t.Errorf("expected base URL %s, got %s", DefaultBaseURL, client.BaseURL())
	}
	if client.NoRequestMode() || client.SkipValidation() || client.SimpleMode() {
		t.Error("mode flags should default to false")
	}
	if _, ok := client.AccessToken(); ok {
		t.Error("no token should be stored by default")
	}
	if _, ok := client.transport.(*HTTPTransport); !ok {
		t.Errorf("expected default HTTPTransport, got %T", client.transport)
	}
}

func TestNew_Config(t *testing.T) {
	tests := []struct {
		name       string
		cfg        Config
		wantToken  string
		wantStored bool
	}{
		{
			name:       "raw token",
			cfg:        Config{AccessToken: RawToken("t1")},
			wantToken:  "t1",
			wantStored: true,
		},
		{
			name:       "wrapped token",
			cfg:        Config{AccessToken: WrappedToken(map[string]any{"access_token": "t2"})},
			wantToken:  "t2",
			wantStored: true,
		},
		{
			name:       "unresolvable token",
			cfg:        Config{AccessToken: WrappedToken(map[string]any{"token": "x"})},
			wantStored: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := New(tt.cfg)

			token, stored := client.AccessToken()
			if token != tt.wantToken || stored != tt.wantStored {
				t.Errorf("expected (%q, %v), got (%q, %v)", tt.wantToken, tt.wantStored, token, stored)
			}
		})
	}
}

func TestNew_ModeFlags(t *testing.T) {
	client := New(Config{
		BaseURL:        "https://api.example.com/2.0",
		NoRequestMode:  true,
		SkipValidation: true,
		SimpleMode:     true,
	})

	if client.BaseURL() != "https://api.example.com/2.0" {
		t.Errorf("unexpected base URL %s", client.BaseURL())
	}
	if !client.NoRequestMode() || !client.SkipValidation() || !client.SimpleMode() {
		t.Error("mode flags should be set")
	}
}

func TestSetAccessToken(t *testing.T) {
	client := New(Config{})

	client.SetAccessToken(WrappedToken(map[string]any{"accessToken": "set"}))

	token, stored := client.AccessToken()
	if token != "set" || !stored {
		t.Errorf("expected stored token %q, got (%q, %v)", "set", token, stored)
	}

	client.RemoveAccessToken()
	if _, stored := client.AccessToken(); stored {
		t.Error("token should be removed")
	}
}

// An unresolvable input still marks the client as holding a stored token.
func TestSetAccessToken_UnresolvableStillStored(t *testing.T) {
	client := New(Config{NoRequestMode: true})
	client.SetAccessToken(TokenInput{})

	token, stored := client.AccessToken()
	if token != "" || !stored {
		t.Fatalf("expected empty stored token, got (%q, %v)", token, stored)
	}

	res, err := client.MakeRequest(context.Background(), "/users/me", &RequestOptions{
		AccessToken: RawToken("per-request"),
	})
	if err != nil {
		t.Fatalf("MakeRequest failed: %v", err)
	}
	if res.Options.Headers != nil {
		t.Errorf("expected no headers, got %v", res.Options.Headers)
	}
}

func TestResolveAuthorization_Precedence(t *testing.T) {
	tests := []struct {
		name           string
		stored         *string
		argument       string
		optionsToken   TokenInput
		wantValue      string
		wantProvenance Provenance
	}{
		{
			name:           "stored wins over argument and options",
			stored:         strPtr("S"),
			argument:       "A",
			optionsToken:   RawToken("O"),
			wantValue:      "S",
			wantProvenance: ProvenanceStored,
		},
		{
			name:           "argument wins over options",
			argument:       "A",
			optionsToken:   RawToken("O"),
			wantValue:      "A",
			wantProvenance: ProvenancePerRequest,
		},
		{
			name:           "options token",
			optionsToken:   WrappedToken(map[string]any{"access_token": "O"}),
			wantValue:      "O",
			wantProvenance: ProvenanceExtracted,
		},
		{
			name:           "nothing",
			wantProvenance: ProvenanceNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := New(Config{})
			if tt.stored != nil {
				client.SetAccessToken(RawToken(*tt.stored))
			}

			opts := &RequestOptions{AccessToken: tt.optionsToken}
			got := client.resolveAuthorization(opts, tt.argument)

			if got.Value != tt.wantValue {
				t.Errorf("expected value %q, got %q", tt.wantValue, got.Value)
			}
			if got.Provenance != tt.wantProvenance {
				t.Errorf("expected provenance %s, got %s", tt.wantProvenance, got.Provenance)
			}
		})
	}
}

func TestResolveAuthorization_ExtractedStripsOptions(t *testing.T) {
	client := New(Config{})
	source := map[string]any{"accessToken": "O", "keep": true}
	opts := &RequestOptions{AccessToken: WrappedToken(source)}

	got := client.resolveAuthorization(opts, "")

	if got.Value != "O" {
		t.Fatalf("expected token O, got %q", got.Value)
	}
	if !opts.AccessToken.IsZero() {
		t.Error("options token should be cleared")
	}
	if _, exists := source["accessToken"]; exists {
		t.Error("token key should be removed from the source map")
	}
}

func TestProvenance_String(t *testing.T) {
	tests := map[Provenance]string{
		ProvenanceNone:       "none",
		ProvenanceStored:     "stored",
		ProvenancePerRequest: "per-request",
		ProvenanceExtracted:  "options",
	}
	for p, want := range tests {
		if p.String() != want {
			t.Errorf("expected %q, got %q", want, p.String())
		}
	}
}

func TestNormalize_DefaultURL(t *testing.T) {
	client := New(Config{})

	opts := client.Normalize("/folders/0", nil)

	if opts.URL != DefaultBaseURL+"/folders/0" {
		t.Errorf("unexpected URL %s", opts.URL)
	}
}

func TestNormalize_ExplicitURLKept(t *testing.T) {
	client := New(Config{})

	opts := client.Normalize("/folders/0", &RequestOptions{URL: "https://upload.box.com/api/2.0/files/content"})

	if opts.URL != "https://upload.box.com/api/2.0/files/content" {
		t.Errorf("explicit URL should be kept, got %s", opts.URL)
	}
}

func TestNormalize_Fields(t *testing.T) {
	client := New(Config{})

	opts := client.Normalize("/files/1", &RequestOptions{Fields: []string{"a", "b"}})

	got, ok := opts.Params[ParamFields].([]string)
	if !ok || !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("expected params.fields [a b], got %v", opts.Params[ParamFields])
	}
	if opts.Fields != nil {
		t.Error("fields should be removed from options")
	}
}

func TestNormalize_FieldsMergeIntoExistingParams(t *testing.T) {
	client := New(Config{})

	opts := client.Normalize("/folders/0/items", &RequestOptions{
		Params: map[string]any{"limit": 100},
		Fields: []string{"name"},
	})

	if opts.Params["limit"] != 100 {
		t.Error("existing params should be kept")
	}
	if _, ok := opts.Params[ParamFields]; !ok {
		t.Error("fields should be added to params")
	}
}

func TestNormalize_EmptyElision(t *testing.T) {
	client := New(Config{})

	opts := client.Normalize("/users/me", &RequestOptions{
		Params:  map[string]any{},
		Headers: http.Header{},
		Body:    map[string]any{},
	})

	if opts.Params != nil {
		t.Error("empty params should be removed")
	}
	if opts.Headers != nil {
		t.Error("empty headers should be removed")
	}
	if body, ok := opts.Body.(map[string]any); !ok || body == nil {
		t.Error("empty body should be kept")
	}
}

func TestNormalize_EmptyFieldsMovedToParams(t *testing.T) {
	client := New(Config{})

	opts := client.Normalize("/users/me", &RequestOptions{Fields: []string{}})

	fields, ok := opts.Params[ParamFields].([]string)
	if !ok {
		t.Fatalf("Params[%q] = %#v, want empty []string", ParamFields, opts.Params[ParamFields])
	}
	if len(fields) != 0 {
		t.Errorf("fields = %v, want empty", fields)
	}
	if opts.Fields != nil {
		t.Error("Fields should be cleared once moved")
	}

	opts = client.Normalize("/users/me", &RequestOptions{})
	if opts.Params != nil {
		t.Errorf("nil fields should not create params, got %v", opts.Params)
	}
}

func TestNormalize_ClearsControlFields(t *testing.T) {
	client := New(Config{AccessToken: RawToken("stored")})

	opts := client.Normalize("/users/me", &RequestOptions{
		AccessToken:         RawToken("ignored"),
		SetAsNewAccessToken: true,
	})

	if !opts.AccessToken.IsZero() {
		t.Error("access token should not be forwarded")
	}
	if opts.SetAsNewAccessToken {
		t.Error("setAsNewAccessToken should not be forwarded")
	}
	if got := opts.Headers.Get(HeaderAuthorization); got != "Bearer stored" {
		t.Errorf("expected stored token, got %q", got)
	}
}

func TestMakeRequest_NoRequestMode(t *testing.T) {
	transport := &recordingTransport{}
	client := New(Config{NoRequestMode: true}, WithTransport(transport))

	res, err := client.MakeRequest(context.Background(), "/folders/0", &RequestOptions{
		AccessToken: RawToken("dry"),
		Fields:      []string{"id"},
	})
	if err != nil {
		t.Fatalf("MakeRequest failed: %v", err)
	}

	if transport.callCount() != 0 {
		t.Error("transport should not be called in no-request mode")
	}
	if res.Response != nil {
		t.Error("response should be nil in no-request mode")
	}
	if got := res.Options.Headers.Get(HeaderAuthorization); got != "Bearer dry" {
		t.Errorf("expected Authorization in dry-run options, got %q", got)
	}
	if res.Options.URL != DefaultBaseURL+"/folders/0" {
		t.Errorf("unexpected URL %s", res.Options.URL)
	}
}

func TestMakeRequest_StoredTokenBeatsOptionsToken(t *testing.T) {
	transport := &recordingTransport{}
	client := New(Config{AccessToken: RawToken("S")}, WithTransport(transport))

	_, err := client.MakeRequest(context.Background(), "/users/me", &RequestOptions{
		AccessToken: RawToken("T"),
	})
	if err != nil {
		t.Fatalf("MakeRequest failed: %v", err)
	}

	if got := transport.last().Headers.Get(HeaderAuthorization); got != "Bearer S" {
		t.Errorf("expected stored token S, got %q", got)
	}
}

func TestMakeRequest_Dispatch(t *testing.T) {
	transport := &recordingTransport{}
	client := New(Config{}, WithTransport(transport))

	res, err := client.MakeRequest(context.Background(), "/files/1", &RequestOptions{
		Method:      http.MethodPut,
		AccessToken: RawToken("T"),
		Body:        map[string]any{"name": "renamed.txt"},
	})
	if err != nil {
		t.Fatalf("MakeRequest failed: %v", err)
	}
	defer res.Response.Body.Close()

	if transport.callCount() != 1 {
		t.Fatalf("expected 1 dispatch, got %d", transport.callCount())
	}
	sent := transport.last()
	if sent != res.Options {
		t.Error("result options should be the dispatched options")
	}
	if sent.Headers.Get(HeaderAuthorization) != "Bearer T" {
		t.Errorf("unexpected Authorization %q", sent.Headers.Get(HeaderAuthorization))
	}
	if sent.Method != http.MethodPut {
		t.Errorf("unexpected method %s", sent.Method)
	}
}

func TestMakeRequest_TransportErrorPassedThrough(t *testing.T) {
	wantErr := errors.New("connection reset")
	client := New(Config{}, WithTransport(&recordingTransport{err: wantErr}))

	res, err := client.MakeRequest(context.Background(), "/users/me", nil)
	if err != wantErr {
		t.Errorf("expected transport error unchanged, got %v", err)
	}
	if res != nil {
		t.Error("result should be nil on error")
	}
}

func TestMakeRequest_AnonymousRequestHasNoHeaders(t *testing.T) {
	transport := &recordingTransport{}
	client := New(Config{}, WithTransport(transport))

	if _, err := client.MakeRequest(context.Background(), "/shared_items", nil); err != nil {
		t.Fatalf("MakeRequest failed: %v", err)
	}

	if transport.last().Headers != nil {
		t.Errorf("expected no headers, got %v", transport.last().Headers)
	}
}

func TestMakeRequest_TransportFunc(t *testing.T) {
	var seen string
	client := New(Config{}, WithTransport(TransportFunc(func(_ context.Context, opts *RequestOptions) (*http.Response, error) {
		seen = opts.URL
		return &http.Response{StatusCode: http.StatusNoContent, Body: http.NoBody}, nil
	})))

	if _, err := client.MakeRequest(context.Background(), "/files/9", &RequestOptions{Method: http.MethodDelete}); err != nil {
		t.Fatalf("MakeRequest failed: %v", err)
	}
	if seen != DefaultBaseURL+"/files/9" {
		t.Errorf("unexpected URL %s", seen)
	}
}

func TestClient_Logging(t *testing.T) {
	logger := &stubLogger{}
	client := New(Config{AccessToken: RawToken("secret-token")},
		WithTransport(&recordingTransport{}),
		WithLogger(logger),
	)

	if _, err := client.MakeRequest(context.Background(), "/users/me", nil); err != nil {
		t.Fatalf("MakeRequest failed: %v", err)
	}

	messages := logger.getMessages()
	if len(messages) == 0 {
		t.Fatal("expected log messages")
	}
	for _, msg := range messages {
		if strings.Contains(msg, "secret-token") {
			t.Errorf("token leaked into log: %s", msg)
		}
	}
	if !strings.Contains(messages[0], "stored") {
		t.Errorf("expected provenance in log, got %s", messages[0])
	}
}

func TestWithLoggingEnabled(t *testing.T) {
	client := New(Config{}, WithLoggingEnabled())

	if client.logger == nil {
		t.Error("logger should be set")
	}
}

func TestClient_ConcurrentUse(t *testing.T) {
	client := New(Config{NoRequestMode: true})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			client.SetAccessToken(RawToken(fmt.Sprintf("token-%d", i)))
		}(i)
		go func() {
			defer wg.Done()
			if _, err := client.MakeRequest(context.Background(), "/users/me", nil); err != nil {
				t.Errorf("MakeRequest failed: %v", err)
			}
		}()
	}
	wg.Wait()
}

func strPtr(s string) *string {
	return &s
}
