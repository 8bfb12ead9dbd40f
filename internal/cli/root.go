// Package cli implements the boxreq command.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/AmmannChristian/go-boxclient/boxclient"
	"github.com/AmmannChristian/go-boxclient/boxhttp"
	"github.com/AmmannChristian/go-boxclient/internal/config"
	"github.com/AmmannChristian/go-boxclient/oauth2client"
)

// Version is reported by --version and sent in the User-Agent.
var Version = "dev"

type flags struct {
	configPath string
	method     string
	fields     []string
	params     []string
	headers    []string
	body       string
	token      string
	baseURL    string
	dryRun     bool
	logLevel   string
}

// NewRootCommand builds the boxreq command.
func NewRootCommand() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:     "boxreq [flags] <path>",
		Short:   "Send a single request to the Box API",
		Version: Version,
		Long: `boxreq shapes and sends one Box API request.

The token is taken from --token, the configuration file or BOX_ACCESS_TOKEN.
With client_id and client_secret configured, a token is fetched through the
client credentials grant, or the JWT grant when private_key_path is set.
A request rejected with 401 is replayed once with a freshly fetched token.

Examples:
  boxreq /users/me
  boxreq --fields id,name,size /folders/0/items
  boxreq -X POST --body '{"name":"reports","parent":{"id":"0"}}' /folders
  boxreq --dry-run --param limit=10 /folders/0/items

Environment Variables:
  BOX_BASE_URL          API root (default https://api.box.com/2.0)
  BOX_ACCESS_TOKEN      Static access token
  BOX_CLIENT_ID         App client ID
  BOX_CLIENT_SECRET     App client secret
  BOX_SUBJECT_TYPE      enterprise or user
  BOX_SUBJECT_ID        Enterprise or user ID
  BOX_PRIVATE_KEY_PATH  PEM key for the JWT grant
  BOX_PUBLIC_KEY_ID     Key ID registered with the app
  BOX_CA_FILE           PEM CA bundle used to verify the server
  BOX_CERT_FILE         Client certificate for mTLS (with BOX_KEY_FILE)
  BOX_KEY_FILE          Client key for mTLS (with BOX_CERT_FILE)
  BOX_INSECURE_SKIP_VERIFY  Disable certificate verification (local mocks only)
  BOX_LOG_LEVEL         trace, debug, info, warn, error or off`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f, args[0])
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "path to a YAML configuration file")
	fl.StringVarP(&f.method, "method", "X", http.MethodGet, "HTTP method")
	fl.StringSliceVar(&f.fields, "fields", nil, "comma separated response fields")
	fl.StringArrayVarP(&f.params, "param", "p", nil, "query parameter as key=value (repeatable)")
	fl.StringArrayVarP(&f.headers, "header", "H", nil, "request header as key=value (repeatable)")
	fl.StringVarP(&f.body, "body", "d", "", "request body; JSON is sent as JSON, @file reads a file")
	fl.StringVar(&f.token, "token", "", "access token for this request; a configured token takes precedence")
	fl.StringVar(&f.baseURL, "base-url", "", "API root, overrides the configuration")
	fl.BoolVar(&f.dryRun, "dry-run", false, "print the normalized request instead of sending it")
	fl.StringVar(&f.logLevel, "log-level", "", "log level, overrides the configuration")

	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := NewRootCommand().Execute(); err != nil {
		return 1
	}
	return 0
}

func run(cmd *cobra.Command, f *flags, path string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "boxreq",
		Level:  hclog.LevelFromString(cfg.LogLevel),
		Output: cmd.ErrOrStderr(),
	})
	stdLogger := logger.StandardLogger(&hclog.StandardLoggerOptions{ForceLevel: hclog.Debug})

	if cfg.InsecureSkipVerify {
		logger.Warn("TLS certificate verification is disabled")
	}

	httpClient, err := cfg.HTTPBuilder().
		WithUserAgent("boxreq/" + Version).
		Build()
	if err != nil {
		return err
	}

	client := boxclient.New(cfg.ClientConfig(),
		boxclient.WithHTTPClient(httpClient),
		boxclient.WithLogger(stdLogger),
	)

	// Token requests share the API client's transport settings.
	tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, httpClient.HTTPClient())

	tm, err := newTokenManager(tokenCtx, cfg, stdLogger)
	if err != nil {
		return err
	}
	if tm != nil {
		if cfg.NoRequestMode {
			logger.Debug("skipping token fetch in dry-run mode", "auth", cfg.AuthMode())
		} else if err := tm.Authorize(tokenCtx, client); err != nil {
			return err
		}
	}

	opts, err := requestOptions(f)
	if err != nil {
		return err
	}

	logger.Debug("prepared request", "method", opts.Method, "path", path, "auth", cfg.AuthMode())

	res, err := client.MakeRequest(ctx, path, opts)
	if err != nil {
		return err
	}

	if cfg.NoRequestMode {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res.Options)
	}

	resp := res.Response
	if resp.StatusCode == http.StatusUnauthorized && tm != nil {
		logger.Info("access token rejected, retrying with a fresh token")
		_ = resp.Body.Close()

		res, err = tm.RerunWithFreshToken(tokenCtx, client, res.Options)
		if err != nil {
			return err
		}
		resp = res.Response
	}
	defer resp.Body.Close()

	return printResponse(cmd, resp)
}

func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("base-url") {
		cfg.BaseURL = f.baseURL
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("dry-run") {
		cfg.NoRequestMode = f.dryRun
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newTokenManager returns nil when no app credentials are configured or a
// static token is set.
func newTokenManager(ctx context.Context, cfg *config.Config, logger oauth2client.Logger) (*oauth2client.TokenManager, error) {
	opts := []oauth2client.Option{
		oauth2client.WithTokenURL(cfg.TokenURL),
		oauth2client.WithLogger(logger),
	}

	switch cfg.AuthMode() {
	case config.AuthClientCredentials:
		return oauth2client.NewTokenManager(ctx, cfg.ClientID, cfg.ClientSecret, cfg.SubjectType, cfg.SubjectID, opts...)
	case config.AuthJWT:
		jwtCfg, err := cfg.JWTConfig()
		if err != nil {
			return nil, err
		}
		return oauth2client.NewJWTTokenManager(ctx, jwtCfg, opts...)
	default:
		return nil, nil
	}
}

func requestOptions(f *flags) (*boxclient.RequestOptions, error) {
	opts := &boxclient.RequestOptions{
		Method: strings.ToUpper(f.method),
		Fields: f.fields,
	}

	for _, p := range f.params {
		key, value, err := splitPair("param", p)
		if err != nil {
			return nil, err
		}
		if opts.Params == nil {
			opts.Params = make(map[string]any)
		}
		opts.Params[key] = value
	}

	for _, h := range f.headers {
		key, value, err := splitPair("header", h)
		if err != nil {
			return nil, err
		}
		if opts.Headers == nil {
			opts.Headers = make(http.Header)
		}
		opts.Headers.Add(key, value)
	}

	body, err := requestBody(f.body)
	if err != nil {
		return nil, err
	}
	opts.Body = body

	if f.token != "" {
		opts.AccessToken = boxclient.RawToken(f.token)
	}

	return opts, nil
}

func splitPair(kind, s string) (string, string, error) {
	key, value, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", "", fmt.Errorf("invalid %s %q: expected key=value", kind, s)
	}
	return key, value, nil
}

// requestBody decodes JSON bodies so they are re-encoded with a JSON content
// type. Anything else is sent as is.
func requestBody(s string) (any, error) {
	if s == "" {
		return nil, nil
	}

	data := []byte(s)
	if strings.HasPrefix(s, "@") {
		var err error
		data, err = os.ReadFile(s[1:])
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
	}

	if json.Valid(data) {
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode body: %w", err)
		}
		return v, nil
	}
	return string(data), nil
}

func printResponse(cmd *cobra.Command, resp *http.Response) error {
	checkErr := boxhttp.CheckResponse(resp)

	statusColor := color.New(color.FgGreen, color.Bold)
	switch {
	case resp.StatusCode >= http.StatusBadRequest:
		statusColor = color.New(color.FgRed, color.Bold)
	case resp.StatusCode >= http.StatusMultipleChoices:
		statusColor = color.New(color.FgYellow, color.Bold)
	}
	statusColor.Fprintln(cmd.ErrOrStderr(), resp.Status)

	if _, err := io.Copy(cmd.OutOrStdout(), resp.Body); err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	return checkErr
}
