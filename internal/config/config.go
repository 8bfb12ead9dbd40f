// Package config loads boxreq settings from a YAML file and BOX_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/AmmannChristian/go-boxclient/boxclient"
	"github.com/AmmannChristian/go-boxclient/boxhttp"
	"github.com/AmmannChristian/go-boxclient/oauth2client"
)

// EnvPrefix prefixes every environment override, e.g. BOX_BASE_URL.
const EnvPrefix = "BOX_"

// DefaultLogLevel is used when no level is configured.
const DefaultLogLevel = "info"

// Authentication modes reported by AuthMode.
const (
	AuthNone              = "none"
	AuthToken             = "token"
	AuthClientCredentials = "client_credentials"
	AuthJWT               = "jwt"
)

var logLevels = []any{"trace", "debug", "info", "warn", "error", "off"}

// Config holds the settings of the boxreq CLI.
type Config struct {
	BaseURL       string `mapstructure:"base_url" json:"base_url"`
	AccessToken   string `mapstructure:"access_token" json:"access_token"`
	NoRequestMode bool   `mapstructure:"no_request_mode" json:"no_request_mode"`

	// App credentials for the client credentials and JWT grants.
	ClientID     string `mapstructure:"client_id" json:"client_id"`
	ClientSecret string `mapstructure:"client_secret" json:"client_secret"`
	SubjectType  string `mapstructure:"subject_type" json:"subject_type"`
	SubjectID    string `mapstructure:"subject_id" json:"subject_id"`
	TokenURL     string `mapstructure:"token_url" json:"token_url"`

	// PrivateKeyPath selects the JWT grant.
	PrivateKeyPath string `mapstructure:"private_key_path" json:"private_key_path"`
	PublicKeyID    string `mapstructure:"public_key_id" json:"public_key_id"`

	// TLS settings for the API and token connections. CertFile and KeyFile
	// enable mTLS and must be set together.
	CAFile             string `mapstructure:"ca_file" json:"ca_file"`
	CertFile           string `mapstructure:"cert_file" json:"cert_file"`
	KeyFile            string `mapstructure:"key_file" json:"key_file"`
	InsecureSkipVerify bool   `mapstructure:"insecure_skip_verify" json:"insecure_skip_verify"`

	Timeout  time.Duration `mapstructure:"timeout" json:"timeout"`
	LogLevel string        `mapstructure:"log_level" json:"log_level"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		BaseURL:     boxclient.DefaultBaseURL,
		SubjectType: oauth2client.SubjectEnterprise,
		TokenURL:    oauth2client.TokenURL,
		Timeout:     boxhttp.DefaultTimeout,
		LogLevel:    DefaultLogLevel,
	}
}

// Load reads path (skipped when empty), applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := cfg.merge(data); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse decodes YAML data over the defaults without consulting the environment.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.merge(data); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) merge(data []byte) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	return c.decode(raw, true)
}

// ApplyEnv overrides fields from BOX_<KEY> variables, where KEY is the upper
// cased YAML key. lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	overrides := make(map[string]any)
	for _, key := range keys() {
		if v, ok := lookup(EnvPrefix + strings.ToUpper(key)); ok {
			overrides[key] = v
		}
	}

	if len(overrides) == 0 {
		return nil
	}
	if err := c.decode(overrides, false); err != nil {
		return fmt.Errorf("config: environment: %w", err)
	}
	return nil
}

func (c *Config) decode(raw map[string]any, strict bool) error {
	if len(raw) == 0 {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           c,
		WeaklyTypedInput: true,
		ErrorUnused:      strict,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}

// keys lists the mapstructure keys of Config.
func keys() []string {
	return []string{
		"base_url", "access_token", "no_request_mode",
		"client_id", "client_secret", "subject_type", "subject_id", "token_url",
		"private_key_path", "public_key_id",
		"ca_file", "cert_file", "key_file", "insecure_skip_verify",
		"timeout", "log_level",
	}
}

// Validate checks field formats and credential combinations.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, validation.By(absoluteURL)),
		validation.Field(&c.TokenURL, validation.By(absoluteURL)),
		validation.Field(&c.ClientSecret, validation.Required.When(c.ClientID != "")),
		validation.Field(&c.ClientID, validation.Required.When(c.PrivateKeyPath != "")),
		validation.Field(&c.SubjectType, validation.In(oauth2client.SubjectEnterprise, oauth2client.SubjectUser)),
		validation.Field(&c.SubjectID, validation.Required.When(c.ClientID != "")),
		validation.Field(&c.CertFile, validation.Required.When(c.KeyFile != "").Error("is required with key_file")),
		validation.Field(&c.KeyFile, validation.Required.When(c.CertFile != "").Error("is required with cert_file")),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.LogLevel, validation.In(logLevels...)),
	)
	if err != nil {
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}

func absoluteURL(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("must be an absolute URL")
	}
	return nil
}

// AuthMode reports which credential the CLI will use. A static access token
// wins over app credentials.
func (c *Config) AuthMode() string {
	switch {
	case c.AccessToken != "":
		return AuthToken
	case c.ClientID != "" && c.PrivateKeyPath != "":
		return AuthJWT
	case c.ClientID != "":
		return AuthClientCredentials
	default:
		return AuthNone
	}
}

// HTTPBuilder returns a transport builder carrying the timeout and TLS settings.
func (c *Config) HTTPBuilder() *boxhttp.Builder {
	b := boxhttp.NewBuilder().WithTimeout(c.Timeout)
	if c.CAFile != "" || c.CertFile != "" || c.KeyFile != "" {
		b.WithTLS(c.CAFile, c.CertFile, c.KeyFile)
	}
	if c.InsecureSkipVerify {
		b.WithInsecureSkipVerify()
	}
	return b
}

// ClientConfig converts the settings into a boxclient.Config.
func (c *Config) ClientConfig() boxclient.Config {
	cfg := boxclient.Config{
		BaseURL:       c.BaseURL,
		NoRequestMode: c.NoRequestMode,
	}
	if c.AccessToken != "" {
		cfg.AccessToken = boxclient.RawToken(c.AccessToken)
	}
	return cfg
}

// JWTConfig reads the private key and assembles the JWT grant settings.
func (c *Config) JWTConfig() (oauth2client.JWTConfig, error) {
	key, err := os.ReadFile(c.PrivateKeyPath)
	if err != nil {
		return oauth2client.JWTConfig{}, fmt.Errorf("config: read private key: %w", err)
	}

	return oauth2client.JWTConfig{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		PublicKeyID:  c.PublicKeyID,
		PrivateKey:   key,
		SubjectType:  c.SubjectType,
		SubjectID:    c.SubjectID,
	}, nil
}
