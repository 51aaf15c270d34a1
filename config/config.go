package config

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the API root used when only an account id is supplied.
const DefaultBaseURL = "https://api.cloudflare.com/client/v4"

// Config is the top-level configuration struct. All fields have safe defaults
// so callers can start with Default() and override only what they need. The
// library never reads the process environment; callers inject every value.
type Config struct {
	// Endpoint. With AccountID set the images root is
	// BaseURL/accounts/{AccountID}/images/v1; without it BaseURL is the images
	// root itself.
	AccountID string
	BaseURL   string

	// Bearer credential sent with every request.
	APIToken string

	// Applied uniformly to dial, TLS handshake, response headers and the
	// whole request.
	Timeout time.Duration

	// Logging enables request/response debug logs through the client logger.
	Logging  bool
	LogLevel string // "debug", "info", "warn", "error"

	UserAgent string

	// Limits.
	MaxUploadBytes   int64 // 0 = no limit
	MaxResponseBytes int   // 0 = no limit

	// Listing.
	DefaultPerPage int // default 20
}

// Default returns a Config populated with sensible production defaults.
func Default() Config {
	return Config{
		BaseURL:          DefaultBaseURL,
		Timeout:          30 * time.Second,
		LogLevel:         "info",
		UserAgent:        "image-client/1",
		MaxResponseBytes: 10 * 1024 * 1024,
		DefaultPerPage:   20,
	}
}

// Merge applies non-zero values from overlay onto the receiver.
func (c *Config) Merge(overlay Config) {
	if overlay.AccountID != "" {
		c.AccountID = overlay.AccountID
	}
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.APIToken != "" {
		c.APIToken = overlay.APIToken
	}
	if overlay.Timeout > 0 {
		c.Timeout = overlay.Timeout
	}
	if overlay.Logging {
		c.Logging = true
	}
	if overlay.LogLevel != "" {
		c.LogLevel = overlay.LogLevel
	}
	if overlay.UserAgent != "" {
		c.UserAgent = overlay.UserAgent
	}
	if overlay.MaxUploadBytes > 0 {
		c.MaxUploadBytes = overlay.MaxUploadBytes
	}
	if overlay.MaxResponseBytes > 0 {
		c.MaxResponseBytes = overlay.MaxResponseBytes
	}
	if overlay.DefaultPerPage > 0 {
		c.DefaultPerPage = overlay.DefaultPerPage
	}
}

// ImagesURL resolves the images root, without a trailing slash.
func (c Config) ImagesURL() string {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.AccountID == "" {
		return base
	}
	if base == "" {
		base = DefaultBaseURL
	}
	return base + "/accounts/" + url.PathEscape(strings.TrimSpace(c.AccountID)) + "/images/v1"
}

// Validate returns an error if the configuration is inconsistent.
func Validate(c Config) error {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if strings.TrimSpace(c.AccountID) == "" && (base == "" || base == DefaultBaseURL) {
		return errors.New("config: AccountID is required unless BaseURL points at an images root")
	}
	if strings.TrimSpace(c.APIToken) == "" {
		return errors.New("config: APIToken is required")
	}
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.New("config: BaseURL must be an absolute URL")
		}
	}
	if c.Timeout < 0 {
		return errors.New("config: Timeout must not be negative")
	}
	if c.MaxUploadBytes < 0 || c.MaxResponseBytes < 0 {
		return errors.New("config: limits must not be negative")
	}
	if c.DefaultPerPage < 0 || c.DefaultPerPage > 100 {
		return errors.New("config: DefaultPerPage must be between 1 and 100")
	}
	return nil
}
