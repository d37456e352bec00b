package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"github.com/pelletier/go-toml"
)

var (
	ErrInvalidListenAddress = errors.New("invalid listen address")
	ErrInvalidURL           = errors.New("invalid URL")
	ErrInvalidDuration      = errors.New("invalid duration")
	ErrInvalidAttempts      = errors.New("invalid attempt count")
	ErrInvalidWindow        = errors.New("invalid ingest window")
)

var listenAddressRegex = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}:\d+$`)

// Config defines the service configuration
type Config struct {
	// The associated CORS config, if any
	CORSConfig *CORS `toml:"cors_config"`

	// The address at which the server will be served.
	// Format should be: <IP>:<PORT>
	ListenAddress string `toml:"listen_address"`

	Portal    Portal    `toml:"portal"`
	OCR       OCR       `toml:"ocr"`
	Retrieval Retrieval `toml:"retrieval"`
	Ingest    Ingest    `toml:"ingest"`
}

// Portal is the BOC rate portal client configuration
type Portal struct {
	BaseURL   string        `toml:"base_url"`
	UserAgent string        `toml:"user_agent"`
	Timeout   time.Duration `toml:"timeout"`
}

// OCR is the captcha recognition service configuration
type OCR struct {
	URL     string        `toml:"url"`
	Timeout time.Duration `toml:"timeout"`
}

// Retrieval is the captcha and pagination retry configuration
type Retrieval struct {
	// Directory for the captcha image file (os.TempDir if empty)
	ArtifactDir string `toml:"artifact_dir"`

	CaptchaDelay time.Duration `toml:"captcha_delay"`

	// 0 retries the captcha until the retrieval is canceled
	MaxCaptchaAttempts int `toml:"max_captcha_attempts"`

	PageRetryDelay  time.Duration `toml:"page_retry_delay"`
	MaxPageAttempts int           `toml:"max_page_attempts"`
}

// Ingest is the periodic ingestion configuration
type Ingest struct {
	Interval   time.Duration `toml:"interval"`
	WindowDays int           `toml:"window_days"`
}

// DefaultConfig returns the default service configuration
func DefaultConfig() *Config {
	cfg := &Config{
		CORSConfig: DefaultCORSConfig(),
	}

	cfg.applyDefaults()

	return cfg
}

// ValidateConfig validates the service configuration
func ValidateConfig(config *Config) error {
	if !listenAddressRegex.MatchString(config.ListenAddress) {
		return ErrInvalidListenAddress
	}

	if err := validateURL(config.Portal.BaseURL); err != nil {
		return fmt.Errorf("portal base URL: %w", err)
	}

	if err := validateURL(config.OCR.URL); err != nil {
		return fmt.Errorf("OCR URL: %w", err)
	}

	for name, d := range map[string]time.Duration{
		"portal timeout":   config.Portal.Timeout,
		"OCR timeout":      config.OCR.Timeout,
		"captcha delay":    config.Retrieval.CaptchaDelay,
		"page retry delay": config.Retrieval.PageRetryDelay,
	} {
		if d < 0 {
			return fmt.Errorf("%w: %s is negative", ErrInvalidDuration, name)
		}
	}

	if config.Ingest.Interval <= 0 {
		return fmt.Errorf("%w: ingest interval must be positive", ErrInvalidDuration)
	}

	if config.Retrieval.MaxCaptchaAttempts < 0 {
		return fmt.Errorf("%w: max captcha attempts is negative", ErrInvalidAttempts)
	}

	if config.Retrieval.MaxPageAttempts < 1 {
		return fmt.Errorf("%w: max page attempts must be at least 1", ErrInvalidAttempts)
	}

	if config.Ingest.WindowDays < 1 {
		return ErrInvalidWindow
	}

	return nil
}

// Read reads the configuration from the given path.
// Omitted fields fall back to their defaults
func Read(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("unable to parse config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// validateURL checks the URL is absolute, and served over HTTP(S)
func validateURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}

	return nil
}
