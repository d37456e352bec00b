// Package setup wires the retrieval stack from the service configuration
package setup

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/sig-0/bocfx/config"
	"github.com/sig-0/bocfx/ocr"
	"github.com/sig-0/bocfx/provider/boc"
	"github.com/sig-0/bocfx/retrieval"
)

// Logger creates the command logger
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

// LoadConfig reads the TOML configuration at path (defaults if empty),
// after loading the .env file, if any
func LoadConfig(logger *slog.Logger, path string) (*config.Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug("unable to load .env file")
	}

	cfg := config.DefaultConfig()

	if path != "" {
		read, err := config.Read(path)
		if err != nil {
			return nil, fmt.Errorf("unable to read config, %w", err)
		}

		cfg = read
	}

	return cfg, nil
}

// Retriever creates the BOC table retriever: the portal client serves
// both as captcha source and query portal, the captcha is solved by the OCR service
func Retriever(cfg *config.Config, logger *slog.Logger) (*retrieval.Retriever, error) {
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration, %w", err)
	}

	var (
		client     = boc.NewClient(cfg.Portal.BaseURL, cfg.Portal.UserAgent, cfg.Portal.Timeout)
		recognizer = ocr.NewHTTPRecognizer(cfg.OCR.URL, cfg.OCR.Timeout)
	)

	r, err := retrieval.New(
		client,
		recognizer,
		client,
		boc.NewParser(),
		retrieval.WithLogger(logger),
		retrieval.WithArtifactDir(cfg.Retrieval.ArtifactDir),
		retrieval.WithCaptchaPolicy(retrieval.Policy{
			Delay:       cfg.Retrieval.CaptchaDelay,
			MaxAttempts: cfg.Retrieval.MaxCaptchaAttempts,
		}),
		retrieval.WithPagePolicy(retrieval.Policy{
			Delay:       cfg.Retrieval.PageRetryDelay,
			MaxAttempts: cfg.Retrieval.MaxPageAttempts,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to create retriever, %w", err)
	}

	return r, nil
}
