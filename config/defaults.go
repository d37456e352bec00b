package config

import (
	"time"

	"github.com/sig-0/bocfx/provider/boc"
	"github.com/sig-0/bocfx/retrieval"
)

// Default values for optional configuration fields
const (
	DefaultListenAddress = "0.0.0.0:8545"

	DefaultPortalBaseURL = boc.DefaultBaseURL
	DefaultUserAgent     = boc.DefaultUserAgent
	DefaultPortalTimeout = 30 * time.Second

	DefaultOCRURL     = "http://127.0.0.1:9898/ocr/b64/text"
	DefaultOCRTimeout = 10 * time.Second

	DefaultCaptchaDelay    = retrieval.DefaultCaptchaDelay
	DefaultPageRetryDelay  = retrieval.DefaultPageRetryDelay
	DefaultMaxPageAttempts = retrieval.DefaultMaxPageAttempts

	DefaultIngestInterval   = boc.DefaultInterval
	DefaultIngestWindowDays = boc.DefaultWindowDays
)

func (c *Config) applyDefaults() {
	if c.ListenAddress == "" {
		c.ListenAddress = DefaultListenAddress
	}

	// Portal defaults
	if c.Portal.BaseURL == "" {
		c.Portal.BaseURL = DefaultPortalBaseURL
	}
	if c.Portal.UserAgent == "" {
		c.Portal.UserAgent = DefaultUserAgent
	}
	if c.Portal.Timeout == 0 {
		c.Portal.Timeout = DefaultPortalTimeout
	}

	// OCR defaults
	if c.OCR.URL == "" {
		c.OCR.URL = DefaultOCRURL
	}
	if c.OCR.Timeout == 0 {
		c.OCR.Timeout = DefaultOCRTimeout
	}

	// Retrieval defaults, the captcha attempt cap stays unbounded
	if c.Retrieval.CaptchaDelay == 0 {
		c.Retrieval.CaptchaDelay = DefaultCaptchaDelay
	}
	if c.Retrieval.PageRetryDelay == 0 {
		c.Retrieval.PageRetryDelay = DefaultPageRetryDelay
	}
	if c.Retrieval.MaxPageAttempts == 0 {
		c.Retrieval.MaxPageAttempts = DefaultMaxPageAttempts
	}

	// Ingest defaults
	if c.Ingest.Interval == 0 {
		c.Ingest.Interval = DefaultIngestInterval
	}
	if c.Ingest.WindowDays == 0 {
		c.Ingest.WindowDays = DefaultIngestWindowDays
	}
}
