package retrieval

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultCaptchaDelay    = time.Second * 5
	DefaultPageRetryDelay  = time.Second
	DefaultMaxPageAttempts = 3
)

// Policy is a fixed-delay retry policy
type Policy struct {
	// Delay is the wait between attempts
	Delay time.Duration

	// MaxAttempts bounds the number of attempts.
	// 0 means unbounded, in which case only the context stops the retries
	MaxAttempts int
}

func (p Policy) validate() error {
	if p.Delay < 0 || p.MaxAttempts < 0 {
		return errInvalidPolicy
	}

	return nil
}

// backOff returns a fresh backoff instance for the policy, bound to the context
func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	var b backoff.BackOff = backoff.NewConstantBackOff(p.Delay)

	if p.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(p.MaxAttempts-1)) //nolint:gosec // validated
	}

	return backoff.WithContext(b, ctx)
}

type Option func(r *Retriever)

// WithLogger specifies the logger for the retriever
func WithLogger(l *slog.Logger) Option {
	return func(r *Retriever) {
		r.logger = l
	}
}

// WithCaptchaPolicy specifies the retry policy for the captcha loop.
// Defaults to a 5s delay with unbounded attempts
func WithCaptchaPolicy(p Policy) Option {
	return func(r *Retriever) {
		r.captchaPolicy = p
	}
}

// WithPagePolicy specifies the retry policy for a single follow-up page.
// Defaults to a 1s delay with 3 attempts
func WithPagePolicy(p Policy) Option {
	return func(r *Retriever) {
		r.pagePolicy = p
	}
}

// WithArtifactDir specifies the directory the captcha image is written to.
// Defaults to the OS temp directory
func WithArtifactDir(dir string) Option {
	return func(r *Retriever) {
		r.artifactDir = dir
	}
}
