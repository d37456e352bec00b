package retrieval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/xid"
)

var errMissingCapability = errors.New("missing retrieval capability")

// Retriever drives captcha-gated, paginated rate table retrievals.
// Session state lives on the stack of a single Retrieve call
type Retriever struct {
	captcha CaptchaSource
	ocr     Recognizer
	portal  Portal
	parser  Parser
	logger  *slog.Logger

	captchaPolicy Policy
	pagePolicy    Policy
	artifactDir   string
}

// New creates a new Retriever instance
func New(
	captcha CaptchaSource,
	ocr Recognizer,
	portal Portal,
	parser Parser,
	opts ...Option,
) (*Retriever, error) {
	if captcha == nil || ocr == nil || portal == nil || parser == nil {
		return nil, errMissingCapability
	}

	r := &Retriever{
		captcha: captcha,
		ocr:     ocr,
		portal:  portal,
		parser:  parser,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		captchaPolicy: Policy{
			Delay:       DefaultCaptchaDelay,
			MaxAttempts: 0, // until canceled
		},
		pagePolicy: Policy{
			Delay:       DefaultPageRetryDelay,
			MaxAttempts: DefaultMaxPageAttempts,
		},
	}

	// Apply the options
	for _, opt := range opts {
		opt(r)
	}

	if err := r.captchaPolicy.validate(); err != nil {
		return nil, fmt.Errorf("captcha policy: %w", err)
	}

	if err := r.pagePolicy.validate(); err != nil {
		return nil, fmt.Errorf("page policy: %w", err)
	}

	return r, nil
}

// Retrieve fetches the full rate table for the given date range [BLOCKING].
// On failure, the returned outcome holds the rows gathered before the failure
func (r *Retriever) Retrieve(ctx context.Context, start, end time.Time) (*Outcome, error) {
	if dateOf(end).Before(dateOf(start)) {
		return nil, errInvalidRange
	}

	logger := r.logger.With("run", xid.New().String())

	// Reserve the captcha image file for the whole retrieval
	artifact, err := newCaptchaArtifact(r.artifactDir)
	if err != nil {
		return nil, err
	}

	defer func() {
		if closeErr := artifact.close(); closeErr != nil {
			logger.Warn(
				"unable to remove captcha file",
				"path", artifact.path,
				"err", closeErr,
			)
		}
	}()

	outcome := &Outcome{}

	logger.Info(
		"retrieving rate table",
		"start", start.Format(time.DateOnly),
		"end", end.Format(time.DateOnly),
	)

	// Solve the captcha and fetch the first page
	session, first, err := r.establish(ctx, logger, artifact, start, end, outcome)
	if err != nil {
		return outcome, err
	}

	outcome.Rows = append(outcome.Rows, first.Rows...)

	// Follow the continuation tokens
	if err = r.paginate(ctx, logger, session, outcome); err != nil {
		return outcome, err
	}

	logger.Info(
		"rate table retrieved",
		"rows", len(outcome.Rows),
		"challenges", outcome.Challenges,
		"submissions", outcome.Submissions,
	)

	return outcome, nil
}

// establish runs the captcha loop until a first page query is accepted
func (r *Retriever) establish(
	ctx context.Context,
	logger *slog.Logger,
	artifact *captchaArtifact,
	start, end time.Time,
	outcome *Outcome,
) (*Session, *Page, error) {
	var (
		b       = r.captchaPolicy.backOff(ctx)
		attempt = 0
	)

	for {
		attempt++

		session, page, err := r.attemptFirstPage(ctx, logger, artifact, start, end, outcome)
		if err == nil {
			return session, page, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}

		logger.Warn(
			"first page attempt failed",
			"attempt", attempt,
			"err", err,
		)

		delay := b.NextBackOff()
		if delay == backoff.Stop {
			return nil, nil, fmt.Errorf("%w after %d attempts: %w", ErrCaptchaAttemptsExhausted, attempt, err)
		}

		logger.Info("retrying with a new captcha", "delay", delay)

		if err = wait(ctx, delay); err != nil {
			return nil, nil, err
		}
	}
}

// attemptFirstPage solves a single captcha challenge, and submits the first page query with it
func (r *Retriever) attemptFirstPage(
	ctx context.Context,
	logger *slog.Logger,
	artifact *captchaArtifact,
	start, end time.Time,
	outcome *Outcome,
) (*Session, *Page, error) {
	outcome.Challenges++

	challenge, err := r.captcha.Challenge(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to fetch captcha: %w", err)
	}

	if err = artifact.write(challenge.Image); err != nil {
		return nil, nil, fmt.Errorf("unable to write captcha file: %w", err)
	}

	text, err := r.ocr.Recognize(ctx, challenge.Image)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to recognize captcha: %w", err)
	}

	logger.Info("captcha recognized", "text", text)

	session := &Session{
		Start:        start,
		End:          end,
		CaptchaToken: challenge.Token,
	}

	page, err := r.submit(ctx, logger, &Query{
		Start:        start,
		End:          end,
		CaptchaToken: session.CaptchaToken,
		CaptchaText:  text,
		Page:         1,
	}, outcome)
	if err != nil {
		return nil, nil, err
	}

	session.ContinuationToken = page.ContinuationToken

	return session, page, nil
}

// paginate fetches the follow-up pages of an established session
func (r *Retriever) paginate(
	ctx context.Context,
	logger *slog.Logger,
	session *Session,
	outcome *Outcome,
) error {
	var (
		b    = r.pagePolicy.backOff(ctx)
		page = 2
	)

	for {
		result, err := r.submit(ctx, logger, &Query{
			Start:             session.Start,
			End:               session.End,
			CaptchaToken:      session.CaptchaToken,
			ContinuationToken: session.ContinuationToken,
			Page:              page,
		}, outcome)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}

			logger.Error(
				"unable to fetch page",
				"page", page,
				"err", err,
			)

			// Retry the same page with the same continuation token
			delay := b.NextBackOff()
			if delay == backoff.Stop {
				return fmt.Errorf("%w (page %d): %w", ErrPageAttemptsExhausted, page, err)
			}

			if err = wait(ctx, delay); err != nil {
				return err
			}

			continue
		}

		b.Reset()

		// The whole table fits on the first page
		if result.RecordCount <= PageSize {
			return nil
		}

		outcome.Rows = append(outcome.Rows, result.Rows...)
		session.ContinuationToken = result.ContinuationToken

		if page*PageSize >= result.RecordCount {
			return nil
		}

		page++
	}
}

// submit sends a single query and parses the response
func (r *Retriever) submit(
	ctx context.Context,
	logger *slog.Logger,
	query *Query,
	outcome *Outcome,
) (*Page, error) {
	outcome.Submissions++

	markup, err := r.portal.Submit(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	page, err := r.parser.Parse(markup)
	if err != nil {
		return nil, err
	}

	logger.Info(
		"page received",
		"page", query.Page,
		"record_count", page.RecordCount,
		"rows", len(page.Rows),
	)

	return page, nil
}

// wait blocks for the given delay, or until the context is done
func wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// dateOf truncates the time to its calendar date
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
