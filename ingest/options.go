package ingest

import (
	"log/slog"
	"time"
)

type Option func(o *Orchestrator)

// WithLogger specifies the logger for the orchestrator
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// WithQueryInterval specifies how often the schedule is checked for due jobs.
// Defaults to 1s
func WithQueryInterval(q time.Duration) Option {
	return func(o *Orchestrator) {
		o.queryInterval = q
	}
}

// WithRetryDelay specifies how soon a failed fetch is retried.
// Defaults to 1m
func WithRetryDelay(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.retryDelay = d
	}
}

// WithSaveTimeout specifies the timeout for a single rate save.
// Defaults to 10s
func WithSaveTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.saveTimeout = d
	}
}
