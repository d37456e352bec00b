package ingest

import (
	"context"
	"time"

	"github.com/sig-0/bocfx/storage/types"
)

// Provider is a single exchange rate source the orchestrator polls
type Provider interface {
	// Name returns the human-readable name of the provider
	Name() string

	// Interval returns the pause between two successful fetches
	Interval() time.Duration

	// Fetch runs one retrieval, yielding exchange rate data points.
	// Rates returned alongside an error are still saved
	Fetch(context.Context) ([]*types.ExchangeRate, error)
}
