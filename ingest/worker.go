package ingest

import (
	"context"
	"time"

	"github.com/rs/xid"

	"github.com/sig-0/bocfx/storage/types"
)

// scheduledIngest is a single scheduled Provider ingest job
type scheduledIngest struct {
	at         time.Time
	provider   Provider
	providerID xid.ID
}

// Less orders scheduled ingests by their due time (earliest first)
func (a scheduledIngest) Less(b scheduledIngest) bool {
	return a.at.Before(b.at)
}

// ingestResult is the outcome of a single provider fetch
type ingestResult struct {
	err      error
	rates    []*types.ExchangeRate
	duration time.Duration
}

// runIngest runs the provider fetch in the calling goroutine.
// Portal sessions are captcha-bound, so fetches never overlap
func runIngest(ctx context.Context, si *scheduledIngest) ingestResult {
	started := time.Now()

	rates, err := si.provider.Fetch(ctx)

	return ingestResult{
		err:      err,
		rates:    rates,
		duration: time.Since(started),
	}
}
