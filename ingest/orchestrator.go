package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/sig-0/iq"

	"github.com/sig-0/bocfx/storage"
)

var (
	errInvalidProvider = errors.New("invalid provider")
	errInvalidInterval = errors.New("invalid interval")
)

const (
	defaultQueryInterval = time.Second
	defaultRetryDelay    = time.Minute
	defaultSaveTimeout   = 10 * time.Second
)

// Orchestrator schedules the registered providers, and saves what they fetch.
// Due jobs run one after another, never concurrently
type Orchestrator struct {
	storage storage.Storage
	logger  *slog.Logger

	q    iq.Queue[scheduledIngest]
	qMux sync.Mutex

	queryInterval time.Duration
	retryDelay    time.Duration
	saveTimeout   time.Duration
}

// New creates a new Orchestrator instance
func New(storage storage.Storage, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		storage:       storage,
		q:             iq.NewQueue[scheduledIngest](),
		queryInterval: defaultQueryInterval,
		retryDelay:    defaultRetryDelay,
		saveTimeout:   defaultSaveTimeout,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Register registers a new provider with the orchestrator.
// The provider is immediately due for execution
func (o *Orchestrator) Register(p Provider) error {
	if p == nil || p.Name() == "" {
		return errInvalidProvider
	}

	if p.Interval() <= 0 {
		return errInvalidInterval
	}

	id := xid.New()

	o.logger.Info(
		"registered new provider",
		"name", p.Name(),
		"id", id.String(),
	)

	o.scheduleIngest(time.Now().UTC(), id, p)

	return nil
}

// Start starts the orchestration loop [BLOCKING]
func (o *Orchestrator) Start(ctx context.Context) error {
	ticker := time.NewTicker(o.queryInterval)
	defer ticker.Stop()

	// handleDue runs every job that is due, in schedule order
	handleDue := func() {
		for ctx.Err() == nil {
			next := o.nextIngest()
			if next == nil {
				return
			}

			o.ingest(ctx, next)
		}
	}

	// Run the jobs due on boot
	handleDue()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("orchestrator service shut down")

			return nil
		case <-ticker.C:
			handleDue()
		}
	}
}

// ingest runs a single job, saves its rates and reschedules it
func (o *Orchestrator) ingest(ctx context.Context, si *scheduledIngest) {
	logger := o.logger.With(
		"name", si.provider.Name(),
		"id", si.providerID.String(),
	)

	logger.Info("running ingest")

	res := runIngest(ctx, si)

	o.saveRates(ctx, logger, res)

	if ctx.Err() != nil {
		return
	}

	now := time.Now().UTC()

	if res.err != nil {
		logger.Error(
			"error encountered during rate fetch",
			"saved", len(res.rates),
			"err", res.err,
		)

		o.scheduleIngest(now.Add(o.retryDelay), si.providerID, si.provider)

		return
	}

	logger.Info(
		"ingest completed",
		"rates", len(res.rates),
		"took", res.duration.String(),
	)

	o.scheduleIngest(now.Add(si.provider.Interval()), si.providerID, si.provider)
}

// saveRates saves the fetched rates, logging failed saves
func (o *Orchestrator) saveRates(ctx context.Context, logger *slog.Logger, res ingestResult) {
	for _, rate := range res.rates {
		saveCtx, cancelFn := context.WithTimeout(ctx, o.saveTimeout)
		err := o.storage.SaveExchangeRate(saveCtx, rate)

		cancelFn()

		if err != nil {
			logger.Error(
				"unable to save exchange rate",
				"base", rate.Base,
				"target", rate.Target,
				"rate_type", rate.RateType,
				"err", err,
			)

			continue
		}

		logger.Debug(
			"saved exchange rate",
			"base", rate.Base,
			"target", rate.Target,
			"rate", rate.Rate,
			"rate_type", rate.RateType,
			"as_of", rate.AsOf.String(),
		)
	}
}

// scheduleIngest schedules a new provider ingest
func (o *Orchestrator) scheduleIngest(
	at time.Time,
	providerID xid.ID,
	provider Provider,
) {
	o.qMux.Lock()
	defer o.qMux.Unlock()

	o.q.Push(scheduledIngest{
		at:         at,
		providerID: providerID,
		provider:   provider,
	})
}

// nextIngest fetches the next due ingest job, as of the moment of calling
func (o *Orchestrator) nextIngest() *scheduledIngest {
	o.qMux.Lock()
	defer o.qMux.Unlock()

	if o.q.Len() == 0 {
		return nil
	}

	if o.q.Index(0).at.After(time.Now().UTC()) {
		return nil
	}

	return o.q.PopFront()
}
