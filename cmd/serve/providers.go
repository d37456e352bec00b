package serve

import (
	"log/slog"

	"github.com/sig-0/bocfx/cmd/setup"
	"github.com/sig-0/bocfx/config"
	"github.com/sig-0/bocfx/ingest"
	"github.com/sig-0/bocfx/provider/boc"
)

// defaultProviders returns the default ingestion providers
func defaultProviders(cfg *config.Config, logger *slog.Logger) ([]ingest.Provider, error) {
	retriever, err := setup.Retriever(cfg, logger)
	if err != nil {
		return nil, err
	}

	// BOC USD table, last N days
	bocProvider := boc.NewProvider(
		retriever,
		cfg.Ingest.Interval,
		cfg.Ingest.WindowDays,
	)

	return []ingest.Provider{
		bocProvider,
	}, nil
}
