package storage

import (
	"context"
	"time"

	"github.com/sig-0/bocfx/storage/types"
)

// Storage is an abstraction over the exchange rate table
type Storage interface {
	// SaveExchangeRate saves the given exchange rate data point
	SaveExchangeRate(context.Context, *types.ExchangeRate) error

	// RateAsOf fetches the latest rates as of the given time
	RateAsOf(context.Context, *types.RateQuery, time.Time) (*types.Page[*types.ExchangeRate], error)

	// RatesInRange fetches every rate published in [from, to], oldest first
	RatesInRange(context.Context, *types.RateQuery, time.Time, time.Time) (*types.Page[*types.ExchangeRate], error)

	// ListSources lists all present sources for fx rates
	ListSources(context.Context) ([]types.Source, error)

	// ListCurrencies lists all currencies present
	ListCurrencies(context.Context) ([]types.Currency, error)
}
