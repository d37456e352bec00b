package boc

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sig-0/bocfx/provider/currencies"
	"github.com/sig-0/bocfx/retrieval"
	"github.com/sig-0/bocfx/storage/types"
)

var Source types.Source = "BOC"

const (
	DefaultInterval   = time.Hour
	DefaultWindowDays = 1

	// quoteUnit is the number of foreign currency units a quote is priced for
	quoteUnit = 100

	usdName = "美元"
)

var publishLayouts = []string{
	"2006.01.02 15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
}

// Retriever runs a single captcha-gated table retrieval
type Retriever interface {
	Retrieve(ctx context.Context, start, end time.Time) (*retrieval.Outcome, error)
}

// Provider is the BOC USD rate table provider
type Provider struct {
	retriever  Retriever
	now        func() time.Time
	interval   time.Duration
	windowDays int
}

// NewProvider creates a new instance of the BOC rate table provider.
// Every fetch covers the last windowDays days, today included
func NewProvider(retriever Retriever, interval time.Duration, windowDays int) *Provider {
	if interval <= 0 {
		interval = DefaultInterval
	}

	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}

	return &Provider{
		retriever:  retriever,
		now:        time.Now,
		interval:   interval,
		windowDays: windowDays,
	}
}

func (p *Provider) Name() string {
	return "BOC (USD)"
}

func (p *Provider) Interval() time.Duration {
	return p.interval
}

// Fetch retrieves the rate table for the provider window.
// Rates parsed before a failure are returned with the error
func (p *Provider) Fetch(ctx context.Context) ([]*types.ExchangeRate, error) {
	var (
		now   = p.now()
		end   = now.In(Location())
		start = end.AddDate(0, 0, -(p.windowDays - 1))
	)

	outcome, err := p.retriever.Retrieve(ctx, start, end)
	if outcome == nil {
		return nil, fmt.Errorf("unable to retrieve rate table: %w", err)
	}

	rates := RatesFromRows(outcome.Rows, now.UTC())

	if err != nil {
		return rates, fmt.Errorf("unable to retrieve full rate table: %w", err)
	}

	return rates, nil
}

// RatesFromRows maps USD table rows to USD/CNY exchange rates.
// Blank quotes and rows with an unreadable publish time are skipped
func RatesFromRows(rows []retrieval.Row, fetchedAt time.Time) []*types.ExchangeRate {
	rates := make([]*types.ExchangeRate, 0, len(rows)*5)

	for _, row := range rows {
		if row.Currency != usdName {
			continue
		}

		asOf, err := ParsePublishTime(row.PublishedAt)
		if err != nil {
			continue
		}

		quotes := []struct {
			value    string
			rateType types.RateType
		}{
			{row.SpotBuy, types.RateTypeBUY},
			{row.CashBuy, types.RateTypeCashBUY},
			{row.SpotSell, types.RateTypeSELL},
			{row.CashSell, types.RateTypeCashSELL},
			{row.Conversion, types.RateTypeMID},
		}

		for _, q := range quotes {
			rate, ok := parseQuote(q.value)
			if !ok {
				continue
			}

			rates = append(rates, &types.ExchangeRate{
				AsOf:      asOf.UTC(),
				FetchedAt: fetchedAt,
				Base:      currencies.USD,
				Target:    currencies.CNY,
				RateType:  q.rateType,
				Source:    Source,
				Rate:      rate,
			})
		}
	}

	return rates
}

// ParsePublishTime parses the table publish time, which is Beijing time
func ParsePublishTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	for _, layout := range publishLayouts {
		if t, err := time.ParseInLocation(layout, s, Location()); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("publish time format is invalid %q", s)
}

// parseQuote converts a per-100-units quote into a unit rate
func parseQuote(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}

	return math.Round(v/quoteUnit*1e6) / 1e6, true
}

// Location returns the portal time zone
func Location() *time.Location {
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err == nil {
		return loc
	}

	return time.FixedZone("CST", 8*60*60)
}
