package boc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/bocfx/provider/currencies"
	"github.com/sig-0/bocfx/retrieval"
	"github.com/sig-0/bocfx/storage/types"
)

type retrieveDelegate func(context.Context, time.Time, time.Time) (*retrieval.Outcome, error)

type mockRetriever struct {
	retrieveFn retrieveDelegate
}

func (m *mockRetriever) Retrieve(ctx context.Context, start, end time.Time) (*retrieval.Outcome, error) {
	if m.retrieveFn != nil {
		return m.retrieveFn(ctx, start, end)
	}

	return &retrieval.Outcome{}, nil
}

func testRow(publishedAt string) retrieval.Row {
	return retrieval.Row{
		Currency:    "美元",
		SpotBuy:     "710.56",
		CashBuy:     "704.78",
		SpotSell:    "713.54",
		CashSell:    "713.54",
		Conversion:  "711.89",
		PublishedAt: publishedAt,
	}
}

func TestRatesFromRows(t *testing.T) {
	t.Parallel()

	t.Run("row mapped to every quote", func(t *testing.T) {
		t.Parallel()

		fetchedAt := time.Date(2024, 1, 2, 5, 0, 0, 0, time.UTC)

		rates := RatesFromRows([]retrieval.Row{testRow("2024.01.02 10:30:00")}, fetchedAt)
		require.Len(t, rates, 5)

		expected := map[types.RateType]float64{
			types.RateTypeBUY:      7.1056,
			types.RateTypeCashBUY:  7.0478,
			types.RateTypeSELL:     7.1354,
			types.RateTypeCashSELL: 7.1354,
			types.RateTypeMID:      7.1189,
		}

		// 10:30 Beijing time
		asOf := time.Date(2024, 1, 2, 2, 30, 0, 0, time.UTC)

		for _, rate := range rates {
			assert.Equal(t, currencies.USD, rate.Base)
			assert.Equal(t, currencies.CNY, rate.Target)
			assert.Equal(t, Source, rate.Source)
			assert.Equal(t, fetchedAt, rate.FetchedAt)
			assert.True(t, asOf.Equal(rate.AsOf))
			assert.InDelta(t, expected[rate.RateType], rate.Rate, 1e-9)
		}
	})

	t.Run("blank quotes skipped", func(t *testing.T) {
		t.Parallel()

		row := testRow("2024.01.02 10:30:00")
		row.CashBuy = ""
		row.CashSell = "-"

		rates := RatesFromRows([]retrieval.Row{row}, time.Now())

		require.Len(t, rates, 3)

		for _, rate := range rates {
			assert.NotEqual(t, types.RateTypeCashBUY, rate.RateType)
			assert.NotEqual(t, types.RateTypeCashSELL, rate.RateType)
		}
	})

	t.Run("foreign and unreadable rows skipped", func(t *testing.T) {
		t.Parallel()

		other := testRow("2024.01.02 10:30:00")
		other.Currency = "欧元"

		rates := RatesFromRows(
			[]retrieval.Row{
				other,
				testRow("yesterday"),
			},
			time.Now(),
		)

		assert.Empty(t, rates)
	})
}

func TestParsePublishTime(t *testing.T) {
	t.Parallel()

	expected := time.Date(2024, 1, 2, 2, 30, 15, 0, time.UTC)

	for _, s := range []string{
		"2024.01.02 10:30:15",
		"2024-01-02 10:30:15",
		"2024/01/02 10:30:15",
		" 2024.01.02 10:30:15 ",
	} {
		parsed, err := ParsePublishTime(s)
		require.NoError(t, err)

		assert.True(t, expected.Equal(parsed), s)
	}

	_, err := ParsePublishTime("02/01/2024")
	assert.Error(t, err)
}

func TestProvider_Fetch(t *testing.T) {
	t.Parallel()

	// 2024-01-02 18:00 UTC is 2024-01-03 02:00 in Beijing
	now := time.Date(2024, 1, 2, 18, 0, 0, 0, time.UTC)

	t.Run("window in portal time", func(t *testing.T) {
		t.Parallel()

		var capturedStart, capturedEnd time.Time

		retriever := &mockRetriever{
			retrieveFn: func(_ context.Context, start, end time.Time) (*retrieval.Outcome, error) {
				capturedStart, capturedEnd = start, end

				return &retrieval.Outcome{
					Rows: []retrieval.Row{testRow("2024.01.03 01:30:00")},
				}, nil
			},
		}

		p := NewProvider(retriever, time.Hour, 2)
		p.now = func() time.Time {
			return now
		}

		rates, err := p.Fetch(context.Background())
		require.NoError(t, err)

		assert.Len(t, rates, 5)
		assert.Equal(t, "2024-01-02", capturedStart.Format(time.DateOnly))
		assert.Equal(t, "2024-01-03", capturedEnd.Format(time.DateOnly))
	})

	t.Run("partial rates returned with error", func(t *testing.T) {
		t.Parallel()

		retriever := &mockRetriever{
			retrieveFn: func(_ context.Context, _, _ time.Time) (*retrieval.Outcome, error) {
				return &retrieval.Outcome{
					Rows: []retrieval.Row{testRow("2024.01.03 01:30:00")},
				}, retrieval.ErrPageAttemptsExhausted
			},
		}

		rates, err := NewProvider(retriever, time.Hour, 1).Fetch(context.Background())

		assert.ErrorIs(t, err, retrieval.ErrPageAttemptsExhausted)
		assert.Len(t, rates, 5)
	})

	t.Run("retrieval failed", func(t *testing.T) {
		t.Parallel()

		errRetrieve := errors.New("portal down")

		retriever := &mockRetriever{
			retrieveFn: func(_ context.Context, _, _ time.Time) (*retrieval.Outcome, error) {
				return nil, errRetrieve
			},
		}

		rates, err := NewProvider(retriever, time.Hour, 1).Fetch(context.Background())

		assert.ErrorIs(t, err, errRetrieve)
		assert.Nil(t, rates)
	})

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		p := NewProvider(&mockRetriever{}, 0, 0)

		assert.Equal(t, "BOC (USD)", p.Name())
		assert.Equal(t, DefaultInterval, p.Interval())
		assert.Equal(t, DefaultWindowDays, p.windowDays)
	})
}
