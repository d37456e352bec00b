package fetch

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/bocfx/retrieval"
)

func TestDateRange(t *testing.T) {
	t.Parallel()

	// 2024-01-02 18:00 UTC is 2024-01-03 in Beijing
	now := time.Date(2024, 1, 2, 18, 0, 0, 0, time.UTC)

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		start, end, err := dateRange("", "", now)
		require.NoError(t, err)

		assert.Equal(t, "2024-01-02", start.Format(time.DateOnly))
		assert.Equal(t, "2024-01-03", end.Format(time.DateOnly))
	})

	t.Run("explicit range", func(t *testing.T) {
		t.Parallel()

		start, end, err := dateRange("2023-12-01", "2023-12-31", now)
		require.NoError(t, err)

		assert.Equal(t, "2023-12-01", start.Format(time.DateOnly))
		assert.Equal(t, "2023-12-31", end.Format(time.DateOnly))
	})

	t.Run("start defaults to the day before end", func(t *testing.T) {
		t.Parallel()

		start, _, err := dateRange("", "2024-03-01", now)
		require.NoError(t, err)

		assert.Equal(t, "2024-02-29", start.Format(time.DateOnly))
	})

	t.Run("invalid dates", func(t *testing.T) {
		t.Parallel()

		_, _, err := dateRange("01/02/2024", "", now)
		assert.ErrorContains(t, err, "start")

		_, _, err = dateRange("", "tomorrow", now)
		assert.ErrorContains(t, err, "end")
	})
}

func TestRenderRows(t *testing.T) {
	t.Parallel()

	rows := make([]retrieval.Row, 0, 8)
	for i := range 8 {
		rows = append(rows, retrieval.Row{
			Currency:    "美元",
			SpotBuy:     fmt.Sprintf("710.%02d", i),
			PublishedAt: "2024.01.02 10:30:00",
		})
	}

	outcome := &retrieval.Outcome{
		Rows:        rows,
		Challenges:  2,
		Submissions: 3,
	}

	var buf bytes.Buffer

	renderRows(&buf, outcome, 3)

	out := buf.String()

	for _, c := range retrieval.Columns {
		assert.Contains(t, out, c)
	}

	assert.Contains(t, out, "710.00")
	assert.Contains(t, out, "710.02")
	assert.NotContains(t, out, "710.03")
	assert.Contains(t, out, "8 ROWS")
	assert.Contains(t, out, "2 CAPTCHA CHALLENGES")
	assert.Contains(t, out, "3 QUERIES")
}
