package boc

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/bocfx/retrieval"
)

// tableMarkup renders a query page the way the portal lays it out
func tableMarkup(token string, count int, rows ...[]string) string {
	var sb strings.Builder

	sb.WriteString("<html><head><script>\n")
	fmt.Fprintf(&sb, "\tvar m_nRecordCount = %d;\n", count)
	sb.WriteString("</script></head><body>\n")
	fmt.Fprintf(&sb, "<input type=\"hidden\" name=\"paramtk\" value=\"%s\">\n", token)
	sb.WriteString("<div class=\"BOC_main publish\">\n<table>\n<tr>")

	for _, c := range retrieval.Columns {
		fmt.Fprintf(&sb, "<th>%s</th>", c)
	}

	sb.WriteString("</tr>\n")

	for _, row := range rows {
		sb.WriteString("<tr>\n")

		for _, v := range row {
			fmt.Fprintf(&sb, "\t<td>\r\n  %s  \t</td>\n", v)
		}

		sb.WriteString("</tr>\n")
	}

	sb.WriteString("<tr><td colspan=\"7\">footer pagination</td></tr>\n")
	sb.WriteString("</table>\n</div></body></html>")

	return sb.String()
}

func usdRow(publishedAt string) []string {
	return []string{"美元", "710.56", "704.78", "713.54", "713.54", "711.89", publishedAt}
}

func TestParser_Parse(t *testing.T) {
	t.Parallel()

	t.Run("rows, token and count", func(t *testing.T) {
		t.Parallel()

		markup := tableMarkup(
			"tk-abc",
			45,
			usdRow("2024.01.02 10:30:00"),
			usdRow("2024.01.02 09:30:00"),
		)

		page, err := NewParser().Parse([]byte(markup))
		require.NoError(t, err)

		expected := []retrieval.Row{
			{
				Currency:    "美元",
				SpotBuy:     "710.56",
				CashBuy:     "704.78",
				SpotSell:    "713.54",
				CashSell:    "713.54",
				Conversion:  "711.89",
				PublishedAt: "2024.01.02 10:30:00",
			},
			{
				Currency:    "美元",
				SpotBuy:     "710.56",
				CashBuy:     "704.78",
				SpotSell:    "713.54",
				CashSell:    "713.54",
				Conversion:  "711.89",
				PublishedAt: "2024.01.02 09:30:00",
			},
		}

		assert.Equal(t, "tk-abc", page.ContinuationToken)
		assert.Equal(t, 45, page.RecordCount)

		if diff := cmp.Diff(expected, page.Rows); diff != "" {
			t.Fatalf("rows mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("whitespace collapsed", func(t *testing.T) {
		t.Parallel()

		row := usdRow("2024.01.02   \n 10:30:00")
		row[1] = "  710.56 "

		page, err := NewParser().Parse([]byte(tableMarkup("tk", 1, row)))
		require.NoError(t, err)

		require.Len(t, page.Rows, 1)
		assert.Equal(t, "710.56", page.Rows[0].SpotBuy)
		assert.Equal(t, "2024.01.02 10:30:00", page.Rows[0].PublishedAt)
	})

	t.Run("footer and header excluded", func(t *testing.T) {
		t.Parallel()

		page, err := NewParser().Parse([]byte(tableMarkup("tk", 0)))
		require.NoError(t, err)

		assert.Empty(t, page.Rows)
	})

	t.Run("short rows skipped", func(t *testing.T) {
		t.Parallel()

		markup := tableMarkup(
			"tk",
			2,
			[]string{"美元", "710.56"},
			usdRow("2024.01.02 10:30:00"),
		)

		page, err := NewParser().Parse([]byte(markup))
		require.NoError(t, err)

		require.Len(t, page.Rows, 1)
		assert.Equal(t, "711.89", page.Rows[0].Conversion)
	})

	t.Run("parsing is idempotent", func(t *testing.T) {
		t.Parallel()

		var (
			markup = []byte(tableMarkup("tk", 1, usdRow("2024.01.02 10:30:00")))
			p      = NewParser()
		)

		first, err := p.Parse(markup)
		require.NoError(t, err)

		second, err := p.Parse(markup)
		require.NoError(t, err)

		if diff := cmp.Diff(first, second); diff != "" {
			t.Fatalf("pages differ (-first +second):\n%s", diff)
		}
	})

	t.Run("captcha markers", func(t *testing.T) {
		t.Parallel()

		testTable := []struct {
			name     string
			markup   string
			expected error
		}{
			{
				"incorrect captcha",
				"<script>alert('验证码错误');</script>",
				retrieval.ErrCaptchaIncorrect,
			},
			{
				"expired captcha",
				"<script>alert('验证码已过期');</script>",
				retrieval.ErrCaptchaExpired,
			},
			{
				"marker split by control characters",
				"<script>alert('验证码\r\n错误');</script>",
				retrieval.ErrCaptchaIncorrect,
			},
		}

		for _, testCase := range testTable {
			t.Run(testCase.name, func(t *testing.T) {
				t.Parallel()

				page, err := NewParser().Parse([]byte(testCase.markup))

				assert.Nil(t, page)
				assert.ErrorIs(t, err, testCase.expected)
			})
		}
	})

	t.Run("malformed markup yields empty page", func(t *testing.T) {
		t.Parallel()

		page, err := NewParser().Parse([]byte("<html><body>maintenance</body>"))
		require.NoError(t, err)

		assert.Empty(t, page.ContinuationToken)
		assert.Zero(t, page.RecordCount)
		assert.Empty(t, page.Rows)
	})
}
