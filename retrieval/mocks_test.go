package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type (
	challengeDelegate func(context.Context) (*Challenge, error)
	recognizeDelegate func(context.Context, []byte) (string, error)
	submitDelegate    func(context.Context, *Query) ([]byte, error)
	parseDelegate     func([]byte) (*Page, error)
)

type mockCaptchaSource struct {
	challengeFn challengeDelegate
}

func (m *mockCaptchaSource) Challenge(ctx context.Context) (*Challenge, error) {
	if m.challengeFn != nil {
		return m.challengeFn(ctx)
	}

	return &Challenge{}, nil
}

type mockRecognizer struct {
	recognizeFn recognizeDelegate
}

func (m *mockRecognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	if m.recognizeFn != nil {
		return m.recognizeFn(ctx, image)
	}

	return "", nil
}

type mockPortal struct {
	submitFn submitDelegate
}

func (m *mockPortal) Submit(ctx context.Context, q *Query) ([]byte, error) {
	if m.submitFn != nil {
		return m.submitFn(ctx, q)
	}

	return nil, nil
}

type mockParser struct {
	parseFn parseDelegate
}

func (m *mockParser) Parse(markup []byte) (*Page, error) {
	if m.parseFn != nil {
		return m.parseFn(markup)
	}

	return &Page{}, nil
}

// pagedParser resolves "page-N" markup to the N-th (1-based) page.
// Past the last page, the last page is repeated
type pagedParser struct {
	pages []*Page
}

func (p *pagedParser) Parse(markup []byte) (*Page, error) {
	raw, ok := strings.CutPrefix(string(markup), "page-")
	if !ok {
		return nil, errors.New("unexpected markup")
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return nil, fmt.Errorf("unknown page %q", raw)
	}

	return p.pages[min(n, len(p.pages))-1], nil
}

// pageMarkup is the markup the paged parser understands
func pageMarkup(q *Query) []byte {
	return []byte(fmt.Sprintf("page-%d", q.Page))
}

// generateRows generates n distinct rows, numbered from offset
func generateRows(offset, n int) []Row {
	rows := make([]Row, 0, n)

	for i := offset; i < offset+n; i++ {
		rows = append(rows, Row{
			Currency:    "美元",
			SpotBuy:     strconv.Itoa(700 + i),
			CashBuy:     strconv.Itoa(690 + i),
			SpotSell:    strconv.Itoa(710 + i),
			CashSell:    strconv.Itoa(710 + i),
			Conversion:  strconv.Itoa(705 + i),
			PublishedAt: fmt.Sprintf("2024.01.01 10:%02d:00", i%60),
		})
	}

	return rows
}

// tablePages splits total rows into portal pages, each page issuing a fresh token
func tablePages(total int) []*Page {
	var (
		pages = make([]*Page, 0, total/PageSize+1)
		rows  = generateRows(0, total)
	)

	for start := 0; start < total || len(pages) == 0; start += PageSize {
		end := min(start+PageSize, total)

		pages = append(pages, &Page{
			ContinuationToken: fmt.Sprintf("tk-%d", len(pages)+1),
			RecordCount:       total,
			Rows:              rows[start:end],
		})
	}

	return pages
}
