package boc

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sig-0/bocfx/retrieval"
)

const (
	captchaIncorrectMarker = "验证码错误"
	captchaExpiredMarker   = "验证码已过期"
)

var (
	paramtkRegex     = regexp.MustCompile(`paramtk"\s*value="([^"]*)"`)
	recordCountRegex = regexp.MustCompile(`m_nRecordCount\s*=\s*(\d+);`)

	controlStripper = strings.NewReplacer("\n", "", "\r", "", "\t", "")
)

// Parser extracts rate table pages from the query endpoint markup.
// The markup is always read as UTF-8, whatever the page declares
type Parser struct{}

// NewParser creates a new instance of the query page parser
func NewParser() *Parser {
	return &Parser{}
}

// Parse parses a single query page.
// Missing markers are not an error, they yield an empty page
func (p *Parser) Parse(markup []byte) (*retrieval.Page, error) {
	content := controlStripper.Replace(string(markup))

	switch {
	case strings.Contains(content, captchaIncorrectMarker):
		return nil, retrieval.ErrCaptchaIncorrect
	case strings.Contains(content, captchaExpiredMarker):
		return nil, retrieval.ErrCaptchaExpired
	}

	page := &retrieval.Page{}

	if m := paramtkRegex.FindStringSubmatch(content); m != nil {
		page.ContinuationToken = m[1]
	}

	if m := recordCountRegex.FindStringSubmatch(content); m != nil {
		if count, err := strconv.Atoi(m[1]); err == nil {
			page.RecordCount = count
		}
	}

	rows, err := parseRows(content)
	if err != nil {
		return nil, err
	}

	page.Rows = rows

	return page, nil
}

// parseRows extracts the rate table rows.
// The last row is the table footer, header rows are skipped
func parseRows(content string) ([]retrieval.Row, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("unable to construct query doc: %w", err)
	}

	trs := doc.Find("div.BOC_main.publish table tr")
	if trs.Length() == 0 {
		return nil, nil
	}

	rows := make([]retrieval.Row, 0, retrieval.PageSize)

	trs.Slice(0, trs.Length()-1).Each(func(_ int, tr *goquery.Selection) {
		if tr.ChildrenFiltered("th").Length() > 0 {
			return
		}

		cells := tr.ChildrenFiltered("td")
		values := make([]string, 0, cells.Length())

		cells.Each(func(_ int, td *goquery.Selection) {
			values = append(values, cellText(td))
		})

		row, ok := retrieval.RowFromValues(values)
		if !ok {
			return
		}

		rows = append(rows, row)
	})

	return rows, nil
}

// cellText returns the cell text, trimmed and with inner whitespace runs collapsed
func cellText(td *goquery.Selection) string {
	return strings.Join(strings.Fields(td.Text()), " ")
}
