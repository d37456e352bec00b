package retrieval

import "time"

// PageSize is the fixed number of rows the portal returns per page
const PageSize = 20

// Columns are the BOC rate table column titles, in row order
var Columns = []string{
	"货币名称",
	"现汇买入价",
	"现钞买入价",
	"现汇卖出价",
	"现钞卖出价",
	"中行折算价",
	"发布时间",
}

// Session is the server-issued state a retrieval carries between queries
type Session struct {
	Start time.Time
	End   time.Time

	// CaptchaToken is issued alongside the captcha image,
	// and validated by the first query
	CaptchaToken string

	// ContinuationToken (paramtk) is issued by every successful query,
	// and consumed by the next one
	ContinuationToken string
}

// Row is a single rate table row. Values are kept verbatim
type Row struct {
	Currency    string `json:"currency"`
	SpotBuy     string `json:"spot_buy"`
	CashBuy     string `json:"cash_buy"`
	SpotSell    string `json:"spot_sell"`
	CashSell    string `json:"cash_sell"`
	Conversion  string `json:"conversion"`
	PublishedAt string `json:"published_at"`
}

// Values returns the row values in Columns order
func (r Row) Values() []string {
	return []string{
		r.Currency,
		r.SpotBuy,
		r.CashBuy,
		r.SpotSell,
		r.CashSell,
		r.Conversion,
		r.PublishedAt,
	}
}

// RowFromValues builds a row from cell values in Columns order.
// Extra values are ignored
func RowFromValues(values []string) (Row, bool) {
	if len(values) < len(Columns) {
		return Row{}, false
	}

	return Row{
		Currency:    values[0],
		SpotBuy:     values[1],
		CashBuy:     values[2],
		SpotSell:    values[3],
		CashSell:    values[4],
		Conversion:  values[5],
		PublishedAt: values[6],
	}, true
}

// Page is a single parsed query response
type Page struct {
	ContinuationToken string
	RecordCount       int
	Rows              []Row
}

// Challenge is a single captcha challenge
type Challenge struct {
	Token string
	Image []byte
}

// Query is a single query endpoint submission.
// The first page carries the captcha text, follow-ups carry the continuation token
type Query struct {
	Start time.Time
	End   time.Time

	CaptchaToken      string
	CaptchaText       string
	ContinuationToken string

	Page int
}

// First returns a flag indicating if the query establishes the session
func (q *Query) First() bool {
	return q.Page <= 1
}

// Outcome is the result of a single retrieval
type Outcome struct {
	// Rows are kept in page order, then in row order within a page
	Rows []Row

	// Challenges is the number of captcha challenges fetched
	Challenges int

	// Submissions is the number of query endpoint submissions
	Submissions int
}
