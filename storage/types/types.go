package types

import "time"

type Currency string

func (c Currency) String() string {
	return string(c)
}

// RateType is the kind of quote a rate represents
type RateType string

const (
	RateTypeMID      RateType = "MID"       // BOC conversion price
	RateTypeBUY      RateType = "BUY"       // spot exchange buying
	RateTypeSELL     RateType = "SELL"      // spot exchange selling
	RateTypeCashBUY  RateType = "CASH_BUY"  // cash buying
	RateTypeCashSELL RateType = "CASH_SELL" // cash selling
)

func (r RateType) String() string {
	return string(r)
}

// Valid returns a flag indicating if the rate type is known
func (r RateType) Valid() bool {
	switch r {
	case RateTypeMID, RateTypeBUY, RateTypeSELL, RateTypeCashBUY, RateTypeCashSELL:
		return true
	default:
		return false
	}
}

type Source string

func (s Source) String() string {
	return string(s)
}

// ExchangeRate is a single published quote.
// Rate is the price of one Base unit, in Target
type ExchangeRate struct {
	AsOf      time.Time `json:"as_of"`
	FetchedAt time.Time `json:"fetched_at"`
	Base      Currency  `json:"base"`
	Target    Currency  `json:"target"`
	RateType  RateType  `json:"rate_type"`
	Source    Source    `json:"source"`
	Rate      float64   `json:"rate"`
}

type RateQuery struct {
	Target   *Currency `json:"target"`
	RateType *RateType `json:"rate_type"`
	Source   *Source   `json:"source"`
	Base     Currency  `json:"base"`
	Offset   int64     `json:"offset"`
	Limit    int32     `json:"limit"`
}

// Page wraps the results for pagination
type Page[T any] struct {
	Results []T   `json:"results"`
	Total   int64 `json:"total"`
}
