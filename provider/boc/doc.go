// Package boc provides the Bank of China foreign exchange rate table adapters.
//
// # Portal
//
// URL: https://srh.bankofchina.com/search/whpj/
//
// The query endpoint is gated by an image captcha. A session starts by fetching
// a captcha (GET CaptchaServlet.jsp), which returns the base64 image in the body
// and a session token in the "token" header. The first query (POST search_cn.jsp)
// carries the recognized captcha text and the token; every response carries a
// continuation token (paramtk) that the next page query must echo back.
//
// Pages hold 20 rows. The total record count is embedded in the page script
// as m_nRecordCount.
//
// # Provider
//
// Source: "BOC"
// Interval: configurable, 1 hour by default
//
// Retrieves the USD table for the last N days (Beijing time) and returns
// USD/CNY rates, one per published quote:
//
//	spot buy -> BUY, cash buy -> CASH_BUY, spot sell -> SELL,
//	cash sell -> CASH_SELL, conversion -> MID
//
// Quotes are published per 100 USD, and are normalized to a unit rate.
// The effective date (AsOf) is the row publish time.
package boc
