package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sig-0/bocfx/storage/types"
)

const (
	defaultLimit = int32(100)
	maxLimit     = int32(500)

	// defaultHistoryWindow is the history span when no lower bound is given
	defaultHistoryWindow = 7 * 24 * time.Hour
)

var (
	errUnableToFetchRates      = errors.New("unable to fetch rates")
	errUnableToFetchCurrencies = errors.New("unable to fetch currencies")
	errUnableToFetchSources    = errors.New("unable to fetch sources")

	errInvalidLimit    = errors.New("invalid limit")
	errInvalidOffset   = errors.New("invalid offset")
	errInvalidType     = errors.New("invalid type")
	errInvalidCurrency = errors.New("invalid currency (must be 3 letters A-Z)")
	errInvalidTime     = errors.New("invalid time (must be RFC3339 or YYYY-MM-DD)")
	errInvalidRange    = errors.New("invalid range (from is after to)")
)

// RatesForPair serves the latest rates for a currency pair
func (s *Server) RatesForPair(w http.ResponseWriter, r *http.Request) {
	q, err := parseRateQuery(r, true)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	asOf, err := parseTime(r.URL.Query().Get("as_of"), time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	page, err := s.storage.RateAsOf(r.Context(), q, asOf)
	if err != nil {
		s.logger.Debug(
			"unable to fetch rates",
			"err", err,
		)

		writeError(w, http.StatusInternalServerError, errUnableToFetchRates)

		return
	}

	writeJSON(w, http.StatusOK, page)
}

// RatesForBase serves the latest rates for every target of a base currency
func (s *Server) RatesForBase(w http.ResponseWriter, r *http.Request) {
	q, err := parseRateQuery(r, false)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	asOf, err := parseTime(r.URL.Query().Get("as_of"), time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	page, err := s.storage.RateAsOf(r.Context(), q, asOf)
	if err != nil {
		s.logger.Debug(
			"unable to fetch rates",
			"err", err,
		)

		writeError(w, http.StatusInternalServerError, errUnableToFetchRates)

		return
	}

	writeJSON(w, http.StatusOK, page)
}

// RateHistory serves every rate a pair was published at within [from, to], oldest first.
// The range defaults to the last week
func (s *Server) RateHistory(w http.ResponseWriter, r *http.Request) {
	q, err := parseRateQuery(r, true)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	to, err := parseTime(r.URL.Query().Get("to"), time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	from, err := parseTime(r.URL.Query().Get("from"), to.Add(-defaultHistoryWindow))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	if from.After(to) {
		writeError(w, http.StatusBadRequest, errInvalidRange)

		return
	}

	page, err := s.storage.RatesInRange(r.Context(), q, from, to)
	if err != nil {
		s.logger.Debug(
			"unable to fetch rate history",
			"err", err,
		)

		writeError(w, http.StatusInternalServerError, errUnableToFetchRates)

		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (s *Server) Sources(w http.ResponseWriter, r *http.Request) {
	items, err := s.storage.ListSources(r.Context())
	if err != nil {
		s.logger.Debug(
			"unable to fetch sources",
			"err", err,
		)

		writeError(w, http.StatusInternalServerError, errUnableToFetchSources)

		return
	}

	writeJSON(w, http.StatusOK, &SourcesResponse{
		Results: items,
	})
}

func (s *Server) Currencies(w http.ResponseWriter, r *http.Request) {
	items, err := s.storage.ListCurrencies(r.Context())
	if err != nil {
		s.logger.Debug(
			"unable to fetch currencies",
			"err", err,
		)

		writeError(w, http.StatusInternalServerError, errUnableToFetchCurrencies)

		return
	}

	writeJSON(w, http.StatusOK, &CurrenciesResponse{
		Results: items,
	})
}

// parseRateQuery builds the rate query from the route and query params
func parseRateQuery(r *http.Request, withTarget bool) (*types.RateQuery, error) {
	params := r.URL.Query()

	base, err := parseCurrencySymbol(chi.URLParam(r, "base"))
	if err != nil {
		return nil, err
	}

	q := &types.RateQuery{
		Base: base,
	}

	if withTarget {
		target, err := parseCurrencySymbol(chi.URLParam(r, "target"))
		if err != nil {
			return nil, err
		}

		q.Target = &target
	}

	if q.Limit, q.Offset, err = parseLimitOffset(params.Get("limit"), params.Get("offset")); err != nil {
		return nil, err
	}

	if q.Source, q.RateType, err = parseSourceAndType(params.Get("source"), params.Get("type")); err != nil {
		return nil, err
	}

	return q, nil
}

// parseTime parses an RFC3339 timestamp or a plain (UTC) date.
// An empty value yields the fallback
func parseTime(raw string, fallback time.Time) (time.Time, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return fallback, nil
	}

	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}

	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t, nil
	}

	return time.Time{}, errInvalidTime
}

func parseLimitOffset(limitRaw, offsetRaw string) (int32, int64, error) {
	limit := defaultLimit

	if v := strings.TrimSpace(limitRaw); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 0 {
			return 0, 0, errInvalidLimit
		}

		limit = int32(n)
	}

	if limit == 0 {
		limit = defaultLimit
	}

	limit = min(limit, maxLimit)

	var offset int64

	if v := strings.TrimSpace(offsetRaw); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return 0, 0, errInvalidOffset
		}

		offset = n
	}

	return limit, offset, nil
}

func parseSourceAndType(sourceRaw, typeRaw string) (*types.Source, *types.RateType, error) {
	var src *types.Source

	if v := strings.TrimSpace(sourceRaw); v != "" {
		s := types.Source(v)

		src = &s
	}

	var rt *types.RateType

	if v := strings.TrimSpace(typeRaw); v != "" {
		t := types.RateType(strings.ToUpper(v))
		if !t.Valid() {
			return nil, nil, fmt.Errorf("%w %q", errInvalidType, v)
		}

		rt = &t
	}

	return src, rt, nil
}

func parseCurrencySymbol(v string) (types.Currency, error) {
	s := strings.ToUpper(strings.TrimSpace(v))
	if len(s) != 3 {
		return "", errInvalidCurrency
	}

	for i := range len(s) {
		if s[i] < 'A' || s[i] > 'Z' {
			return "", errInvalidCurrency
		}
	}

	return types.Currency(s), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // Fine to ignore
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, &ErrorResponse{
		Error: err.Error(),
	})
}
