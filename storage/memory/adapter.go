package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sig-0/bocfx/storage/types"
)

const (
	defaultLimit = int32(100)
	maxLimit     = int32(500)
)

type key struct {
	base, target, source, rateType string
	asOf                           int64 // unix nanos
}

// Storage is the in-memory exchange rate table.
// A quote re-published with the same as-of time replaces the previous one
type Storage struct {
	data map[key]types.ExchangeRate

	mu sync.RWMutex
}

func NewStorage() *Storage {
	return &Storage{
		data: make(map[key]types.ExchangeRate),
	}
}

func (s *Storage) SaveExchangeRate(_ context.Context, r *types.ExchangeRate) error {
	k := key{
		base:     r.Base.String(),
		target:   r.Target.String(),
		source:   r.Source.String(),
		rateType: r.RateType.String(),
		asOf:     r.AsOf.UTC().UnixNano(),
	}

	elem := *r
	elem.AsOf = elem.AsOf.UTC()
	elem.FetchedAt = elem.FetchedAt.UTC()

	s.mu.Lock()
	s.data[k] = elem
	s.mu.Unlock()

	return nil
}

func (s *Storage) RateAsOf(
	_ context.Context,
	query *types.RateQuery,
	asOf time.Time,
) (*types.Page[*types.ExchangeRate], error) {
	cutoff := asOf.UTC()

	type bucket struct {
		target, source, rateType string
	}

	latest := make(map[bucket]types.ExchangeRate)

	s.mu.RLock()

	for _, v := range s.data {
		if !matches(query, &v) || v.AsOf.After(cutoff) {
			continue
		}

		b := bucket{
			target:   v.Target.String(),
			source:   v.Source.String(),
			rateType: v.RateType.String(),
		}

		cur, ok := latest[b]
		if !ok ||
			v.AsOf.After(cur.AsOf) ||
			(v.AsOf.Equal(cur.AsOf) && v.FetchedAt.After(cur.FetchedAt)) {
			latest[b] = v
		}
	}

	s.mu.RUnlock()

	out := make([]*types.ExchangeRate, 0, len(latest))
	for _, v := range latest {
		cp := v
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Target != out[j].Target {
			return out[i].Target < out[j].Target
		}

		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}

		return out[i].RateType < out[j].RateType
	})

	return paginate(out, query.Limit, query.Offset), nil
}

func (s *Storage) RatesInRange(
	_ context.Context,
	query *types.RateQuery,
	from time.Time,
	to time.Time,
) (*types.Page[*types.ExchangeRate], error) {
	var (
		lower = from.UTC()
		upper = to.UTC()
		out   = make([]*types.ExchangeRate, 0)
	)

	s.mu.RLock()

	for _, v := range s.data {
		if !matches(query, &v) || v.AsOf.Before(lower) || v.AsOf.After(upper) {
			continue
		}

		cp := v
		out = append(out, &cp)
	}

	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].AsOf.Equal(out[j].AsOf) {
			return out[i].AsOf.Before(out[j].AsOf)
		}

		if out[i].Target != out[j].Target {
			return out[i].Target < out[j].Target
		}

		return out[i].RateType < out[j].RateType
	})

	return paginate(out, query.Limit, query.Offset), nil
}

func (s *Storage) ListSources(_ context.Context) ([]types.Source, error) {
	s.mu.RLock()

	seen := make(map[string]struct{})

	for k := range s.data {
		seen[k.source] = struct{}{}
	}

	s.mu.RUnlock()

	return sortedKeys[types.Source](seen), nil
}

func (s *Storage) ListCurrencies(_ context.Context) ([]types.Currency, error) {
	s.mu.RLock()

	seen := make(map[string]struct{})

	for k := range s.data {
		seen[k.base] = struct{}{}
		seen[k.target] = struct{}{}
	}

	s.mu.RUnlock()

	return sortedKeys[types.Currency](seen), nil
}

// matches checks the rate against the query filters
func matches(query *types.RateQuery, v *types.ExchangeRate) bool {
	if v.Base != query.Base {
		return false
	}

	if query.Target != nil && v.Target != *query.Target {
		return false
	}

	if query.Source != nil && v.Source != *query.Source {
		return false
	}

	if query.RateType != nil && v.RateType != *query.RateType {
		return false
	}

	return true
}

// paginate cuts the requested window out of the sorted results
func paginate(out []*types.ExchangeRate, limit int32, offset int64) *types.Page[*types.ExchangeRate] {
	total := int64(len(out))
	if total == 0 || offset >= total {
		return &types.Page[*types.ExchangeRate]{
			Results: nil,
			Total:   total,
		}
	}

	if limit <= 0 {
		limit = defaultLimit
	}

	if limit > maxLimit {
		limit = maxLimit
	}

	start := max(offset, 0)
	end := min(start+int64(limit), total)

	return &types.Page[*types.ExchangeRate]{
		Results: out[start:end],
		Total:   total,
	}
}

// sortedKeys returns the set keys in ascending order
func sortedKeys[T ~string](set map[string]struct{}) []T {
	out := make([]T, 0, len(set))

	for v := range set {
		out = append(out, T(v))
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i] < out[j]
	})

	return out
}
