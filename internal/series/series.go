// Package series reconciles raw timestamp/price pairs into an ordered sample series.
package series

import (
	"encoding/json"
	"math"
	"sort"

	"GoldPulse/internal/domain/models"

	"github.com/spf13/cast"
)

// RawPair is an upstream [timestamp, price] entry; either field may be a number or a numeric string.
type RawPair []any

// Normalize coerces, filters, sorts and de-duplicates raw pairs. Never fails: bad input yields an empty series.
func Normalize(raw []RawPair) models.Series {
	out := make(models.Series, 0, len(raw))
	for _, p := range raw {
		s, ok := coerce(p)
		if !ok {
			continue
		}
		out = append(out, s)
	}
	return reconcile(out)
}

// FromFloatPairs is Normalize for already-decoded numeric pairs.
func FromFloatPairs(raw [][]float64) models.Series {
	out := make(models.Series, 0, len(raw))
	for _, p := range raw {
		if len(p) < 2 {
			continue
		}
		s, ok := sample(p[0], p[1])
		if !ok {
			continue
		}
		out = append(out, s)
	}
	return reconcile(out)
}

// Latest returns the most recent sample, or nil for an empty series.
func Latest(s models.Series) *models.Sample {
	if len(s) == 0 {
		return nil
	}
	last := s[len(s)-1]
	return &last
}

// Merge concatenates series in order and re-normalizes; later series win on equal timestamps.
func Merge(list ...models.Series) models.Series {
	n := 0
	for _, s := range list {
		n += len(s)
	}
	all := make(models.Series, 0, n)
	for _, s := range list {
		for _, smp := range s {
			if v, ok := sample(float64(smp.Timestamp), smp.Price); ok {
				all = append(all, v)
			}
		}
	}
	return reconcile(all)
}

func coerce(p RawPair) (models.Sample, bool) {
	if len(p) < 2 || !numeric(p[0]) || !numeric(p[1]) {
		return models.Sample{}, false
	}
	ts, err := cast.ToFloat64E(p[0])
	if err != nil {
		return models.Sample{}, false
	}
	price, err := cast.ToFloat64E(p[1])
	if err != nil {
		return models.Sample{}, false
	}
	return sample(ts, price)
}

// numeric rejects nil, bools and containers, which cast would otherwise coerce silently.
func numeric(v any) bool {
	switch v.(type) {
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, string, json.Number:
		return true
	default:
		return false
	}
}

func sample(ts, price float64) (models.Sample, bool) {
	if !finite(ts) || !finite(price) || ts <= 0 || ts > math.MaxInt64 {
		return models.Sample{}, false
	}
	return models.Sample{Timestamp: int64(ts), Price: price}, true
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// reconcile sorts stably and keeps the last occurrence of every timestamp.
func reconcile(s models.Series) models.Series {
	if len(s) == 0 {
		return models.Series{}
	}
	sort.SliceStable(s, func(i, j int) bool { return s[i].Timestamp < s[j].Timestamp })
	out := s[:0]
	for i, v := range s {
		if i+1 < len(s) && s[i+1].Timestamp == v.Timestamp {
			continue
		}
		out = append(out, v)
	}
	return out
}
