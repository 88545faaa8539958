package series

import (
	"encoding/json"
	"math"
	"testing"

	"GoldPulse/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSortsAndDeduplicates(t *testing.T) {
	raw := []RawPair{
		{3000.0, 99.0},
		{1000.0, 100.0},
		{2000.0, 101.0},
		{2000.0, 102.0},
	}

	got := Normalize(raw)

	assert.Equal(t, models.Series{
		{Timestamp: 1000, Price: 100},
		{Timestamp: 2000, Price: 102},
		{Timestamp: 3000, Price: 99},
	}, got)
}

func TestNormalizeCoercesStrings(t *testing.T) {
	raw := []RawPair{
		{"1000", "100.5"},
		{json.Number("2000"), json.Number("101.25")},
		{int64(3000), 102},
	}

	got := Normalize(raw)

	require.Len(t, got, 3)
	assert.Equal(t, 100.5, got[0].Price)
	assert.Equal(t, 101.25, got[1].Price)
	assert.Equal(t, int64(3000), got[2].Timestamp)
}

func TestNormalizeDropsInvalidPairs(t *testing.T) {
	raw := []RawPair{
		{1000.0},
		{nil, 1.0},
		{1000.0, nil},
		{"abc", 1.0},
		{2000.0, math.NaN()},
		{3000.0, math.Inf(1)},
		{-5.0, 1.0},
		{0.0, 1.0},
		{true, 1.0},
		{4000.0, 7.0},
	}

	got := Normalize(raw)

	assert.Equal(t, models.Series{{Timestamp: 4000, Price: 7}}, got)
}

func TestNormalizeEmptyInput(t *testing.T) {
	assert.Empty(t, Normalize(nil))
	assert.NotNil(t, Normalize(nil))
	assert.Empty(t, Normalize([]RawPair{{"x", "y"}}))
}

func TestNormalizeIsIdempotent(t *testing.T) {
	raw := []RawPair{{5.0, 1.0}, {3.0, 2.0}, {5.0, 3.0}, {1.0, 4.0}}

	once := Normalize(raw)
	back := make([]RawPair, 0, len(once))
	for _, s := range once {
		back = append(back, RawPair{s.Timestamp, s.Price})
	}

	assert.Equal(t, once, Normalize(back))
}

func TestNormalizeOutputOrderedAndUnique(t *testing.T) {
	raw := make([]RawPair, 0, 200)
	for i := 0; i < 200; i++ {
		raw = append(raw, RawPair{float64((i*37)%50 + 1), float64(i)})
	}

	got := Normalize(raw)

	require.Len(t, got, 50)
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1].Timestamp, got[i].Timestamp)
	}
}

func TestFromFloatPairs(t *testing.T) {
	got := FromFloatPairs([][]float64{{2000, 2}, {1000, 1}, {3000}})
	assert.Equal(t, models.Series{{Timestamp: 1000, Price: 1}, {Timestamp: 2000, Price: 2}}, got)
}

func TestLatest(t *testing.T) {
	assert.Nil(t, Latest(nil))

	s := models.Series{{Timestamp: 1, Price: 10}, {Timestamp: 2, Price: 20}}
	got := Latest(s)
	require.NotNil(t, got)
	assert.Equal(t, models.Sample{Timestamp: 2, Price: 20}, *got)
}

func TestMergeLaterSeriesWins(t *testing.T) {
	day := models.Series{{Timestamp: 3000, Price: 30}, {Timestamp: 4000, Price: 40}}
	week := models.Series{{Timestamp: 1000, Price: 10}, {Timestamp: 3000, Price: 31}}

	got := Merge(day, week)

	assert.Equal(t, models.Series{
		{Timestamp: 1000, Price: 10},
		{Timestamp: 3000, Price: 31},
		{Timestamp: 4000, Price: 40},
	}, got)
}

func TestMergeEmpty(t *testing.T) {
	assert.Empty(t, Merge())
	assert.Empty(t, Merge(nil, models.Series{}))
}
