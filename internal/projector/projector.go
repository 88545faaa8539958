// Package projector turns cycle results into a render-ready DisplayView.
package projector

import (
	"fmt"
	"math"
	"strings"
	"time"

	"GoldPulse/internal/change"
	"GoldPulse/internal/domain/models"
)

const (
	TextNoData      = "No data"
	TextFetchFailed = "Fetch failed"
	TimeLayout      = "2006-01-02 15:04:05"
	DefaultMaxPoint = 240
)

var unitAbbrev = map[string]string{
	"grams":  "g",
	"ounces": "oz",
	"kilos":  "kg",
}

// Input is everything one cycle produced.
type Input struct {
	Sequence    uint64
	GeneratedAt time.Time
	Currency    string
	Unit        string
	Latest      *models.Sample
	Periods     []models.Period
	Changes     map[models.Period]*models.ChangeResult
	Status      models.DisplayStatus
	Series      models.Series
	Outcome     models.FetchOutcome
	Stale       bool
}

// Projector holds viewer settings only.
type Projector struct {
	loc       *time.Location
	maxPoints int
}

func New(loc *time.Location, maxPoints int) *Projector {
	if loc == nil {
		loc = time.Local
	}
	if maxPoints < 2 {
		maxPoints = DefaultMaxPoint
	}
	return &Projector{loc: loc, maxPoints: maxPoints}
}

// Project maps cycle results to a DisplayView. It has no side effects.
func (p *Projector) Project(in Input) models.DisplayView {
	v := models.DisplayView{
		Sequence:    in.Sequence,
		GeneratedAt: in.GeneratedAt,
		Currency:    strings.ToUpper(in.Currency),
		Unit:        in.Unit,
		Status:      in.Status,
		Outcome:     in.Outcome,
		StaleData:   in.Stale,
		Chart:       ProjectChart(in.Series, p.maxPoints),
		Changes:     make([]models.PeriodChangeView, 0, len(in.Periods)),
		TimeText:    change.NoData,
	}

	switch {
	case in.Latest != nil:
		v.HasPrice = true
		v.Price = in.Latest.Price
		v.Timestamp = in.Latest.Timestamp
		v.PriceText = FormatPrice(in.Latest.Price, in.Currency, in.Unit)
		v.TimeText = in.Latest.Time().In(p.loc).Format(TimeLayout)
	case in.Outcome == models.OutcomeError:
		v.PriceText = TextFetchFailed
	default:
		v.PriceText = TextNoData
	}

	for _, period := range in.Periods {
		r := in.Changes[period]
		v.Changes = append(v.Changes, models.PeriodChangeView{
			Period:      period,
			ValueText:   change.FormatValue(r),
			PercentText: change.FormatPercent(r),
			Direction:   change.Direction(r),
		})
	}
	return v
}

// FormatPrice renders e.g. "612.53 CNY/g".
func FormatPrice(price float64, currency, unit string) string {
	u, ok := unitAbbrev[strings.ToLower(unit)]
	if !ok {
		u = unit
	}
	return fmt.Sprintf("%.2f %s/%s", price, strings.ToUpper(currency), u)
}

// ProjectChart keeps the most recent maxPoints valid samples and computes axis bounds.
// A flat axis gets a nominal range of 1.
func ProjectChart(s models.Series, maxPoints int) models.ChartProjection {
	points := make([]models.ChartPoint, 0, min(len(s), max(maxPoints, 0)))
	for i := len(s) - 1; i >= 0 && len(points) < maxPoints; i-- {
		smp := s[i]
		if smp.Timestamp <= 0 || math.IsNaN(smp.Price) || math.IsInf(smp.Price, 0) {
			continue
		}
		points = append(points, models.ChartPoint{Timestamp: smp.Timestamp, Price: smp.Price})
	}
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}

	cp := models.ChartProjection{Points: points, PriceRange: 1, TimeRange: 1}
	if len(points) == 0 {
		return cp
	}
	cp.MinPrice, cp.MaxPrice = points[0].Price, points[0].Price
	cp.MinTime, cp.MaxTime = points[0].Timestamp, points[0].Timestamp
	for _, pt := range points[1:] {
		cp.MinPrice = math.Min(cp.MinPrice, pt.Price)
		cp.MaxPrice = math.Max(cp.MaxPrice, pt.Price)
		if pt.Timestamp < cp.MinTime {
			cp.MinTime = pt.Timestamp
		}
		if pt.Timestamp > cp.MaxTime {
			cp.MaxTime = pt.Timestamp
		}
	}
	if cp.MaxPrice > cp.MinPrice {
		cp.PriceRange = cp.MaxPrice - cp.MinPrice
	}
	if cp.MaxTime > cp.MinTime {
		cp.TimeRange = float64(cp.MaxTime - cp.MinTime)
	}
	return cp
}
