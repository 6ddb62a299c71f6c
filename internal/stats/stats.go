// Package stats implements the Statistics Engine: on demand for a
// (vehicle, location) pair it builds a history map of past connections
// annotated with hourly price fractions, simulates charge strategies across
// candidate price thresholds, and selects the threshold minimizing the
// realized cost-per-energy ratio.
package stats

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/smartcharge/core/internal/domain"
	"github.com/smartcharge/core/internal/observability/telemetry"
	"github.com/smartcharge/core/internal/ports"
)

const (
	historyWindow   = 21 * 24 * time.Hour
	priceLookback   = 7 * 24 * time.Hour
	price3WeekBack  = 21 * 24 * time.Hour
	dailyAvgWindow  = 7 * 24 * time.Hour
	defaultThreshold = 100
)

type Engine struct {
	gw  ports.Gateway
	log *zap.Logger
}

func NewEngine(gw ports.Gateway, log *zap.Logger) *Engine {
	return &Engine{gw: gw, log: log}
}

// CurrentStats returns the freshest CurrentStats row for (vehicle, location)
// if it is not stale relative to the latest price point, otherwise
// re-derives it via CreateNewStats.
func (e *Engine) CurrentStats(ctx context.Context, vehicle *domain.Vehicle, location *domain.Location, now time.Time) (*domain.CurrentStats, error) {
	latestTs, err := e.gw.LatestPriceTs(ctx, location.PriceCode)
	if err != nil {
		return nil, fmt.Errorf("stats: latest price ts: %w", err)
	}

	existing, err := e.gw.GetCurrentStats(ctx, vehicle.ID, location.ID)
	if err != nil {
		return nil, fmt.Errorf("stats: load current stats: %w", err)
	}
	if existing != nil && !existing.Stale(latestTs) {
		telemetry.RecordStatsCacheAccess("hit")
		return existing, nil
	}
	telemetry.RecordStatsCacheAccess("miss")
	return e.CreateNewStats(ctx, vehicle, location, now)
}

// historyHour is one hourly slice of a connection's overlap with the
// history window, annotated with the price and threshold in effect.
type historyHour struct {
	hour      time.Time
	fraction  float64
	price     float64
	threshold float64
}

// historyConnection is one closed connection folded into the history map.
type historyConnection struct {
	connectedID string
	startLevel  int
	endLevel    int
	needed      int
	offsite     bool
	hours       []historyHour
}

// CreateNewStats re-derives CurrentStats from scratch: the median
// charge-curve duration, 7/21-day price averages, the history map of past
// connections, and a threshold sweep that picks the cost-minimizing
// candidate.
func (e *Engine) CreateNewStats(ctx context.Context, vehicle *domain.Vehicle, location *domain.Location, now time.Time) (*domain.CurrentStats, error) {
	start := time.Now()
	defer func() {
		telemetry.StatsSimulationDuration.Observe(time.Since(start).Seconds())
	}()

	levelChargeTime, hasCurve, err := e.gw.MedianLevelChargeTime(ctx, vehicle.ID, location.ID)
	if err != nil {
		return nil, fmt.Errorf("stats: median level charge time: %w", err)
	}
	if !hasCurve {
		levelChargeTime = 0
	}

	avg7, err := e.gw.AveragePrice(ctx, location.PriceCode, now.Add(-priceLookback))
	if err != nil {
		return nil, fmt.Errorf("stats: avg7 price: %w", err)
	}
	avg21, err := e.gw.AveragePrice(ctx, location.PriceCode, now.Add(-price3WeekBack))
	if err != nil {
		return nil, fmt.Errorf("stats: avg21 price: %w", err)
	}
	latestTs, err := e.gw.LatestPriceTs(ctx, location.PriceCode)
	if err != nil {
		return nil, fmt.Errorf("stats: latest price ts: %w", err)
	}

	// Fetch a window wide enough to cover both the 3-week history and the
	// trailing 7-day average for its earliest day.
	points, err := e.gw.PricePointsSince(ctx, location.PriceCode, now.Add(-historyWindow-dailyAvgWindow))
	if err != nil {
		return nil, fmt.Errorf("stats: price points: %w", err)
	}

	result := &domain.CurrentStats{
		StatsID:          fmt.Sprintf("%s:%s", vehicle.ID, location.ID),
		VehicleID:        vehicle.ID,
		LocationID:       location.ID,
		PriceListTs:      latestTs,
		LevelChargeTime:  levelChargeTime,
		WeeklyAvg7Price:  avg7,
		WeeklyAvg21Price: avg21,
		Threshold:        defaultThreshold,
	}

	if len(points) == 0 {
		if err := e.gw.SaveCurrentStats(ctx, result); err != nil {
			return nil, fmt.Errorf("stats: persist current stats: %w", err)
		}
		return result, nil
	}

	earliestPriceTs := points[0].Ts
	for _, p := range points {
		if p.Ts.Before(earliestPriceTs) {
			earliestPriceTs = p.Ts
		}
	}

	since := now.Add(-historyWindow)
	if earliestPriceTs.After(since) {
		since = earliestPriceTs
	}

	connections, err := e.gw.ClosedConnectionsSince(ctx, vehicle.ID, since)
	if err != nil {
		return nil, fmt.Errorf("stats: closed connections: %w", err)
	}
	sort.Slice(connections, func(i, j int) bool { return connections[i].StartTs.Before(connections[j].StartTs) })

	priceByHour := indexPriceByHour(points)
	history := buildHistoryMap(connections, location.ID, priceByHour, avg7, avg21, points)

	if len(history) == 0 {
		if err := e.gw.SaveCurrentStats(ctx, result); err != nil {
			return nil, fmt.Errorf("stats: persist current stats: %w", err)
		}
		return result, nil
	}

	thresholds := distinctThresholds(history)
	levelChargeSeconds := levelChargeTime
	if levelChargeSeconds == 0 {
		levelChargeSeconds = 100
	}

	bestT, ok := simulateBest(history, thresholds, vehicle.MinimumCharge, vehicle.MaximumCharge, levelChargeSeconds)
	if ok {
		result.Threshold = int(math.Round(bestT * 100))
	}

	if err := e.gw.SaveCurrentStats(ctx, result); err != nil {
		return nil, fmt.Errorf("stats: persist current stats: %w", err)
	}
	return result, nil
}

func indexPriceByHour(points []domain.PricePoint) map[time.Time]float64 {
	m := make(map[time.Time]float64, len(points))
	for _, p := range points {
		m[truncHour(p.Ts)] = float64(p.Price) / 100000.0
	}
	return m
}

func truncHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

func truncDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// dailyAvg7 computes the trailing-7-day mean price ending on the day of t,
// from the full fetched price point set.
func dailyAvg7(t time.Time, points []domain.PricePoint) float64 {
	day := truncDay(t)
	windowStart := day.Add(-6 * 24 * time.Hour)
	sum, n := 0.0, 0
	for _, p := range points {
		d := truncDay(p.Ts)
		if !d.Before(windowStart) && !d.After(day) {
			sum += float64(p.Price) / 100000.0
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// buildHistoryMap folds closed connections into per-connection hourly rows,
// computing each connection's needed (energy spent before the next
// plug-in) from the following connection's start level.
func buildHistoryMap(connections []domain.Connection, targetLocationID string, priceByHour map[time.Time]float64, avg7, avg21 float64, points []domain.PricePoint) []historyConnection {
	out := make([]historyConnection, 0, len(connections))
	bias := (avg7 - avg21) / 2

	for i, c := range connections {
		needed := 0
		if i+1 < len(connections) {
			needed = c.EndLevel - connections[i+1].StartLevel
			if needed < 0 {
				needed = 0
			}
		}

		hc := historyConnection{
			connectedID: c.ConnectedID,
			startLevel:  c.StartLevel,
			endLevel:    c.EndLevel,
			needed:      needed,
			offsite:     c.LocationID != targetLocationID,
		}

		if !hc.offsite {
			hc.hours = connectionHours(c, priceByHour, avg7, bias, points)
		}
		out = append(out, hc)
	}
	return out
}

func connectionHours(c domain.Connection, priceByHour map[time.Time]float64, avg7, bias float64, points []domain.PricePoint) []historyHour {
	if !c.EndTs.After(c.StartTs) {
		return nil
	}

	var hours []historyHour
	cursor := truncHour(c.StartTs)
	end := c.EndTs

	for !cursor.After(end) {
		hourEnd := cursor.Add(time.Hour)
		overlapStart := cursor
		if c.StartTs.After(overlapStart) {
			overlapStart = c.StartTs
		}
		overlapEnd := hourEnd
		if end.Before(overlapEnd) {
			overlapEnd = end
		}
		fraction := overlapEnd.Sub(overlapStart).Seconds() / 3600.0
		if fraction > 0 {
			price := priceByHour[cursor]
			denom := dailyAvg7(cursor, points) + bias
			threshold := 0.0
			if denom != 0 {
				threshold = price / denom
			}
			hours = append(hours, historyHour{
				hour:      cursor,
				fraction:  math.Min(fraction, 1.0),
				price:     price,
				threshold: threshold,
			})
		}
		cursor = hourEnd
	}
	return hours
}

func distinctThresholds(history []historyConnection) []float64 {
	seen := make(map[float64]struct{})
	var out []float64
	for _, hc := range history {
		for _, h := range hc.hours {
			if _, ok := seen[h.threshold]; !ok {
				seen[h.threshold] = struct{}{}
				out = append(out, h.threshold)
			}
		}
	}
	sort.Float64s(out)
	return out
}

// simulateBest walks the history map once per candidate threshold and
// returns the threshold minimizing cost-per-energy, per §4.4 step 4.
func simulateBest(history []historyConnection, thresholds []float64, minimum, maximum, levelChargeSeconds int) (float64, bool) {
	bestF := math.Inf(1)
	bestT := 0.0
	found := false

	for _, t := range thresholds {
		f, ok := simulateOne(history, t, minimum, maximum, levelChargeSeconds)
		if !ok {
			continue
		}
		if f < bestF {
			bestF = f
			bestT = t
			found = true
		}
	}
	return bestT, found
}

func simulateOne(history []historyConnection, t float64, minimum, maximum, levelChargeSeconds int) (float64, bool) {
	lvl := 0
	totalCharged, totalCost := 0.0, 0.0
	first := true

	for i, hc := range history {
		if first || history[i-1].offsite {
			lvl = hc.startLevel
		} else {
			lvl -= history[i-1].needed
			if lvl < minimum/2 {
				return 0, false
			}
		}
		first = false

		if hc.offsite {
			continue
		}

		neededLevel := clamp(minimum+int(math.Round(float64(hc.needed)*1.1)), minimum, maximum)

		hours := append([]historyHour(nil), hc.hours...)
		idx := 0
		// emergency phase: charge in time-order until lvl reaches minimum
		for idx < len(hours) && lvl < minimum {
			charged, cost := chargeHourTo(hours[idx], &lvl, maximum, levelChargeSeconds)
			totalCharged += charged
			totalCost += cost
			idx++
		}

		// smart mode: remaining hours sorted by threshold ascending
		remaining := append([]historyHour(nil), hours[idx:]...)
		sort.Slice(remaining, func(i, j int) bool { return remaining[i].threshold < remaining[j].threshold })

		for _, h := range remaining {
			target := 0
			switch {
			case h.threshold <= t:
				target = maximum
			case lvl < neededLevel:
				target = neededLevel
			default:
				continue
			}
			charged, cost := chargeHourTo(h, &lvl, target, levelChargeSeconds)
			totalCharged += charged
			totalCost += cost
		}
	}

	if lvl <= minimum || totalCharged == 0 {
		return 0, false
	}
	return totalCost / totalCharged, true
}

// chargeHourTo charges toward target, capped by the hour's available
// seconds (3600*fraction) and by the per-percent duration budget.
func chargeHourTo(h historyHour, lvl *int, target, levelChargeSeconds int) (charged, cost float64) {
	if target <= *lvl {
		return 0, 0
	}
	availableSeconds := 3600 * h.fraction
	maxPercents := availableSeconds / float64(levelChargeSeconds)
	wantPercents := float64(target - *lvl)
	gained := math.Min(maxPercents, wantPercents)
	if gained <= 0 {
		return 0, 0
	}
	chargeTimeSeconds := gained * float64(levelChargeSeconds)
	*lvl += int(math.Round(gained))
	cost = (chargeTimeSeconds / 3600.0) * h.price
	return gained, cost
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
