// Package curve implements the Charge-Curve Learner: the per-vehicle,
// per-location table mapping battery percent to seconds required to gain
// that percent, learned from live charge sessions and queried by the
// Planner for duration estimates.
package curve

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/smartcharge/core/internal/domain"
	"github.com/smartcharge/core/internal/ports"
)

// DefaultLevelChargeSeconds is the fallback duration-per-percent used when no
// ChargeCurve row exists for a level, and the basis for §1's "learning"
// boundary scenario.
const DefaultLevelChargeSeconds = 100

// Learner maintains ChargeCurrent accumulators and persists ChargeCurve rows
// as whole percents are crossed during an active Charge.
type Learner struct {
	gw  ports.Gateway
	log *zap.Logger
}

func NewLearner(gw ports.Gateway, log *zap.Logger) *Learner {
	return &Learner{gw: gw, log: log}
}

// Sample is one telemetry observation during an active charge, already
// converted to storage units.
type Sample struct {
	Now             time.Time
	Level           int
	PowerW          int
	OutsideDeciTemp int
	AddedWm         int64
}

// Observe folds one sample into the ChargeCurrent accumulator for charge,
// persisting a ChargeCurve row and resetting the accumulator whenever the
// level crosses exactly one whole percent. It returns true if a replan
// should be triggered (a ChargeCurve row was written).
func (l *Learner) Observe(ctx context.Context, vehicleID, locationID string, cur *domain.ChargeCurrent, s Sample) (bool, error) {
	cur.PowersW = append(cur.PowersW, s.PowerW)
	cur.OutsideDeciTemps = append(cur.OutsideDeciTemps, s.OutsideDeciTemp)

	gain := s.Level - cur.StartLevel
	switch {
	case gain < 1:
		// no whole percent crossed yet; keep accumulating
		if err := l.gw.SaveChargeCurrent(ctx, cur); err != nil {
			return false, fmt.Errorf("curve: save accumulator: %w", err)
		}
		return false, nil
	case gain > 1:
		// offline gap or other discontinuity: discard and resync without persisting
		l.resetAccumulator(cur, s)
		if err := l.gw.SaveChargeCurrent(ctx, cur); err != nil {
			return false, fmt.Errorf("curve: save accumulator: %w", err)
		}
		return false, nil
	}

	// gain == 1: a clean whole-percent crossing.
	level := cur.StartLevel
	duration := int(s.Now.Sub(cur.StartTs).Seconds())
	avgPower := mean(cur.PowersW)
	avgTemp := mean(cur.OutsideDeciTemps)
	energyUsed := int64(avgPower*duration) / 60
	energyAdded := s.AddedWm - cur.StartAddedWm

	discard := !cur.FirstCrossingSeen
	l.resetAccumulator(cur, s)
	cur.FirstCrossingSeen = true
	if err := l.gw.SaveChargeCurrent(ctx, cur); err != nil {
		return false, fmt.Errorf("curve: save accumulator: %w", err)
	}

	if discard {
		// the first 1% crossing after a charge starts is integer-truncation
		// noise and is always discarded.
		return false, nil
	}

	row := domain.ChargeCurve{
		VehicleID:     vehicleID,
		LocationID:    locationID,
		Level:         level,
		DurationS:     duration,
		AvgDeciTemp:   int(avgTemp),
		EnergyUsedWm:  energyUsed,
		EnergyAddedWm: energyAdded,
	}
	if err := l.gw.SetChargeCurve(ctx, row); err != nil {
		return false, fmt.Errorf("curve: persist curve row: %w", err)
	}
	return true, nil
}

func (l *Learner) resetAccumulator(cur *domain.ChargeCurrent, s Sample) {
	cur.StartTs = s.Now
	cur.StartLevel = s.Level
	cur.StartAddedWm = s.AddedWm
	cur.PowersW = nil
	cur.OutsideDeciTemps = nil
}

// NewAccumulator builds the initial ChargeCurrent for a freshly opened
// Charge, with FirstCrossingSeen false so Observe discards the first 1%
// crossing it sees.
func NewAccumulator(chargeID string, now time.Time, startLevel int, startAdded int64) *domain.ChargeCurrent {
	return &domain.ChargeCurrent{
		ChargeID:     chargeID,
		StartTs:      now,
		StartLevel:   startLevel,
		StartAddedWm: startAdded,
	}
}

// ChargeDuration returns the estimated milliseconds to charge from level
// `from` to level `to`, summing the curve rows for levels `from` through
// `to-1` (each row being the time to gain one percent from that level) and
// shaving 25% off the final percent to avoid overshoot. Missing ChargeCurve
// rows fall back to DefaultLevelChargeSeconds.
func ChargeDuration(ctx context.Context, gw ports.Gateway, vehicleID, locationID string, from, to int) (time.Duration, error) {
	if to <= from {
		return 0, nil
	}
	rows, err := gw.GetChargeCurve(ctx, vehicleID, locationID)
	if err != nil {
		return 0, fmt.Errorf("curve: load curve: %w", err)
	}
	byLevel := make(map[int]int, len(rows))
	for _, r := range rows {
		byLevel[r.Level] = r.DurationS
	}

	totalMs := 0.0
	for lvl := from; lvl < to; lvl++ {
		secs, ok := byLevel[lvl]
		if !ok {
			secs = DefaultLevelChargeSeconds
		}
		factor := 1.0
		if lvl == to-1 {
			factor = 0.75
		}
		totalMs += float64(secs) * factor * 1000
	}
	return time.Duration(totalMs) * time.Millisecond, nil
}

func mean(xs []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0
	for _, x := range xs {
		sum += x
	}
	return float64(sum) / float64(len(xs))
}
