package planner

import (
	"sort"
	"time"

	"github.com/smartcharge/core/internal/domain"
)

// farFuture stands in for +∞ in segment comparisons; null ChargeStart is
// treated as -∞, for which time.Time's zero value already serves.
var farFuture = time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)

func startOf(s domain.ChargePlanSegment) time.Time {
	if s.ChargeStart == nil {
		return time.Time{}
	}
	return *s.ChargeStart
}

func stopOf(s domain.ChargePlanSegment) time.Time {
	if s.ChargeStop == nil {
		return farFuture
	}
	return *s.ChargeStop
}

// CleanupPlan sorts, consolidates and shifts a candidate plan into an
// ordered, non-overlapping sequence with maximally compact contiguous runs
// of the same charge type. It is idempotent: CleanupPlan(CleanupPlan(p))
// equals CleanupPlan(p).
func CleanupPlan(segments []domain.ChargePlanSegment) []domain.ChargePlanSegment {
	if len(segments) == 0 {
		return nil
	}

	plan := sortPlan(segments)
	plan = consolidate(plan)
	plan, shifted := shift(plan)
	if shifted {
		plan = consolidate(plan)
	}
	return plan
}

func sortPlan(segments []domain.ChargePlanSegment) []domain.ChargePlanSegment {
	out := make([]domain.ChargePlanSegment, len(segments))
	copy(out, segments)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		as, bs := startOf(a), startOf(b)
		if !as.Equal(bs) {
			return as.Before(bs)
		}
		ae, be := stopOf(a), stopOf(b)
		if !ae.Equal(be) {
			return ae.After(be)
		}
		return a.ChargeType.Priority() < b.ChargeType.Priority()
	})
	return out
}

// consolidate walks adjacent pairs, merging, pushing forward, or truncating
// overlaps per §4.6. It repeats until a full pass makes no change, since a
// merge can expose a new overlap with the following segment.
func consolidate(plan []domain.ChargePlanSegment) []domain.ChargePlanSegment {
	for {
		next, changed := consolidatePass(plan)
		plan = next
		if !changed {
			return plan
		}
	}
}

func consolidatePass(plan []domain.ChargePlanSegment) ([]domain.ChargePlanSegment, bool) {
	if len(plan) < 2 {
		return plan, false
	}

	out := make([]domain.ChargePlanSegment, 0, len(plan))
	out = append(out, plan[0])
	changed := false

	for i := 1; i < len(plan); i++ {
		a := &out[len(out)-1]
		b := plan[i]

		if startOf(b).After(stopOf(*a)) {
			out = append(out, b)
			continue
		}

		switch {
		case a.ChargeType == b.ChargeType || !stopOf(b).After(stopOf(*a)):
			changed = true
			if stopOf(b).After(stopOf(*a)) {
				a.ChargeStop = b.ChargeStop
			}
			if b.Level > a.Level {
				a.Level = b.Level
			}
		case a.Level >= b.Level:
			start := stopOf(*a)
			if !startOf(b).Equal(start) {
				changed = true
			}
			b.ChargeStart = &start
			out = append(out, b)
		default:
			stop := startOf(b)
			if !stopOf(*a).Equal(stop) {
				changed = true
			}
			a.ChargeStop = &stop
			out = append(out, b)
		}
	}
	return out, changed
}

// shift moves a segment later, keeping its duration, so that its stop meets
// the next segment's start, closing small idle windows left behind by
// consolidate. A segment moves only when its duration plus the gap fits
// within one hour.
func shift(plan []domain.ChargePlanSegment) ([]domain.ChargePlanSegment, bool) {
	if len(plan) < 2 {
		return plan, false
	}

	out := make([]domain.ChargePlanSegment, len(plan))
	copy(out, plan)
	shifted := false

	for i := 0; i < len(out)-1; i++ {
		a := &out[i]
		b := out[i+1]

		aStop := stopOf(*a)
		aStart := startOf(*a)
		bStart := startOf(b)

		gapToB := bStart.Sub(aStop)
		selfSlack := aStart.Sub(aStop) + time.Hour
		shiftBy := gapToB
		if selfSlack < shiftBy {
			shiftBy = selfSlack
		}

		if shiftBy > 0 && aStop.Add(shiftBy).Compare(bStart) >= 0 {
			newStop := bStart
			newStart := aStart.Add(shiftBy)
			a.ChargeStop = &newStop
			a.ChargeStart = &newStart
			shifted = true
		}
	}
	return out, shifted
}
