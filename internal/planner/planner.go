// Package planner implements the Planner: for one vehicle it gathers
// emergency-charge need, routine prediction, optional preferred top-up,
// scheduled trip preparation and low-price fill, then reconciles the
// accumulated candidate segments into the vehicle's final charge plan.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartcharge/core/internal/adapter/queue"
	"github.com/smartcharge/core/internal/curve"
	"github.com/smartcharge/core/internal/domain"
	"github.com/smartcharge/core/internal/observability/telemetry"
	"github.com/smartcharge/core/internal/ports"
	"github.com/smartcharge/core/internal/stats"
)

const learningDisabledStatus = "Smart charging disabled (still learning)"

// actionsDispatchSubject is the queue subject provider adapters subscribe
// to in order to pick up Actions the core decides on. The core never
// subscribes to it itself.
const actionsDispatchSubject = "actions.dispatch"

type Planner struct {
	gw          ports.Gateway
	stats       *stats.Engine
	log         *zap.Logger
	actionQueue queue.MessageQueue
}

func New(gw ports.Gateway, statsEngine *stats.Engine, log *zap.Logger) *Planner {
	return &Planner{gw: gw, stats: statsEngine, log: log}
}

// SetActionQueue wires the Action channel's queue fanout. Left unset, the
// core still durably records every Action through the Gateway; wiring a
// queue here adds the provider-facing notification on top.
func (p *Planner) SetActionQueue(mq queue.MessageQueue) {
	p.actionQueue = mq
}

// RefreshVehicleChargePlan recomputes and persists the vehicle's charge
// plan. now is injected for deterministic testing.
func (p *Planner) RefreshVehicleChargePlan(ctx context.Context, vehicle *domain.Vehicle, now time.Time) error {
	start := time.Now()
	defer func() { telemetry.ReplanDuration.Observe(time.Since(start).Seconds()) }()

	if vehicle.LocationID == nil {
		vehicle.SmartStatus = ""
		return p.gw.SavePlan(ctx, vehicle.ID, vehicle.ChargePlan, vehicle.SmartStatus)
	}

	location, err := p.gw.GetLocation(ctx, *vehicle.LocationID)
	if err != nil {
		return fmt.Errorf("planner: load location: %w", err)
	}

	plan := seedInProgressPlan(vehicle)

	// 1. Calibration override.
	maxLevel, err := p.gw.MaxChargeCurveLevel(ctx, vehicle.ID, location.ID)
	if err != nil {
		return fmt.Errorf("planner: max curve level: %w", err)
	}
	if vehicle.Level < vehicle.MaximumCharge && maxLevel < 100 {
		vehicle.SmartStatus = "Calibrating charge curve"
		return p.persist(ctx, vehicle, []domain.ChargePlanSegment{calibrationSegment()})
	}

	// 2. Emergency minimum.
	if vehicle.Level < vehicle.MinimumCharge {
		d, err := curve.ChargeDuration(ctx, p.gw, vehicle.ID, location.ID, vehicle.Level, vehicle.MinimumCharge)
		if err != nil {
			return fmt.Errorf("planner: emergency duration: %w", err)
		}
		stop := now.Add(d)
		plan = append(plan, domain.ChargePlanSegment{
			ChargeStart: nil,
			ChargeStop:  &stop,
			Level:       vehicle.MinimumCharge,
			ChargeType:  domain.ChargeTypeMinimum,
			Comment:     "emergency charge",
		})
	}

	st, err := p.stats.CurrentStats(ctx, vehicle, location, now)
	if err != nil {
		return fmt.Errorf("planner: current stats: %w", err)
	}

	var before *time.Time
	var minimumLevel int
	learning := st.LevelChargeTime == 0

	// 3. Routine prediction.
	if !learning {
		chargeNeeded, predictedBefore, err := p.gw.RoutinePrediction(ctx, vehicle.ID, location.ID, now)
		if err != nil {
			return fmt.Errorf("planner: routine prediction: %w", err)
		}
		if chargeNeeded == nil || predictedBefore == nil {
			learning = true
		} else {
			b := *predictedBefore
			halfWindow := now.Add(12 * time.Hour)
			if b.Before(halfWindow) {
				b = b.Add(24 * time.Hour)
			}
			before = &b
			minimumLevel = clampInt(int(math.Round(float64(vehicle.MinimumCharge)+*chargeNeeded+5)), 0, vehicle.MaximumCharge)

			seg, err := p.generateChargePlan(ctx, vehicle, location, minimumLevel, domain.ChargeTypeRoutine, "routine charge", before, nil, now)
			if err != nil {
				return fmt.Errorf("planner: routine plan: %w", err)
			}
			plan = append(plan, seg...)
		}
	}

	if learning {
		vehicle.SmartStatus = learningDisabledStatus
		plan = append(plan, domain.ChargePlanSegment{
			Level:      vehicle.MaximumCharge,
			ChargeType: domain.ChargeTypeFill,
			Comment:    "learning",
		})
	} else if vehicle.AnxietyLevel >= 1 {
		// 4. Anxiety / preferred.
		target := (minimumLevel + vehicle.MaximumCharge) / 2
		if vehicle.AnxietyLevel > 1 {
			target = vehicle.MaximumCharge
		}
		seg, err := p.generateChargePlan(ctx, vehicle, location, target, domain.ChargeTypePrefered, "charge setting", before, nil, now)
		if err != nil {
			return fmt.Errorf("planner: preferred plan: %w", err)
		}
		plan = append(plan, seg...)
	}

	disconnectTime := before

	// 5. Scheduled trip.
	if vehicle.ScheduledTrip != nil {
		trip := vehicle.ScheduledTrip
		if !now.After(trip.Time.Add(time.Hour)) && !now.Before(trip.Time.Add(-36*time.Hour)) {
			departLevel := trip.Level
			prepareLevel := maxInt(vehicle.Level, minInt(departLevel, vehicle.MaximumCharge))

			var topupTime time.Duration
			if prepareLevel < departLevel {
				d, err := curve.ChargeDuration(ctx, p.gw, vehicle.ID, location.ID, prepareLevel, departLevel)
				if err != nil {
					return fmt.Errorf("planner: trip topup duration: %w", err)
				}
				topupTime = d
			}
			topupStart := trip.Time.Add(-15*time.Minute - topupTime)

			seg, err := p.generateChargePlan(ctx, vehicle, location, prepareLevel, domain.ChargeTypeTrip, "upcoming trip", &topupStart, nil, now)
			if err != nil {
				return fmt.Errorf("planner: trip prepare plan: %w", err)
			}
			plan = append(plan, seg...)

			if topupTime > 0 {
				plan = append(plan, domain.ChargePlanSegment{
					ChargeStart: &topupStart,
					ChargeStop:  nil,
					Level:       departLevel,
					ChargeType:  domain.ChargeTypeTrip,
					Comment:     "topping up before trip",
				})
			}

			if disconnectTime == nil || topupStart.After(*disconnectTime) {
				disconnectTime = &topupStart
			}
		}
		if now.After(trip.Time.Add(time.Hour)) {
			vehicle.ScheduledTrip = nil
		}
	}

	// 6. Low-price fill.
	average := st.WeeklyAvg7Price + (st.WeeklyAvg7Price-st.WeeklyAvg21Price)/2
	thresholdPrice := average * float64(st.Threshold) / 100
	seg, err := p.generateChargePlan(ctx, vehicle, location, vehicle.MaximumCharge, domain.ChargeTypeFill, "low price", disconnectTime, &thresholdPrice, now)
	if err != nil {
		return fmt.Errorf("planner: fill plan: %w", err)
	}
	plan = append(plan, seg...)

	return p.persist(ctx, vehicle, plan)
}

func (p *Planner) persist(ctx context.Context, vehicle *domain.Vehicle, plan []domain.ChargePlanSegment) error {
	final := CleanupPlan(plan)
	types := make([]string, 0, len(final))
	for _, s := range final {
		types = append(types, string(s.ChargeType))
	}
	telemetry.RecordPlanSegments(types)

	if err := p.gw.SavePlan(ctx, vehicle.ID, final, vehicle.SmartStatus); err != nil {
		return err
	}

	p.publishImmediateAction(ctx, vehicle, final)
	return nil
}

// publishImmediateAction emits an Action when the freshly persisted plan's
// first segment calls for charging to start right away (ChargeStart == nil).
// A provider adapter is the only thing that can actually flip the charger,
// so this is best effort: a failure here never fails the replan that
// produced the plan.
func (p *Planner) publishImmediateAction(ctx context.Context, vehicle *domain.Vehicle, final []domain.ChargePlanSegment) {
	if len(final) == 0 || final[0].ChargeStart != nil || vehicle.ConnectedID == nil {
		return
	}

	seg := final[0]
	data, err := json.Marshal(seg)
	if err != nil {
		p.log.Warn("failed to encode action data", zap.String("vehicleId", vehicle.ID), zap.Error(err))
		return
	}

	// ProviderName is left blank: which vendor adapter owns a given
	// connection is resolved outside the core (see Non-goals), so a
	// subscriber keys off TargetID and its own connection registry instead.
	action := domain.Action{
		ActionID: uuid.NewString(),
		TargetID: *vehicle.ConnectedID,
		Action:   "startCharge",
		Data:     data,
	}

	if err := p.gw.PublishAction(ctx, action); err != nil {
		p.log.Error("failed to persist action", zap.String("vehicleId", vehicle.ID), zap.Error(err))
		return
	}

	if p.actionQueue == nil {
		return
	}
	msg, err := json.Marshal(action)
	if err != nil {
		p.log.Warn("failed to encode action message", zap.String("vehicleId", vehicle.ID), zap.Error(err))
		return
	}
	if err := p.actionQueue.Publish(actionsDispatchSubject, msg); err != nil {
		p.log.Error("failed to publish action to queue", zap.String("vehicleId", vehicle.ID), zap.Error(err))
	}
}

func calibrationSegment() domain.ChargePlanSegment {
	return domain.ChargePlanSegment{
		Level:      100,
		ChargeType: domain.ChargeTypeCalibrate,
		Comment:    "Charge calibration",
	}
}

// seedInProgressPlan keeps only the existing segments that represent an
// in-progress "start now" emergency charge still below minimum+1, so a
// replan never abandons a charge already underway.
func seedInProgressPlan(vehicle *domain.Vehicle) []domain.ChargePlanSegment {
	var kept []domain.ChargePlanSegment
	for _, s := range vehicle.ChargePlan {
		if s.ChargeStart == nil && vehicle.Level < vehicle.MinimumCharge+1 {
			kept = append(kept, s)
		}
	}
	return kept
}

// generateChargePlan computes the segments needed to bring level up to
// targetLevel, preferring the cheapest available price points before the
// before deadline.
func (p *Planner) generateChargePlan(ctx context.Context, vehicle *domain.Vehicle, location *domain.Location, targetLevel int, chargeType domain.ChargeType, comment string, before *time.Time, maxPrice *float64, now time.Time) ([]domain.ChargePlanSegment, error) {
	timeNeeded, err := curve.ChargeDuration(ctx, p.gw, vehicle.ID, location.ID, vehicle.Level, targetLevel)
	if err != nil {
		return nil, fmt.Errorf("generateChargePlan: duration: %w", err)
	}
	if timeNeeded <= 0 {
		return nil, nil
	}

	deadline := before
	if deadline == nil {
		far := farFuture
		deadline = &far
	}

	points, err := p.gw.PricePointsInRangeByPrice(ctx, location.PriceCode, now.Add(-time.Hour), *deadline)
	if err != nil {
		return nil, fmt.Errorf("generateChargePlan: price points: %w", err)
	}
	if len(points) == 0 {
		stop := now.Add(timeNeeded)
		return []domain.ChargePlanSegment{{
			ChargeStart: nil,
			ChargeStop:  &stop,
			Level:       targetLevel,
			ChargeType:  domain.ChargeTypeRoutine,
			Comment:     comment,
		}}, nil
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Price < points[j].Price })

	var out []domain.ChargePlanSegment
	timeLeft := timeNeeded

	for _, point := range points {
		price := float64(point.Price) / 100000.0
		if maxPrice != nil && price > *maxPrice {
			break
		}

		tsStart := point.Ts
		if tsStart.Before(now) {
			tsStart = now
		}

		end := tsStart.Add(timeLeft)
		if end.After(*deadline) {
			end = *deadline
		}
		hourEnd := point.Ts.Add(time.Hour)
		if end.After(hourEnd) {
			end = hourEnd
		}

		start := point.Ts
		stop := end
		out = append(out, domain.ChargePlanSegment{
			ChargeStart: &start,
			ChargeStop:  &stop,
			Level:       targetLevel,
			ChargeType:  chargeType,
			Comment:     comment,
		})

		timeLeft -= end.Sub(tsStart)
		if timeLeft <= 0 {
			break
		}
	}

	return out, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
