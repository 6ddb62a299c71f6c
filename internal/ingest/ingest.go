// Package ingest implements the Telemetry Ingestor: it consumes one
// VehicleData sample at a time, drives the Connection/Charge/Trip state
// machines, feeds the Charge-Curve Learner, maintains the hourly event map,
// and decides when the result crosses a boundary significant enough to
// trigger a replan.
package ingest

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartcharge/core/internal/curve"
	"github.com/smartcharge/core/internal/domain"
	"github.com/smartcharge/core/internal/ports"
	"github.com/smartcharge/core/internal/stats"
)

// Replanner is the narrow slice of the Orchestrator the ingestor needs: a
// single entry point to request a vehicle's plan be recomputed. Kept as an
// interface here so ingest never imports orchestrator.
type Replanner interface {
	Refresh(ctx context.Context, vehicleID string) error
}

type Ingestor struct {
	gw        ports.Gateway
	curve     *curve.Learner
	stats     *stats.Engine
	replanner Replanner
	log       *zap.Logger
}

func NewIngestor(gw ports.Gateway, learner *curve.Learner, statsEngine *stats.Engine, replanner Replanner, log *zap.Logger) *Ingestor {
	return &Ingestor{gw: gw, curve: learner, stats: statsEngine, replanner: replanner, log: log}
}

// Update applies one telemetry sample. now is injected so the same sample
// replayed with the same now is idempotent.
func (in *Ingestor) Update(ctx context.Context, input domain.UpdateVehicleDataInput, now time.Time) error {
	vehicle, err := in.gw.GetVehicle(ctx, input.ID)
	if err != nil {
		return fmt.Errorf("ingest: load vehicle: %w", err)
	}
	if vehicle == nil {
		return domain.NewError(domain.KindNotFound, "ingest.Update", domain.ErrVehicleNotFound)
	}

	prevUpdated := vehicle.Updated
	previousLocationID := vehicle.LocationID
	prevOdometerM := vehicle.OdometerM

	geo := domain.Geo{
		LatMicro: int64(math.Round(input.LatDeg * 1e6)),
		LonMicro: int64(math.Round(input.LonDeg * 1e6)),
	}
	currentLocation, err := in.gw.LookupKnownLocation(ctx, vehicle.AccountID, geo)
	if err != nil {
		return fmt.Errorf("ingest: lookup known location: %w", err)
	}
	var currentLocationID *string
	if currentLocation != nil {
		id := currentLocation.ID
		currentLocationID = &id
	}

	vehicle.LocationID = currentLocationID
	vehicle.Level = input.BatteryLevel
	vehicle.OdometerM = input.OdometerM
	vehicle.OutsideDeciTemp = int(math.Round(input.OutsideTemperatureC * 10))
	vehicle.InsideDeciTemp = int(math.Round(input.InsideTemperatureC * 10))
	vehicle.ClimateOn = input.ClimateControl
	vehicle.Driving = input.IsDriving
	reportedConnected := input.ConnectedCharger != domain.ConnectedChargerNone
	vehicle.Connected = reportedConnected
	vehicle.Updated = now

	doReplan := false

	if reportedConnected || vehicle.ConnectedID != nil {
		replanFromConnection, err := in.updateConnection(ctx, vehicle, currentLocation, input, now)
		if err != nil {
			return fmt.Errorf("ingest: connection sm: %w", err)
		}
		doReplan = doReplan || replanFromConnection
	}

	samePrevLoc := (previousLocationID == nil) == (currentLocationID == nil) &&
		(previousLocationID == nil || *previousLocationID == *currentLocationID)
	if !samePrevLoc || vehicle.Driving || vehicle.TripID != nil {
		replanFromTrip, err := in.updateTrip(ctx, vehicle, previousLocationID, currentLocationID, input, now)
		if err != nil {
			return fmt.Errorf("ingest: trip sm: %w", err)
		}
		doReplan = doReplan || replanFromTrip
	}

	if err := in.updateEventMap(ctx, vehicle, prevUpdated, prevOdometerM, now); err != nil {
		return fmt.Errorf("ingest: event map: %w", err)
	}

	if err := in.gw.SaveVehicle(ctx, vehicle); err != nil {
		return fmt.Errorf("ingest: save vehicle: %w", err)
	}

	if doReplan {
		if err := in.replanner.Refresh(ctx, vehicle.ID); err != nil {
			in.log.Error("replan after ingest failed", zap.String("vehicleId", vehicle.ID), zap.Error(err))
			return fmt.Errorf("ingest: replan: %w", err)
		}
	}
	return nil
}

// updateConnection drives the Connection and nested Charge state machines
// for one sample and returns whether the result warrants a replan.
func (in *Ingestor) updateConnection(ctx context.Context, vehicle *domain.Vehicle, location *domain.Location, input domain.UpdateVehicleDataInput, now time.Time) (bool, error) {
	doReplan := false
	reportedConnected := input.ConnectedCharger != domain.ConnectedChargerNone

	conn, err := in.gw.GetOpenConnection(ctx, vehicle.ID)
	if err != nil {
		return false, fmt.Errorf("load open connection: %w", err)
	}
	if conn == nil {
		locationID := ""
		if location != nil {
			locationID = location.ID
		}
		connType := domain.ConnectionTypeAC
		if input.ConnectedCharger == domain.ConnectedChargerDC {
			connType = domain.ConnectionTypeDC
		}
		conn = &domain.Connection{
			ConnectedID: uuid.NewString(),
			VehicleID:   vehicle.ID,
			LocationID:  locationID,
			Type:        connType,
			StartTs:     now,
			StartLevel:  vehicle.Level,
			Connected:   true,
		}
		vehicle.ConnectedID = &conn.ConnectedID
		doReplan = true
	}

	if input.ChargingTo != nil || vehicle.ChargeID != nil {
		if err := in.updateCharge(ctx, vehicle, conn, input, now, &doReplan); err != nil {
			return false, fmt.Errorf("charge sm: %w", err)
		}
	}

	conn.EndTs = now
	conn.EndLevel = vehicle.Level
	conn.Connected = reportedConnected

	if err := in.gw.SaveConnection(ctx, conn); err != nil {
		return false, fmt.Errorf("save connection: %w", err)
	}

	if !reportedConnected {
		vehicle.ConnectedID = nil
		vehicle.ChargePlan = nil
		vehicle.ChargePlanJSON = nil
		doReplan = true

		connLocation := location
		if connLocation == nil && conn.LocationID != "" {
			l, err := in.gw.GetLocation(ctx, conn.LocationID)
			if err != nil {
				return false, fmt.Errorf("load connection location: %w", err)
			}
			connLocation = l
		}
		if connLocation != nil {
			if _, err := in.stats.CreateNewStats(ctx, vehicle, connLocation, now); err != nil {
				return false, fmt.Errorf("create new stats on disconnect: %w", err)
			}
		}
	}

	return doReplan, nil
}

// updateCharge opens or advances a Charge nested inside conn, running the
// charge-curve learner on every sample and computing the price-now /
// price-then cost delta.
func (in *Ingestor) updateCharge(ctx context.Context, vehicle *domain.Vehicle, conn *domain.Connection, input domain.UpdateVehicleDataInput, now time.Time, doReplan *bool) error {
	if input.ChargingTo == nil {
		// charging_to went null but charge_id was still set: terminate.
		if err := in.gw.DeleteChargeCurrent(ctx, *vehicle.ChargeID); err != nil {
			return fmt.Errorf("delete charge current: %w", err)
		}
		vehicle.ChargeID = nil
		return nil
	}

	var ch *domain.Charge
	var err error
	if vehicle.ChargeID != nil {
		ch, err = in.gw.GetOpenCharge(ctx, conn.ConnectedID)
		if err != nil {
			return fmt.Errorf("load open charge: %w", err)
		}
	}

	addedNow := energyAddedWm(input)
	powerW := 0
	if input.PowerUseKW != nil {
		powerW = int(math.Round(*input.PowerUseKW * 1000))
	}

	if ch == nil {
		ch = &domain.Charge{
			ChargeID:     uuid.NewString(),
			ConnectedID:  conn.ConnectedID,
			VehicleID:    vehicle.ID,
			LocationID:   conn.LocationID,
			Type:         conn.Type,
			StartTs:      now,
			StartLevel:   vehicle.Level,
			StartAddedWm: addedNow,
			TargetLevel:  *input.ChargingTo,
		}
		vehicle.ChargeID = &ch.ChargeID
		if err := in.gw.SaveChargeCurrent(ctx, curve.NewAccumulator(ch.ChargeID, now, ch.StartLevel, ch.StartAddedWm)); err != nil {
			return fmt.Errorf("seed charge current: %w", err)
		}
	}

	deltaTimeS := now.Sub(ch.EndTs).Seconds()
	if ch.EndTs.IsZero() {
		deltaTimeS = 0
	}
	deltaUsedWm := int64(0)
	if deltaTimeS > 0 {
		deltaUsedWm = int64(math.Max(0, float64(powerW)*deltaTimeS) / 60)
	}
	conn.EnergyUsedWm += deltaUsedWm

	if deltaUsedWm > 0 && conn.LocationID != "" {
		costDelta, savedDelta, err := in.priceNowPriceThen(ctx, conn, deltaUsedWm, now)
		if err != nil {
			in.log.Warn("price now/then lookup failed, skipping cost delta", zap.Error(err))
		} else {
			conn.Cost += costDelta
			conn.Saved += savedDelta
		}
	}

	ch.EndTs = now
	ch.EndLevel = vehicle.Level
	ch.EndAddedWm = addedNow
	ch.TargetLevel = *input.ChargingTo
	if input.EstimatedTimeLeftMin != nil {
		ch.EstimateMin = *input.EstimatedTimeLeftMin
	}
	ch.EnergyUsedWm += deltaUsedWm
	if err := in.gw.SaveCharge(ctx, ch); err != nil {
		return fmt.Errorf("save charge: %w", err)
	}

	cur, err := in.gw.GetChargeCurrent(ctx, ch.ChargeID)
	if err != nil {
		return fmt.Errorf("load charge current: %w", err)
	}
	if cur == nil {
		cur = curve.NewAccumulator(ch.ChargeID, now, ch.StartLevel, ch.StartAddedWm)
	}

	replan, err := in.curve.Observe(ctx, vehicle.ID, conn.LocationID, cur, curve.Sample{
		Now:             now,
		Level:           vehicle.Level,
		PowerW:          powerW,
		OutsideDeciTemp: vehicle.OutsideDeciTemp,
		AddedWm:         addedNow,
	})
	if err != nil {
		return fmt.Errorf("curve learner: %w", err)
	}
	*doReplan = *doReplan || replan
	return nil
}

// priceNowPriceThen computes the incremental cost and savings of adding
// deltaUsedWm of energy, comparing the price in effect now against the price
// that would have applied had charging instead happened at the start of the
// connection.
func (in *Ingestor) priceNowPriceThen(ctx context.Context, conn *domain.Connection, deltaUsedWm int64, now time.Time) (cost, saved int64, err error) {
	location, err := in.gw.GetLocation(ctx, conn.LocationID)
	if err != nil {
		return 0, 0, fmt.Errorf("load location: %w", err)
	}

	priceNow, okNow, err := in.gw.PriceAt(ctx, location.PriceCode, now)
	if err != nil {
		return 0, 0, fmt.Errorf("price now: %w", err)
	}
	if !okNow {
		return 0, 0, nil
	}

	priceThen, okThen, err := in.gw.PriceAt(ctx, location.PriceCode, conn.StartTs)
	if err != nil {
		return 0, 0, fmt.Errorf("price then: %w", err)
	}
	if !okThen {
		priceThen = priceNow
	}

	energyKwh := float64(deltaUsedWm) / 60000.0
	cost = int64(math.Round(energyKwh * float64(priceNow)))
	costAtStart := int64(math.Round(energyKwh * float64(priceThen)))
	saved = costAtStart - cost
	return cost, saved, nil
}

func energyAddedWm(input domain.UpdateVehicleDataInput) int64 {
	if input.EnergyAddedKWh == nil {
		return 0
	}
	return int64(math.Round(*input.EnergyAddedKWh * 60000))
}

// updateTrip drives the Trip state machine: open on movement or location
// change, close on arrival at a known location while not driving, discarding
// anything under domain.MinTripDistanceM.
func (in *Ingestor) updateTrip(ctx context.Context, vehicle *domain.Vehicle, previousLocationID, currentLocationID *string, input domain.UpdateVehicleDataInput, now time.Time) (bool, error) {
	trip, err := in.gw.GetOpenTrip(ctx, vehicle.ID)
	if err != nil {
		return false, fmt.Errorf("load open trip: %w", err)
	}
	if trip == nil {
		trip = &domain.Trip{
			TripID:               uuid.NewString(),
			VehicleID:            vehicle.ID,
			StartTs:              now,
			StartLevel:           vehicle.Level,
			StartLocationID:      previousLocationID,
			StartOdometerM:       vehicle.OdometerM,
			StartOutsideDeciTemp: vehicle.OutsideDeciTemp,
		}
		vehicle.TripID = &trip.TripID
	}

	trip.DistanceM = vehicle.OdometerM - trip.StartOdometerM
	if trip.DistanceM < 0 {
		trip.DistanceM = 0
	}

	if vehicle.Driving {
		if err := in.gw.SaveTrip(ctx, trip); err != nil {
			return false, fmt.Errorf("save trip: %w", err)
		}
		return false, nil
	}

	doReplan := false
	if currentLocationID != nil || vehicle.Connected {
		trip.EndTs = now
		trip.EndLevel = vehicle.Level
		trip.EndLocationID = currentLocationID
		vehicle.TripID = nil
		doReplan = true

		if trip.DistanceM < domain.MinTripDistanceM {
			if err := in.gw.DeleteTrip(ctx, trip.TripID); err != nil {
				return false, fmt.Errorf("delete short trip: %w", err)
			}
			return doReplan, nil
		}
		if err := in.gw.SaveTrip(ctx, trip); err != nil {
			return false, fmt.Errorf("save trip: %w", err)
		}
		return doReplan, nil
	}

	if err := in.gw.SaveTrip(ctx, trip); err != nil {
		return false, fmt.Errorf("save trip: %w", err)
	}
	return false, nil
}

// updateEventMap folds this sample's activity into the hourly bucket
// covering now, discarding samples whose gap since the last one is outside
// the sanity window (stale replay, clock jump, or first-ever sample).
func (in *Ingestor) updateEventMap(ctx context.Context, vehicle *domain.Vehicle, prevUpdated time.Time, prevOdometerM int64, now time.Time) error {
	if prevUpdated.IsZero() {
		return nil
	}
	deltaTime := now.Sub(prevUpdated)
	if deltaTime <= 0 || deltaTime >= 3*time.Hour {
		return nil
	}

	hour := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location())
	delta := domain.EventMap{
		VehicleID:    vehicle.ID,
		Hour:         hour,
		MinimumLevel: vehicle.Level,
		MaximumLevel: vehicle.Level,
	}
	if vehicle.Driving {
		delta.DrivenSeconds = int64(deltaTime.Seconds())
		if d := vehicle.OdometerM - prevOdometerM; d > 0 {
			delta.DrivenMeters = d
		}
	}
	if vehicle.ChargeID != nil {
		delta.ChargedSeconds = int64(deltaTime.Seconds())
	}

	if err := in.gw.UpsertEventMapHour(ctx, vehicle.ID, delta); err != nil {
		return fmt.Errorf("upsert event map hour: %w", err)
	}
	return nil
}
