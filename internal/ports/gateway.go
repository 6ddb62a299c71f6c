package ports

import (
	"context"
	"time"

	"github.com/smartcharge/core/internal/domain"
)

// Gateway is the Persistence Gateway: typed access to the relational store.
// Every method surfaces a *domain.Error on failure; implementations never
// swallow a persistence error. Transient failures are retried internally by
// the implementation (circuit-breaker + backoff) before they ever reach here.
type Gateway interface {
	GetVehicle(ctx context.Context, vehicleID string) (*domain.Vehicle, error)
	SaveVehicle(ctx context.Context, v *domain.Vehicle) error
	ListVehiclesByAccount(ctx context.Context, accountID string) ([]*domain.Vehicle, error)
	// VehiclesByPriceCode returns every vehicle currently parked at a
	// location billed under priceCode, for price-feed-triggered replans.
	VehiclesByPriceCode(ctx context.Context, priceCode string) ([]*domain.Vehicle, error)

	GetLocation(ctx context.Context, locationID string) (*domain.Location, error)
	GetLocations(ctx context.Context, accountID string) ([]*domain.Location, error)
	// LookupKnownLocation returns the smallest-radius location enclosing the
	// given point, or (nil, nil) if none encloses it.
	LookupKnownLocation(ctx context.Context, accountID string, p domain.Geo) (*domain.Location, error)

	UpdatePriceList(ctx context.Context, list domain.PriceList) error
	LatestPriceTs(ctx context.Context, priceCode string) (time.Time, error)
	PricePointsSince(ctx context.Context, priceCode string, since time.Time) ([]domain.PricePoint, error)
	// PriceAt returns the latest price point at or before ts for priceCode,
	// or ok=false if none exists yet.
	PriceAt(ctx context.Context, priceCode string, ts time.Time) (price int64, ok bool, err error)
	// PricePointsInRangeByPrice returns hour-aligned points for priceCode in
	// [from, to), ascending by price then by ts.
	PricePointsInRangeByPrice(ctx context.Context, priceCode string, from, to time.Time) ([]domain.PricePoint, error)
	AveragePrice(ctx context.Context, priceCode string, since time.Time) (float64, error)

	GetChargeCurve(ctx context.Context, vehicleID, locationID string) ([]domain.ChargeCurve, error)
	SetChargeCurve(ctx context.Context, c domain.ChargeCurve) error
	MaxChargeCurveLevel(ctx context.Context, vehicleID, locationID string) (int, error)
	MedianLevelChargeTime(ctx context.Context, vehicleID, locationID string) (int, bool, error)

	// RoutinePrediction answers the planner's routine-charge prediction:
	// among the past 6 weeks of completed connections at this location,
	// weighted toward similar weekday disconnects, it returns the predicted
	// energy need and the predicted disconnect time projected onto the
	// current or next day. Either return may be nil when there isn't enough
	// history yet (the "learning" path).
	RoutinePrediction(ctx context.Context, vehicleID, locationID string, now time.Time) (chargeNeeded *float64, before *time.Time, err error)

	// UpdateVehicleData performs the ingestor's update in a single
	// transaction: the vehicle row plus whichever of connection/charge/trip
	// the caller supplies. A nil pointer means "leave unchanged"; a pointer
	// to a zero-value marker field (handled by the caller) means "close it".
	UpdateVehicleData(ctx context.Context, update VehicleDataUpdate) error

	GetOpenConnection(ctx context.Context, vehicleID string) (*domain.Connection, error)
	SaveConnection(ctx context.Context, c *domain.Connection) error
	ClosedConnectionsSince(ctx context.Context, vehicleID string, since time.Time) ([]domain.Connection, error)

	GetOpenCharge(ctx context.Context, connectedID string) (*domain.Charge, error)
	SaveCharge(ctx context.Context, c *domain.Charge) error

	GetChargeCurrent(ctx context.Context, chargeID string) (*domain.ChargeCurrent, error)
	SaveChargeCurrent(ctx context.Context, cc *domain.ChargeCurrent) error
	DeleteChargeCurrent(ctx context.Context, chargeID string) error

	GetOpenTrip(ctx context.Context, vehicleID string) (*domain.Trip, error)
	SaveTrip(ctx context.Context, t *domain.Trip) error
	DeleteTrip(ctx context.Context, tripID string) error

	// UpsertEventMapHour combines in via (min, max, sum) into the existing
	// hour bucket, creating it if absent. Must be atomic under concurrent
	// inserts for the same (vehicle_id, hour).
	UpsertEventMapHour(ctx context.Context, vehicleID string, in domain.EventMap) error

	GetCurrentStats(ctx context.Context, vehicleID, locationID string) (*domain.CurrentStats, error)
	SaveCurrentStats(ctx context.Context, s *domain.CurrentStats) error

	SavePlan(ctx context.Context, vehicleID string, plan []domain.ChargePlanSegment, smartStatus string) error

	PublishAction(ctx context.Context, a domain.Action) error
}

// VehicleDataUpdate bundles the row-level writes the ingestor produces from
// a single telemetry sample, committed together by UpdateVehicleData.
type VehicleDataUpdate struct {
	Vehicle    *domain.Vehicle
	Connection *domain.Connection
	Charge     *domain.Charge
	Trip       *domain.Trip
}
