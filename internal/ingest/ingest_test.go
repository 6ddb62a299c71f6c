package ingest_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartcharge/core/internal/curve"
	"github.com/smartcharge/core/internal/domain"
	"github.com/smartcharge/core/internal/ingest"
	"github.com/smartcharge/core/internal/mocks"
	"github.com/smartcharge/core/internal/stats"
)

type stubReplanner struct {
	calls []string
}

func (s *stubReplanner) Refresh(ctx context.Context, vehicleID string) error {
	s.calls = append(s.calls, vehicleID)
	return nil
}

func baseInput(level int) domain.UpdateVehicleDataInput {
	return domain.UpdateVehicleDataInput{
		ID:               "veh-1",
		LatDeg:           52.0,
		LonDeg:           4.0,
		BatteryLevel:     level,
		OdometerM:        1000,
		ConnectedCharger: domain.ConnectedChargerNone,
	}
}

func newIngestor(gw *mocks.MockGateway, rep ingest.Replanner) *ingest.Ingestor {
	log := zap.NewNop()
	learner := curve.NewLearner(gw, log)
	statsEngine := stats.NewEngine(gw, log)
	return ingest.NewIngestor(gw, learner, statsEngine, rep, log)
}

func TestUpdate_OpensConnectionAndTriggersReplan(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	vehicle := &domain.Vehicle{ID: "veh-1", AccountID: "acc-1", Level: 40, Updated: now.Add(-time.Minute)}

	var savedVehicle *domain.Vehicle
	var savedConn *domain.Connection
	gw := &mocks.MockGateway{
		GetVehicleFunc: func(ctx context.Context, id string) (*domain.Vehicle, error) { return vehicle, nil },
		LookupKnownLocationFunc: func(ctx context.Context, accountID string, p domain.Geo) (*domain.Location, error) {
			return &domain.Location{ID: "loc-1", PriceCode: "code-1"}, nil
		},
		SaveVehicleFunc: func(ctx context.Context, v *domain.Vehicle) error { savedVehicle = v; return nil },
		SaveConnectionFunc: func(ctx context.Context, c *domain.Connection) error {
			savedConn = c
			return nil
		},
	}
	rep := &stubReplanner{}
	in := newIngestor(gw, rep)

	input := baseInput(40)
	input.ConnectedCharger = domain.ConnectedChargerAC

	err := in.Update(context.Background(), input, now)
	require.NoError(t, err)

	require.NotNil(t, savedConn)
	assert.Equal(t, "loc-1", savedConn.LocationID)
	assert.Equal(t, domain.ConnectionTypeAC, savedConn.Type)
	require.NotNil(t, savedVehicle.ConnectedID)
	assert.Equal(t, []string{"veh-1"}, rep.calls)
}

func TestUpdate_DisconnectClearsPlanAndRecomputesStats(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	connectedID := "conn-1"
	vehicle := &domain.Vehicle{
		ID: "veh-1", AccountID: "acc-1", Level: 80,
		ConnectedID: &connectedID,
		ChargePlan:  []domain.ChargePlanSegment{{Level: 80, ChargeType: domain.ChargeTypeFill}},
		Updated:     now.Add(-time.Minute),
	}
	openConn := &domain.Connection{ConnectedID: connectedID, VehicleID: "veh-1", LocationID: "loc-1", StartTs: now.Add(-time.Hour), StartLevel: 50}

	statsSaved := false
	gw := &mocks.MockGateway{
		GetVehicleFunc: func(ctx context.Context, id string) (*domain.Vehicle, error) { return vehicle, nil },
		LookupKnownLocationFunc: func(ctx context.Context, accountID string, p domain.Geo) (*domain.Location, error) {
			return &domain.Location{ID: "loc-1", PriceCode: "code-1"}, nil
		},
		GetOpenConnectionFunc: func(ctx context.Context, vehicleID string) (*domain.Connection, error) { return openConn, nil },
		SaveConnectionFunc:    func(ctx context.Context, c *domain.Connection) error { return nil },
		SaveVehicleFunc:       func(ctx context.Context, v *domain.Vehicle) error { return nil },
		PricePointsSinceFunc: func(ctx context.Context, priceCode string, since time.Time) ([]domain.PricePoint, error) {
			return nil, nil
		},
		SaveCurrentStatsFunc: func(ctx context.Context, s *domain.CurrentStats) error {
			statsSaved = true
			return nil
		},
	}
	rep := &stubReplanner{}
	in := newIngestor(gw, rep)

	input := baseInput(80)
	input.ConnectedCharger = domain.ConnectedChargerNone

	err := in.Update(context.Background(), input, now)
	require.NoError(t, err)

	assert.Nil(t, vehicle.ConnectedID)
	assert.Nil(t, vehicle.ChargePlan)
	assert.True(t, statsSaved, "disconnect must recompute current stats for the connection's location")
	assert.Equal(t, []string{"veh-1"}, rep.calls)
}

func TestUpdate_ShortTripDiscardedOnArrival(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	vehicle := &domain.Vehicle{ID: "veh-1", AccountID: "acc-1", Level: 60, OdometerM: 1000, Driving: false, Updated: now.Add(-time.Minute)}
	tripID := "trip-1"
	openTrip := &domain.Trip{TripID: tripID, VehicleID: "veh-1", StartOdometerM: 1000}

	deleted := false
	gw := &mocks.MockGateway{
		GetVehicleFunc: func(ctx context.Context, id string) (*domain.Vehicle, error) { return vehicle, nil },
		LookupKnownLocationFunc: func(ctx context.Context, accountID string, p domain.Geo) (*domain.Location, error) {
			return &domain.Location{ID: "loc-1", PriceCode: "code-1"}, nil
		},
		GetOpenTripFunc: func(ctx context.Context, vehicleID string) (*domain.Trip, error) { return openTrip, nil },
		DeleteTripFunc: func(ctx context.Context, tripID string) error {
			deleted = true
			return nil
		},
		SaveVehicleFunc: func(ctx context.Context, v *domain.Vehicle) error { return nil },
	}
	rep := &stubReplanner{}
	in := newIngestor(gw, rep)

	vehicle.TripID = &tripID
	input := baseInput(60)
	input.OdometerM = 1500 // 500m, under the 1km discard threshold

	err := in.Update(context.Background(), input, now)
	require.NoError(t, err)

	assert.True(t, deleted, "trips under 1km must be discarded on arrival")
	assert.Nil(t, vehicle.TripID)
}

func TestUpdate_ChargeCostDeltaSavedNonZeroOnPriceDrop(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	connStart := now.Add(-2 * time.Hour)
	chargeID := "charge-1"
	connectedID := "conn-1"
	target := 80

	vehicle := &domain.Vehicle{
		ID: "veh-1", AccountID: "acc-1", Level: 55,
		ConnectedID: &connectedID,
		ChargeID:    &chargeID,
		Updated:     now.Add(-time.Minute),
	}
	openConn := &domain.Connection{
		ConnectedID: connectedID, VehicleID: "veh-1", LocationID: "loc-1",
		Type: domain.ConnectionTypeAC, StartTs: connStart, StartLevel: 40, Connected: true,
	}
	openCharge := &domain.Charge{
		ChargeID: chargeID, ConnectedID: connectedID, VehicleID: "veh-1", LocationID: "loc-1",
		StartTs: connStart, StartLevel: 55, TargetLevel: target,
		EndTs: now.Add(-10 * time.Minute), EndLevel: 55,
	}

	var savedConn *domain.Connection
	gw := &mocks.MockGateway{
		GetVehicleFunc: func(ctx context.Context, id string) (*domain.Vehicle, error) { return vehicle, nil },
		LookupKnownLocationFunc: func(ctx context.Context, accountID string, p domain.Geo) (*domain.Location, error) {
			return &domain.Location{ID: "loc-1", PriceCode: "code-1"}, nil
		},
		GetLocationFunc: func(ctx context.Context, locationID string) (*domain.Location, error) {
			return &domain.Location{ID: locationID, PriceCode: "code-1"}, nil
		},
		GetOpenConnectionFunc: func(ctx context.Context, vehicleID string) (*domain.Connection, error) { return openConn, nil },
		SaveConnectionFunc: func(ctx context.Context, c *domain.Connection) error {
			savedConn = c
			return nil
		},
		GetOpenChargeFunc: func(ctx context.Context, connectedID string) (*domain.Charge, error) { return openCharge, nil },
		SaveChargeFunc:    func(ctx context.Context, c *domain.Charge) error { return nil },
		GetChargeCurrentFunc: func(ctx context.Context, chargeID string) (*domain.ChargeCurrent, error) {
			return nil, nil
		},
		SaveChargeCurrentFunc: func(ctx context.Context, cc *domain.ChargeCurrent) error { return nil },
		// Price dropped between connection start and now: charging then would
		// have cost twice as much as charging now, so the delta must show savings.
		PriceAtFunc: func(ctx context.Context, priceCode string, ts time.Time) (int64, bool, error) {
			if ts.Equal(connStart) {
				return 20000, true, nil
			}
			return 10000, true, nil
		},
		SaveVehicleFunc: func(ctx context.Context, v *domain.Vehicle) error { return nil },
	}
	rep := &stubReplanner{}
	in := newIngestor(gw, rep)

	input := baseInput(55)
	input.ConnectedCharger = domain.ConnectedChargerAC
	input.ChargingTo = &target
	powerKW := 7.4
	input.PowerUseKW = &powerKW

	err := in.Update(context.Background(), input, now)
	require.NoError(t, err)

	require.NotNil(t, savedConn)
	assert.Greater(t, savedConn.Saved, int64(0), "price dropping between connection start and now must produce a positive saving")
	assert.Greater(t, savedConn.Cost, int64(0))
}

func TestUpdate_MissingVehicleIsFatal(t *testing.T) {
	gw := &mocks.MockGateway{
		GetVehicleFunc: func(ctx context.Context, id string) (*domain.Vehicle, error) { return nil, nil },
	}
	rep := &stubReplanner{}
	in := newIngestor(gw, rep)

	err := in.Update(context.Background(), baseInput(50), time.Now())
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}
