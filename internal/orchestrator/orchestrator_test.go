package orchestrator_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartcharge/core/internal/domain"
	"github.com/smartcharge/core/internal/mocks"
	"github.com/smartcharge/core/internal/orchestrator"
	"github.com/smartcharge/core/internal/planner"
	"github.com/smartcharge/core/internal/stats"
)

func newOrchestrator(gw *mocks.MockGateway) *orchestrator.Orchestrator {
	log := zap.NewNop()
	p := planner.New(gw, stats.NewEngine(gw, log), log)
	return orchestrator.New(gw, p, log)
}

func vehicleWithLocation(id string) *domain.Vehicle {
	loc := "loc-1"
	return &domain.Vehicle{ID: id, AccountID: "acc-1", LocationID: &loc, MinimumCharge: 50, MaximumCharge: 90, Level: 70}
}

func gatewayStubForReplan() *mocks.MockGateway {
	return &mocks.MockGateway{
		GetLocationFunc: func(ctx context.Context, locationID string) (*domain.Location, error) {
			return &domain.Location{ID: locationID, PriceCode: "code-1"}, nil
		},
		MaxChargeCurveLevelFunc: func(ctx context.Context, vehicleID, locationID string) (int, error) { return 100, nil },
		GetChargeCurveFunc: func(ctx context.Context, vehicleID, locationID string) ([]domain.ChargeCurve, error) {
			return nil, nil
		},
		LatestPriceTsFunc:    func(ctx context.Context, priceCode string) (time.Time, error) { return time.Now(), nil },
		GetCurrentStatsFunc:  func(ctx context.Context, vehicleID, locationID string) (*domain.CurrentStats, error) { return nil, nil },
		SaveCurrentStatsFunc: func(ctx context.Context, s *domain.CurrentStats) error { return nil },
		PricePointsSinceFunc: func(ctx context.Context, priceCode string, since time.Time) ([]domain.PricePoint, error) {
			return nil, nil
		},
		PricePointsInRangeByPriceFunc: func(ctx context.Context, priceCode string, from, to time.Time) ([]domain.PricePoint, error) {
			return nil, nil
		},
	}
}

func TestRefresh_MissingVehicleReturnsNotFound(t *testing.T) {
	gw := &mocks.MockGateway{
		GetVehicleFunc: func(ctx context.Context, id string) (*domain.Vehicle, error) { return nil, nil },
	}
	o := newOrchestrator(gw)

	err := o.Refresh(context.Background(), "veh-missing")
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

func TestRefresh_SavesPlanForExistingVehicle(t *testing.T) {
	gw := gatewayStubForReplan()
	v := vehicleWithLocation("veh-1")
	gw.GetVehicleFunc = func(ctx context.Context, id string) (*domain.Vehicle, error) { return v, nil }

	var saved bool
	gw.SavePlanFunc = func(ctx context.Context, vehicleID string, plan []domain.ChargePlanSegment, smartStatus string) error {
		saved = true
		return nil
	}

	o := newOrchestrator(gw)
	err := o.Refresh(context.Background(), "veh-1")
	require.NoError(t, err)
	assert.True(t, saved)
}

func TestRefreshAccount_OneFailureDoesNotBlockSiblings(t *testing.T) {
	gw := gatewayStubForReplan()
	good := vehicleWithLocation("veh-good")
	bad := vehicleWithLocation("veh-bad")

	gw.ListVehiclesByAccountFunc = func(ctx context.Context, accountID string) ([]*domain.Vehicle, error) {
		return []*domain.Vehicle{good, bad}, nil
	}
	gw.GetVehicleFunc = func(ctx context.Context, id string) (*domain.Vehicle, error) {
		if id == "veh-bad" {
			return nil, nil
		}
		return good, nil
	}

	var savedCount int32
	gw.SavePlanFunc = func(ctx context.Context, vehicleID string, plan []domain.ChargePlanSegment, smartStatus string) error {
		atomic.AddInt32(&savedCount, 1)
		return nil
	}

	o := newOrchestrator(gw)
	err := o.RefreshAccount(context.Background(), "acc-1")

	require.Error(t, err, "one failing vehicle must surface as an account-level error")
	assert.Equal(t, int32(1), atomic.LoadInt32(&savedCount), "the healthy vehicle must still have been replanned")
}

func TestOnPriceFeedUpdated_ReplansEveryAffectedVehicle(t *testing.T) {
	gw := gatewayStubForReplan()
	v1 := vehicleWithLocation("veh-1")
	v2 := vehicleWithLocation("veh-2")

	gw.VehiclesByPriceCodeFunc = func(ctx context.Context, priceCode string) ([]*domain.Vehicle, error) {
		return []*domain.Vehicle{v1, v2}, nil
	}
	byID := map[string]*domain.Vehicle{"veh-1": v1, "veh-2": v2}
	gw.GetVehicleFunc = func(ctx context.Context, id string) (*domain.Vehicle, error) { return byID[id], nil }

	var savedIDs []string
	gw.SavePlanFunc = func(ctx context.Context, vehicleID string, plan []domain.ChargePlanSegment, smartStatus string) error {
		savedIDs = append(savedIDs, vehicleID)
		return nil
	}

	o := newOrchestrator(gw)
	err := o.OnPriceFeedUpdated(context.Background(), "code-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"veh-1", "veh-2"}, savedIDs)
}
