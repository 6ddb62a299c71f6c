package curve_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartcharge/core/internal/curve"
	"github.com/smartcharge/core/internal/domain"
	"github.com/smartcharge/core/internal/mocks"
	"github.com/smartcharge/core/internal/ports"
)

func TestLearner_Observe_DiscardsFirstCrossing(t *testing.T) {
	var saved []domain.ChargeCurve
	gw := &mocks.MockGateway{
		SetChargeCurveFunc: func(ctx context.Context, c domain.ChargeCurve) error {
			saved = append(saved, c)
			return nil
		},
	}
	l := curve.NewLearner(gw, zap.NewNop())

	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	cur := curve.NewAccumulator("chg-1", start, 50, 0)

	replan, err := l.Observe(context.Background(), "veh-1", "loc-1", cur, curve.Sample{
		Now: start.Add(5 * time.Minute), Level: 51, PowerW: 7000, OutsideDeciTemp: 200, AddedWm: 500,
	})
	require.NoError(t, err)
	assert.False(t, replan)
	assert.Empty(t, saved, "first 1%% crossing after charge start must be discarded")
	assert.True(t, cur.FirstCrossingSeen)
}

func TestLearner_Observe_PersistsSubsequentCrossing(t *testing.T) {
	var saved []domain.ChargeCurve
	gw := &mocks.MockGateway{
		SetChargeCurveFunc: func(ctx context.Context, c domain.ChargeCurve) error {
			saved = append(saved, c)
			return nil
		},
	}
	l := curve.NewLearner(gw, zap.NewNop())

	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	cur := curve.NewAccumulator("chg-1", start, 50, 0)
	ctx := context.Background()

	_, err := l.Observe(ctx, "veh-1", "loc-1", cur, curve.Sample{
		Now: start.Add(5 * time.Minute), Level: 51, PowerW: 7000, OutsideDeciTemp: 200, AddedWm: 500,
	})
	require.NoError(t, err)

	second := start.Add(5 * time.Minute)
	replan, err := l.Observe(ctx, "veh-1", "loc-1", cur, curve.Sample{
		Now: second.Add(6 * time.Minute), Level: 52, PowerW: 7200, OutsideDeciTemp: 205, AddedWm: 1100,
	})
	require.NoError(t, err)
	assert.True(t, replan)
	require.Len(t, saved, 1)
	assert.Equal(t, 51, saved[0].Level)
	assert.Equal(t, 360, saved[0].DurationS)
}

func TestLearner_Observe_DiscardsGainGreaterThanOne(t *testing.T) {
	var saved []domain.ChargeCurve
	gw := &mocks.MockGateway{
		SetChargeCurveFunc: func(ctx context.Context, c domain.ChargeCurve) error {
			saved = append(saved, c)
			return nil
		},
	}
	l := curve.NewLearner(gw, zap.NewNop())
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	cur := curve.NewAccumulator("chg-1", start, 50, 0)
	cur.FirstCrossingSeen = true

	replan, err := l.Observe(context.Background(), "veh-1", "loc-1", cur, curve.Sample{
		Now: start.Add(20 * time.Minute), Level: 53, PowerW: 7000, OutsideDeciTemp: 200, AddedWm: 2000,
	})
	require.NoError(t, err)
	assert.False(t, replan)
	assert.Empty(t, saved)
	assert.Equal(t, 53, cur.StartLevel)
}

func TestChargeDuration_UsesFallbackAndShavesLastPercent(t *testing.T) {
	gw := &mocks.MockGateway{
		GetChargeCurveFunc: func(ctx context.Context, vehicleID, locationID string) ([]domain.ChargeCurve, error) {
			return []domain.ChargeCurve{
				{VehicleID: vehicleID, LocationID: locationID, Level: 50, DurationS: 60},
			}, nil
		},
	}

	d, err := curve.ChargeDuration(context.Background(), gw, "veh-1", "loc-1", 50, 52)
	require.NoError(t, err)
	// level 50 known at 60s, level 51 falls back to DefaultLevelChargeSeconds (100s),
	// last percent (51) shaved by 25%.
	want := time.Duration(60*1000+int(float64(100)*0.75*1000)) * time.Millisecond
	assert.Equal(t, want, d)
}

func TestChargeDuration_ZeroWhenNoGainNeeded(t *testing.T) {
	gw := &mocks.MockGateway{}
	d, err := curve.ChargeDuration(context.Background(), gw, "veh-1", "loc-1", 80, 80)
	require.NoError(t, err)
	assert.Zero(t, d)
}

var _ ports.Gateway = (*mocks.MockGateway)(nil)
