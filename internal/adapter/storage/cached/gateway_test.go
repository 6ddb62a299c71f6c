package cached_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartcharge/core/internal/adapter/storage/cached"
	"github.com/smartcharge/core/internal/domain"
	"github.com/smartcharge/core/internal/mocks"
)

func TestLookupKnownLocation_CachesLocationsPerAccount(t *testing.T) {
	var calls int
	gw := &mocks.MockGateway{
		GetLocationsFunc: func(ctx context.Context, accountID string) ([]*domain.Location, error) {
			calls++
			return []*domain.Location{
				{ID: "loc-1", AccountID: accountID, Geo: domain.Geo{LatMicro: 52_379_189, LonMicro: 4_899_431}, GeoFenceRadiusM: 100},
			}, nil
		},
	}
	c := mocks.NewMockCache()
	g := cached.NewGateway(gw, c, time.Hour, time.Minute, zap.NewNop())

	point := domain.Geo{LatMicro: 52_379_189, LonMicro: 4_899_431}

	loc1, err := g.LookupKnownLocation(context.Background(), "acc-1", point)
	require.NoError(t, err)
	require.NotNil(t, loc1)
	assert.Equal(t, "loc-1", loc1.ID)

	loc2, err := g.LookupKnownLocation(context.Background(), "acc-1", point)
	require.NoError(t, err)
	require.NotNil(t, loc2)
	assert.Equal(t, "loc-1", loc2.ID)

	assert.Equal(t, 1, calls, "the second lookup must be served from cache, not the Gateway")
}

func TestLookupKnownLocation_NoEnclosingLocationReturnsNil(t *testing.T) {
	gw := &mocks.MockGateway{
		GetLocationsFunc: func(ctx context.Context, accountID string) ([]*domain.Location, error) {
			return []*domain.Location{
				{ID: "loc-1", AccountID: accountID, Geo: domain.Geo{LatMicro: 0, LonMicro: 0}, GeoFenceRadiusM: 10},
			}, nil
		},
	}
	g := cached.NewGateway(gw, mocks.NewMockCache(), time.Hour, time.Minute, zap.NewNop())

	far := domain.Geo{LatMicro: 52_379_189, LonMicro: 4_899_431}
	loc, err := g.LookupKnownLocation(context.Background(), "acc-1", far)
	require.NoError(t, err)
	assert.Nil(t, loc)
}

func TestGetCurrentStats_CacheHitSkipsGateway(t *testing.T) {
	var calls int
	gw := &mocks.MockGateway{
		GetCurrentStatsFunc: func(ctx context.Context, vehicleID, locationID string) (*domain.CurrentStats, error) {
			calls++
			return &domain.CurrentStats{StatsID: "s1", VehicleID: vehicleID, LocationID: locationID}, nil
		},
	}
	g := cached.NewGateway(gw, mocks.NewMockCache(), time.Hour, time.Minute, zap.NewNop())

	s1, err := g.GetCurrentStats(context.Background(), "veh-1", "loc-1")
	require.NoError(t, err)
	require.NotNil(t, s1)

	s2, err := g.GetCurrentStats(context.Background(), "veh-1", "loc-1")
	require.NoError(t, err)
	require.NotNil(t, s2)

	assert.Equal(t, 1, calls)
	assert.Equal(t, s1.StatsID, s2.StatsID)
}

func TestSaveCurrentStats_InvalidatesCache(t *testing.T) {
	var calls int
	gw := &mocks.MockGateway{
		GetCurrentStatsFunc: func(ctx context.Context, vehicleID, locationID string) (*domain.CurrentStats, error) {
			calls++
			return &domain.CurrentStats{StatsID: "s1", VehicleID: vehicleID, LocationID: locationID}, nil
		},
	}
	g := cached.NewGateway(gw, mocks.NewMockCache(), time.Hour, time.Minute, zap.NewNop())

	_, err := g.GetCurrentStats(context.Background(), "veh-1", "loc-1")
	require.NoError(t, err)

	err = g.SaveCurrentStats(context.Background(), &domain.CurrentStats{StatsID: "s2", VehicleID: "veh-1", LocationID: "loc-1"})
	require.NoError(t, err)

	_, err = g.GetCurrentStats(context.Background(), "veh-1", "loc-1")
	require.NoError(t, err)

	assert.Equal(t, 2, calls, "a save must invalidate the cached entry so the next read hits the Gateway again")
}
