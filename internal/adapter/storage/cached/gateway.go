// Package cached wraps a ports.Gateway with a cache-aside layer for the two
// reads the planner and ingestor perform most often: resolving a GPS fix to
// a known location, and loading a vehicle's CurrentStats. Both follow the
// teacher's device-service cache-aside pattern: try the cache, fall back to
// the Gateway on miss or error, and never let a cache failure turn into a
// request failure.
package cached

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/smartcharge/core/internal/domain"
	"github.com/smartcharge/core/internal/ports"
)

// Gateway decorates an inner ports.Gateway. Every method not overridden
// below passes straight through via the embedded interface.
type Gateway struct {
	ports.Gateway
	cache           ports.Cache
	knownLocationTTL time.Duration
	currentStatsTTL  time.Duration
	log              *zap.Logger
}

func NewGateway(inner ports.Gateway, cache ports.Cache, knownLocationTTL, currentStatsTTL time.Duration, log *zap.Logger) ports.Gateway {
	return &Gateway{Gateway: inner, cache: cache, knownLocationTTL: knownLocationTTL, currentStatsTTL: currentStatsTTL, log: log}
}

func locationsCacheKey(accountID string) string {
	return fmt.Sprintf("locations:%s", accountID)
}

func currentStatsCacheKey(vehicleID, locationID string) string {
	return fmt.Sprintf("current_stats:%s:%s", vehicleID, locationID)
}

// LookupKnownLocation caches the account's full location set (small and
// infrequently changed) rather than individual lookups, since the matching
// point varies on every call but the candidate set does not.
func (g *Gateway) LookupKnownLocation(ctx context.Context, accountID string, p domain.Geo) (*domain.Location, error) {
	locations, err := g.locationsForAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	var best *domain.Location
	for i := range locations {
		loc := &locations[i]
		if !loc.EnclosedBy(p) {
			continue
		}
		if best == nil || loc.GeoFenceRadiusM < best.GeoFenceRadiusM {
			best = loc
		}
	}
	return best, nil
}

func (g *Gateway) locationsForAccount(ctx context.Context, accountID string) ([]domain.Location, error) {
	key := locationsCacheKey(accountID)
	if cached, err := g.cache.Get(ctx, key); err == nil && cached != "" {
		var locations []domain.Location
		if err := json.Unmarshal([]byte(cached), &locations); err == nil {
			return locations, nil
		}
	}

	pointers, err := g.Gateway.GetLocations(ctx, accountID)
	if err != nil {
		return nil, err
	}
	locations := make([]domain.Location, len(pointers))
	for i, p := range pointers {
		locations[i] = *p
	}

	if data, err := json.Marshal(locations); err == nil {
		if err := g.cache.Set(ctx, key, string(data), g.knownLocationTTL); err != nil {
			g.log.Warn("failed to cache locations", zap.String("accountId", accountID), zap.Error(err))
		}
	}
	return locations, nil
}

// GetCurrentStats checks the cache before hitting the Gateway. The
// Statistics Engine still revalidates staleness against price_list_ts
// itself, so a stale cached entry is harmless — it is simply recomputed and
// overwritten the way a cache miss would be.
func (g *Gateway) GetCurrentStats(ctx context.Context, vehicleID, locationID string) (*domain.CurrentStats, error) {
	key := currentStatsCacheKey(vehicleID, locationID)
	if cached, err := g.cache.Get(ctx, key); err == nil && cached != "" {
		var s domain.CurrentStats
		if err := json.Unmarshal([]byte(cached), &s); err == nil {
			return &s, nil
		}
	}

	s, err := g.Gateway.GetCurrentStats(ctx, vehicleID, locationID)
	if err != nil || s == nil {
		return s, err
	}
	if data, err := json.Marshal(s); err == nil {
		if err := g.cache.Set(ctx, key, string(data), g.currentStatsTTL); err != nil {
			g.log.Warn("failed to cache current stats", zap.String("vehicleId", vehicleID), zap.Error(err))
		}
	}
	return s, nil
}

// SaveCurrentStats writes through to the Gateway and invalidates the cache
// entry so the next read picks up the fresh row instead of a stale cached
// one for the remainder of its TTL.
func (g *Gateway) SaveCurrentStats(ctx context.Context, s *domain.CurrentStats) error {
	if err := g.Gateway.SaveCurrentStats(ctx, s); err != nil {
		return err
	}
	if err := g.cache.Delete(ctx, currentStatsCacheKey(s.VehicleID, s.LocationID)); err != nil {
		g.log.Warn("failed to invalidate current stats cache", zap.String("vehicleId", s.VehicleID), zap.Error(err))
	}
	return nil
}
