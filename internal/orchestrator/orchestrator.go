// Package orchestrator implements the Replan Orchestrator: the entry points
// that trigger a vehicle's charge plan to be recomputed, serialized so a
// replan for vehicle V never races telemetry ingestion for the same V.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/smartcharge/core/internal/domain"
	"github.com/smartcharge/core/internal/planner"
	"github.com/smartcharge/core/internal/ports"
)

// keyedMutex hands out one *sync.Mutex per key, created lazily under a
// double-checked lock, the way the teacher's circuit breaker Manager hands
// out one breaker per name.
type keyedMutex struct {
	mu    sync.RWMutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedMutex) get(key string) *sync.Mutex {
	k.mu.RLock()
	l, ok := k.locks[key]
	k.mu.RUnlock()
	if ok {
		return l
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if l, ok = k.locks[key]; ok {
		return l
	}
	l = &sync.Mutex{}
	k.locks[key] = l
	return l
}

// Orchestrator fans replans out across vehicles while keeping each
// individual vehicle's ingestion and replanning strictly ordered.
type Orchestrator struct {
	gw           ports.Gateway
	planner      *planner.Planner
	log          *zap.Logger
	vehicleLocks *keyedMutex
}

func New(gw ports.Gateway, p *planner.Planner, log *zap.Logger) *Orchestrator {
	return &Orchestrator{gw: gw, planner: p, log: log, vehicleLocks: newKeyedMutex()}
}

// Refresh recomputes and persists one vehicle's charge plan under that
// vehicle's lock. It satisfies ingest.Replanner, so the Ingestor can trigger
// a replan without importing this package back.
func (o *Orchestrator) Refresh(ctx context.Context, vehicleID string) error {
	lock := o.vehicleLocks.get(vehicleID)
	lock.Lock()
	defer lock.Unlock()

	vehicle, err := o.gw.GetVehicle(ctx, vehicleID)
	if err != nil {
		return fmt.Errorf("orchestrator: load vehicle %s: %w", vehicleID, err)
	}
	if vehicle == nil {
		return domain.NewError(domain.KindNotFound, "orchestrator.Refresh", fmt.Errorf("vehicle %s not found", vehicleID))
	}

	if err := o.planner.RefreshVehicleChargePlan(ctx, vehicle, time.Now().UTC()); err != nil {
		return fmt.Errorf("orchestrator: replan vehicle %s: %w", vehicleID, err)
	}
	return nil
}

// RefreshAccount replans every vehicle under accountID. One vehicle's
// failure is logged and does not prevent its siblings from being replanned.
func (o *Orchestrator) RefreshAccount(ctx context.Context, accountID string) error {
	vehicles, err := o.gw.ListVehiclesByAccount(ctx, accountID)
	if err != nil {
		return fmt.Errorf("orchestrator: list vehicles for account %s: %w", accountID, err)
	}

	failed := o.fanOutRefresh(ctx, vehicles)
	if failed > 0 {
		return fmt.Errorf("orchestrator: %d of %d vehicles failed to replan for account %s", failed, len(vehicles), accountID)
	}
	return nil
}

// OnPriceFeedUpdated replans every vehicle currently parked at a location
// billed under priceCode. Per-vehicle ordering is unaffected: each replan
// still runs behind that vehicle's own lock.
func (o *Orchestrator) OnPriceFeedUpdated(ctx context.Context, priceCode string) error {
	vehicles, err := o.gw.VehiclesByPriceCode(ctx, priceCode)
	if err != nil {
		return fmt.Errorf("orchestrator: list vehicles for price code %s: %w", priceCode, err)
	}

	o.fanOutRefresh(ctx, vehicles)
	return nil
}

func (o *Orchestrator) fanOutRefresh(ctx context.Context, vehicles []*domain.Vehicle) int {
	var wg sync.WaitGroup
	var failedCount int
	var mu sync.Mutex

	for _, v := range vehicles {
		wg.Add(1)
		go func(vehicleID string) {
			defer wg.Done()
			if err := o.Refresh(ctx, vehicleID); err != nil {
				o.log.Error("replan failed", zap.String("vehicleId", vehicleID), zap.Error(err))
				mu.Lock()
				failedCount++
				mu.Unlock()
			}
		}(v.ID)
	}
	wg.Wait()
	return failedCount
}
