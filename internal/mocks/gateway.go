package mocks

import (
	"context"
	"time"

	"github.com/smartcharge/core/internal/domain"
	"github.com/smartcharge/core/internal/ports"
)

// MockGateway is a function-field test double for ports.Gateway. Each method
// checks its corresponding Func field first; tests set only the ones they
// care about and everything else returns a zero value, except GetVehicle and
// GetLocation, which return a NotFound domain error.
type MockGateway struct {
	GetVehicleFunc                func(ctx context.Context, vehicleID string) (*domain.Vehicle, error)
	SaveVehicleFunc                func(ctx context.Context, v *domain.Vehicle) error
	ListVehiclesByAccountFunc      func(ctx context.Context, accountID string) ([]*domain.Vehicle, error)
	VehiclesByPriceCodeFunc        func(ctx context.Context, priceCode string) ([]*domain.Vehicle, error)
	GetLocationFunc                func(ctx context.Context, locationID string) (*domain.Location, error)
	GetLocationsFunc               func(ctx context.Context, accountID string) ([]*domain.Location, error)
	LookupKnownLocationFunc        func(ctx context.Context, accountID string, p domain.Geo) (*domain.Location, error)
	UpdatePriceListFunc            func(ctx context.Context, list domain.PriceList) error
	LatestPriceTsFunc              func(ctx context.Context, priceCode string) (time.Time, error)
	PricePointsSinceFunc           func(ctx context.Context, priceCode string, since time.Time) ([]domain.PricePoint, error)
	PriceAtFunc                    func(ctx context.Context, priceCode string, ts time.Time) (int64, bool, error)
	PricePointsInRangeByPriceFunc  func(ctx context.Context, priceCode string, from, to time.Time) ([]domain.PricePoint, error)
	AveragePriceFunc               func(ctx context.Context, priceCode string, since time.Time) (float64, error)
	GetChargeCurveFunc             func(ctx context.Context, vehicleID, locationID string) ([]domain.ChargeCurve, error)
	SetChargeCurveFunc             func(ctx context.Context, c domain.ChargeCurve) error
	MaxChargeCurveLevelFunc        func(ctx context.Context, vehicleID, locationID string) (int, error)
	MedianLevelChargeTimeFunc      func(ctx context.Context, vehicleID, locationID string) (int, bool, error)
	RoutinePredictionFunc          func(ctx context.Context, vehicleID, locationID string, now time.Time) (*float64, *time.Time, error)
	UpdateVehicleDataFunc          func(ctx context.Context, update ports.VehicleDataUpdate) error
	GetOpenConnectionFunc          func(ctx context.Context, vehicleID string) (*domain.Connection, error)
	SaveConnectionFunc              func(ctx context.Context, c *domain.Connection) error
	ClosedConnectionsSinceFunc     func(ctx context.Context, vehicleID string, since time.Time) ([]domain.Connection, error)
	GetOpenChargeFunc              func(ctx context.Context, connectedID string) (*domain.Charge, error)
	SaveChargeFunc                  func(ctx context.Context, c *domain.Charge) error
	GetChargeCurrentFunc           func(ctx context.Context, chargeID string) (*domain.ChargeCurrent, error)
	SaveChargeCurrentFunc          func(ctx context.Context, cc *domain.ChargeCurrent) error
	DeleteChargeCurrentFunc        func(ctx context.Context, chargeID string) error
	GetOpenTripFunc                 func(ctx context.Context, vehicleID string) (*domain.Trip, error)
	SaveTripFunc                    func(ctx context.Context, t *domain.Trip) error
	DeleteTripFunc                  func(ctx context.Context, tripID string) error
	UpsertEventMapHourFunc          func(ctx context.Context, vehicleID string, in domain.EventMap) error
	GetCurrentStatsFunc             func(ctx context.Context, vehicleID, locationID string) (*domain.CurrentStats, error)
	SaveCurrentStatsFunc            func(ctx context.Context, s *domain.CurrentStats) error
	SavePlanFunc                    func(ctx context.Context, vehicleID string, plan []domain.ChargePlanSegment, smartStatus string) error
	PublishActionFunc               func(ctx context.Context, a domain.Action) error
}

func (m *MockGateway) GetVehicle(ctx context.Context, vehicleID string) (*domain.Vehicle, error) {
	if m.GetVehicleFunc != nil {
		return m.GetVehicleFunc(ctx, vehicleID)
	}
	return nil, domain.NewError(domain.KindNotFound, "GetVehicle", domain.ErrVehicleNotFound)
}

func (m *MockGateway) SaveVehicle(ctx context.Context, v *domain.Vehicle) error {
	if m.SaveVehicleFunc != nil {
		return m.SaveVehicleFunc(ctx, v)
	}
	return nil
}

func (m *MockGateway) ListVehiclesByAccount(ctx context.Context, accountID string) ([]*domain.Vehicle, error) {
	if m.ListVehiclesByAccountFunc != nil {
		return m.ListVehiclesByAccountFunc(ctx, accountID)
	}
	return nil, nil
}

func (m *MockGateway) VehiclesByPriceCode(ctx context.Context, priceCode string) ([]*domain.Vehicle, error) {
	if m.VehiclesByPriceCodeFunc != nil {
		return m.VehiclesByPriceCodeFunc(ctx, priceCode)
	}
	return nil, nil
}

func (m *MockGateway) GetLocation(ctx context.Context, locationID string) (*domain.Location, error) {
	if m.GetLocationFunc != nil {
		return m.GetLocationFunc(ctx, locationID)
	}
	return nil, domain.NewError(domain.KindNotFound, "GetLocation", domain.ErrLocationNotFound)
}

func (m *MockGateway) GetLocations(ctx context.Context, accountID string) ([]*domain.Location, error) {
	if m.GetLocationsFunc != nil {
		return m.GetLocationsFunc(ctx, accountID)
	}
	return nil, nil
}

func (m *MockGateway) LookupKnownLocation(ctx context.Context, accountID string, p domain.Geo) (*domain.Location, error) {
	if m.LookupKnownLocationFunc != nil {
		return m.LookupKnownLocationFunc(ctx, accountID, p)
	}
	return nil, nil
}

func (m *MockGateway) UpdatePriceList(ctx context.Context, list domain.PriceList) error {
	if m.UpdatePriceListFunc != nil {
		return m.UpdatePriceListFunc(ctx, list)
	}
	return nil
}

func (m *MockGateway) LatestPriceTs(ctx context.Context, priceCode string) (time.Time, error) {
	if m.LatestPriceTsFunc != nil {
		return m.LatestPriceTsFunc(ctx, priceCode)
	}
	return time.Time{}, nil
}

func (m *MockGateway) PricePointsSince(ctx context.Context, priceCode string, since time.Time) ([]domain.PricePoint, error) {
	if m.PricePointsSinceFunc != nil {
		return m.PricePointsSinceFunc(ctx, priceCode, since)
	}
	return nil, nil
}

func (m *MockGateway) PriceAt(ctx context.Context, priceCode string, ts time.Time) (int64, bool, error) {
	if m.PriceAtFunc != nil {
		return m.PriceAtFunc(ctx, priceCode, ts)
	}
	return 0, false, nil
}

func (m *MockGateway) PricePointsInRangeByPrice(ctx context.Context, priceCode string, from, to time.Time) ([]domain.PricePoint, error) {
	if m.PricePointsInRangeByPriceFunc != nil {
		return m.PricePointsInRangeByPriceFunc(ctx, priceCode, from, to)
	}
	return nil, nil
}

func (m *MockGateway) AveragePrice(ctx context.Context, priceCode string, since time.Time) (float64, error) {
	if m.AveragePriceFunc != nil {
		return m.AveragePriceFunc(ctx, priceCode, since)
	}
	return 0, nil
}

func (m *MockGateway) GetChargeCurve(ctx context.Context, vehicleID, locationID string) ([]domain.ChargeCurve, error) {
	if m.GetChargeCurveFunc != nil {
		return m.GetChargeCurveFunc(ctx, vehicleID, locationID)
	}
	return nil, nil
}

func (m *MockGateway) SetChargeCurve(ctx context.Context, c domain.ChargeCurve) error {
	if m.SetChargeCurveFunc != nil {
		return m.SetChargeCurveFunc(ctx, c)
	}
	return nil
}

func (m *MockGateway) MaxChargeCurveLevel(ctx context.Context, vehicleID, locationID string) (int, error) {
	if m.MaxChargeCurveLevelFunc != nil {
		return m.MaxChargeCurveLevelFunc(ctx, vehicleID, locationID)
	}
	return 0, nil
}

func (m *MockGateway) MedianLevelChargeTime(ctx context.Context, vehicleID, locationID string) (int, bool, error) {
	if m.MedianLevelChargeTimeFunc != nil {
		return m.MedianLevelChargeTimeFunc(ctx, vehicleID, locationID)
	}
	return 0, false, nil
}

func (m *MockGateway) RoutinePrediction(ctx context.Context, vehicleID, locationID string, now time.Time) (*float64, *time.Time, error) {
	if m.RoutinePredictionFunc != nil {
		return m.RoutinePredictionFunc(ctx, vehicleID, locationID, now)
	}
	return nil, nil, nil
}

func (m *MockGateway) UpdateVehicleData(ctx context.Context, update ports.VehicleDataUpdate) error {
	if m.UpdateVehicleDataFunc != nil {
		return m.UpdateVehicleDataFunc(ctx, update)
	}
	return nil
}

func (m *MockGateway) GetOpenConnection(ctx context.Context, vehicleID string) (*domain.Connection, error) {
	if m.GetOpenConnectionFunc != nil {
		return m.GetOpenConnectionFunc(ctx, vehicleID)
	}
	return nil, nil
}

func (m *MockGateway) SaveConnection(ctx context.Context, c *domain.Connection) error {
	if m.SaveConnectionFunc != nil {
		return m.SaveConnectionFunc(ctx, c)
	}
	return nil
}

func (m *MockGateway) ClosedConnectionsSince(ctx context.Context, vehicleID string, since time.Time) ([]domain.Connection, error) {
	if m.ClosedConnectionsSinceFunc != nil {
		return m.ClosedConnectionsSinceFunc(ctx, vehicleID, since)
	}
	return nil, nil
}

func (m *MockGateway) GetOpenCharge(ctx context.Context, connectedID string) (*domain.Charge, error) {
	if m.GetOpenChargeFunc != nil {
		return m.GetOpenChargeFunc(ctx, connectedID)
	}
	return nil, nil
}

func (m *MockGateway) SaveCharge(ctx context.Context, c *domain.Charge) error {
	if m.SaveChargeFunc != nil {
		return m.SaveChargeFunc(ctx, c)
	}
	return nil
}

func (m *MockGateway) GetChargeCurrent(ctx context.Context, chargeID string) (*domain.ChargeCurrent, error) {
	if m.GetChargeCurrentFunc != nil {
		return m.GetChargeCurrentFunc(ctx, chargeID)
	}
	return nil, nil
}

func (m *MockGateway) SaveChargeCurrent(ctx context.Context, cc *domain.ChargeCurrent) error {
	if m.SaveChargeCurrentFunc != nil {
		return m.SaveChargeCurrentFunc(ctx, cc)
	}
	return nil
}

func (m *MockGateway) DeleteChargeCurrent(ctx context.Context, chargeID string) error {
	if m.DeleteChargeCurrentFunc != nil {
		return m.DeleteChargeCurrentFunc(ctx, chargeID)
	}
	return nil
}

func (m *MockGateway) GetOpenTrip(ctx context.Context, vehicleID string) (*domain.Trip, error) {
	if m.GetOpenTripFunc != nil {
		return m.GetOpenTripFunc(ctx, vehicleID)
	}
	return nil, nil
}

func (m *MockGateway) SaveTrip(ctx context.Context, t *domain.Trip) error {
	if m.SaveTripFunc != nil {
		return m.SaveTripFunc(ctx, t)
	}
	return nil
}

func (m *MockGateway) DeleteTrip(ctx context.Context, tripID string) error {
	if m.DeleteTripFunc != nil {
		return m.DeleteTripFunc(ctx, tripID)
	}
	return nil
}

func (m *MockGateway) UpsertEventMapHour(ctx context.Context, vehicleID string, in domain.EventMap) error {
	if m.UpsertEventMapHourFunc != nil {
		return m.UpsertEventMapHourFunc(ctx, vehicleID, in)
	}
	return nil
}

func (m *MockGateway) GetCurrentStats(ctx context.Context, vehicleID, locationID string) (*domain.CurrentStats, error) {
	if m.GetCurrentStatsFunc != nil {
		return m.GetCurrentStatsFunc(ctx, vehicleID, locationID)
	}
	return nil, nil
}

func (m *MockGateway) SaveCurrentStats(ctx context.Context, s *domain.CurrentStats) error {
	if m.SaveCurrentStatsFunc != nil {
		return m.SaveCurrentStatsFunc(ctx, s)
	}
	return nil
}

func (m *MockGateway) SavePlan(ctx context.Context, vehicleID string, plan []domain.ChargePlanSegment, smartStatus string) error {
	if m.SavePlanFunc != nil {
		return m.SavePlanFunc(ctx, vehicleID, plan, smartStatus)
	}
	return nil
}

func (m *MockGateway) PublishAction(ctx context.Context, a domain.Action) error {
	if m.PublishActionFunc != nil {
		return m.PublishActionFunc(ctx, a)
	}
	return nil
}

var _ ports.Gateway = (*MockGateway)(nil)
