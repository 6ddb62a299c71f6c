// Package postgres implements the Persistence Gateway (ports.Gateway) on
// top of GORM, following the teacher's repository style: one struct per
// store wrapping *gorm.DB and a zap logger, "not found" translated to a nil
// return rather than an error, every other failure wrapped into a
// domain.Error and retried through the circuit breaker.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/smartcharge/core/internal/domain"
	"github.com/smartcharge/core/internal/infrastructure/circuitbreaker"
	"github.com/smartcharge/core/internal/observability/telemetry"
	"github.com/smartcharge/core/internal/ports"
)

// Gateway is the GORM-backed ports.Gateway implementation. Every exported
// method is retried through a shared circuit breaker so a flapping database
// degrades the core gracefully instead of cascading failures into the
// Ingestor and Planner.
type Gateway struct {
	db     *gorm.DB
	client *circuitbreaker.GatewayClient
	log    *zap.Logger
}

func NewGateway(db *gorm.DB, log *zap.Logger) ports.Gateway {
	return &Gateway{
		db:     db,
		client: circuitbreaker.NewGatewayClient("postgres-gateway", 3, log),
		log:    log,
	}
}

func retryable(err error) bool { return domain.IsTransient(err) }

// run executes fn behind the circuit breaker, records latency/error
// telemetry under op, and returns whatever domain-kinded error fn produced.
func (g *Gateway) run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	start := time.Now()
	err := g.client.Do(ctx, retryable, fn)
	telemetry.GatewayLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		telemetry.GatewayErrorsTotal.WithLabelValues(op, domain.Kind(err).String()).Inc()
	}
	return err
}

// wrapErr classifies a raw GORM/driver error into a domain.Error for op.
// Callers that treat "not found" as a valid (nil, nil) result must check
// errors.Is(err, gorm.ErrRecordNotFound) themselves before calling this.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.NewError(domain.KindConflict, op, err)
	}
	return domain.NewError(domain.KindTransient, op, err)
}

func (g *Gateway) GetVehicle(ctx context.Context, vehicleID string) (*domain.Vehicle, error) {
	var v domain.Vehicle
	found := false
	err := g.run(ctx, "get_vehicle", func(ctx context.Context) error {
		result := g.db.WithContext(ctx).First(&v, "id = ?", vehicleID)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil
		}
		if result.Error == nil {
			found = true
		}
		return wrapErr("get_vehicle", result.Error)
	})
	if err != nil || !found {
		return nil, err
	}
	if err := unmarshalPlan(&v); err != nil {
		return nil, fmt.Errorf("get_vehicle: decode charge plan: %w", err)
	}
	return &v, nil
}

func (g *Gateway) SaveVehicle(ctx context.Context, v *domain.Vehicle) error {
	if err := marshalPlan(v); err != nil {
		return fmt.Errorf("save_vehicle: encode charge plan: %w", err)
	}
	return g.run(ctx, "save_vehicle", func(ctx context.Context) error {
		return wrapErr("save_vehicle", g.db.WithContext(ctx).Save(v).Error)
	})
}

func (g *Gateway) ListVehiclesByAccount(ctx context.Context, accountID string) ([]*domain.Vehicle, error) {
	var vehicles []*domain.Vehicle
	err := g.run(ctx, "list_vehicles_by_account", func(ctx context.Context) error {
		return wrapErr("list_vehicles_by_account", g.db.WithContext(ctx).Where("account_id = ?", accountID).Find(&vehicles).Error)
	})
	if err != nil {
		return nil, err
	}
	for _, v := range vehicles {
		if err := unmarshalPlan(v); err != nil {
			return nil, fmt.Errorf("list_vehicles_by_account: decode charge plan: %w", err)
		}
	}
	return vehicles, nil
}

func (g *Gateway) VehiclesByPriceCode(ctx context.Context, priceCode string) ([]*domain.Vehicle, error) {
	var vehicles []*domain.Vehicle
	err := g.run(ctx, "vehicles_by_price_code", func(ctx context.Context) error {
		return wrapErr("vehicles_by_price_code", g.db.WithContext(ctx).
			Joins("JOIN locations ON locations.id = vehicles.location_id").
			Where("locations.price_code = ?", priceCode).
			Find(&vehicles).Error)
	})
	if err != nil {
		return nil, err
	}
	for _, v := range vehicles {
		if err := unmarshalPlan(v); err != nil {
			return nil, fmt.Errorf("vehicles_by_price_code: decode charge plan: %w", err)
		}
	}
	return vehicles, nil
}

func marshalPlan(v *domain.Vehicle) error {
	if v.ChargePlan == nil {
		v.ChargePlanJSON = nil
		return nil
	}
	b, err := json.Marshal(v.ChargePlan)
	if err != nil {
		return err
	}
	v.ChargePlanJSON = b
	return nil
}

func unmarshalPlan(v *domain.Vehicle) error {
	if len(v.ChargePlanJSON) == 0 {
		v.ChargePlan = nil
		return nil
	}
	return json.Unmarshal(v.ChargePlanJSON, &v.ChargePlan)
}

func (g *Gateway) GetLocation(ctx context.Context, locationID string) (*domain.Location, error) {
	var loc domain.Location
	found := false
	err := g.run(ctx, "get_location", func(ctx context.Context) error {
		result := g.db.WithContext(ctx).First(&loc, "id = ?", locationID)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil
		}
		if result.Error == nil {
			found = true
		}
		return wrapErr("get_location", result.Error)
	})
	if err != nil || !found {
		return nil, err
	}
	return &loc, nil
}

func (g *Gateway) GetLocations(ctx context.Context, accountID string) ([]*domain.Location, error) {
	var locations []*domain.Location
	err := g.run(ctx, "get_locations", func(ctx context.Context) error {
		return wrapErr("get_locations", g.db.WithContext(ctx).Where("account_id = ?", accountID).Find(&locations).Error)
	})
	return locations, err
}

// LookupKnownLocation loads all of the account's locations and applies the
// exact haversine test the domain type already implements to each of them,
// picking the smallest enclosing radius on ties. A PostGIS-backed implementation could push the
// whole test into SQL; this core has no other use for PostGIS so we fetch
// the (typically small) per-account candidate set instead.
func (g *Gateway) LookupKnownLocation(ctx context.Context, accountID string, p domain.Geo) (*domain.Location, error) {
	var candidates []*domain.Location
	err := g.run(ctx, "lookup_known_location", func(ctx context.Context) error {
		return wrapErr("lookup_known_location", g.db.WithContext(ctx).
			Where("account_id = ?", accountID).
			Find(&candidates).Error)
	})
	if err != nil {
		return nil, err
	}

	var best *domain.Location
	for _, loc := range candidates {
		if !loc.EnclosedBy(p) {
			continue
		}
		if best == nil || loc.GeoFenceRadiusM < best.GeoFenceRadiusM {
			best = loc
		}
	}
	return best, nil
}

func (g *Gateway) UpdatePriceList(ctx context.Context, list domain.PriceList) error {
	if len(list.Points) == 0 {
		return nil
	}
	return g.run(ctx, "update_price_list", func(ctx context.Context) error {
		return wrapErr("update_price_list", g.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "price_code"}, {Name: "ts"}},
				DoUpdates: clause.AssignmentColumns([]string{"price"}),
			}).
			Create(&list.Points).Error)
	})
}

func (g *Gateway) LatestPriceTs(ctx context.Context, priceCode string) (time.Time, error) {
	var ts sql.NullTime
	err := g.run(ctx, "latest_price_ts", func(ctx context.Context) error {
		return wrapErr("latest_price_ts", g.db.WithContext(ctx).
			Model(&domain.PricePoint{}).
			Where("price_code = ?", priceCode).
			Select("MAX(ts)").Scan(&ts).Error)
	})
	if err != nil || !ts.Valid {
		return time.Time{}, err
	}
	return ts.Time, nil
}

func (g *Gateway) PricePointsSince(ctx context.Context, priceCode string, since time.Time) ([]domain.PricePoint, error) {
	var points []domain.PricePoint
	err := g.run(ctx, "price_points_since", func(ctx context.Context) error {
		return wrapErr("price_points_since", g.db.WithContext(ctx).
			Where("price_code = ? AND ts >= ?", priceCode, since).
			Order("ts asc").Find(&points).Error)
	})
	return points, err
}

func (g *Gateway) PriceAt(ctx context.Context, priceCode string, ts time.Time) (int64, bool, error) {
	var p domain.PricePoint
	found := false
	err := g.run(ctx, "price_at", func(ctx context.Context) error {
		result := g.db.WithContext(ctx).
			Where("price_code = ? AND ts <= ?", priceCode, ts).
			Order("ts desc").First(&p)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil
		}
		if result.Error == nil {
			found = true
		}
		return wrapErr("price_at", result.Error)
	})
	if err != nil || !found {
		return 0, false, err
	}
	return p.Price, true, nil
}

func (g *Gateway) PricePointsInRangeByPrice(ctx context.Context, priceCode string, from, to time.Time) ([]domain.PricePoint, error) {
	var points []domain.PricePoint
	err := g.run(ctx, "price_points_in_range_by_price", func(ctx context.Context) error {
		return wrapErr("price_points_in_range_by_price", g.db.WithContext(ctx).
			Where("price_code = ? AND ts >= ? AND ts < ?", priceCode, from, to).
			Order("price asc, ts asc").Find(&points).Error)
	})
	return points, err
}

func (g *Gateway) AveragePrice(ctx context.Context, priceCode string, since time.Time) (float64, error) {
	var avg sql.NullFloat64
	err := g.run(ctx, "average_price", func(ctx context.Context) error {
		return wrapErr("average_price", g.db.WithContext(ctx).
			Model(&domain.PricePoint{}).
			Where("price_code = ? AND ts >= ?", priceCode, since).
			Select("AVG(price)").Scan(&avg).Error)
	})
	if err != nil || !avg.Valid {
		return 0, err
	}
	return avg.Float64 / 100000.0, nil
}

func (g *Gateway) GetChargeCurve(ctx context.Context, vehicleID, locationID string) ([]domain.ChargeCurve, error) {
	var rows []domain.ChargeCurve
	err := g.run(ctx, "get_charge_curve", func(ctx context.Context) error {
		return wrapErr("get_charge_curve", g.db.WithContext(ctx).
			Where("vehicle_id = ? AND location_id = ?", vehicleID, locationID).
			Find(&rows).Error)
	})
	return rows, err
}

func (g *Gateway) SetChargeCurve(ctx context.Context, c domain.ChargeCurve) error {
	return g.run(ctx, "set_charge_curve", func(ctx context.Context) error {
		return wrapErr("set_charge_curve", g.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "vehicle_id"}, {Name: "location_id"}, {Name: "level"}},
				DoUpdates: clause.AssignmentColumns([]string{"duration_s", "avg_deci_temp", "energy_used_wm", "energy_added_wm"}),
			}).
			Create(&c).Error)
	})
}

func (g *Gateway) MaxChargeCurveLevel(ctx context.Context, vehicleID, locationID string) (int, error) {
	var max sql.NullInt64
	err := g.run(ctx, "max_charge_curve_level", func(ctx context.Context) error {
		return wrapErr("max_charge_curve_level", g.db.WithContext(ctx).
			Model(&domain.ChargeCurve{}).
			Where("vehicle_id = ? AND location_id = ?", vehicleID, locationID).
			Select("MAX(level)").Scan(&max).Error)
	})
	if err != nil || !max.Valid {
		return 0, err
	}
	return int(max.Int64), nil
}

func (g *Gateway) MedianLevelChargeTime(ctx context.Context, vehicleID, locationID string) (int, bool, error) {
	var median sql.NullFloat64
	err := g.run(ctx, "median_level_charge_time", func(ctx context.Context) error {
		return wrapErr("median_level_charge_time", g.db.WithContext(ctx).
			Model(&domain.ChargeCurve{}).
			Where("vehicle_id = ? AND location_id = ?", vehicleID, locationID).
			Select("percentile_cont(0.5) WITHIN GROUP (ORDER BY duration_s)").Scan(&median).Error)
	})
	if err != nil || !median.Valid {
		return 0, false, err
	}
	return int(median.Float64), true, nil
}

// routinePredictionRow is the raw projection of the percentile aggregates
// spec'd for the routine prediction: a 7-day mean and a 6-week 60th
// percentile of percent gained per connection, plus the 20th percentile of
// historical disconnect time-of-day.
type routinePredictionRow struct {
	Avg7        sql.NullFloat64
	P60Gained   sql.NullFloat64
	P20Seconds  sql.NullFloat64
	SampleCount int64
}

func (g *Gateway) RoutinePrediction(ctx context.Context, vehicleID, locationID string, now time.Time) (*float64, *time.Time, error) {
	var row routinePredictionRow
	since6Weeks := now.Add(-6 * 7 * 24 * time.Hour)
	since7Days := now.Add(-7 * 24 * time.Hour)

	err := g.run(ctx, "routine_prediction", func(ctx context.Context) error {
		// weighted replicates each history row weight times via
		// generate_series so percentile_cont/percentile_disc, which have no
		// native weight argument, land closer to same-weekday disconnects
		// without discarding the rest of the 6-week window entirely.
		const query = `
WITH hist AS (
	SELECT start_ts, end_ts, GREATEST(end_level - start_level, 0) AS gained,
		EXTRACT(ISODOW FROM start_ts) = EXTRACT(ISODOW FROM @now::timestamptz) AS same_weekday
	FROM connections
	WHERE vehicle_id = @vehicleID AND location_id = @locationID AND connected = false AND start_ts >= @since6Weeks
),
weighted AS (
	SELECT gained, end_ts, CASE WHEN same_weekday THEN 3 ELSE 1 END AS weight
	FROM hist
)
SELECT
	(SELECT AVG(gained) FROM hist WHERE start_ts >= @since7Days) AS avg7,
	(SELECT percentile_cont(0.6) WITHIN GROUP (ORDER BY w.gained)
		FROM weighted w, generate_series(1, w.weight)) AS p60_gained,
	(SELECT percentile_disc(0.2) WITHIN GROUP (ORDER BY EXTRACT(EPOCH FROM w.end_ts::time))
		FROM weighted w, generate_series(1, w.weight)) AS p20_seconds,
	(SELECT COUNT(*) FROM hist) AS sample_count`

		return wrapErr("routine_prediction", g.db.WithContext(ctx).Raw(query,
			sql.Named("vehicleID", vehicleID),
			sql.Named("locationID", locationID),
			sql.Named("since6Weeks", since6Weeks),
			sql.Named("since7Days", since7Days),
			sql.Named("now", now),
		).Scan(&row).Error)
	})
	if err != nil {
		return nil, nil, err
	}
	if row.SampleCount == 0 || !row.P20Seconds.Valid {
		return nil, nil, nil
	}

	charge := row.P60Gained.Float64
	if row.Avg7.Valid && row.Avg7.Float64 > charge {
		charge = row.Avg7.Float64
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	before := dayStart.Add(time.Duration(row.P20Seconds.Float64 * float64(time.Second)))

	return &charge, &before, nil
}

func (g *Gateway) UpdateVehicleData(ctx context.Context, update ports.VehicleDataUpdate) error {
	return g.run(ctx, "update_vehicle_data", func(ctx context.Context) error {
		return wrapErr("update_vehicle_data", g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if update.Vehicle != nil {
				if err := marshalPlan(update.Vehicle); err != nil {
					return err
				}
				if err := tx.Save(update.Vehicle).Error; err != nil {
					return err
				}
			}
			if update.Connection != nil {
				if err := tx.Save(update.Connection).Error; err != nil {
					return err
				}
			}
			if update.Charge != nil {
				if err := tx.Save(update.Charge).Error; err != nil {
					return err
				}
			}
			if update.Trip != nil {
				if err := tx.Save(update.Trip).Error; err != nil {
					return err
				}
			}
			return nil
		}))
	})
}

func (g *Gateway) GetOpenConnection(ctx context.Context, vehicleID string) (*domain.Connection, error) {
	var c domain.Connection
	found := false
	err := g.run(ctx, "get_open_connection", func(ctx context.Context) error {
		result := g.db.WithContext(ctx).
			Where("vehicle_id = ? AND connected = ?", vehicleID, true).
			Order("start_ts desc").First(&c)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil
		}
		if result.Error == nil {
			found = true
		}
		return wrapErr("get_open_connection", result.Error)
	})
	if err != nil || !found {
		return nil, err
	}
	return &c, nil
}

func (g *Gateway) SaveConnection(ctx context.Context, c *domain.Connection) error {
	return g.run(ctx, "save_connection", func(ctx context.Context) error {
		return wrapErr("save_connection", g.db.WithContext(ctx).Save(c).Error)
	})
}

func (g *Gateway) ClosedConnectionsSince(ctx context.Context, vehicleID string, since time.Time) ([]domain.Connection, error) {
	var connections []domain.Connection
	err := g.run(ctx, "closed_connections_since", func(ctx context.Context) error {
		return wrapErr("closed_connections_since", g.db.WithContext(ctx).
			Where("vehicle_id = ? AND connected = ? AND start_ts >= ?", vehicleID, false, since).
			Find(&connections).Error)
	})
	return connections, err
}

func (g *Gateway) GetOpenCharge(ctx context.Context, connectedID string) (*domain.Charge, error) {
	var c domain.Charge
	found := false
	err := g.run(ctx, "get_open_charge", func(ctx context.Context) error {
		result := g.db.WithContext(ctx).
			Where("connected_id = ?", connectedID).
			Order("start_ts desc").First(&c)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil
		}
		if result.Error == nil {
			found = true
		}
		return wrapErr("get_open_charge", result.Error)
	})
	if err != nil || !found {
		return nil, err
	}
	return &c, nil
}

func (g *Gateway) SaveCharge(ctx context.Context, c *domain.Charge) error {
	return g.run(ctx, "save_charge", func(ctx context.Context) error {
		return wrapErr("save_charge", g.db.WithContext(ctx).Save(c).Error)
	})
}

func (g *Gateway) GetChargeCurrent(ctx context.Context, chargeID string) (*domain.ChargeCurrent, error) {
	var cc domain.ChargeCurrent
	found := false
	err := g.run(ctx, "get_charge_current", func(ctx context.Context) error {
		result := g.db.WithContext(ctx).First(&cc, "charge_id = ?", chargeID)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil
		}
		if result.Error == nil {
			found = true
		}
		return wrapErr("get_charge_current", result.Error)
	})
	if err != nil || !found {
		return nil, err
	}
	return &cc, nil
}

func (g *Gateway) SaveChargeCurrent(ctx context.Context, cc *domain.ChargeCurrent) error {
	return g.run(ctx, "save_charge_current", func(ctx context.Context) error {
		return wrapErr("save_charge_current", g.db.WithContext(ctx).Save(cc).Error)
	})
}

func (g *Gateway) DeleteChargeCurrent(ctx context.Context, chargeID string) error {
	return g.run(ctx, "delete_charge_current", func(ctx context.Context) error {
		return wrapErr("delete_charge_current", g.db.WithContext(ctx).Delete(&domain.ChargeCurrent{}, "charge_id = ?", chargeID).Error)
	})
}

func (g *Gateway) GetOpenTrip(ctx context.Context, vehicleID string) (*domain.Trip, error) {
	var t domain.Trip
	found := false
	err := g.run(ctx, "get_open_trip", func(ctx context.Context) error {
		result := g.db.WithContext(ctx).
			Where("vehicle_id = ? AND end_ts = ?", vehicleID, time.Time{}).
			Order("start_ts desc").First(&t)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil
		}
		if result.Error == nil {
			found = true
		}
		return wrapErr("get_open_trip", result.Error)
	})
	if err != nil || !found {
		return nil, err
	}
	return &t, nil
}

func (g *Gateway) SaveTrip(ctx context.Context, t *domain.Trip) error {
	return g.run(ctx, "save_trip", func(ctx context.Context) error {
		return wrapErr("save_trip", g.db.WithContext(ctx).Save(t).Error)
	})
}

func (g *Gateway) DeleteTrip(ctx context.Context, tripID string) error {
	return g.run(ctx, "delete_trip", func(ctx context.Context) error {
		return wrapErr("delete_trip", g.db.WithContext(ctx).Delete(&domain.Trip{}, "trip_id = ?", tripID).Error)
	})
}

// UpsertEventMapHour folds in into the existing hourly bucket with a single
// atomic INSERT .. ON CONFLICT statement so concurrent samples for the same
// (vehicle_id, hour) never lose an update to a race.
func (g *Gateway) UpsertEventMapHour(ctx context.Context, vehicleID string, in domain.EventMap) error {
	in.VehicleID = vehicleID
	return g.run(ctx, "upsert_event_map_hour", func(ctx context.Context) error {
		const query = `
INSERT INTO event_maps (vehicle_id, hour, minimum_level, maximum_level, driven_seconds, driven_meters, charged_seconds, charge_energy_wm)
VALUES (@vehicleID, @hour, @minLevel, @maxLevel, @drivenSeconds, @drivenMeters, @chargedSeconds, @chargeEnergyWm)
ON CONFLICT (vehicle_id, hour) DO UPDATE SET
	minimum_level = LEAST(event_maps.minimum_level, EXCLUDED.minimum_level),
	maximum_level = GREATEST(event_maps.maximum_level, EXCLUDED.maximum_level),
	driven_seconds = event_maps.driven_seconds + EXCLUDED.driven_seconds,
	driven_meters = event_maps.driven_meters + EXCLUDED.driven_meters,
	charged_seconds = event_maps.charged_seconds + EXCLUDED.charged_seconds,
	charge_energy_wm = event_maps.charge_energy_wm + EXCLUDED.charge_energy_wm`

		return wrapErr("upsert_event_map_hour", g.db.WithContext(ctx).Exec(query,
			sql.Named("vehicleID", vehicleID),
			sql.Named("hour", in.Hour),
			sql.Named("minLevel", in.MinimumLevel),
			sql.Named("maxLevel", in.MaximumLevel),
			sql.Named("drivenSeconds", in.DrivenSeconds),
			sql.Named("drivenMeters", in.DrivenMeters),
			sql.Named("chargedSeconds", in.ChargedSeconds),
			sql.Named("chargeEnergyWm", in.ChargeEnergyWm),
		).Error)
	})
}

func (g *Gateway) GetCurrentStats(ctx context.Context, vehicleID, locationID string) (*domain.CurrentStats, error) {
	var s domain.CurrentStats
	found := false
	err := g.run(ctx, "get_current_stats", func(ctx context.Context) error {
		result := g.db.WithContext(ctx).
			Where("vehicle_id = ? AND location_id = ?", vehicleID, locationID).First(&s)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil
		}
		if result.Error == nil {
			found = true
		}
		return wrapErr("get_current_stats", result.Error)
	})
	if err != nil || !found {
		return nil, err
	}
	return &s, nil
}

func (g *Gateway) SaveCurrentStats(ctx context.Context, s *domain.CurrentStats) error {
	return g.run(ctx, "save_current_stats", func(ctx context.Context) error {
		return wrapErr("save_current_stats", g.db.WithContext(ctx).Save(s).Error)
	})
}

func (g *Gateway) SavePlan(ctx context.Context, vehicleID string, plan []domain.ChargePlanSegment, smartStatus string) error {
	planJSON, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("save_plan: encode charge plan: %w", err)
	}
	return g.run(ctx, "save_plan", func(ctx context.Context) error {
		return wrapErr("save_plan", g.db.WithContext(ctx).
			Model(&domain.Vehicle{}).
			Where("id = ?", vehicleID).
			Updates(map[string]interface{}{"charge_plan": planJSON, "smart_status": smartStatus}).Error)
	})
}

func (g *Gateway) PublishAction(ctx context.Context, a domain.Action) error {
	return g.run(ctx, "publish_action", func(ctx context.Context) error {
		return wrapErr("publish_action", g.db.WithContext(ctx).Create(&a).Error)
	})
}
