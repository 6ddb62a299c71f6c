package domain

import "time"

// EventMap is an hourly aggregate of one vehicle's activity, upserted by
// combining min/max/sum across overlapping samples for the same hour.
type EventMap struct {
	VehicleID      string    `json:"vehicleId" gorm:"primaryKey"`
	Hour           time.Time `json:"hour" gorm:"primaryKey"`
	MinimumLevel   int       `json:"minimumLevel"`
	MaximumLevel   int       `json:"maximumLevel"`
	DrivenSeconds  int64     `json:"drivenSeconds"`
	DrivenMeters   int64     `json:"drivenMeters"`
	ChargedSeconds int64     `json:"chargedSeconds"`
	ChargeEnergyWm int64     `json:"chargeEnergyWm"`
}

// Merge combines an incoming observation into the existing hourly bucket
// using (min-of, max-of, sum) per field, per the upsert contract.
func (e *EventMap) Merge(in EventMap) {
	if in.MinimumLevel < e.MinimumLevel {
		e.MinimumLevel = in.MinimumLevel
	}
	if in.MaximumLevel > e.MaximumLevel {
		e.MaximumLevel = in.MaximumLevel
	}
	e.DrivenSeconds += in.DrivenSeconds
	e.DrivenMeters += in.DrivenMeters
	e.ChargedSeconds += in.ChargedSeconds
	e.ChargeEnergyWm += in.ChargeEnergyWm
}
