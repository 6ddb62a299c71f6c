package domain

import (
	"fmt"
	"time"
)

// ScheduledTrip is a user-configured departure the planner must prepare for.
type ScheduledTrip struct {
	Level int       `json:"level" gorm:"column:scheduled_trip_level"`
	Time  time.Time `json:"time" gorm:"column:scheduled_trip_time"`
}

// Vehicle is the root aggregate the ingestor, curve learner, statistics
// engine and planner all read and mutate. connected_id/charge_id/trip_id are
// non-null exactly while the corresponding child state machine is open.
type Vehicle struct {
	ID             string  `json:"id" gorm:"primaryKey"`
	AccountID      string  `json:"accountId" gorm:"index"`
	Name           string  `json:"name"`
	MinimumCharge  int     `json:"minimumCharge"`
	MaximumCharge  int     `json:"maximumCharge"`
	AnxietyLevel   int     `json:"anxietyLevel"`
	ScheduledTrip  *ScheduledTrip `json:"scheduledTrip,omitempty" gorm:"embedded"`
	PausedUntil    *time.Time `json:"pausedUntil,omitempty"`
	LocationID     *string `json:"locationId,omitempty" gorm:"index"`
	Level          int     `json:"level"`
	OdometerM      int64   `json:"odometerM"`
	OutsideDeciTemp int    `json:"outsideDeciTemp"`
	InsideDeciTemp  int    `json:"insideDeciTemp"`
	ClimateOn      bool    `json:"climateOn"`
	Driving        bool    `json:"driving"`
	Connected      bool    `json:"connected"`
	ConnectedID    *string `json:"connectedId,omitempty" gorm:"index"`
	ChargeID       *string `json:"chargeId,omitempty" gorm:"index"`
	TripID         *string `json:"tripId,omitempty" gorm:"index"`
	ChargePlan     []ChargePlanSegment `json:"chargePlan,omitempty" gorm:"-"`
	ChargePlanJSON []byte  `json:"-" gorm:"column:charge_plan"`
	SmartStatus    string  `json:"smartStatus"`
	Status         string  `json:"status"`
	Updated        time.Time `json:"updated"`
	ProviderData   []byte  `json:"providerData,omitempty"`
}

// ValidConfig checks the invariants on the user-mutable configuration
// subset: minimum ≤ maximum ≤ 100, anxiety level in {0,1,2}.
func (v *Vehicle) ValidConfig() error {
	if v.MinimumCharge < 0 || v.MaximumCharge > 100 || v.MinimumCharge > v.MaximumCharge {
		return NewError(KindInvalidInput, "vehicle.ValidConfig", fmt.Errorf("minimum %d must be <= maximum %d and within 0..100", v.MinimumCharge, v.MaximumCharge))
	}
	if v.AnxietyLevel < 0 || v.AnxietyLevel > 2 {
		return NewError(KindInvalidInput, "vehicle.ValidConfig", fmt.Errorf("anxietyLevel %d must be in {0,1,2}", v.AnxietyLevel))
	}
	return nil
}

// InEmergency reports whether the vehicle is below its configured minimum.
func (v *Vehicle) InEmergency() bool { return v.Level < v.MinimumCharge }
