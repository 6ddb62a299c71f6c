package domain

import "time"

// ChargeType tags the rationale behind a plan segment. Priority ordering
// (lower sorts first on a tie) follows the declaration order here.
type ChargeType string

const (
	ChargeTypeCalibrate ChargeType = "calibrate"
	ChargeTypeMinimum   ChargeType = "minimum"
	ChargeTypeTrip      ChargeType = "trip"
	ChargeTypeRoutine   ChargeType = "routine"
	ChargeTypePrefered  ChargeType = "prefered"
	ChargeTypeFill      ChargeType = "fill"
)

// typePriority maps a ChargeType to its reconciliation sort priority. Lower
// sorts first among segments tied on chargeStart/chargeStop.
var typePriority = map[ChargeType]int{
	ChargeTypeCalibrate: 0,
	ChargeTypeMinimum:   1,
	ChargeTypeTrip:      2,
	ChargeTypeRoutine:   3,
	ChargeTypePrefered:  4,
	ChargeTypeFill:      5,
}

func (t ChargeType) Priority() int {
	if p, ok := typePriority[t]; ok {
		return p
	}
	return len(typePriority)
}

// ChargePlanSegment is one element of a vehicle's charge plan. A nil
// ChargeStart means "start now"; a nil ChargeStop means "until done".
type ChargePlanSegment struct {
	ChargeStart *time.Time `json:"chargeStart"`
	ChargeStop  *time.Time `json:"chargeStop"`
	Level       int        `json:"level"`
	ChargeType  ChargeType `json:"chargeType"`
	Comment     string     `json:"comment"`
}

