package domain

import "time"

// Charge is a single charging episode nested inside a Connection.
type Charge struct {
	ChargeID     string         `json:"chargeId" gorm:"primaryKey"`
	ConnectedID  string         `json:"connectedId" gorm:"index"`
	VehicleID    string         `json:"vehicleId" gorm:"index"`
	LocationID   string         `json:"locationId" gorm:"index"`
	Type         ConnectionType `json:"type"`
	StartTs      time.Time      `json:"startTs"`
	EndTs        time.Time      `json:"endTs"`
	StartLevel   int            `json:"startLevel"`
	EndLevel     int            `json:"endLevel"`
	StartAddedWm int64          `json:"startAddedWm"`
	EndAddedWm   int64          `json:"endAddedWm"`
	TargetLevel  int            `json:"targetLevel"`
	EstimateMin  int            `json:"estimateMin"`
	EnergyUsedWm int64          `json:"energyUsedWm"`
}

// ChargeCurrent is the live accumulator for an active Charge, holding the
// raw power and temperature samples seen since the last whole percent was
// crossed. It is deleted the moment the Charge terminates.
type ChargeCurrent struct {
	ChargeID         string    `json:"chargeId" gorm:"primaryKey"`
	StartTs          time.Time `json:"startTs"`
	StartLevel       int       `json:"startLevel"`
	StartAddedWm     int64     `json:"startAddedWm"`
	PowersW          []int     `json:"powersW" gorm:"serializer:json"`
	OutsideDeciTemps []int     `json:"outsideDeciTemps" gorm:"serializer:json"`
	// FirstCrossingSeen marks whether the accumulator has already passed
	// through one 1%-gain crossing since the Charge opened. The very first
	// crossing is integer-truncation noise and is discarded rather than
	// persisted as a ChargeCurve row.
	FirstCrossingSeen bool `json:"firstCrossingSeen"`
}

// ChargeCurve is one learned (vehicle, location, level) → duration row.
type ChargeCurve struct {
	VehicleID    string `json:"vehicleId" gorm:"primaryKey;index:curve_vl"`
	LocationID   string `json:"locationId" gorm:"primaryKey;index:curve_vl"`
	Level        int    `json:"level" gorm:"primaryKey"`
	DurationS    int    `json:"durationS"`
	AvgDeciTemp  int    `json:"avgDeciTemp"`
	EnergyUsedWm int64  `json:"energyUsedWm"`
	EnergyAddedWm int64 `json:"energyAddedWm"`
}
