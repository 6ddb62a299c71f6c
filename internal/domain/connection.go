package domain

import "time"

type ConnectionType string

const (
	ConnectionTypeAC ConnectionType = "ac"
	ConnectionTypeDC ConnectionType = "dc"
)

// Connection tracks one plug-in session. It is mutated in place until
// end_ts is finalized, nesting zero or more Charges.
type Connection struct {
	ConnectedID string         `json:"connectedId" gorm:"primaryKey"`
	VehicleID   string         `json:"vehicleId" gorm:"index"`
	LocationID  string         `json:"locationId" gorm:"index"`
	Type        ConnectionType `json:"type"`
	StartTs     time.Time      `json:"startTs"`
	EndTs       time.Time      `json:"endTs"`
	StartLevel  int            `json:"startLevel"`
	EndLevel    int            `json:"endLevel"`
	EnergyUsedWm int64         `json:"energyUsedWm"`
	Cost        int64          `json:"cost"`
	Saved       int64          `json:"saved"`
	Connected   bool           `json:"connected"`
}
