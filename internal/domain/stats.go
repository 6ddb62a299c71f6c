package domain

import "time"

// CurrentStats is the Statistics Engine's output for one (vehicle,
// location) pair. It is stale the moment a newer price point lands for the
// vehicle's price code.
type CurrentStats struct {
	StatsID         string    `json:"statsId" gorm:"primaryKey"`
	VehicleID       string    `json:"vehicleId" gorm:"index:stats_vl"`
	LocationID      string    `json:"locationId" gorm:"index:stats_vl"`
	PriceListTs     time.Time `json:"priceListTs"`
	LevelChargeTime int       `json:"levelChargeTime"`
	WeeklyAvg7Price float64   `json:"weeklyAvg7Price"`
	WeeklyAvg21Price float64  `json:"weeklyAvg21Price"`
	Threshold       int       `json:"threshold"`
}

// Stale reports whether this row's recorded price timestamp lags the latest
// price point available for the vehicle's price code.
func (s *CurrentStats) Stale(latestPriceTs time.Time) bool {
	return !s.PriceListTs.Equal(latestPriceTs)
}
