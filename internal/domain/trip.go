package domain

import "time"

// Trip spans a movement episode between two (possibly unknown) locations.
// Trips shorter than 1 km are discarded entirely once closed, so a Trip row
// existing in storage always represents real travel.
type Trip struct {
	TripID               string    `json:"tripId" gorm:"primaryKey"`
	VehicleID            string    `json:"vehicleId" gorm:"index"`
	StartTs              time.Time `json:"startTs"`
	EndTs                time.Time `json:"endTs"`
	StartLevel           int       `json:"startLevel"`
	EndLevel             int       `json:"endLevel"`
	StartLocationID      *string   `json:"startLocationId,omitempty"`
	EndLocationID        *string   `json:"endLocationId,omitempty"`
	StartOdometerM       int64     `json:"startOdometerM"`
	StartOutsideDeciTemp int       `json:"startOutsideDeciTemp"`
	DistanceM            int64     `json:"distanceM"`
}

// MinTripDistanceM is the discard threshold: trips under this many meters
// never survive termination.
const MinTripDistanceM = 1000
