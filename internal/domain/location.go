package domain

import "math"

// Geo is a point in integer micro-degrees (round(deg * 1e6)).
type Geo struct {
	LatMicro int64 `json:"latMicro"`
	LonMicro int64 `json:"lonMicro"`
}

// Location is a known charging site. A vehicle is "at" the location whose
// circle contains its reported point; ties are broken by the smallest radius.
type Location struct {
	ID              string `json:"id" gorm:"primaryKey"`
	AccountID       string `json:"accountId" gorm:"index"`
	Name            string `json:"name"`
	Geo             Geo    `json:"geo" gorm:"embedded"`
	GeoFenceRadiusM int64  `json:"geoFenceRadiusM"`
	PriceCode       string `json:"priceCode" gorm:"index"`
}

// haversineM is the great-circle distance in meters between two points given
// in micro-degrees.
func haversineM(a, b Geo) float64 {
	const earthRadiusM = 6371000.0
	const microToRad = math.Pi / 180.0 / 1e6

	lat1 := float64(a.LatMicro) * microToRad
	lat2 := float64(b.LatMicro) * microToRad
	dLat := lat2 - lat1
	dLon := (float64(b.LonMicro) - float64(a.LonMicro)) * microToRad

	sinDLat := math.Sin(dLat / 2)
	sinDLon := math.Sin(dLon / 2)
	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLon*sinDLon
	return 2 * earthRadiusM * math.Asin(math.Sqrt(h))
}

// EnclosedBy reports whether point p lies within loc's geo-fence.
func (loc *Location) EnclosedBy(p Geo) bool {
	return haversineM(loc.Geo, p) <= float64(loc.GeoFenceRadiusM)
}
