package domain

import "time"

// PricePoint is one hour-aligned price observation for a price code. Price
// is the currency-per-kWh rate scaled by 1e5 to stay integer.
type PricePoint struct {
	PriceCode string    `json:"priceCode" gorm:"primaryKey;index"`
	Ts        time.Time `json:"ts" gorm:"primaryKey"`
	Price     int64     `json:"price"`
}

// PriceList is a batch of price points for one price code, as delivered by
// updatePrice before being upserted and fanned out via priceListRefreshed.
type PriceList struct {
	PriceCode string
	Points    []PricePoint
}
