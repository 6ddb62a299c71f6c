package domain

// ConnectedCharger is the type of charger reported attached to the vehicle,
// if any.
type ConnectedCharger string

const (
	ConnectedChargerNone ConnectedCharger = ""
	ConnectedChargerAC   ConnectedCharger = "ac"
	ConnectedChargerDC   ConnectedCharger = "dc"
)

// UpdateVehicleDataInput is the telemetry ingress payload, in the units the
// vendor adapter reports them (degrees, Celsius, kW, kWh) before the
// ingestor converts to storage units (micro-degrees, deci-°C, W, Wm).
type UpdateVehicleDataInput struct {
	ID                   string           `json:"id"`
	LatDeg               float64          `json:"lat"`
	LonDeg               float64          `json:"lon"`
	BatteryLevel         int              `json:"batteryLevel"`
	OdometerM            int64            `json:"odometer"`
	OutsideTemperatureC  float64          `json:"outsideTemperature"`
	InsideTemperatureC   float64          `json:"insideTemperature"`
	ClimateControl       bool             `json:"climateControl"`
	IsDriving            bool             `json:"isDriving"`
	ConnectedCharger     ConnectedCharger `json:"connectedCharger"`
	ChargingTo           *int             `json:"chargingTo,omitempty"`
	EstimatedTimeLeftMin *int             `json:"estimatedTimeLeft,omitempty"`
	PowerUseKW           *float64         `json:"powerUse,omitempty"`
	EnergyAddedKWh       *float64         `json:"energyAdded,omitempty"`
}
