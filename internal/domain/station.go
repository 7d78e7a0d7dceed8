package domain

import "strings"

// ChargerClass is the connector class used for tariff lookup.
type ChargerClass string

const (
	ClassAC ChargerClass = "AC"
	ClassDC ChargerClass = "DC"
)

const (
	// A station is DC when any connector is rated at or above this power.
	DCThresholdKw = 50.0
	// Power assumed when the provider reports no connector power at all.
	DefaultStationPowerKw = 11.0

	defaultStationName = "Charge point"
)

// ChargeStation is a charging point of interest along the route.
// Identity for deduplication is ID.
type ChargeStation struct {
	ID         string
	Name       string
	Location   GeoPoint
	MaxPowerKw float64
	Class      ChargerClass
}

// NewChargeStation derives class and power from the rated power of each connector.
// Non-positive connector powers are treated as unknown.
func NewChargeStation(id, name string, loc GeoPoint, connectorPowersKw []float64) ChargeStation {
	maxKw := 0.0
	for _, p := range connectorPowersKw {
		if p > maxKw {
			maxKw = p
		}
	}

	class := ClassAC
	if maxKw >= DCThresholdKw {
		class = ClassDC
	}

	if maxKw <= 0 {
		maxKw = DefaultStationPowerKw
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultStationName
	}

	return ChargeStation{
		ID:         id,
		Name:       name,
		Location:   loc,
		MaxPowerKw: maxKw,
		Class:      class,
	}
}

// ChargingPowerKw returns the power the vehicle can actually draw at this station.
// AC charging is limited by the on-board charger; DC bypasses it.
func (s ChargeStation) ChargingPowerKw(vehicleACCapKw float64) float64 {
	if s.Class == ClassAC && vehicleACCapKw > 0 && vehicleACCapKw < s.MaxPowerKw {
		return vehicleACCapKw
	}
	return s.MaxPowerKw
}
