package services

import (
	"ev-charge-planner/internal/domain"
	"math"
	"time"
)

const (
	// Required energy is inflated by this factor to keep a reserve on arrival.
	SafetyMargin = 1.10
	// Smallest top-up offered when a stop is forced with enough range.
	MinTopUpKWh = 5.0
	// On-board charger limit applied to AC stations.
	VehicleACCapKw = 11.0
	// Share of delivered power stored in the battery.
	ChargeEfficiency = 0.90
)

type EnergyInput struct {
	AutonomyKm         float64
	ConsumptionWhPerKm float64
	RouteDistanceKm    float64
	ForceCharge        bool
	TopUpKWh           float64
}

// EnergyAssessment is the outcome of the range check. TargetKWh and Mode are
// only set when StopNeeded is true.
type EnergyAssessment struct {
	AvailableKWh float64
	RequiredKWh  float64
	DeficitKWh   float64
	TargetKWh    float64
	Mode         domain.Mode
	StopNeeded   bool
}

// AssessEnergy compares the energy left in the battery with what the route
// needs. The deficit is rounded to one decimal before it drives the decision.
func AssessEnergy(in EnergyInput) EnergyAssessment {
	a := EnergyAssessment{
		AvailableKWh: in.AutonomyKm * in.ConsumptionWhPerKm / 1000,
		RequiredKWh:  in.RouteDistanceKm * in.ConsumptionWhPerKm / 1000 * SafetyMargin,
	}

	if a.AvailableKWh >= a.RequiredKWh && !in.ForceCharge {
		return a
	}

	a.StopNeeded = true
	a.DeficitKWh = roundTo(a.RequiredKWh-a.AvailableKWh, 1)

	if a.DeficitKWh > 0 {
		a.TargetKWh = a.DeficitKWh
		a.Mode = domain.ModeNeeded
		return a
	}

	a.TargetKWh = math.Max(in.TopUpKWh, MinTopUpKWh)
	a.Mode = domain.ModeTopUp
	return a
}

// Optimizer picks the cheapest station and start time under a time-of-use tariff.
type Optimizer struct {
	tariff     domain.TariffTable
	acCapKw    float64
	efficiency float64
}

func NewOptimizer(tariff domain.TariffTable) *Optimizer {
	return &Optimizer{
		tariff:     tariff,
		acCapKw:    VehicleACCapKw,
		efficiency: ChargeEfficiency,
	}
}

// Candidate evaluates both start strategies at one station and keeps the
// cheaper one. A tie keeps charging now.
func (o *Optimizer) Candidate(st domain.ChargeStation, departAt time.Time, kWh float64) domain.StopCandidate {
	power := st.ChargingPowerKw(o.acCapKw)
	dur := time.Duration(kWh / (power * o.efficiency) * float64(time.Hour))

	best := domain.StopCandidate{
		Station:  st,
		StartAt:  departAt,
		EndAt:    departAt.Add(dur),
		PowerKw:  power,
		Cost:     kWh * o.tariff.PriceAt(st.Class, departAt),
		Strategy: domain.StrategyNow,
	}

	deferred := o.tariff.NextOffPeakStart(departAt)
	if cost := kWh * o.tariff.PriceAt(st.Class, deferred); cost < best.Cost {
		best.StartAt = deferred
		best.EndAt = deferred.Add(dur)
		best.Cost = cost
		best.Strategy = domain.StrategyDeferredOffPeak
	}

	return best
}

// Choose returns the cheapest candidate across stations. Ties keep the
// station seen first, so the result depends on input order only through ties.
func (o *Optimizer) Choose(stations []domain.ChargeStation, departAt time.Time, kWh float64) (domain.StopCandidate, error) {
	var (
		best  domain.StopCandidate
		found bool
	)

	for _, st := range stations {
		if st.ChargingPowerKw(o.acCapKw) <= 0 {
			continue
		}
		c := o.Candidate(st, departAt, kWh)
		if !found || c.Cost < best.Cost {
			best = c
			found = true
		}
	}

	if !found {
		return domain.StopCandidate{}, domain.ErrNoStationsAvailable
	}
	return best, nil
}

// Recommend turns the best candidate into the rounded driver-facing decision.
func (o *Optimizer) Recommend(stations []domain.ChargeStation, departAt time.Time, energy EnergyAssessment) (*domain.Recommendation, error) {
	c, err := o.Choose(stations, departAt, energy.TargetKWh)
	if err != nil {
		return nil, err
	}

	return &domain.Recommendation{
		Station:   c.Station,
		StartAt:   c.StartAt,
		EndAt:     c.EndAt,
		EnergyKWh: roundTo(energy.TargetKWh, 1),
		PowerKw:   c.PowerKw,
		CostEUR:   roundTo(c.Cost, 2),
		Strategy:  c.Strategy,
		Mode:      energy.Mode,
	}, nil
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}
