package domain

import "time"

// Strategy describes when charging starts relative to departure.
type Strategy string

const (
	StrategyNow             Strategy = "now"
	StrategyDeferredOffPeak Strategy = "offpeak"
)

// Mode tells whether the stop is required by range or requested as a top-up.
type Mode string

const (
	ModeNeeded Mode = "needed"
	ModeTopUp  Mode = "topup"
)

// StopCandidate is the cheapest strategy for one station.
// It is transient and only lives for the comparison across stations.
type StopCandidate struct {
	Station  ChargeStation
	StartAt  time.Time
	EndAt    time.Time
	PowerKw  float64
	Cost     float64
	Strategy Strategy
}

// Recommendation is the charging decision returned to the driver.
type Recommendation struct {
	Station   ChargeStation
	StartAt   time.Time
	EndAt     time.Time
	EnergyKWh float64
	PowerKw   float64
	CostEUR   float64
	Strategy  Strategy
	Mode      Mode
}

// PlanResult is the output of a plan request. Recommendation is nil when
// no stop is needed.
type PlanResult struct {
	Route          *Route
	Recommendation *Recommendation
	Note           string
}
