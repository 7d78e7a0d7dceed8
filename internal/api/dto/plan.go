package dto

// Point accepts a geocode result as-is, so the UI can post it back unchanged.
type Point struct {
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	DisplayName string   `json:"displayName,omitempty"`
}

type PlanRequest struct {
	Origin      *Point   `json:"origin"`
	Destination *Point   `json:"destination"`
	AutonomyKm  *float64 `json:"autonomyKm"`
	CWhPerKm    *float64 `json:"cWhPerKm"`
	DepartAtISO *string  `json:"departAtISO"`
	ForceCharge bool     `json:"forceCharge"`
	TopupKWh    *float64 `json:"topupKWh"`
}

type RouteSummary struct {
	DistanceKm  float64 `json:"distanceKm"`
	DurationMin float64 `json:"durationMin"`
	Polyline    string  `json:"polyline"`
}

type StationResponse struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	PowerKw float64 `json:"powerKw"`
	Type    string  `json:"type"`
}

type RecommendationResponse struct {
	Station          StationResponse `json:"station"`
	StartISO         string          `json:"startISO"`
	EndISO           string          `json:"endISO"`
	KWhToCharge      float64         `json:"kWhToCharge"`
	PowerKw          float64         `json:"powerKw"`
	EstimatedCostEUR float64         `json:"estimatedCostEUR"`
	Reason           string          `json:"reason"`
	Mode             string          `json:"mode"`
}

type PlanResponse struct {
	Route          RouteSummary            `json:"route"`
	Recommendation *RecommendationResponse `json:"recommendation"`
	Note           string                  `json:"note,omitempty"`
}
