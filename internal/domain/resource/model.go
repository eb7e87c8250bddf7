package resource

import "time"

// Allocation is the resource provisioning record for one region.
type Allocation struct {
	ID           string    `json:"id"`
	Region       string    `json:"region"`
	NICUBeds     int       `json:"nicuBeds"`
	ObGynStaff   int       `json:"obgynStaff"`
	VaccineStock int       `json:"vaccineStock"`
	LastUpdated  time.Time `json:"lastUpdated"`
}

// ForecastPoint is one month of a resource demand projection.
type ForecastPoint struct {
	Month    string  `json:"month"`
	Current  float64 `json:"current"`
	Forecast int     `json:"forecast"`
}
