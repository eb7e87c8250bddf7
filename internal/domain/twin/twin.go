// Package twin tracks digital-twin telemetry: recorded vital signs and
// observed deviations from each patient's predicted baseline. Twin data is
// session-scoped and kept in memory only; it is not snapshotted.
package twin

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// VitalSigns is one recorded measurement set for a patient.
type VitalSigns struct {
	ID           string    `json:"id"`
	PatientID    string    `json:"patientId"`
	PatientType  string    `json:"patientType"`
	Systolic     float64   `json:"systolic"`
	Diastolic    float64   `json:"diastolic"`
	HeartRate    float64   `json:"heartRate"`
	BloodGlucose float64   `json:"bloodGlucose"`
	Weight       float64   `json:"weight"`
	Temperature  float64   `json:"temperature"`
	Timestamp    time.Time `json:"timestamp"`
}

// Deviation records an observed departure from the twin's prediction.
type Deviation struct {
	ID               string    `json:"id"`
	PatientID        string    `json:"patientId"`
	PatientType      string    `json:"patientType"`
	Parameter        string    `json:"parameter"`
	ExpectedValue    float64   `json:"expectedValue"`
	ActualValue      float64   `json:"actualValue"`
	DeviationPercent float64   `json:"deviationPercent"`
	Timestamp        time.Time `json:"timestamp"`
}

// ComparisonPoint pairs the twin's predicted value with a recorded one.
type ComparisonPoint struct {
	Day       int       `json:"day"`
	Predicted float64   `json:"predicted"`
	Actual    float64   `json:"actual"`
	Timestamp time.Time `json:"timestamp"`
}

type Service struct {
	mu         sync.RWMutex
	vitals     []VitalSigns
	deviations []Deviation
}

func NewService() *Service {
	return &Service{}
}

// RecordVitals stores a measurement and returns it with id and timestamp
// assigned.
func (s *Service) RecordVitals(v VitalSigns) VitalSigns {
	v.ID = "vital-" + uuid.NewString()
	v.Timestamp = time.Now()

	s.mu.Lock()
	s.vitals = append(s.vitals, v)
	s.mu.Unlock()
	return v
}

// RecordDeviation stores an observed deviation.
func (s *Service) RecordDeviation(d Deviation) Deviation {
	d.ID = "deviation-" + uuid.NewString()
	d.Timestamp = time.Now()

	s.mu.Lock()
	s.deviations = append(s.deviations, d)
	s.mu.Unlock()
	return d
}

// Deviations returns up to limit deviations in recording order.
func (s *Service) Deviations(limit int) []Deviation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.deviations) {
		limit = len(s.deviations)
	}
	out := make([]Deviation, limit)
	copy(out, s.deviations[:limit])
	return out
}

// VitalsFor returns a patient's measurements within the lookback window,
// newest first.
func (s *Service) VitalsFor(patientID string, days int) []VitalSigns {
	if days <= 0 {
		days = 30
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	s.mu.RLock()
	out := make([]VitalSigns, 0)
	for _, v := range s.vitals {
		if v.PatientID == patientID && v.Timestamp.After(cutoff) {
			out = append(out, v)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// Comparison maps a patient's recorded systolic readings against the twin's
// simple declining baseline prediction.
func (s *Service) Comparison(patientID string, days int) []ComparisonPoint {
	vitals := s.VitalsFor(patientID, days)

	points := make([]ComparisonPoint, 0, len(vitals))
	for i, v := range vitals {
		actual := v.Systolic
		if actual == 0 {
			actual = 120
		}
		points = append(points, ComparisonPoint{
			Day:       i + 1,
			Predicted: 120 - float64(i)*0.5,
			Actual:    actual,
			Timestamp: v.Timestamp,
		})
	}
	return points
}
