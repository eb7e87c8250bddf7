package resource

import (
	"context"
	"math"
	"time"
)

// PopulationSource reports how many tracked patients are currently
// high-risk; forecast growth scales with that count.
type PopulationSource interface {
	HighRiskCount(ctx context.Context) (int, error)
}

type Service struct {
	repo       Repository
	population PopulationSource
}

func NewService(repo Repository, population PopulationSource) *Service {
	return &Service{repo: repo, population: population}
}

func (s *Service) List(ctx context.Context) ([]Allocation, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, region string) (Allocation, error) {
	return s.repo.Get(ctx, region)
}

// Upsert stores the allocation for a region, stamping the update time.
func (s *Service) Upsert(ctx context.Context, a Allocation) (Allocation, error) {
	a.LastUpdated = time.Now()
	return s.repo.Upsert(ctx, a)
}

func (s *Service) Delete(ctx context.Context, region string) error {
	return s.repo.Delete(ctx, region)
}

var forecastMonths = []string{"Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Forecast projects six months of demand for one resource metric. The
// projection grows the cross-region average by 10% per month plus 1% per
// currently high-risk patient.
func (s *Service) Forecast(ctx context.Context, metric string) ([]ForecastPoint, error) {
	allocations, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	highRisk, err := s.population.HighRiskCount(ctx)
	if err != nil {
		return nil, err
	}

	var sum float64
	for _, a := range allocations {
		switch metric {
		case "nicuBeds":
			sum += float64(a.NICUBeds)
		case "obgynStaff":
			sum += float64(a.ObGynStaff)
		default:
			sum += float64(a.VaccineStock)
		}
	}
	count := len(allocations)
	if count == 0 {
		count = 1
	}
	average := sum / float64(count)

	growth := 0.1 + float64(highRisk)*0.01

	points := make([]ForecastPoint, 0, len(forecastMonths))
	for i, month := range forecastMonths {
		points = append(points, ForecastPoint{
			Month:    month,
			Current:  average,
			Forecast: int(math.Round(average * (1 + growth*float64(i+1)))),
		})
	}
	return points, nil
}
