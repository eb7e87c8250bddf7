package patient

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mchtrack/mchtrack/internal/platform/inference"
)

// Deriver regenerates policy scenarios and resource allocations from the
// current patient population.
type Deriver interface {
	Generate(ctx context.Context) error
}

type Service struct {
	maternal  MaternalRepository
	pediatric PediatricRepository
	predictor inference.RiskPredictor
	deriver   Deriver
	logger    zerolog.Logger
}

func NewService(
	maternal MaternalRepository,
	pediatric PediatricRepository,
	predictor inference.RiskPredictor,
	deriver Deriver,
	logger zerolog.Logger,
) *Service {
	return &Service{
		maternal:  maternal,
		pediatric: pediatric,
		predictor: predictor,
		deriver:   deriver,
		logger:    logger.With().Str("component", "patient").Logger(),
	}
}

func (s *Service) ListMaternal(ctx context.Context) ([]Maternal, error) {
	return s.maternal.List(ctx)
}

func (s *Service) GetMaternal(ctx context.Context, patientID string) (Maternal, error) {
	return s.maternal.Get(ctx, patientID)
}

func (s *Service) DeleteMaternal(ctx context.Context, patientID string) error {
	return s.maternal.Delete(ctx, patientID)
}

func (s *Service) ListPediatric(ctx context.Context) ([]Pediatric, error) {
	return s.pediatric.List(ctx)
}

func (s *Service) GetPediatric(ctx context.Context, childID string) (Pediatric, error) {
	return s.pediatric.Get(ctx, childID)
}

func (s *Service) DeletePediatric(ctx context.Context, childID string) error {
	return s.pediatric.Delete(ctx, childID)
}

// HighRiskCount counts tracked patients of either kind whose level is high
// or critical.
func (s *Service) HighRiskCount(ctx context.Context) (int, error) {
	maternal, err := s.maternal.List(ctx)
	if err != nil {
		return 0, err
	}
	pediatric, err := s.pediatric.List(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, p := range maternal {
		if p.HighRisk() {
			count++
		}
	}
	for _, p := range pediatric {
		if p.HighRisk() {
			count++
		}
	}
	return count, nil
}
