package policy

import (
	"context"
	"fmt"
	"time"

	"github.com/mchtrack/mchtrack/internal/platform/inference"
)

type Service struct {
	repo      Repository
	simulator inference.PolicySimulator
}

func NewService(repo Repository, simulator inference.PolicySimulator) *Service {
	return &Service{repo: repo, simulator: simulator}
}

func (s *Service) ListScenarios(ctx context.Context) ([]Scenario, error) {
	return s.repo.List(ctx)
}

func (s *Service) GetScenario(ctx context.Context, scenarioID string) (Scenario, error) {
	return s.repo.Get(ctx, scenarioID)
}

func (s *Service) DeleteScenario(ctx context.Context, scenarioID string) error {
	return s.repo.Delete(ctx, scenarioID)
}

// CreateScenario simulates the proposed policy's impact and stores it under
// a generated scenario id.
func (s *Service) CreateScenario(ctx context.Context, name, description string, targetPopulation int) (Scenario, error) {
	if targetPopulation <= 0 {
		targetPopulation = 1000
	}

	impact := s.simulator.SimulatePolicy(ctx, inference.PolicyInput{
		Name:             name,
		Description:      description,
		TargetPopulation: targetPopulation,
	})

	scenario := Scenario{
		ScenarioID:              newScenarioID(),
		Name:                    name,
		Description:             description,
		MaternalMortalityChange: impact.MaternalMortalityChange,
		InfantMortalityChange:   impact.InfantMortalityChange,
		CostIncrease:            impact.CostIncrease,
		ImplementationTime:      "6-12 months",
	}
	return s.repo.Upsert(ctx, scenario)
}

// Simulate predicts a policy's impact without storing anything.
func (s *Service) Simulate(ctx context.Context, name, description string, targetPopulation int) inference.PolicyImpact {
	if targetPopulation <= 0 {
		targetPopulation = 1000
	}
	return s.simulator.SimulatePolicy(ctx, inference.PolicyInput{
		Name:             name,
		Description:      description,
		TargetPopulation: targetPopulation,
	})
}

// newScenarioID derives a short id from the last six digits of the current
// unix-millisecond clock.
func newScenarioID() string {
	ms := fmt.Sprintf("%d", time.Now().UnixMilli())
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	return "PS" + ms
}
