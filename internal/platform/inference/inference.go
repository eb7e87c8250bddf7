// Package inference scores patient risk and generates population-level
// narratives. Predictions go to a hosted language model when configured and
// fall back to deterministic heuristics when the model is unreachable.
package inference

import "context"

// MaternalObservation is the input to a maternal risk prediction.
type MaternalObservation struct {
	Age         int
	RiskFactors []string
	Systolic    float64
	Diastolic   float64
	Weight      float64
}

// PediatricObservation is the input to a pediatric risk prediction.
type PediatricObservation struct {
	BirthWeight    float64
	GestationWeeks int
	RiskFactors    []string
}

// RiskAssessment is a scored prediction for a single patient.
type RiskAssessment struct {
	Score       int     `json:"riskScore"`
	Level       string  `json:"riskLevel"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

// RiskPredictor scores individual patients.
type RiskPredictor interface {
	PredictMaternalRisk(ctx context.Context, obs MaternalObservation) (RiskAssessment, error)
	PredictPediatricRisk(ctx context.Context, obs PediatricObservation) (RiskAssessment, error)
}

// RiskFactorCount pairs a risk factor with how many records carry it.
type RiskFactorCount struct {
	Factor string `json:"factor"`
	Count  int    `json:"count"`
}

// PopulationSnapshot summarizes the tracked population for insight
// generation.
type PopulationSnapshot struct {
	MaternalCount  int
	PediatricCount int
	HighRiskCount  int
	TopRiskFactors []RiskFactorCount
}

// InsightGenerator produces short narrative insights about the population.
type InsightGenerator interface {
	GenerateInsights(ctx context.Context, snap PopulationSnapshot) []string
}

// PolicyInput describes a proposed intervention to simulate.
type PolicyInput struct {
	Name             string
	Description      string
	TargetPopulation int
}

// PolicyImpact is the simulated effect of a policy.
type PolicyImpact struct {
	MaternalMortalityChange float64 `json:"maternalMortalityChange"`
	InfantMortalityChange   float64 `json:"infantMortalityChange"`
	CostIncrease            float64 `json:"costIncrease"`
	Confidence              float64 `json:"confidence"`
}

// PolicySimulator predicts the impact of a policy. Implementations never
// fail: they return defaults when the model is unavailable.
type PolicySimulator interface {
	SimulatePolicy(ctx context.Context, in PolicyInput) PolicyImpact
}

// LevelForScore maps a 0-100 risk score to its categorical level.
func LevelForScore(score int) string {
	switch {
	case score >= 80:
		return "critical"
	case score >= 60:
		return "high"
	case score >= 40:
		return "medium"
	default:
		return "low"
	}
}
