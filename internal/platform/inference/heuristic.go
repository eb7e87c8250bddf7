package inference

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// Heuristic is a deterministic predictor used when no model is configured
// or the model call fails. Same inputs always produce the same assessment.
type Heuristic struct{}

var highPriorityFactors = []string{"hypertension", "diabetes", "preterm", "hemorrhage"}

func (Heuristic) PredictMaternalRisk(_ context.Context, obs MaternalObservation) (RiskAssessment, error) {
	score := 30

	if obs.Age > 0 {
		if obs.Age < 18 || obs.Age > 35 {
			score += 15
		}
		if obs.Age > 40 {
			score += 25
		}
	}

	score += len(obs.RiskFactors) * 10

	hasHighRisk := false
	for _, rf := range obs.RiskFactors {
		lower := strings.ToLower(rf)
		for _, hp := range highPriorityFactors {
			if strings.Contains(lower, hp) {
				hasHighRisk = true
			}
		}
	}
	if hasHighRisk {
		score += 20
	}

	if obs.Systolic > 140 {
		score += 20
	}

	score = clampScore(score)

	explanation := fmt.Sprintf("Risk assessment based on %d risk factors", len(obs.RiskFactors))
	if obs.Age > 0 {
		explanation += fmt.Sprintf(", age %d", obs.Age)
	}
	if hasHighRisk {
		explanation += ", and high-priority risk factors detected"
	}
	explanation += "."

	return RiskAssessment{
		Score:       score,
		Level:       LevelForScore(score),
		Confidence:  0.75,
		Explanation: explanation,
	}, nil
}

func (Heuristic) PredictPediatricRisk(_ context.Context, obs PediatricObservation) (RiskAssessment, error) {
	score := 25

	if obs.BirthWeight > 0 && obs.BirthWeight < 2.5 {
		score += 25
	}
	if obs.GestationWeeks > 0 && obs.GestationWeeks < 37 {
		score += 20
	}
	score += len(obs.RiskFactors) * 12

	score = clampScore(score)

	return RiskAssessment{
		Score:      score,
		Level:      LevelForScore(score),
		Confidence: 0.70,
		Explanation: fmt.Sprintf(
			"Pediatric risk assessment based on %d risk factors, birth weight, and gestation period.",
			len(obs.RiskFactors)),
	}, nil
}

// GenerateInsights returns five templated insights derived from the
// snapshot. Used directly as the fallback when the model is unavailable.
func (Heuristic) GenerateInsights(_ context.Context, snap PopulationSnapshot) []string {
	total := snap.MaternalCount + snap.PediatricCount

	top := RiskFactorCount{Factor: "No risk factors identified"}
	if len(snap.TopRiskFactors) > 0 {
		top = snap.TopRiskFactors[0]
	}

	riskRatio := 0.0
	if total > 0 {
		riskRatio = float64(snap.HighRiskCount) / float64(total) * 100
	}

	additional := int(math.Round(float64(snap.HighRiskCount) * 0.3))

	return []string{
		fmt.Sprintf("Currently monitoring %d total patients with %d identified as high-risk.", total, snap.HighRiskCount),
		fmt.Sprintf("Top risk factor %q appears in %d patient records, requiring focused intervention.", top.Factor, top.Count),
		fmt.Sprintf("High-risk patient ratio of %.1f%% suggests need for enhanced monitoring protocols.", riskRatio),
		"Resource allocation should prioritize regions with highest concentration of identified risk factors.",
		fmt.Sprintf("Predictive analytics indicate potential for %d additional high-risk identifications with expanded data collection.", additional),
	}
}

// SimulatePolicy returns the fixed conservative default impact.
func (Heuristic) SimulatePolicy(context.Context, PolicyInput) PolicyImpact {
	return defaultPolicyImpact()
}

func defaultPolicyImpact() PolicyImpact {
	return PolicyImpact{
		MaternalMortalityChange: -15,
		InfantMortalityChange:   -12,
		CostIncrease:            18,
		Confidence:              0.75,
	}
}

func clampScore(score int) int {
	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}
