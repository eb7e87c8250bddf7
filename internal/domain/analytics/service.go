// Package analytics computes dashboard statistics, trend projections, and
// model-performance summaries over the tracked patient population.
package analytics

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/mchtrack/mchtrack/internal/domain/patient"
	"github.com/mchtrack/mchtrack/internal/platform/inference"
)

// DashboardStats is the headline summary shown on the dashboard.
type DashboardStats struct {
	TotalPatients    int `json:"totalPatients"`
	HighRiskPatients int `json:"highRiskPatients"`
	AlertsToday      int `json:"alertsToday"`
	PendingActions   int `json:"pendingActions"`
}

// TrendPoint is one month of the risk distribution projection.
type TrendPoint struct {
	Month      string `json:"month"`
	HighRisk   int    `json:"highRisk"`
	MediumRisk int    `json:"mediumRisk"`
	LowRisk    int    `json:"lowRisk"`
}

// PerformancePoint is one month of predictive model quality metrics.
type PerformancePoint struct {
	Month     string  `json:"month"`
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
}

// FactorAnalysis summarizes one risk factor's prevalence and severity.
type FactorAnalysis struct {
	Name     string  `json:"name"`
	Count    int     `json:"count"`
	Severity float64 `json:"severity"`
}

type Service struct {
	maternal  patient.MaternalRepository
	pediatric patient.PediatricRepository
	predictor inference.RiskPredictor
	insights  inference.InsightGenerator
}

func NewService(
	maternal patient.MaternalRepository,
	pediatric patient.PediatricRepository,
	predictor inference.RiskPredictor,
	insights inference.InsightGenerator,
) *Service {
	return &Service{
		maternal:  maternal,
		pediatric: pediatric,
		predictor: predictor,
		insights:  insights,
	}
}

// riskRecord is the common view of both patient kinds used by the
// aggregation passes.
type riskRecord struct {
	riskScore   int
	riskLevel   string
	riskFactors []string
	lastUpdated time.Time
}

func (r riskRecord) highRisk() bool {
	return r.riskLevel == "high" || r.riskLevel == "critical"
}

func (s *Service) allRecords(ctx context.Context) (records []riskRecord, maternalCount, pediatricCount int, err error) {
	maternal, err := s.maternal.List(ctx)
	if err != nil {
		return nil, 0, 0, err
	}
	pediatric, err := s.pediatric.List(ctx)
	if err != nil {
		return nil, 0, 0, err
	}

	records = make([]riskRecord, 0, len(maternal)+len(pediatric))
	for _, p := range maternal {
		records = append(records, riskRecord{p.RiskScore, p.RiskLevel, p.RiskFactors, p.LastUpdated})
	}
	for _, p := range pediatric {
		records = append(records, riskRecord{p.RiskScore, p.RiskLevel, p.RiskFactors, p.LastUpdated})
	}
	return records, len(maternal), len(pediatric), nil
}

// Dashboard computes the headline statistics. Alerts are high-risk records
// updated within the last 24 hours; pending actions assume roughly one in
// five high-risk patients needs follow-up.
func (s *Service) Dashboard(ctx context.Context) (DashboardStats, error) {
	records, _, _, err := s.allRecords(ctx)
	if err != nil {
		return DashboardStats{}, err
	}

	dayAgo := time.Now().AddDate(0, 0, -1)
	stats := DashboardStats{TotalPatients: len(records)}
	for _, r := range records {
		if !r.highRisk() {
			continue
		}
		stats.HighRiskPatients++
		if r.lastUpdated.After(dayAgo) {
			stats.AlertsToday++
		}
	}
	stats.PendingActions = int(math.Ceil(float64(stats.HighRiskPatients) * 0.2))
	return stats, nil
}

var trendMonths = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun"}

// Trends projects a six-month risk distribution history from the current
// population by scaling today's counts backwards.
func (s *Service) Trends(ctx context.Context) ([]TrendPoint, error) {
	records, _, _, err := s.allRecords(ctx)
	if err != nil {
		return nil, err
	}

	var high, medium, low int
	for _, r := range records {
		switch {
		case r.highRisk():
			high++
		case r.riskLevel == "medium":
			medium++
		case r.riskLevel == "low":
			low++
		}
	}

	points := make([]TrendPoint, 0, len(trendMonths))
	for i, month := range trendMonths {
		factor := 0.7 + float64(i)*0.05
		points = append(points, TrendPoint{
			Month:      month,
			HighRisk:   int(math.Round(float64(high) * factor)),
			MediumRisk: int(math.Round(float64(medium) * factor)),
			LowRisk:    int(math.Round(float64(low) * factor)),
		})
	}
	return points, nil
}

// Insights gathers the top five risk factors and asks the generator for
// narrative insights about the population.
func (s *Service) Insights(ctx context.Context) ([]string, error) {
	records, maternalCount, pediatricCount, err := s.allRecords(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, r := range records {
		for _, f := range r.riskFactors {
			counts[f]++
		}
	}
	top := topFactors(counts, 5)

	highRisk := 0
	for _, r := range records {
		if r.highRisk() {
			highRisk++
		}
	}

	return s.insights.GenerateInsights(ctx, inference.PopulationSnapshot{
		MaternalCount:  maternalCount,
		PediatricCount: pediatricCount,
		HighRiskCount:  highRisk,
		TopRiskFactors: top,
	}), nil
}

// ModelPerformance reports a six-month quality curve. Accuracy starts at
// 0.82 and ramps up with the amount of available training data, capped at
// +0.09.
func (s *Service) ModelPerformance(ctx context.Context) ([]PerformancePoint, error) {
	records, _, _, err := s.allRecords(ctx)
	if err != nil {
		return nil, err
	}

	const baseAccuracy = 0.82
	improvement := math.Min(float64(len(records))/100, 0.09)

	points := make([]PerformancePoint, 0, len(trendMonths))
	for i := range trendMonths {
		step := improvement / float64(len(trendMonths)) * float64(i+1)
		points = append(points, PerformancePoint{
			Month:     trendMonths[i],
			Accuracy:  baseAccuracy + step,
			Precision: baseAccuracy + step - 0.02,
			Recall:    baseAccuracy + step + 0.03,
		})
	}
	return points, nil
}

// RiskFactors analyzes factor prevalence for one patient kind. Severity is
// the factor's average risk score scaled to a 0-5 band, one decimal.
func (s *Service) RiskFactors(ctx context.Context, kind string) ([]FactorAnalysis, error) {
	type factorAgg struct {
		count         int
		totalSeverity int
	}
	agg := make(map[string]*factorAgg)

	collect := func(factors []string, score int) {
		for _, f := range factors {
			a, ok := agg[f]
			if !ok {
				a = &factorAgg{}
				agg[f] = a
			}
			a.count++
			a.totalSeverity += score
		}
	}

	if kind == "pediatric" {
		patients, err := s.pediatric.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, p := range patients {
			collect(p.RiskFactors, p.RiskScore)
		}
	} else {
		patients, err := s.maternal.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, p := range patients {
			collect(p.RiskFactors, p.RiskScore)
		}
	}

	analysis := make([]FactorAnalysis, 0, len(agg))
	for name, a := range agg {
		severity := float64(a.totalSeverity) / float64(a.count) / 20
		analysis = append(analysis, FactorAnalysis{
			Name:     name,
			Count:    a.count,
			Severity: math.Round(severity*10) / 10,
		})
	}
	sort.Slice(analysis, func(i, j int) bool {
		if analysis[i].Count != analysis[j].Count {
			return analysis[i].Count > analysis[j].Count
		}
		return analysis[i].Name < analysis[j].Name
	})
	if len(analysis) > 6 {
		analysis = analysis[:6]
	}
	return analysis, nil
}

func topFactors(counts map[string]int, n int) []inference.RiskFactorCount {
	factors := make([]inference.RiskFactorCount, 0, len(counts))
	for f, c := range counts {
		factors = append(factors, inference.RiskFactorCount{Factor: f, Count: c})
	}
	sort.Slice(factors, func(i, j int) bool {
		if factors[i].Count != factors[j].Count {
			return factors[i].Count > factors[j].Count
		}
		return factors[i].Factor < factors[j].Factor
	})
	if len(factors) > n {
		factors = factors[:n]
	}
	return factors
}
