// Package derive regenerates policy scenarios and resource allocations from
// the tracked patient population after each data ingest.
package derive

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mchtrack/mchtrack/internal/domain/patient"
	"github.com/mchtrack/mchtrack/internal/domain/policy"
	"github.com/mchtrack/mchtrack/internal/domain/resource"
)

// Generator derives policy scenarios and resource allocations from patient
// data. Each derived collection is only written while it is empty, so
// operator edits and re-uploads never clobber existing records. The mutex
// makes the whole pass single-flight: concurrent uploads cannot both pass
// the empty-collection check.
type Generator struct {
	mu        sync.Mutex
	maternal  patient.MaternalRepository
	pediatric patient.PediatricRepository
	policies  policy.Repository
	resources resource.Repository
	logger    zerolog.Logger
}

func NewGenerator(
	maternal patient.MaternalRepository,
	pediatric patient.PediatricRepository,
	policies policy.Repository,
	resources resource.Repository,
	logger zerolog.Logger,
) *Generator {
	return &Generator{
		maternal:  maternal,
		pediatric: pediatric,
		policies:  policies,
		resources: resources,
		logger:    logger.With().Str("component", "derive").Logger(),
	}
}

// Generate runs both derivation passes. The first error aborts the rest.
func (g *Generator) Generate(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.generatePolicyScenarios(ctx); err != nil {
		return fmt.Errorf("generating policy scenarios: %w", err)
	}
	if err := g.generateResourceAllocations(ctx); err != nil {
		return fmt.Errorf("generating resource allocations: %w", err)
	}
	return nil
}

type scenarioTemplate struct {
	scenarioID              string
	name                    string
	description             string
	maternalMortalityChange float64
	infantMortalityChange   float64
	costIncrease            float64
	implementationTime      string
}

var scenarioCatalogue = []scenarioTemplate{
	{
		scenarioID:              "PS001",
		name:                    "Enhanced Prenatal Screening",
		description:             "Implement comprehensive risk screening at every prenatal visit using AI-powered assessment tools",
		maternalMortalityChange: -15,
		infantMortalityChange:   -12,
		costIncrease:            8,
		implementationTime:      "6-9 months",
	},
	{
		scenarioID:              "PS002",
		name:                    "Mobile Health Clinics",
		description:             "Deploy mobile health units to underserved areas for increased access to prenatal and postnatal care",
		maternalMortalityChange: -22,
		infantMortalityChange:   -18,
		costIncrease:            15,
		implementationTime:      "12-18 months",
	},
	{
		scenarioID:              "PS003",
		name:                    "Community Health Worker Program",
		description:             "Train and deploy community health workers for home visits and early intervention",
		maternalMortalityChange: -18,
		infantMortalityChange:   -20,
		costIncrease:            12,
		implementationTime:      "9-12 months",
	},
}

func (g *Generator) generatePolicyScenarios(ctx context.Context) error {
	existing, err := g.policies.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	maternal, pediatric, err := g.listPatients(ctx)
	if err != nil {
		return err
	}
	total := len(maternal) + len(pediatric)
	if total == 0 {
		return nil
	}

	highRisk := 0
	for _, p := range maternal {
		if p.HighRisk() {
			highRisk++
		}
	}
	for _, p := range pediatric {
		if p.HighRisk() {
			highRisk++
		}
	}
	highRiskPct := float64(highRisk) / float64(total) * 100

	factor := 0.8
	switch {
	case highRiskPct > 40:
		factor = 1.2
	case highRiskPct > 20:
		factor = 1.0
	}

	for _, tpl := range scenarioCatalogue {
		_, err := g.policies.Upsert(ctx, policy.Scenario{
			ScenarioID:              tpl.scenarioID,
			Name:                    tpl.name,
			Description:             tpl.description,
			MaternalMortalityChange: math.Round(tpl.maternalMortalityChange * factor),
			InfantMortalityChange:   math.Round(tpl.infantMortalityChange * factor),
			CostIncrease:            tpl.costIncrease,
			ImplementationTime:      tpl.implementationTime,
		})
		if err != nil {
			return err
		}
	}

	g.logger.Info().
		Float64("high_risk_pct", highRiskPct).
		Float64("factor", factor).
		Msg("generated policy scenarios")
	return nil
}

var defaultDistricts = []resource.Allocation{
	{Region: "North District", NICUBeds: 45, ObGynStaff: 32, VaccineStock: 78},
	{Region: "South District", NICUBeds: 38, ObGynStaff: 28, VaccineStock: 85},
	{Region: "East District", NICUBeds: 52, ObGynStaff: 38, VaccineStock: 72},
	{Region: "West District", NICUBeds: 41, ObGynStaff: 30, VaccineStock: 80},
	{Region: "Central District", NICUBeds: 48, ObGynStaff: 35, VaccineStock: 88},
}

type regionStats struct {
	total    int
	highRisk int
}

func (g *Generator) generateResourceAllocations(ctx context.Context) error {
	existing, err := g.resources.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	maternal, pediatric, err := g.listPatients(ctx)
	if err != nil {
		return err
	}
	if len(maternal)+len(pediatric) == 0 {
		return nil
	}

	// Patient ids carry a facility prefix; its first three characters stand
	// in for a region code.
	regions := make(map[string]*regionStats)
	order := make([]string, 0)
	tally := func(naturalID string, highRisk bool) {
		code := regionCode(naturalID)
		if code == "" {
			return
		}
		stats, ok := regions[code]
		if !ok {
			stats = &regionStats{}
			regions[code] = stats
			order = append(order, code)
		}
		stats.total++
		if highRisk {
			stats.highRisk++
		}
	}
	for _, p := range maternal {
		tally(p.PatientID, p.HighRisk())
	}
	for _, p := range pediatric {
		tally(p.ChildID, p.HighRisk())
	}

	if len(regions) == 0 {
		for _, district := range defaultDistricts {
			district.LastUpdated = time.Now()
			if _, err := g.resources.Upsert(ctx, district); err != nil {
				return err
			}
		}
		g.logger.Info().Msg("generated default district allocations")
		return nil
	}

	for _, code := range order {
		stats := regions[code]
		riskRatio := float64(stats.highRisk) / float64(stats.total)
		total := float64(stats.total)

		_, err := g.resources.Upsert(ctx, resource.Allocation{
			Region:       code + " Region",
			NICUBeds:     capped(total*8*(1+riskRatio), 20, 80),
			ObGynStaff:   capped(total*6*(1+riskRatio), 15, 60),
			VaccineStock: capped(75+total*2*(1+riskRatio*0.5), 60, 95),
			LastUpdated:  time.Now(),
		})
		if err != nil {
			return err
		}
	}

	g.logger.Info().Int("regions", len(regions)).Msg("generated resource allocations")
	return nil
}

func (g *Generator) listPatients(ctx context.Context) ([]patient.Maternal, []patient.Pediatric, error) {
	maternal, err := g.maternal.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	pediatric, err := g.pediatric.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	return maternal, pediatric, nil
}

func regionCode(naturalID string) string {
	if len(naturalID) < 3 {
		return strings.ToUpper(naturalID)
	}
	return strings.ToUpper(naturalID[:3])
}

func capped(value float64, floor, ceiling int) int {
	v := int(math.Round(value))
	if v < floor {
		v = floor
	}
	if v > ceiling {
		v = ceiling
	}
	return v
}
