package derive

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mchtrack/mchtrack/internal/domain/patient"
	"github.com/mchtrack/mchtrack/internal/domain/policy"
	"github.com/mchtrack/mchtrack/internal/domain/resource"
	"github.com/mchtrack/mchtrack/internal/platform/store"
)

type fixtures struct {
	gen       *Generator
	maternal  *patient.MemMaternalRepo
	pediatric *patient.MemPediatricRepo
	policies  *policy.MemRepo
	resources *resource.MemRepo
}

func newFixtures(t *testing.T) fixtures {
	t.Helper()
	maternal := patient.NewMemMaternalRepo(store.NewCollection[patient.Maternal]("maternal", "", zerolog.Nop()))
	pediatric := patient.NewMemPediatricRepo(store.NewCollection[patient.Pediatric]("pediatric", "", zerolog.Nop()))
	policies := policy.NewMemRepo(store.NewCollection[policy.Scenario]("policies", "", zerolog.Nop()))
	resources := resource.NewMemRepo(store.NewCollection[resource.Allocation]("resources", "", zerolog.Nop()))
	return fixtures{
		gen:       NewGenerator(maternal, pediatric, policies, resources, zerolog.Nop()),
		maternal:  maternal,
		pediatric: pediatric,
		policies:  policies,
		resources: resources,
	}
}

func addMaternal(t *testing.T, f fixtures, id, level string, score int) {
	t.Helper()
	_, err := f.maternal.Upsert(context.Background(), patient.Maternal{
		PatientID: id,
		Name:      "Patient " + id,
		Age:       30,
		RiskScore: score,
		RiskLevel: level,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestGenerateScalesScenariosWithRisk(t *testing.T) {
	f := newFixtures(t)
	ctx := context.Background()

	// 1 of 2 high risk: 50% pushes the impact factor to 1.2.
	addMaternal(t, f, "MAT001", "high", 75)
	addMaternal(t, f, "MAT002", "low", 20)

	if err := f.gen.Generate(ctx); err != nil {
		t.Fatal(err)
	}

	scenarios, err := f.policies.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(scenarios) != 3 {
		t.Fatalf("expected 3 scenarios, got %d", len(scenarios))
	}

	first, err := f.policies.Get(ctx, "PS001")
	if err != nil {
		t.Fatal(err)
	}
	if first.MaternalMortalityChange != -18 {
		t.Errorf("expected maternal change -18 (round of -15*1.2), got %v", first.MaternalMortalityChange)
	}
	if first.InfantMortalityChange != -14 {
		t.Errorf("expected infant change -14 (round of -12*1.2), got %v", first.InfantMortalityChange)
	}
}

func TestGenerateLowRiskFactor(t *testing.T) {
	f := newFixtures(t)
	ctx := context.Background()

	// 0 of 2 high risk: factor 0.8.
	addMaternal(t, f, "MAT001", "low", 20)
	addMaternal(t, f, "MAT002", "low", 25)

	if err := f.gen.Generate(ctx); err != nil {
		t.Fatal(err)
	}
	first, err := f.policies.Get(ctx, "PS001")
	if err != nil {
		t.Fatal(err)
	}
	if first.MaternalMortalityChange != -12 {
		t.Errorf("expected maternal change -12 (round of -15*0.8), got %v", first.MaternalMortalityChange)
	}
}

func TestGenerateDoesNotClobberExisting(t *testing.T) {
	f := newFixtures(t)
	ctx := context.Background()

	addMaternal(t, f, "MAT001", "high", 75)
	if err := f.gen.Generate(ctx); err != nil {
		t.Fatal(err)
	}

	// Operator removes one scenario; a second pass must leave the rest alone.
	if err := f.policies.Delete(ctx, "PS002"); err != nil {
		t.Fatal(err)
	}
	if err := f.gen.Generate(ctx); err != nil {
		t.Fatal(err)
	}

	scenarios, err := f.policies.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(scenarios) != 2 {
		t.Errorf("expected 2 scenarios after delete, got %d", len(scenarios))
	}
}

func TestGenerateNoPatientsIsNoop(t *testing.T) {
	f := newFixtures(t)
	ctx := context.Background()

	if err := f.gen.Generate(ctx); err != nil {
		t.Fatal(err)
	}
	scenarios, _ := f.policies.List(ctx)
	allocations, _ := f.resources.List(ctx)
	if len(scenarios) != 0 || len(allocations) != 0 {
		t.Errorf("expected nothing derived from an empty population, got %d/%d",
			len(scenarios), len(allocations))
	}
}

func TestGenerateGroupsAllocationsByIDPrefix(t *testing.T) {
	f := newFixtures(t)
	ctx := context.Background()

	addMaternal(t, f, "MAT001", "high", 75)
	addMaternal(t, f, "MAT002", "low", 20)
	if _, err := f.pediatric.Upsert(ctx, patient.Pediatric{
		ChildID:   "PED001",
		Name:      "Baby Diallo",
		RiskLevel: "low",
		RiskScore: 25,
	}); err != nil {
		t.Fatal(err)
	}

	if err := f.gen.Generate(ctx); err != nil {
		t.Fatal(err)
	}

	allocations, err := f.resources.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(allocations) != 2 {
		t.Fatalf("expected 2 regions, got %d", len(allocations))
	}

	mat, err := f.resources.Get(ctx, "MAT Region")
	if err != nil {
		t.Fatal(err)
	}
	// 2 patients, 1 high risk: 2*8*1.5=24 beds, 2*6*1.5=18 staff,
	// 75+2*2*1.25=80 vaccine stock.
	if mat.NICUBeds != 24 || mat.ObGynStaff != 18 || mat.VaccineStock != 80 {
		t.Errorf("unexpected MAT allocation: %+v", mat)
	}

	ped, err := f.resources.Get(ctx, "PED Region")
	if err != nil {
		t.Fatal(err)
	}
	// Single low-risk patient hits the floors: 20 beds, 15 staff.
	if ped.NICUBeds != 20 || ped.ObGynStaff != 15 {
		t.Errorf("expected floor values for small region, got %+v", ped)
	}
}

func TestGenerateAllocationCeilings(t *testing.T) {
	f := newFixtures(t)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		addMaternal(t, f, "MAT0"+string(rune('A'+i)), "critical", 90)
	}

	if err := f.gen.Generate(ctx); err != nil {
		t.Fatal(err)
	}
	mat, err := f.resources.Get(ctx, "MAT Region")
	if err != nil {
		t.Fatal(err)
	}
	if mat.NICUBeds != 80 || mat.ObGynStaff != 60 || mat.VaccineStock != 95 {
		t.Errorf("expected ceilings 80/60/95, got %+v", mat)
	}
}

func TestGenerateDefaultDistricts(t *testing.T) {
	f := newFixtures(t)
	ctx := context.Background()

	// Patients without usable ids fall back to the default district set.
	if _, err := f.maternal.Upsert(ctx, patient.Maternal{
		PatientID: "",
		Name:      "No Region",
		RiskLevel: "low",
		RiskScore: 20,
	}); err != nil {
		t.Fatal(err)
	}

	if err := f.gen.Generate(ctx); err != nil {
		t.Fatal(err)
	}
	allocations, err := f.resources.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(allocations) != 5 {
		t.Fatalf("expected 5 default districts, got %d", len(allocations))
	}
	if allocations[0].Region != "North District" || allocations[0].NICUBeds != 45 {
		t.Errorf("unexpected first district: %+v", allocations[0])
	}
}
