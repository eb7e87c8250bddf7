package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mchtrack/mchtrack/internal/domain/patient"
	"github.com/mchtrack/mchtrack/internal/platform/inference"
	"github.com/mchtrack/mchtrack/internal/platform/store"
)

func newTestAnalytics(t *testing.T) (*Service, *patient.MemMaternalRepo, *patient.MemPediatricRepo) {
	t.Helper()
	maternal := patient.NewMemMaternalRepo(store.NewCollection[patient.Maternal]("maternal", "", zerolog.Nop()))
	pediatric := patient.NewMemPediatricRepo(store.NewCollection[patient.Pediatric]("pediatric", "", zerolog.Nop()))
	svc := NewService(maternal, pediatric, inference.Heuristic{}, inference.Heuristic{})
	return svc, maternal, pediatric
}

func addMaternal(t *testing.T, repo *patient.MemMaternalRepo, id, level string, score int, updated time.Time, factors ...string) {
	t.Helper()
	_, err := repo.Upsert(context.Background(), patient.Maternal{
		PatientID:   id,
		Name:        "Patient " + id,
		Age:         30,
		RiskScore:   score,
		RiskLevel:   level,
		RiskFactors: factors,
		LastUpdated: updated,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestDashboard(t *testing.T) {
	svc, maternal, pediatric := newTestAnalytics(t)
	ctx := context.Background()

	now := time.Now()
	old := now.AddDate(0, 0, -3)

	addMaternal(t, maternal, "MAT001", "high", 75, now)
	addMaternal(t, maternal, "MAT002", "critical", 90, old)
	addMaternal(t, maternal, "MAT003", "low", 20, now)
	if _, err := pediatric.Upsert(ctx, patient.Pediatric{
		ChildID: "PED001", Name: "Baby", RiskLevel: "high", RiskScore: 65, LastUpdated: now,
	}); err != nil {
		t.Fatal(err)
	}

	stats, err := svc.Dashboard(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalPatients != 4 {
		t.Errorf("expected 4 total, got %d", stats.TotalPatients)
	}
	if stats.HighRiskPatients != 3 {
		t.Errorf("expected 3 high risk, got %d", stats.HighRiskPatients)
	}
	// Only the two high-risk records updated inside 24h count as alerts.
	if stats.AlertsToday != 2 {
		t.Errorf("expected 2 alerts, got %d", stats.AlertsToday)
	}
	// ceil(3 * 0.2) = 1.
	if stats.PendingActions != 1 {
		t.Errorf("expected 1 pending action, got %d", stats.PendingActions)
	}
}

func TestTrends(t *testing.T) {
	svc, maternal, _ := newTestAnalytics(t)
	ctx := context.Background()

	now := time.Now()
	for i := 0; i < 10; i++ {
		addMaternal(t, maternal, "H"+string(rune('0'+i)), "high", 75, now)
	}
	for i := 0; i < 4; i++ {
		addMaternal(t, maternal, "M"+string(rune('0'+i)), "medium", 50, now)
	}
	addMaternal(t, maternal, "L1", "low", 20, now)

	points, err := svc.Trends(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 6 {
		t.Fatalf("expected 6 points, got %d", len(points))
	}
	if points[0].Month != "Jan" || points[5].Month != "Jun" {
		t.Errorf("unexpected months %s..%s", points[0].Month, points[5].Month)
	}
	// Jan scales by 0.7: 10 high -> 7, 4 medium -> 3 (round of 2.8), 1 low -> 1.
	if points[0].HighRisk != 7 || points[0].MediumRisk != 3 || points[0].LowRisk != 1 {
		t.Errorf("unexpected Jan point %+v", points[0])
	}
	// Jun scales by 0.95: 10 high -> 10 (round of 9.5).
	if points[5].HighRisk != 10 {
		t.Errorf("unexpected Jun high risk %d", points[5].HighRisk)
	}
}

func TestInsights(t *testing.T) {
	svc, maternal, _ := newTestAnalytics(t)
	ctx := context.Background()

	now := time.Now()
	addMaternal(t, maternal, "MAT001", "high", 75, now, "hypertension", "anemia")
	addMaternal(t, maternal, "MAT002", "low", 20, now, "hypertension")

	insights, err := svc.Insights(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(insights) != 5 {
		t.Errorf("expected 5 fallback insights, got %d", len(insights))
	}
}

func TestModelPerformanceRamp(t *testing.T) {
	svc, maternal, _ := newTestAnalytics(t)
	ctx := context.Background()

	now := time.Now()
	for i := 0; i < 12; i++ {
		addMaternal(t, maternal, "P"+string(rune('a'+i)), "low", 20, now)
	}

	points, err := svc.ModelPerformance(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 6 {
		t.Fatalf("expected 6 points, got %d", len(points))
	}

	// 12 records: 12/100 = 0.12 improvement, capped at 0.09. Jun carries the
	// full ramp: 0.82 + 0.09.
	last := points[5]
	if diff := last.Accuracy - 0.91; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected final accuracy 0.91, got %v", last.Accuracy)
	}
	if last.Precision >= last.Accuracy {
		t.Errorf("precision must trail accuracy: %v vs %v", last.Precision, last.Accuracy)
	}
	if last.Recall <= last.Accuracy {
		t.Errorf("recall must lead accuracy: %v vs %v", last.Recall, last.Accuracy)
	}
	if points[0].Accuracy >= points[5].Accuracy {
		t.Error("accuracy must ramp up across months")
	}
}

func TestRiskFactors(t *testing.T) {
	svc, maternal, _ := newTestAnalytics(t)
	ctx := context.Background()

	now := time.Now()
	addMaternal(t, maternal, "MAT001", "high", 80, now, "hypertension", "anemia")
	addMaternal(t, maternal, "MAT002", "medium", 40, now, "hypertension")
	addMaternal(t, maternal, "MAT003", "low", 20, now, "anemia")

	analysis, err := svc.RiskFactors(ctx, "maternal")
	if err != nil {
		t.Fatal(err)
	}
	if len(analysis) != 2 {
		t.Fatalf("expected 2 factors, got %d", len(analysis))
	}

	// Ties on count sort alphabetically.
	if analysis[0].Name != "anemia" || analysis[1].Name != "hypertension" {
		t.Errorf("unexpected order: %+v", analysis)
	}
	// anemia: (80+20)/2/20 = 2.5. hypertension: (80+40)/2/20 = 3.0.
	if analysis[0].Severity != 2.5 {
		t.Errorf("expected anemia severity 2.5, got %v", analysis[0].Severity)
	}
	if analysis[1].Severity != 3.0 {
		t.Errorf("expected hypertension severity 3.0, got %v", analysis[1].Severity)
	}
}

func TestRiskFactorsTopSixCap(t *testing.T) {
	svc, maternal, _ := newTestAnalytics(t)
	ctx := context.Background()

	factors := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	addMaternal(t, maternal, "MAT001", "high", 80, time.Now(), factors...)

	analysis, err := svc.RiskFactors(ctx, "maternal")
	if err != nil {
		t.Fatal(err)
	}
	if len(analysis) != 6 {
		t.Errorf("expected factor list capped at 6, got %d", len(analysis))
	}
}
