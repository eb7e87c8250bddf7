package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mchtrack/mchtrack/internal/domain/patient"
	"github.com/mchtrack/mchtrack/internal/platform/inference"
)

func newHandlerFixture(t *testing.T) (*Handler, *echo.Echo, *patient.MemMaternalRepo) {
	t.Helper()
	svc, maternal, _ := newTestAnalytics(t)
	return NewHandler(svc), echo.New(), maternal
}

func TestHandler_Dashboard(t *testing.T) {
	h, e, maternal := newHandlerFixture(t)

	if _, err := maternal.Upsert(context.Background(), patient.Maternal{
		PatientID:   "MAT001",
		Name:        "Test",
		RiskScore:   75,
		RiskLevel:   "high",
		LastUpdated: time.Now(),
	}); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	if err := h.Dashboard(e.NewContext(req, rec)); err != nil {
		t.Fatal(err)
	}

	var stats DashboardStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.TotalPatients != 1 || stats.HighRiskPatients != 1 || stats.AlertsToday != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestHandler_RiskFactorsDefaultsToMaternal(t *testing.T) {
	h, e, maternal := newHandlerFixture(t)

	if _, err := maternal.Upsert(context.Background(), patient.Maternal{
		PatientID:   "MAT001",
		Name:        "Test",
		RiskScore:   60,
		RiskFactors: []string{"anemia"},
	}); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	if err := h.RiskFactors(e.NewContext(req, rec)); err != nil {
		t.Fatal(err)
	}

	var analysis []FactorAnalysis
	if err := json.Unmarshal(rec.Body.Bytes(), &analysis); err != nil {
		t.Fatal(err)
	}
	if len(analysis) != 1 || analysis[0].Name != "anemia" {
		t.Errorf("unexpected analysis %+v", analysis)
	}
}

func TestHandler_PredictRiskMaternal(t *testing.T) {
	h, e, _ := newHandlerFixture(t)

	body := `{"type":"maternal","patientData":{"age":42,"riskFactors":["hypertension"],"vitalSigns":{"systolic":150}}}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h.PredictRisk(e.NewContext(req, rec)); err != nil {
		t.Fatal(err)
	}

	var assessment inference.RiskAssessment
	if err := json.Unmarshal(rec.Body.Bytes(), &assessment); err != nil {
		t.Fatal(err)
	}
	// 30 base + 15 age>35 + 25 age>40 + 10 factor + 20 high-priority factor
	// + 20 systolic clamps to 100.
	if assessment.Score != 100 || assessment.Level != "critical" {
		t.Errorf("unexpected assessment %+v", assessment)
	}
}

func TestHandler_PredictRiskPediatric(t *testing.T) {
	h, e, _ := newHandlerFixture(t)

	body := `{"type":"pediatric","patientData":{"birthWeight":2.1,"gestationWeeks":34,"riskFactors":["respiratory distress"]}}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h.PredictRisk(e.NewContext(req, rec)); err != nil {
		t.Fatal(err)
	}

	var assessment inference.RiskAssessment
	if err := json.Unmarshal(rec.Body.Bytes(), &assessment); err != nil {
		t.Fatal(err)
	}
	if assessment.Score != 82 || assessment.Level != "critical" {
		t.Errorf("unexpected assessment %+v", assessment)
	}
}
