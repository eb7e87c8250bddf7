package patient

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func newTestHandler(t *testing.T) (*Handler, *echo.Echo, *MemMaternalRepo) {
	t.Helper()
	svc, maternal, _, _ := newTestService(t)
	return NewHandler(svc, t.TempDir(), 1<<20), echo.New(), maternal
}

func multipartCSV(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	w.Close()
	return &buf, w.FormDataContentType()
}

func TestHandler_UploadMaternal(t *testing.T) {
	h, e, maternal := newTestHandler(t)

	body, contentType := multipartCSV(t, "maternal.csv",
		"patient_id,name,age,risk_score,risk_level,risk_factors\n"+
			"MAT001,Amara Okafor,34,72,high,hypertension\n")
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.UploadMaternal(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var summary IngestSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatal(err)
	}
	if !summary.Success || summary.RecordsSuccess != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if _, err := maternal.Get(context.Background(), "MAT001"); err != nil {
		t.Errorf("uploaded patient not stored: %v", err)
	}
}

func TestHandler_UploadMissingFile(t *testing.T) {
	h, e, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.UploadMaternal(c); err == nil {
		t.Error("expected error when no file is attached")
	}
}

func TestHandler_UploadTooLarge(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	h := NewHandler(svc, t.TempDir(), 10)
	e := echo.New()

	body, contentType := multipartCSV(t, "maternal.csv",
		"patient_id,name,age,risk_factors\nMAT001,Test,30,anemia\n")
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.UploadMaternal(c); err == nil {
		t.Error("expected error for oversized upload")
	}
}

func TestHandler_GenericUploadInfersDataset(t *testing.T) {
	h, e, maternal := newTestHandler(t)

	body, contentType := multipartCSV(t, "maternal_q2_export.csv",
		"patient_id,name,age,risk_score,risk_level,risk_factors\n"+
			"MAT002,Lucia Mendez,24,35,low,none\n")
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Upload(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := maternal.Get(context.Background(), "MAT002"); err != nil {
		t.Errorf("filename containing maternal should route to maternal store: %v", err)
	}
}

func TestHandler_GetAndDelete(t *testing.T) {
	h, e, maternal := newTestHandler(t)
	ctx := context.Background()

	if _, err := maternal.Upsert(ctx, Maternal{
		PatientID:   "MAT001",
		Name:        "Amara Okafor",
		Age:         34,
		RiskScore:   72,
		RiskLevel:   "high",
		LastUpdated: time.Now(),
	}); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("MAT001")
	if err := h.GetMaternal(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("MAT001")
	if err := h.DeleteMaternal(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := maternal.Get(ctx, "MAT001"); err == nil {
		t.Error("expected patient removed")
	}

	// Missing records 404.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("MAT999")
	if err := h.GetMaternal(c); err == nil {
		t.Error("expected error for missing patient")
	}
}
