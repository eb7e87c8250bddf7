package analytics

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mchtrack/mchtrack/internal/platform/inference"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/dashboard", h.Dashboard)
	api.GET("/trends", h.Trends)
	api.GET("/insights", h.Insights)
	api.GET("/model-performance", h.ModelPerformance)
	api.GET("/risk-factors", h.RiskFactors)
	api.POST("/predict-risk", h.PredictRisk)
}

func (h *Handler) Dashboard(c echo.Context) error {
	stats, err := h.svc.Dashboard(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) Trends(c echo.Context) error {
	points, err := h.svc.Trends(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, points)
}

func (h *Handler) Insights(c echo.Context) error {
	insights, err := h.svc.Insights(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, insights)
}

func (h *Handler) ModelPerformance(c echo.Context) error {
	points, err := h.svc.ModelPerformance(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, points)
}

func (h *Handler) RiskFactors(c echo.Context) error {
	kind := c.QueryParam("type")
	if kind == "" {
		kind = "maternal"
	}
	analysis, err := h.svc.RiskFactors(c.Request().Context(), kind)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, analysis)
}

type predictRiskRequest struct {
	Type        string `json:"type"`
	PatientData struct {
		Age            int      `json:"age"`
		RiskFactors    []string `json:"riskFactors"`
		BirthWeight    float64  `json:"birthWeight"`
		GestationWeeks int      `json:"gestationWeeks"`
		VitalSigns     struct {
			Systolic  float64 `json:"systolic"`
			Diastolic float64 `json:"diastolic"`
			Weight    float64 `json:"weight"`
		} `json:"vitalSigns"`
	} `json:"patientData"`
}

func (h *Handler) PredictRisk(c echo.Context) error {
	var req predictRiskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	var (
		assessment inference.RiskAssessment
		err        error
	)
	if req.Type == "maternal" {
		assessment, err = h.svc.predictor.PredictMaternalRisk(ctx, inference.MaternalObservation{
			Age:         req.PatientData.Age,
			RiskFactors: req.PatientData.RiskFactors,
			Systolic:    req.PatientData.VitalSigns.Systolic,
			Diastolic:   req.PatientData.VitalSigns.Diastolic,
			Weight:      req.PatientData.VitalSigns.Weight,
		})
	} else {
		assessment, err = h.svc.predictor.PredictPediatricRisk(ctx, inference.PediatricObservation{
			BirthWeight:    req.PatientData.BirthWeight,
			GestationWeeks: req.PatientData.GestationWeeks,
			RiskFactors:    req.PatientData.RiskFactors,
		})
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, assessment)
}
