package twin

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/deviations", h.ListDeviations)
	api.POST("/deviations", h.RecordDeviation)
	api.GET("/vital-signs/:patientId", h.GetVitals)
	api.POST("/vital-signs", h.RecordVitals)
	api.GET("/comparison/:patientId", h.Comparison)
}

func (h *Handler) ListDeviations(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	return c.JSON(http.StatusOK, h.svc.Deviations(limit))
}

func (h *Handler) RecordDeviation(c echo.Context) error {
	var d Deviation
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, h.svc.RecordDeviation(d))
}

func (h *Handler) GetVitals(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.VitalsFor(c.Param("patientId"), daysParam(c)))
}

func (h *Handler) RecordVitals(c echo.Context) error {
	var v VitalSigns
	if err := c.Bind(&v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, h.svc.RecordVitals(v))
}

func (h *Handler) Comparison(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Comparison(c.Param("patientId"), daysParam(c)))
}

func daysParam(c echo.Context) int {
	days := 30
	if raw := c.QueryParam("days"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			days = n
		}
	}
	return days
}
