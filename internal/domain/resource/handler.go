package resource

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("", h.List)
	api.POST("", h.Upsert)
	// Registered before /:region so "forecast" is never read as a region.
	api.GET("/forecast/:type", h.Forecast)
	api.GET("/:region", h.Get)
	api.DELETE("/:region", h.Delete)
}

func (h *Handler) List(c echo.Context) error {
	allocations, err := h.svc.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, allocations)
}

func (h *Handler) Get(c echo.Context) error {
	a, err := h.svc.Get(c.Request().Context(), c.Param("region"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "region not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, a)
}

type upsertRequest struct {
	Region       string `json:"region"`
	NICUBeds     int    `json:"nicuBeds"`
	ObGynStaff   int    `json:"obgynStaff"`
	VaccineStock int    `json:"vaccineStock"`
}

func (h *Handler) Upsert(c echo.Context) error {
	var req upsertRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Region == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "region is required")
	}
	a, err := h.svc.Upsert(c.Request().Context(), Allocation{
		Region:       req.Region,
		NICUBeds:     req.NICUBeds,
		ObGynStaff:   req.ObGynStaff,
		VaccineStock: req.VaccineStock,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Forecast(c echo.Context) error {
	points, err := h.svc.Forecast(c.Request().Context(), c.Param("type"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, points)
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("region")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
