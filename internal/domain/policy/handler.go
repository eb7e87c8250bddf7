package policy

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
	api.GET("/scenarios", h.ListScenarios)
	api.GET("/scenarios/:id", h.GetScenario)
	api.POST("/scenarios", h.CreateScenario)
	api.POST("/simulate", h.Simulate)
	api.DELETE("/scenarios/:id", h.DeleteScenario)
}

func (h *Handler) ListScenarios(c echo.Context) error {
	scenarios, err := h.svc.ListScenarios(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	views := make([]ScenarioView, 0, len(scenarios))
	for _, s := range scenarios {
		views = append(views, s.View())
	}
	return c.JSON(http.StatusOK, views)
}

func (h *Handler) GetScenario(c echo.Context) error {
	scenario, err := h.svc.GetScenario(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "scenario not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, scenario.View())
}

type createScenarioRequest struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	TargetPopulation int    `json:"targetPopulation"`
}

func (h *Handler) CreateScenario(c echo.Context) error {
	var req createScenarioRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	scenario, err := h.svc.CreateScenario(c.Request().Context(), req.Name, req.Description, req.TargetPopulation)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, scenario.View())
}

func (h *Handler) Simulate(c echo.Context) error {
	var req createScenarioRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	impact := h.svc.Simulate(c.Request().Context(), req.Name, req.Description, req.TargetPopulation)
	return c.JSON(http.StatusOK, impact)
}

func (h *Handler) DeleteScenario(c echo.Context) error {
	if err := h.svc.DeleteScenario(c.Request().Context(), c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
