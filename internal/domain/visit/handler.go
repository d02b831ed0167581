package visit

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carebook/carebook/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("/visits/steps", auth.RequireRole("admin", "registrar", "physician", "nurse", "patient"))
	read.GET("", h.ListSteps)
	read.PATCH("/:id/status", h.SetStepStatus)

	write := api.Group("/visits/steps", auth.RequireRole("admin", "registrar", "nurse"))
	write.POST("", h.CreateStep)
}

func (h *Handler) ListSteps(c echo.Context) error {
	patientID, err := uuid.Parse(c.QueryParam("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	day := time.Now()
	if v := c.QueryParam("date"); v != "" {
		day, err = time.Parse("2006-01-02", v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "date must be in YYYY-MM-DD format")
		}
	}
	steps, err := h.svc.ListSteps(c.Request().Context(), patientID, day)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, steps)
}

func (h *Handler) CreateStep(c echo.Context) error {
	var step VisitStep
	if err := c.Bind(&step); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateStep(c.Request().Context(), &step); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, step)
}

type stepStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) SetStepStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req stepStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	step, err := h.svc.SetStepStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, step)
}
