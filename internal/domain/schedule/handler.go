package schedule

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carebook/carebook/internal/platform/auth"
	"github.com/carebook/carebook/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Rule management – admin and department staff
	rules := api.Group("/booking/rules", auth.RequireRole("admin", "registrar"))
	rules.POST("", h.CreateRule)
	rules.GET("", h.ListRules)
	rules.GET("/:id", h.GetRule)
	rules.PUT("/:id", h.UpdateRule)
	rules.DELETE("/:id", h.DeleteRule)

	// Slot generation – admin and department staff
	gen := api.Group("/booking/slots", auth.RequireRole("admin", "registrar"))
	gen.POST("/generate", h.GenerateSlots)

	// Slot read – anyone who can book
	read := api.Group("/booking/slots", auth.RequireRole("admin", "registrar", "physician", "nurse", "patient"))
	read.GET("", h.ListSlots)
	read.GET("/:id", h.GetSlot)
}

func (h *Handler) CreateRule(c echo.Context) error {
	var rule ScheduleRule
	if err := c.Bind(&rule); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateRule(c.Request().Context(), &rule); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, rule)
}

func (h *Handler) GetRule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rule, err := h.svc.GetRule(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "schedule rule not found")
	}
	return c.JSON(http.StatusOK, rule)
}

func (h *Handler) ListRules(c echo.Context) error {
	departmentID, err := uuid.Parse(c.QueryParam("department_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "department_id is required")
	}
	pg := pagination.FromContext(c)
	rules, total, err := h.svc.ListRulesByDepartment(c.Request().Context(), departmentID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(rules, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateRule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var rule ScheduleRule
	if err := c.Bind(&rule); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rule.ID = id
	if err := h.svc.UpdateRule(c.Request().Context(), &rule); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, rule)
}

func (h *Handler) DeleteRule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteRule(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "schedule rule not found")
	}
	return c.NoContent(http.StatusNoContent)
}

type generateRequest struct {
	DepartmentID uuid.UUID  `json:"department_id"`
	DoctorID     *uuid.UUID `json:"doctor_id,omitempty"`
	Date         string     `json:"date"`
}

func (h *Handler) GenerateSlots(c echo.Context) error {
	var req generateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	day, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be in YYYY-MM-DD format")
	}
	count, err := h.svc.GenerateSlots(c.Request().Context(), req.DepartmentID, day, req.DoctorID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{
		"date":            req.Date,
		"slots_generated": count,
	})
}

func (h *Handler) GetSlot(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	slot, err := h.svc.GetSlot(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "slot not found")
	}
	return c.JSON(http.StatusOK, slot)
}

func (h *Handler) ListSlots(c echo.Context) error {
	departmentID, err := uuid.Parse(c.QueryParam("department_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "department_id is required")
	}
	day, err := time.Parse("2006-01-02", c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be in YYYY-MM-DD format")
	}
	var doctorID *uuid.UUID
	if v := c.QueryParam("doctor_id"); v != "" {
		did, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
		}
		doctorID = &did
	}
	pg := pagination.FromContext(c)
	slots, total, err := h.svc.ListSlots(c.Request().Context(), departmentID, doctorID, day, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(slots, total, pg.Limit, pg.Offset))
}
