package care

import (
	"errors"
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
	staff := auth.RequireRole("admin", "physician", "nurse", "registrar")
	anyRole := auth.RequireRole("admin", "physician", "nurse", "registrar", "patient")

	types := api.Group("/care/surgery-types", staff)
	types.POST("", h.CreateSurgeryType)
	types.GET("", h.ListSurgeryTypes)
	types.GET("/:id", h.GetSurgeryType)

	surgeries := api.Group("/care/surgeries", staff)
	surgeries.POST("", h.RegisterSurgery)
	surgeries.PATCH("/:id/reschedule", h.Reschedule)
	surgeries.PATCH("/:id/status", h.SetStatus)

	surgeryRead := api.Group("/care/surgeries", anyRole)
	surgeryRead.GET("/:id", h.GetCase)
	surgeryRead.GET("", h.ListCases)

	plans := api.Group("/care/plans", anyRole)
	plans.GET("/:id/items", h.ListPlanItems)

	planWrite := api.Group("/care/plans", staff)
	planWrite.POST("/:id/items", h.AddPlanItem)

	items := api.Group("/care/items", anyRole)
	items.PATCH("/:id/complete", h.CompleteItem)

	itemWrite := api.Group("/care/items", staff)
	itemWrite.DELETE("/:id", h.DeleteItem)
}

func (h *Handler) CreateSurgeryType(c echo.Context) error {
	var st SurgeryType
	if err := c.Bind(&st); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateSurgeryType(c.Request().Context(), &st); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, st)
}

func (h *Handler) GetSurgeryType(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	st, err := h.svc.GetSurgeryType(c.Request().Context(), id)
	if err != nil {
		return careError(err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) ListSurgeryTypes(c echo.Context) error {
	pg := pagination.FromContext(c)
	types, total, err := h.svc.ListSurgeryTypes(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(types, total, pg.Limit, pg.Offset))
}

func (h *Handler) RegisterSurgery(c echo.Context) error {
	var in RegisterSurgeryInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	result, err := h.svc.RegisterSurgery(c.Request().Context(), in)
	if err != nil {
		return careError(err)
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *Handler) GetCase(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	result, err := h.svc.GetCase(c.Request().Context(), id)
	if err != nil {
		return careError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) ListCases(c echo.Context) error {
	patientID, err := uuid.Parse(c.QueryParam("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	pg := pagination.FromContext(c)
	cases, total, err := h.svc.ListCasesByPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(cases, total, pg.Limit, pg.Offset))
}

type rescheduleRequest struct {
	NewDate time.Time `json:"new_date"`
}

func (h *Handler) Reschedule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req rescheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sc, err := h.svc.Reschedule(c.Request().Context(), id, req.NewDate)
	if err != nil {
		return careError(err)
	}
	return c.JSON(http.StatusOK, sc)
}

type caseStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) SetStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req caseStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sc, err := h.svc.SetStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return careError(err)
	}
	return c.JSON(http.StatusOK, sc)
}

func (h *Handler) ListPlanItems(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.ListPlanItems(c.Request().Context(), id)
	if err != nil {
		return careError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) AddPlanItem(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var item CarePlanItem
	if err := c.Bind(&item); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.AddPlanItem(c.Request().Context(), id, &item); err != nil {
		return careError(err)
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *Handler) CompleteItem(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	item, err := h.svc.CompleteItem(c.Request().Context(), id)
	if err != nil {
		return careError(err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *Handler) DeleteItem(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteItem(c.Request().Context(), id); err != nil {
		return careError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func careError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrPatientNotFound), errors.Is(err, ErrDoctorNotFound),
		errors.Is(err, ErrSurgeryTypeNotFound), errors.Is(err, ErrCaseNotFound),
		errors.Is(err, ErrPlanNotFound), errors.Is(err, ErrItemNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrCaseCancelled):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
