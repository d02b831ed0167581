package booking

import (
	"errors"
	"net/http"

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
	g := api.Group("/booking/appointments", auth.RequireRole("admin", "registrar", "physician", "nurse", "patient"))
	g.POST("", h.Book)
	g.GET("", h.ListAppointments)
	g.GET("/:id", h.GetAppointment)
	g.PATCH("/:id/status", h.SetStatus)
}

type bookRequest struct {
	SlotID    uuid.UUID `json:"slot_id"`
	PatientID uuid.UUID `json:"patient_id"`
}

func (h *Handler) Book(c echo.Context) error {
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	key := c.Request().Header.Get("Idempotency-Key")

	appt, err := h.svc.Book(c.Request().Context(), req.SlotID, req.PatientID, key)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, appt)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	appt, err := h.svc.GetAppointment(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *Handler) ListAppointments(c echo.Context) error {
	pg := pagination.FromContext(c)

	if v := c.QueryParam("patient_id"); v != "" {
		pid, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		appts, total, err := h.svc.ListByPatient(c.Request().Context(), pid, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(appts, total, pg.Limit, pg.Offset))
	}
	if v := c.QueryParam("slot_id"); v != "" {
		sid, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid slot_id")
		}
		appts, total, err := h.svc.ListBySlot(c.Request().Context(), sid, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(appts, total, pg.Limit, pg.Offset))
	}
	return echo.NewHTTPError(http.StatusBadRequest, "patient_id or slot_id is required")
}

type statusRequest struct {
	Status       string  `json:"status"`
	CancelReason *string `json:"cancel_reason,omitempty"`
}

func (h *Handler) SetStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	appt, err := h.svc.SetStatus(c.Request().Context(), id, req.Status, req.CancelReason)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, appt)
}

// httpError maps booking errors onto status codes: missing/invalid input is
// 400, unknown entities 404, state races 409, and bookings that can never
// succeed (past slots) 422.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrMissingIdempotencyKey), errors.Is(err, ErrInvalidStatus):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrSlotNotFound), errors.Is(err, ErrAppointmentNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrSlotFull), errors.Is(err, ErrSlotNotOpen),
		errors.Is(err, ErrDuplicateBooking), errors.Is(err, ErrAlreadyCancelled):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrSlotInPast):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
