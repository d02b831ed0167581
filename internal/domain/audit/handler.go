package audit

import (
	"net/http"

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
	g := api.Group("/audit", auth.RequireRole("admin"))
	g.GET("", h.Search)
}

func (h *Handler) Search(c echo.Context) error {
	params := map[string]string{
		"table_name": c.QueryParam("table_name"),
		"entity_id":  c.QueryParam("entity_id"),
		"action":     c.QueryParam("action"),
		"actor":      c.QueryParam("actor"),
	}
	pg := pagination.FromContext(c)
	entries, total, err := h.svc.Search(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(entries, total, pg.Limit, pg.Offset))
}
