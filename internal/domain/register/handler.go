package register

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/labtrack/labtrack/internal/platform/auth"
	"github.com/labtrack/labtrack/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/registers/:department")

	read := g.Group("", auth.RequireRole(auth.RoleTechnician, auth.RoleReviewer))
	read.GET("", h.List)
	read.GET("/:regNo", h.Get)

	bench := g.Group("", auth.RequireRole(auth.RoleTechnician))
	bench.POST("/:regNo/scan", h.Scan)
	bench.POST("/:regNo/save", h.Save)

	review := g.Group("", auth.RequireRole(auth.RoleReviewer))
	review.POST("/:regNo/validate", h.Validate)
}

func (h *Handler) List(c echo.Context) error {
	recs, err := h.svc.List(c.Request().Context(), c.Param("department"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p := pagination.FromContext(c)
	page, total := pagination.Page(recs, p)
	return c.JSON(http.StatusOK, pagination.NewResponse(page, total, p.Limit, p.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	rec, err := h.svc.Get(c.Request().Context(), c.Param("department"), c.Param("regNo"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "record not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) Scan(c echo.Context) error {
	err := h.svc.Scan(c.Request().Context(), c.Param("department"), c.Param("regNo"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Save(c echo.Context) error {
	var results map[string]any
	if err := c.Bind(&results); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	savedBy := auth.UserIDFromContext(c.Request().Context())
	err := h.svc.Save(c.Request().Context(), c.Param("department"), c.Param("regNo"), results, savedBy)
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Validate(c echo.Context) error {
	validatedBy := auth.UserIDFromContext(c.Request().Context())
	err := h.svc.Validate(c.Request().Context(), c.Param("department"), c.Param("regNo"), validatedBy)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "record not found")
		}
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
