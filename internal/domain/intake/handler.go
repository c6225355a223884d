package intake

import (
	"context"
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
	g := api.Group("/intake")

	read := g.Group("", auth.RequireRole(auth.RoleFrontdesk, auth.RoleTechnician, auth.RoleReviewer))
	read.GET("", h.List)
	read.GET("/:regNo", h.Get)

	write := g.Group("", auth.RequireRole(auth.RoleFrontdesk))
	write.POST("", h.Create)
	write.POST("/:regNo/print", h.MarkPrinted)

	// Collection happens at the bench, not the front desk.
	collect := g.Group("", auth.RequireRole(auth.RoleTechnician))
	collect.POST("/:regNo/collect", h.MarkCollected)
}

func (h *Handler) Create(c echo.Context) error {
	var reg Registration
	if err := c.Bind(&reg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Register(c.Request().Context(), &reg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, reg)
}

func (h *Handler) Get(c echo.Context) error {
	reg, err := h.svc.Get(c.Request().Context(), c.Param("regNo"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "registration not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, reg)
}

func (h *Handler) List(c echo.Context) error {
	regs, err := h.svc.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	p := pagination.FromContext(c)
	page, total := pagination.Page(regs, p)
	return c.JSON(http.StatusOK, pagination.NewResponse(page, total, p.Limit, p.Offset))
}

func (h *Handler) MarkPrinted(c echo.Context) error {
	return h.stamp(c, h.svc.MarkPrinted)
}

func (h *Handler) MarkCollected(c echo.Context) error {
	return h.stamp(c, h.svc.MarkCollected)
}

func (h *Handler) stamp(c echo.Context, op func(ctx context.Context, regNo string) error) error {
	if err := op(c.Request().Context(), c.Param("regNo")); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "registration not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
