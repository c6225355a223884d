package overview

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/labtrack/labtrack/internal/lab"
	"github.com/labtrack/labtrack/internal/platform/auth"
	"github.com/labtrack/labtrack/internal/platform/store"
)

// Handler serves one-shot analytics reads. Each request lists the intake and
// department collections and runs the full pipeline; live pages use the
// websocket feed instead.
type Handler struct {
	store   store.Store
	timings *TimingStore
}

func NewHandler(s store.Store, timings *TimingStore) *Handler {
	return &Handler{store: s, timings: timings}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RoleTechnician, auth.RoleReviewer, auth.RoleFrontdesk))
	read.GET("/overview/:department", h.GetSnapshot)
	read.GET("/overview/:department/violations", h.GetViolations)
	read.GET("/test-timings", h.GetTimings)

	admin := api.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.PUT("/test-timings", h.PutTimings)
}

func (h *Handler) GetSnapshot(c echo.Context) error {
	snap, err := h.buildSnapshot(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snap)
}

func (h *Handler) GetViolations(c echo.Context) error {
	snap, err := h.buildSnapshot(c)
	if err != nil {
		return err
	}
	violators := snap.Violators
	if violators == nil {
		violators = []lab.Violation{}
	}
	return c.JSON(http.StatusOK, violators)
}

func (h *Handler) GetTimings(c echo.Context) error {
	return c.JSON(http.StatusOK, h.timings.Get())
}

func (h *Handler) PutTimings(c echo.Context) error {
	var table lab.TimingTable
	if err := c.Bind(&table); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(table) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "timing table cannot be empty")
	}
	h.timings.Set(table)
	return c.JSON(http.StatusOK, table)
}

func (h *Handler) buildSnapshot(c echo.Context) (lab.Snapshot, error) {
	dept, ok := lab.DepartmentByKey(c.Param("department"))
	if !ok {
		return lab.Snapshot{}, echo.NewHTTPError(http.StatusNotFound, "unknown department")
	}

	filter, err := filterFromQuery(c)
	if err != nil {
		return lab.Snapshot{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	masterDocs, err := h.store.List(ctx, lab.IntakeCollection)
	if err != nil {
		return lab.Snapshot{}, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	deptDocs, err := h.store.List(ctx, dept.Collection)
	if err != nil {
		return lab.Snapshot{}, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return lab.BuildSnapshot(masterDocs, deptDocs, lab.OverviewConfig{
		Department: dept,
		Timings:    h.timings.Get(),
		Filter:     filter,
		StagePair:  stagePairFromQuery(c),
	}), nil
}

// filterFromQuery parses from/to (YYYY-MM-DD) and source query parameters.
func filterFromQuery(c echo.Context) (lab.Filter, error) {
	f := lab.Filter{Source: c.QueryParam("source")}
	var err error
	if f.From, err = parseDay(c.QueryParam("from")); err != nil {
		return f, err
	}
	if f.To, err = parseDay(c.QueryParam("to")); err != nil {
		return f, err
	}
	return f, nil
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}

func stagePairFromQuery(c echo.Context) lab.StagePair {
	switch c.QueryParam("pair") {
	case "printed_collected":
		return lab.PairPrintedToCollected
	case "collected_scanned":
		return lab.PairCollectedToScanned
	case "saved_validated":
		return lab.PairSavedToValidated
	default:
		return lab.PairScannedToSaved
	}
}
