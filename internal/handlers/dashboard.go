package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"livegraphs/internal/analytics"
	"livegraphs/internal/database"
	"livegraphs/internal/models"
	"livegraphs/internal/results"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const dateLayout = "2006-01-02"

// parseRange reads the from/to query parameters; when absent the range
// defaults to the stored dataset's own date span.
func parseRange(c echo.Context, engine *database.Engine) (time.Time, time.Time, error) {
	fromParam := c.QueryParam("from")
	toParam := c.QueryParam("to")

	if fromParam == "" && toParam == "" {
		stats, err := engine.Stats(c.Request().Context())
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		if stats.TotalSessions == 0 {
			today := time.Now().UTC().Truncate(24 * time.Hour)
			return today, today, nil
		}
		from, err := time.Parse(time.RFC3339, stats.MinStartTime)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("stored date range is unreadable: %w", err)
		}
		to, err := time.Parse(time.RFC3339, stats.MaxStartTime)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("stored date range is unreadable: %w", err)
		}
		return from, to, nil
	}

	from, err := time.Parse(dateLayout, fromParam)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid from date %q, expected YYYY-MM-DD", fromParam)
	}
	to, err := time.Parse(dateLayout, toParam)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid to date %q, expected YYYY-MM-DD", toParam)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("to date %q precedes from date %q", toParam, fromParam)
	}
	return from, to, nil
}

// DashboardHandler computes metrics, chart data and quality insights for a range
// @Summary Get dashboard aggregates
// @Description Compute metrics, chart-ready aggregates and data-quality insights for an inclusive date range. Results are always recomputed from raw rows.
// @Tags analytics
// @Accept json
// @Produce json
// @Param from query string false "Range start (YYYY-MM-DD), defaults to dataset start"
// @Param to query string false "Range end (YYYY-MM-DD), defaults to dataset end"
// @Success 200 {object} models.DashboardResponse
// @Failure 400 {object} models.DashboardResponse
// @Failure 503 {object} models.DashboardResponse
// @Router /api/dashboard [get]
func DashboardHandler(svc *analytics.Service, store *results.Store, engine *database.Engine, logger zerolog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		from, to, err := parseRange(c, engine)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, database.ErrNotInitialized) {
				status = http.StatusServiceUnavailable
			}
			return c.JSON(status, models.DashboardResponse{Success: false, Error: err.Error()})
		}

		stats, err := engine.Stats(c.Request().Context())
		if err != nil {
			return c.JSON(http.StatusServiceUnavailable, models.DashboardResponse{Success: false, Error: err.Error()})
		}

		// Reserve the sequence slot before computing so a newer request
		// finishing first makes this result stale.
		seq := store.Begin()

		dashboard, warnings, err := svc.Dashboard(c.Request().Context(), from, to, stats.TotalSessions)
		if err != nil {
			logger.Error().Err(err).Msg("Dashboard computation failed")
			return c.JSON(http.StatusInternalServerError, models.DashboardResponse{Success: false, Error: err.Error()})
		}

		if !store.Publish(seq, from, to, dashboard) {
			logger.Debug().Uint64("seq", seq).Msg("Discarded stale dashboard result")
		}

		return c.JSON(http.StatusOK, models.DashboardResponse{
			Success:   true,
			From:      from.Format(dateLayout),
			To:        to.Format(dateLayout),
			Dashboard: dashboard,
			Warnings:  warnings,
		})
	}
}
