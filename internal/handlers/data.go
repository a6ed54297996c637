package handlers

import (
	"errors"
	"net/http"

	"livegraphs/internal/database"
	"livegraphs/internal/export"
	"livegraphs/internal/models"
	"livegraphs/internal/results"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// StatsHandler reports the stored dataset size and date range
// @Summary Get dataset statistics
// @Description Report the total number of stored sessions and the stored date range.
// @Tags analytics
// @Produce json
// @Success 200 {object} models.StatsResponse
// @Failure 503 {object} models.StatsResponse
// @Router /api/stats [get]
func StatsHandler(engine *database.Engine) echo.HandlerFunc {
	return func(c echo.Context) error {
		stats, err := engine.Stats(c.Request().Context())
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, database.ErrNotInitialized) {
				status = http.StatusServiceUnavailable
			}
			return c.JSON(status, models.StatsResponse{Success: false, Error: err.Error()})
		}
		return c.JSON(http.StatusOK, models.StatsResponse{
			Success: true,
			Stats: &models.DatasetStats{
				TotalSessions: stats.TotalSessions,
				MinStartTime:  stats.MinStartTime,
				MaxStartTime:  stats.MaxStartTime,
			},
		})
	}
}

// ExportHandler streams the sessions of a date range as a CSV download
// @Summary Export sessions as CSV
// @Description Download one CSV row per session in the selected date range.
// @Tags export
// @Produce text/csv
// @Param from query string false "Range start (YYYY-MM-DD), defaults to dataset start"
// @Param to query string false "Range end (YYYY-MM-DD), defaults to dataset end"
// @Success 200 {string} string "CSV payload"
// @Failure 400 {object} models.ClearResponse
// @Router /api/export [get]
func ExportHandler(engine *database.Engine, logger zerolog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if engine.DB() == nil {
			return c.JSON(http.StatusServiceUnavailable, models.ClearResponse{Success: false, Error: database.ErrNotInitialized.Error()})
		}
		from, to, err := parseRange(c, engine)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.ClearResponse{Success: false, Error: err.Error()})
		}

		c.Response().Header().Set(echo.HeaderContentType, "text/csv")
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+export.Filename(from, to)+`"`)
		c.Response().WriteHeader(http.StatusOK)

		rows, err := export.WriteSessionsCSV(c.Request().Context(), engine.DB(), c.Response(), from, to)
		if err != nil {
			// Headers are gone; all we can do is log and cut the stream.
			logger.Error().Err(err).Msg("CSV export failed mid-stream")
			return err
		}
		logger.Info().Int("rows", rows).Str("file", export.Filename(from, to)).Msg("CSV export served")
		return nil
	}
}

// ClearHandler deletes all stored session data
// @Summary Clear all data
// @Description Truncate the sessions, messages and questions tables and remove the persisted snapshot. Irreversible.
// @Tags ingestion
// @Produce json
// @Success 200 {object} models.ClearResponse
// @Failure 503 {object} models.ClearResponse
// @Router /api/data [delete]
func ClearHandler(engine *database.Engine, store *results.Store, logger zerolog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := engine.Clear(c.Request().Context()); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, database.ErrNotInitialized) {
				status = http.StatusServiceUnavailable
			}
			logger.Error().Err(err).Msg("Clear failed")
			return c.JSON(status, models.ClearResponse{Success: false, Error: err.Error()})
		}
		store.Reset()
		return c.JSON(http.StatusOK, models.ClearResponse{Success: true})
	}
}
