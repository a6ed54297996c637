package handlers

import (
	"errors"
	"io"
	"net/http"

	"livegraphs/internal/database"
	"livegraphs/internal/models"
	"livegraphs/internal/validation"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// maxUploadBytes bounds an uploaded log file; the dataset itself is
// expected to stay in the low tens of thousands of sessions.
const maxUploadBytes = 64 * 1024 * 1024

// UploadHandler validates an uploaded session log and commits it
// @Summary Upload session logs
// @Description Validate a JSON array of chatbot session records and ingest them. The batch is accepted or rejected as a whole; duplicate session ids are skipped.
// @Tags ingestion
// @Accept json
// @Produce json
// @Success 200 {object} models.UploadResponse
// @Failure 400 {object} models.UploadResponse
// @Failure 503 {object} models.UploadResponse
// @Router /api/upload [post]
func UploadHandler(v *validation.Validator, engine *database.Engine, logger zerolog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxUploadBytes))
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.UploadResponse{
				Success: false,
				Error:   "failed to read upload body: " + err.Error(),
			})
		}

		sessions, err := v.ValidateBatch(body)
		if err != nil {
			// The aggregated message names every offending field path.
			logger.Warn().Err(err).Msg("Upload rejected by validation")
			return c.JSON(http.StatusBadRequest, models.UploadResponse{
				Success: false,
				Error:   err.Error(),
			})
		}

		inserted, err := engine.InsertSessions(c.Request().Context(), sessions)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, database.ErrNotInitialized) {
				status = http.StatusServiceUnavailable
			}
			logger.Error().Err(err).Msg("Ingestion failed")
			return c.JSON(status, models.UploadResponse{
				Success:   false,
				Submitted: len(sessions),
				Error:     err.Error(),
			})
		}

		logger.Info().
			Int("submitted", len(sessions)).
			Int("inserted", inserted).
			Int("skipped", len(sessions)-inserted).
			Msg("Upload ingested")

		return c.JSON(http.StatusOK, models.UploadResponse{
			Success:   true,
			Submitted: len(sessions),
			Inserted:  inserted,
			Skipped:   len(sessions) - inserted,
		})
	}
}
