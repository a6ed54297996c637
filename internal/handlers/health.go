package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"livegraphs/internal/database"
	"livegraphs/internal/models"

	"github.com/labstack/echo/v4"
)

// HealthHandler handles basic health check requests
func HealthHandler(version string) echo.HandlerFunc {
	return func(c echo.Context) error {
		response := models.HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC(),
			Version:   version,
		}

		return c.JSON(http.StatusOK, response)
	}
}

// DBHealthHandler handles database engine health check requests
func DBHealthHandler(engine *database.Engine) echo.HandlerFunc {
	return func(c echo.Context) error {
		response := models.DBHealthResponse{
			Status:    "unknown",
			Timestamp: time.Now().UTC(),
			Connected: false,
			Latency:   0,
		}

		if engine == nil || engine.State() != database.StateReady {
			response.Status = "unhealthy"
			response.Error = "Database engine not initialized"
			if engine != nil {
				response.Error = fmt.Sprintf("Database engine not ready (state %s)", engine.State())
			}
			return c.JSON(http.StatusServiceUnavailable, response)
		}

		// Measure probe query latency
		start := time.Now()
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		var count int
		err := engine.DB().GetContext(ctx, &count, "SELECT 1")
		response.Latency = time.Since(start)
		if err != nil {
			response.Status = "unhealthy"
			response.Error = fmt.Sprintf("Database query failed: %v", err)
			return c.JSON(http.StatusServiceUnavailable, response)
		}

		response.Status = "healthy"
		response.Connected = true

		return c.JSON(http.StatusOK, response)
	}
}

// RootHandler handles requests to the root endpoint
func RootHandler(version string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"service": "LiveGraphs API",
			"version": version,
			"status":  "running",
		})
	}
}
