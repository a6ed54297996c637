package handlers

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"livegraphs/internal/database"
	"livegraphs/internal/models"
	"livegraphs/internal/results"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsHandler(t *testing.T) {
	engine := newReadyEngine(t)
	seedEngine(t, engine)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, StatsHandler(engine)(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var response models.StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.True(t, response.Success)
	require.NotNil(t, response.Stats)
	assert.Equal(t, 2, response.Stats.TotalSessions)
	assert.Equal(t, "2024-03-01T10:00:00Z", response.Stats.MinStartTime)
	assert.Equal(t, "2024-03-02T14:00:00Z", response.Stats.MaxStartTime)
}

func TestStatsHandler_EngineNotReady(t *testing.T) {
	engine := database.NewEngine(t.TempDir(), database.NewMemoryStore(), 0, zerolog.Nop())

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, StatsHandler(engine)(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestExportHandler(t *testing.T) {
	engine := newReadyEngine(t)
	seedEngine(t, engine)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/export?from=2024-03-01&to=2024-03-02", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, ExportHandler(engine, zerolog.Nop())(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "livegraphs_2024-03-01_to_2024-03-02.csv")

	records, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3, "header plus two data rows")
	assert.Equal(t, "session_id", records[0][0])
}

func TestExportHandler_BadRange(t *testing.T) {
	engine := newReadyEngine(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/export?from=bad&to=2024-03-02", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, ExportHandler(engine, zerolog.Nop())(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportHandler_EngineNotReady(t *testing.T) {
	engine := database.NewEngine(t.TempDir(), database.NewMemoryStore(), 0, zerolog.Nop())

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/export", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, ExportHandler(engine, zerolog.Nop())(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestClearHandler(t *testing.T) {
	engine := newReadyEngine(t)
	seedEngine(t, engine)

	store := results.New()
	seq := store.Begin()
	require.True(t, store.Publish(seq, time.Time{}, time.Time{}, &models.Dashboard{}))

	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/data", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, ClearHandler(engine, store, zerolog.Nop())(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var response models.ClearResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.True(t, response.Success)

	var count int
	require.NoError(t, engine.DB().Get(&count, "SELECT COUNT(*) FROM sessions"))
	assert.Zero(t, count)

	// The published dashboard snapshot is dropped with the data.
	_, ok := store.Latest()
	assert.False(t, ok)
}

func TestClearHandler_EngineNotReady(t *testing.T) {
	engine := database.NewEngine(t.TempDir(), database.NewMemoryStore(), 0, zerolog.Nop())

	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/data", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, ClearHandler(engine, results.New(), zerolog.Nop())(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
