package database

import (
	"context"
	"testing"

	"livegraphs/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, store BlobStore) *Engine {
	t.Helper()
	if store == nil {
		store = NewMemoryStore()
	}
	engine := NewEngine(t.TempDir(), store, 0, zerolog.Nop())
	require.NoError(t, engine.Init(context.Background()))
	t.Cleanup(func() { _ = engine.Close() })
	return engine
}

func fixtureSession(id, start, end string) models.ChatSession {
	rating := 4.0
	return models.ChatSession{
		SessionID: id,
		StartTime: start,
		EndTime:   end,
		Transcript: []models.TranscriptEntry{
			{Timestamp: start, Role: models.RoleUser, Content: "Hello"},
			{Timestamp: end, Role: models.RoleAssistant, Content: "Hi, how can I help?"},
		},
		Messages: models.MessageStats{
			ResponseTime: models.ResponseTime{Avg: 2.5},
			Amount:       models.MessageAmount{User: 3, Total: 7},
			Tokens:       900,
			Cost:         models.Cost{EUR: models.CostEUR{Cent: 10, Full: 0.10}},
			SourceURL:    "https://example.com",
		},
		User: models.UserContext{
			IP:       "203.0.XXX.XXX",
			Country:  "Germany",
			Language: "German",
		},
		Sentiment:  models.SentimentPositive,
		Category:   "Contract",
		Questions:  []string{"How do I renew?"},
		Summary:    "Renewal question",
		UserRating: &rating,
	}
}

func TestEngine_Lifecycle(t *testing.T) {
	store := NewMemoryStore()
	engine := NewEngine(t.TempDir(), store, 0, zerolog.Nop())

	assert.Equal(t, StateUninitialized, engine.State())
	assert.Nil(t, engine.DB())

	// Operations before Init must fail with the sentinel.
	_, err := engine.Stats(context.Background())
	assert.ErrorIs(t, err, ErrNotInitialized)
	err = engine.Clear(context.Background())
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = engine.InsertSessions(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNotInitialized)

	require.NoError(t, engine.Init(context.Background()))
	assert.Equal(t, StateReady, engine.State())
	assert.NotNil(t, engine.DB())

	// A second Init is rejected.
	err = engine.Init(context.Background())
	assert.Error(t, err)

	require.NoError(t, engine.Close())
}

func TestEngine_StatsEmpty(t *testing.T) {
	engine := newTestEngine(t, nil)

	stats, err := engine.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalSessions)
	assert.Empty(t, stats.MinStartTime)
	assert.Empty(t, stats.MaxStartTime)
}

func TestEngine_StatsRange(t *testing.T) {
	engine := newTestEngine(t, nil)

	sessions := []models.ChatSession{
		fixtureSession("550e8400-e29b-41d4-a716-446655440000", "2024-03-01T10:00:00Z", "2024-03-01T10:05:00Z"),
		fixtureSession("550e8400-e29b-41d4-a716-446655440001", "2024-03-03T09:00:00Z", "2024-03-03T09:10:00Z"),
	}
	_, err := engine.InsertSessions(context.Background(), sessions)
	require.NoError(t, err)

	stats, err := engine.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalSessions)
	assert.Equal(t, "2024-03-01T10:00:00Z", stats.MinStartTime)
	assert.Equal(t, "2024-03-03T09:00:00Z", stats.MaxStartTime)
}

func TestEngine_ClearCascades(t *testing.T) {
	store := NewMemoryStore()
	engine := newTestEngine(t, store)

	_, err := engine.InsertSessions(context.Background(), []models.ChatSession{
		fixtureSession("550e8400-e29b-41d4-a716-446655440000", "2024-03-01T10:00:00Z", "2024-03-01T10:05:00Z"),
	})
	require.NoError(t, err)

	require.NoError(t, engine.Clear(context.Background()))

	for _, table := range []string{"sessions", "messages", "questions"} {
		var count int
		require.NoError(t, engine.DB().Get(&count, "SELECT COUNT(*) FROM "+table))
		assert.Zero(t, count, "table %s should be empty after clear", table)
	}

	// The persisted blob is gone too.
	_, ok, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEngine_ForeignKeyCascade(t *testing.T) {
	engine := newTestEngine(t, nil)

	_, err := engine.InsertSessions(context.Background(), []models.ChatSession{
		fixtureSession("550e8400-e29b-41d4-a716-446655440000", "2024-03-01T10:00:00Z", "2024-03-01T10:05:00Z"),
	})
	require.NoError(t, err)

	// Deleting the parent row alone must cascade to children.
	_, err = engine.DB().Exec("DELETE FROM sessions")
	require.NoError(t, err)

	var messages, questions int
	require.NoError(t, engine.DB().Get(&messages, "SELECT COUNT(*) FROM messages"))
	require.NoError(t, engine.DB().Get(&questions, "SELECT COUNT(*) FROM questions"))
	assert.Zero(t, messages)
	assert.Zero(t, questions)
}

func TestEngine_SnapshotRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	engine := newTestEngine(t, store)

	_, err := engine.InsertSessions(context.Background(), []models.ChatSession{
		fixtureSession("550e8400-e29b-41d4-a716-446655440000", "2024-03-01T10:00:00Z", "2024-03-01T10:05:00Z"),
	})
	require.NoError(t, err)
	require.NoError(t, engine.Close())

	// A fresh engine over the same store restores the dataset.
	restored := NewEngine(t.TempDir(), store, 0, zerolog.Nop())
	require.NoError(t, restored.Init(context.Background()))
	defer func() { _ = restored.Close() }()

	stats, err := restored.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalSessions)
}

func TestEngine_DailyStatsView(t *testing.T) {
	engine := newTestEngine(t, nil)

	escalated := fixtureSession("550e8400-e29b-41d4-a716-446655440001", "2024-03-01T12:00:00Z", "2024-03-01T12:04:00Z")
	escalated.Escalated = true
	_, err := engine.InsertSessions(context.Background(), []models.ChatSession{
		fixtureSession("550e8400-e29b-41d4-a716-446655440000", "2024-03-01T10:00:00Z", "2024-03-01T10:05:00Z"),
		escalated,
	})
	require.NoError(t, err)

	var row struct {
		Day             string  `db:"day"`
		Sessions        int     `db:"sessions"`
		ResolvedPercent float64 `db:"resolved_percent"`
		CostEURCents    int     `db:"cost_eur_cents"`
	}
	err = engine.DB().Get(&row, "SELECT day, sessions, resolved_percent, cost_eur_cents FROM daily_stats WHERE day = '2024-03-01'")
	require.NoError(t, err)
	assert.Equal(t, 2, row.Sessions)
	assert.InDelta(t, 50.0, row.ResolvedPercent, 0.001)
	assert.Equal(t, 20, row.CostEURCents)
}
