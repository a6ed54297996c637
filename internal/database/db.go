package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // pure-Go embedded SQLite driver
)

// ErrNotInitialized is returned by any operation attempted before the
// engine has reached StateReady.
var ErrNotInitialized = fmt.Errorf("database engine not initialized")

// State represents the engine lifecycle
type State int32

// Engine lifecycle states
const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateFailed
)

// String returns a human-readable state name
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DefaultSnapshotSoftLimit is the soft ceiling for persisted snapshots.
// Exceeding it logs a warning but never blocks the write.
const DefaultSnapshotSoftLimit = 5 * 1024 * 1024

// Stats describes the stored dataset
type Stats struct {
	TotalSessions int
	MinStartTime  string
	MaxStartTime  string
}

// Engine is the embedded relational store holding the sessions, messages
// and questions tables plus the daily_stats view. One engine instance
// exists per running app; writes are serialized through an internal
// mutex so an upload and a clear can never interleave.
type Engine struct {
	db        *sqlx.DB
	store     BlobStore
	path      string
	logger    zerolog.Logger
	softLimit int64

	state   atomic.Int32
	writeMu sync.Mutex
}

// NewEngine creates an engine over a working database file in dataDir,
// with snapshot durability delegated to the given store.
func NewEngine(dataDir string, store BlobStore, softLimit int64, logger zerolog.Logger) *Engine {
	if softLimit <= 0 {
		softLimit = DefaultSnapshotSoftLimit
	}
	return &Engine{
		store:     store,
		path:      filepath.Join(dataDir, "livegraphs.db"),
		logger:    logger,
		softLimit: softLimit,
	}
}

// Init moves the engine from uninitialized to ready: it restores a prior
// snapshot when one exists, opens the database and creates the schema.
// On failure the engine ends in StateFailed and every later operation
// returns an error.
func (e *Engine) Init(ctx context.Context) error {
	if !e.state.CompareAndSwap(int32(StateUninitialized), int32(StateInitializing)) {
		return fmt.Errorf("cannot initialize engine in state %s", e.State())
	}

	if err := e.restoreSnapshot(ctx); err != nil {
		// A broken snapshot must not brick the engine; start from scratch.
		e.logger.Warn().Err(err).Msg("Snapshot restore failed, starting with empty database")
	}

	db, err := e.open(ctx)
	if err != nil {
		e.state.Store(int32(StateFailed))
		return err
	}

	if err := createSchema(ctx, db); err != nil {
		_ = db.Close()
		e.state.Store(int32(StateFailed))
		return fmt.Errorf("failed to create schema: %w", err)
	}

	e.db = db
	e.state.Store(int32(StateReady))
	e.logger.Info().Str("path", e.path).Msg("Database engine ready")
	return nil
}

func (e *Engine) open(ctx context.Context) (*sqlx.DB, error) {
	if err := os.MkdirAll(filepath.Dir(e.path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dsn := "file:" + e.path +
		"?_pragma=foreign_keys(1)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=busy_timeout(5000)"

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports one writer; a single connection also keeps reads
	// consistent with in-flight ingestion batches.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// State returns the current lifecycle state
func (e *Engine) State() State {
	return State(e.state.Load())
}

// DB returns the underlying handle for read-side query execution.
// Returns nil until the engine is ready.
func (e *Engine) DB() *sqlx.DB {
	if e.State() != StateReady {
		return nil
	}
	return e.db
}

func (e *Engine) ready() error {
	if s := e.State(); s != StateReady {
		return fmt.Errorf("%w (state %s)", ErrNotInitialized, s)
	}
	return nil
}

// Persist serializes the database to a blob and hands it to the snapshot
// store. Exceeding the soft size ceiling logs a warning; the write still
// proceeds since there is no fallback store.
func (e *Engine) Persist(ctx context.Context) error {
	if err := e.ready(); err != nil {
		return err
	}

	// Fold the WAL into the main file so its bytes are the full snapshot.
	if _, err := e.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("failed to checkpoint database: %w", err)
	}

	blob, err := os.ReadFile(e.path)
	if err != nil {
		return fmt.Errorf("failed to serialize database: %w", err)
	}

	if int64(len(blob)) > e.softLimit {
		e.logger.Warn().
			Int("snapshot_bytes", len(blob)).
			Int64("soft_limit_bytes", e.softLimit).
			Msg("Snapshot exceeds soft size ceiling, persisting anyway")
	}

	if err := e.store.Save(ctx, blob); err != nil {
		return fmt.Errorf("failed to persist snapshot: %w", err)
	}
	return nil
}

// Clear truncates all three tables and removes the persisted snapshot.
// Irreversible.
func (e *Engine) Clear(ctx context.Context) error {
	if err := e.ready(); err != nil {
		return err
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin clear transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Children first; the sessions delete would cascade anyway but the
	// truncation must not depend on it.
	for _, table := range []string{"messages", "questions", "sessions"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit clear transaction: %w", err)
	}

	if err := e.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}

	e.logger.Info().Msg("All session data cleared")
	return nil
}

// Stats returns the dataset size and stored date range
func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	if err := e.ready(); err != nil {
		return Stats{}, err
	}

	var row struct {
		Total int            `db:"total"`
		Min   sql.NullString `db:"min_start"`
		Max   sql.NullString `db:"max_start"`
	}
	query := `SELECT COUNT(*) AS total, MIN(start_time) AS min_start, MAX(start_time) AS max_start FROM sessions`
	if err := e.db.GetContext(ctx, &row, query); err != nil {
		return Stats{}, fmt.Errorf("failed to get dataset stats: %w", err)
	}

	return Stats{
		TotalSessions: row.Total,
		MinStartTime:  row.Min.String,
		MaxStartTime:  row.Max.String,
	}, nil
}

// Close shuts the engine down. The working file stays on disk; durability
// is owned by the snapshot store.
func (e *Engine) Close() error {
	if e.db == nil {
		return nil
	}
	e.state.Store(int32(StateUninitialized))
	return e.db.Close()
}

func (e *Engine) restoreSnapshot(ctx context.Context) error {
	blob, ok, err := e.store.Load(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(e.path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(e.path, blob, 0o600); err != nil {
		return fmt.Errorf("failed to restore snapshot: %w", err)
	}
	// Stale sidecar files from a previous run would shadow the snapshot.
	_ = os.Remove(e.path + "-wal")
	_ = os.Remove(e.path + "-shm")
	e.logger.Info().Int("snapshot_bytes", len(blob)).Msg("Restored database from snapshot")
	return nil
}

func createSchema(ctx context.Context, db *sqlx.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			ip_hash TEXT NOT NULL,
			country TEXT NOT NULL,
			language TEXT NOT NULL,
			sentiment TEXT NOT NULL,
			escalated INTEGER NOT NULL DEFAULT 0,
			forwarded_hr INTEGER NOT NULL DEFAULT 0,
			category TEXT,
			conversation_duration_seconds REAL NOT NULL DEFAULT 0,
			total_messages INTEGER NOT NULL DEFAULT 0,
			user_messages INTEGER NOT NULL DEFAULT 0,
			avg_response_time REAL NOT NULL DEFAULT 0,
			total_tokens INTEGER NOT NULL DEFAULT 0,
			cost_eur_cents INTEGER NOT NULL DEFAULT 0,
			source_url TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			user_rating REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_start_time ON sessions(start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_end_time ON sessions(end_time)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_category ON sessions(category)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_sentiment ON sessions(sentiment)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ip_hash ON sessions(ip_hash)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(session_id) ON DELETE CASCADE,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			timestamp TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session_id ON messages(session_id)`,
		`CREATE TABLE IF NOT EXISTS questions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(session_id) ON DELETE CASCADE,
			question TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_session_id ON questions(session_id)`,
		// Derived per-day rollup; always recomputed from session rows.
		`CREATE VIEW IF NOT EXISTS daily_stats AS
			SELECT
				date(start_time) AS day,
				COUNT(*) AS sessions,
				COUNT(DISTINCT ip_hash) AS unique_users,
				AVG(conversation_duration_seconds) AS avg_duration_seconds,
				AVG(avg_response_time) AS avg_response_seconds,
				100.0 - SUM(CASE WHEN escalated = 1 OR forwarded_hr = 1 THEN 1 ELSE 0 END) * 100.0 / COUNT(*) AS resolved_percent,
				SUM(cost_eur_cents) AS cost_eur_cents
			FROM sessions
			GROUP BY date(start_time)`,
	}

	for _, query := range queries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
