package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/fitonboard/backend/pkg/apperrors"
	"github.com/fitonboard/backend/pkg/logger"
)

type Client struct {
	db  *sql.DB
	now func() time.Time
}

func NewClient(dbPath string) (*Client, error) {
	// foreign_keys is per connection and must apply to the whole pool.
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite3", dbPath+sep+"_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db, now: time.Now}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) Ping() error {
	return c.db.Ping()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		age INTEGER NOT NULL,
		fitness_level TEXT NOT NULL,
		goals TEXT,
		injuries TEXT,
		preferred_duration INTEGER NOT NULL,
		height_cm REAL,
		weight_kg REAL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_profiles_updated ON profiles(updated_at);

	CREATE TABLE IF NOT EXISTS waivers (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		medical_flags TEXT,
		physician_clearance INTEGER DEFAULT 0,
		digest TEXT NOT NULL,
		signed_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_waivers_user ON waivers(user_id, signed_at);

	CREATE TABLE IF NOT EXISTS waiver_drafts (
		user_id TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS workouts (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		request TEXT NOT NULL,
		plan TEXT NOT NULL,
		confidence TEXT NOT NULL,
		bucket TEXT,
		model TEXT,
		overall_score REAL,
		level TEXT,
		prompt_tokens INTEGER,
		completion_tokens INTEGER,
		latency_ms INTEGER,
		cached INTEGER DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_workouts_user ON workouts(user_id);
	CREATE INDEX IF NOT EXISTS idx_workouts_created ON workouts(created_at);

	CREATE TABLE IF NOT EXISTS feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		workout_id TEXT NOT NULL,
		helpful INTEGER NOT NULL,
		rating INTEGER,
		comment TEXT,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (workout_id) REFERENCES workouts(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_feedback_workout ON feedback(workout_id);
	CREATE INDEX IF NOT EXISTS idx_feedback_created ON feedback(created_at);

	CREATE TABLE IF NOT EXISTS system_metrics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		metric_name TEXT NOT NULL,
		metric_value REAL NOT NULL,
		tags TEXT,
		timestamp INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_metrics_name ON system_metrics(metric_name);
	CREATE INDEX IF NOT EXISTS idx_metrics_timestamp ON system_metrics(timestamp);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) RecordMetric(name string, value float64, tags map[string]string) error {
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to encode metric tags: %w", err)
	}

	query := `INSERT INTO system_metrics (metric_name, metric_value, tags, timestamp) VALUES (?, ?, ?, ?)`

	_, err = c.db.Exec(query, name, value, string(tagsJSON), c.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to record metric: %w", err)
	}

	return nil
}

// MetricAverage averages a metric over the window ending now.
func (c *Client) MetricAverage(name string, window time.Duration) (float64, int, error) {
	query := `SELECT COALESCE(AVG(metric_value), 0), COUNT(*) FROM system_metrics WHERE metric_name = ? AND timestamp >= ?`

	var avg float64
	var count int
	err := c.db.QueryRow(query, name, c.now().Add(-window).Unix()).Scan(&avg, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to average metric: %w", err)
	}
	return avg, count, nil
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.Wrap(err, apperrors.CodeNotFound, what+" not found")
	}
	return apperrors.Wrap(err, apperrors.CodeStorage, "failed to load "+what)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func encodeList(items []string) string {
	if items == nil {
		items = []string{}
	}
	b, _ := json.Marshal(items)
	return string(b)
}

func decodeList(s sql.NullString) []string {
	out := []string{}
	if s.Valid && s.String != "" {
		_ = json.Unmarshal([]byte(s.String), &out)
	}
	return out
}
