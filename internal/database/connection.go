package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/example/studyapp/internal/config"
)

// Connect establishes a connection to the configured database
func Connect(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)

	switch cfg.Type {
	case "postgres":
		db, err = Open("postgres", cfg.URL)
	default:
		// Create data directory if it doesn't exist
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		db, err = Open("sqlite3", cfg.SQLitePath)
	}
	if err != nil {
		return nil, err
	}
	return db, nil
}

// Open connects with an explicit driver and DSN and initializes the schema
func Open(driver, dsn string) (*sqlx.DB, error) {
	if driver == "sqlite3" {
		dsn = sqliteDSN(dsn)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite3" {
		db.SetMaxOpenConns(1) // SQLite doesn't support multiple writers
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// sqliteDSN appends the connection options, keeping any query already present
func sqliteDSN(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on&_busy_timeout=5000"
}

// timestamp normalizes instants before they are written: UTC, microsecond precision
func timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func now() time.Time {
	return timestamp(time.Now())
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema(db *sqlx.DB) error {
	ts := "TIMESTAMP"
	if db.DriverName() == "postgres" {
		ts = "TIMESTAMPTZ"
	}

	tables := []struct {
		name string
		ddl  string
	}{
		{"categories", `
			CREATE TABLE IF NOT EXISTS categories (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				slug TEXT UNIQUE,
				display_order INTEGER NOT NULL DEFAULT 0,
				description TEXT,
				content_type TEXT NOT NULL DEFAULT '',
				total_sessions INTEGER NOT NULL DEFAULT 0,
				created_at ` + ts + ` NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at ` + ts + ` NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`},
		{"sessions", `
			CREATE TABLE IF NOT EXISTS sessions (
				id TEXT PRIMARY KEY,
				category_id TEXT NOT NULL REFERENCES categories(id),
				session_number INTEGER NOT NULL,
				title TEXT NOT NULL,
				pattern_english TEXT,
				pattern_korean TEXT,
				description TEXT,
				metadata TEXT NOT NULL DEFAULT '{}',
				created_at ` + ts + ` NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at ` + ts + ` NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE(category_id, session_number)
			)`},
		{"expressions", `
			CREATE TABLE IF NOT EXISTS expressions (
				id TEXT PRIMARY KEY,
				session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
				display_order INTEGER NOT NULL,
				english TEXT NOT NULL,
				korean TEXT NOT NULL,
				audio_url TEXT,
				metadata TEXT NOT NULL DEFAULT '{}',
				created_at ` + ts + ` NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at ` + ts + ` NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`},
		{"user_session_progress", `
			CREATE TABLE IF NOT EXISTS user_session_progress (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				session_id TEXT NOT NULL,
				category_id TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'not-started',
				completed_at ` + ts + `,
				created_at ` + ts + ` NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at ` + ts + ` NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE(user_id, session_id)
			)`},
		{"user_expression_progress", `
			CREATE TABLE IF NOT EXISTS user_expression_progress (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				expression_id TEXT NOT NULL,
				session_id TEXT NOT NULL,
				category_id TEXT NOT NULL,
				completed_at ` + ts + ` NOT NULL,
				created_at ` + ts + ` NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE(user_id, expression_id)
			)`},
		{"daily_study_stats", `
			CREATE TABLE IF NOT EXISTS daily_study_stats (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				category_id TEXT NOT NULL,
				study_date TEXT NOT NULL,
				sessions_completed INTEGER NOT NULL DEFAULT 0,
				total_sessions INTEGER NOT NULL DEFAULT 0,
				created_at ` + ts + ` NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at ` + ts + ` NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE(user_id, category_id, study_date)
			)`},
		{"user_settings", `
			CREATE TABLE IF NOT EXISTS user_settings (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL UNIQUE,
				auto_play_audio BOOLEAN NOT NULL DEFAULT true,
				daily_reminder BOOLEAN NOT NULL DEFAULT false,
				daily_goal INTEGER NOT NULL DEFAULT 10,
				dark_mode BOOLEAN NOT NULL DEFAULT false,
				reminder_time TEXT NOT NULL DEFAULT '09:00:00',
				created_at ` + ts + ` NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at ` + ts + ` NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`},
	}

	for _, t := range tables {
		if _, err := db.Exec(t.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", t.name, err)
		}
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_sessions_category ON sessions(category_id)",
		"CREATE INDEX IF NOT EXISTS idx_expressions_session ON expressions(session_id)",
		"CREATE INDEX IF NOT EXISTS idx_session_progress_category ON user_session_progress(user_id, category_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_daily_stats_date ON daily_study_stats(user_id, study_date)",
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
