package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

var (
	db   *sql.DB
	once sync.Once
)

type Config struct {
	Path string
}

func Init(cfg Config) error {
	var initErr error
	once.Do(func() {
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if initErr = os.MkdirAll(dir, 0o755); initErr != nil {
				return
			}
		}
		db, initErr = sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_busy_timeout=5000")
		if initErr != nil {
			return
		}
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		initErr = runMigrations(db)
	})
	return initErr
}

func GetDB() *sql.DB {
	return db
}

func Close() error {
	if db != nil {
		return db.Close()
	}
	return nil
}

type Migration struct {
	Version string
	SQL     string
}

func runMigrations(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied := make(map[string]bool)
	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}

	migrations := builtinMigrations()

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %s: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %s: %w", m.Version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %s: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", m.Version, err)
		}
	}

	return nil
}

func builtinMigrations() []Migration {
	return []Migration{
		{
			Version: "001_initial",
			SQL: `
				CREATE TABLE IF NOT EXISTS jobs (
					id TEXT PRIMARY KEY,
					owner_id TEXT NOT NULL,
					document_name TEXT NOT NULL,
					pages INTEGER NOT NULL,
					copies INTEGER NOT NULL,
					color INTEGER NOT NULL DEFAULT 0,
					duplex INTEGER NOT NULL DEFAULT 0,
					stapling INTEGER NOT NULL DEFAULT 0,
					priority TEXT NOT NULL DEFAULT 'normal',
					notes TEXT NOT NULL DEFAULT '',
					status TEXT NOT NULL DEFAULT 'pending',
					cost REAL NOT NULL,
					release_token TEXT NOT NULL,
					submitted_at DATETIME NOT NULL,
					released_at DATETIME,
					completed_at DATETIME,
					cancelled_at DATETIME,
					printer_id TEXT NOT NULL DEFAULT '',
					released_by TEXT NOT NULL DEFAULT ''
				);
				CREATE INDEX IF NOT EXISTS idx_jobs_owner ON jobs(owner_id);
				CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);

				CREATE TABLE IF NOT EXISTS printers (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					location TEXT NOT NULL DEFAULT '',
					model TEXT NOT NULL DEFAULT '',
					status TEXT NOT NULL DEFAULT 'online',
					ip TEXT NOT NULL DEFAULT '',
					capabilities_json TEXT NOT NULL DEFAULT '[]',
					department TEXT NOT NULL DEFAULT 'All',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				);

				CREATE TABLE IF NOT EXISTS webhooks (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					url TEXT NOT NULL,
					secret TEXT NOT NULL DEFAULT '',
					events_json TEXT NOT NULL DEFAULT '[]',
					enabled INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				);

				CREATE TABLE IF NOT EXISTS settings (
					key TEXT PRIMARY KEY,
					value TEXT NOT NULL,
					encrypted INTEGER NOT NULL DEFAULT 0,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				);
			`,
		},
	}
}
