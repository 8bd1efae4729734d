package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Connect opens the database and initializes the schema. With the
// default sqlite driver dsn is a file path; with postgres it is a
// connection string (DATABASE_DRIVER/DATABASE_DSN in the environment).
func Connect(driver, dsn string) (*sqlx.DB, error) {
	if driver == "" {
		driver = "sqlite3"
	}
	if driver == "sqlite3" {
		if dsn == "" {
			dsn = filepath.Join("data", "advent.db")
		}
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %v", err)
		}
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	if driver == "sqlite3" {
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema(db *sqlx.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			user_id BIGINT PRIMARY KEY,
			opened_day INTEGER NOT NULL DEFAULT 1,
			active_day INTEGER NOT NULL DEFAULT 0,
			active_step INTEGER NOT NULL DEFAULT 0,
			mode TEXT NOT NULL DEFAULT 'mix',
			sparks TEXT NOT NULL DEFAULT '[]',
			codes TEXT NOT NULL DEFAULT '[]',
			next_unlock_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create users table: %v", err)
	}
	return nil
}
