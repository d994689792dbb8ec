// Package sqlite opens the database file behind the sqlite credential store.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Register the "sqlite3" driver.
	_ "github.com/mattn/go-sqlite3"
)

// Open returns a handle to the database at path, creating the file and its
// parent directory (0700) when missing. Secrets are sealed before they reach
// the database, so the file itself is not encrypted.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open failed: %w", err)
	}

	// A single connection serializes writers and avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping failed after open: %w", err)
	}
	return db, nil
}
