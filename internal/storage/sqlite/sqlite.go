// Package sqlite provides the SQLite backend of storage.Storage.
//
// The blank import registers the "sqlite3" driver with database/sql.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/aanand-mishra/persons-api/internal/config"
	"github.com/aanand-mishra/persons-api/internal/storage/sqlstore"
)

// Dialect describes SQLite to sqlstore. AUTOINCREMENT keeps SQLite from
// handing out the id of a deleted row again.
var Dialect = sqlstore.Dialect{
	DriverName:  "sqlite3",
	Placeholder: sq.Question,
	CreateTable: `
		CREATE TABLE IF NOT EXISTS person (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			name   TEXT    NOT NULL,
			age    INTEGER NOT NULL,
			gender TEXT    NOT NULL
		)`,
}

// New opens the SQLite database file at cfg.Database.Path, creating its
// directory when needed. Call Init on the result to create the table.
func New(cfg *config.Config) (*sqlstore.Store, error) {
	path := cfg.Database.Path

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite.New: create dir: %w", err)
		}
	}

	// Several connections may write concurrently; wait on the file lock
	// instead of failing with "database is locked".
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	return sqlstore.New(db, Dialect), nil
}
