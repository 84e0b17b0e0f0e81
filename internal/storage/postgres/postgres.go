// Package postgres provides the PostgreSQL backend of storage.Storage,
// using the pgx driver through its database/sql adapter.
package postgres

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/aanand-mishra/persons-api/internal/config"
	"github.com/aanand-mishra/persons-api/internal/storage/sqlstore"
)

// Dialect describes PostgreSQL to sqlstore.
//
// Seed rows carry explicit ids, which SERIAL does not see, so the
// sequence is moved up to MAX(id) when it lags behind. It is never moved
// backwards.
var Dialect = sqlstore.Dialect{
	DriverName:  "pgx",
	Placeholder: sq.Dollar,
	CreateTable: `
		CREATE TABLE IF NOT EXISTS person (
			id     SERIAL PRIMARY KEY,
			name   VARCHAR(255) NOT NULL,
			age    INT          NOT NULL,
			gender CHAR(1)      NOT NULL
		)`,
	SyncSequence: `
		SELECT setval('person_id_seq', m.max_id)
		FROM (SELECT MAX(id) AS max_id FROM person) m, person_id_seq s
		WHERE m.max_id IS NOT NULL
		  AND (m.max_id > s.last_value OR NOT s.is_called)`,
}

// New prepares a connection handle for the database described by
// cfg.Database. No connection is made until the first operation.
func New(cfg *config.Config) (*sqlstore.Store, error) {
	db, err := sql.Open("pgx", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("postgres.New: open db: %w", err)
	}

	return sqlstore.New(db, Dialect), nil
}
