// Package sqlstore implements storage.Storage on top of database/sql for
// any backend described by a Dialect.
//
// Every operation acquires its own connection and releases it before
// returning, whatever the outcome. Mutating operations run in a
// transaction on that connection which is committed explicitly on
// success and rolled back on failure. Nothing is kept open between
// calls: the pool is configured to retain no idle connections.
//
// HOW QUERIES ARE BUILT:
// ──────────────────────
// SQL text comes from squirrel, a query builder. It renders the bind
// placeholders for the backend (? for SQLite, $1 $2 ... for Postgres),
// so one set of methods serves both. Values are never spliced into the
// SQL string; they travel separately as args, which rules out SQL
// injection.
//
// Rows are scanned with sqlx, which maps columns onto struct fields by
// their db:"..." tag instead of by position.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/aanand-mishra/persons-api/internal/storage"
	"github.com/aanand-mishra/persons-api/internal/types"
)

const table = "person"

var columns = []string{"id", "name", "age", "gender"}

// seed rows are inserted by Init unless a row with the same id exists.
var seed = []types.Person{
	{ID: 1, Name: "John Doe", Age: 30, Gender: "M"},
	{ID: 2, Name: "Jane Smith", Age: 25, Gender: "F"},
	{ID: 3, Name: "Alice Johnson", Age: 28, Gender: "F"},
	{ID: 4, Name: "Bob Brown", Age: 35, Gender: "M"},
}

// Dialect captures what differs between database backends.
type Dialect struct {
	// DriverName is the database/sql driver name, e.g. "sqlite3" or "pgx".
	DriverName string

	// Placeholder is the bind parameter style squirrel renders.
	Placeholder sq.PlaceholderFormat

	// CreateTable is an idempotent CREATE TABLE statement for the person table.
	CreateTable string

	// SyncSequence, when set, runs after seeding so that generated ids
	// never collide with the explicitly seeded ones.
	SyncSequence string
}

// Store is the database/sql implementation of storage.Storage.
// It is safe for concurrent use by multiple goroutines.
type Store struct {
	db      *sqlx.DB                // pool; every call borrows a connection from it
	dialect Dialect                 // backend-specific SQL
	sb      sq.StatementBuilderType // squirrel builder with the dialect's placeholders
}

var _ storage.Storage = (*Store)(nil)

// New wraps an opened *sql.DB. It does not touch the database; call Init
// to create and seed the table.
func New(db *sql.DB, dialect Dialect) *Store {
	// Zero idle connections: a connection handed back by withConn is
	// closed instead of parked in the pool.
	db.SetMaxIdleConns(0)

	return &Store{
		db:      sqlx.NewDb(db, dialect.DriverName),
		dialect: dialect,
		sb:      sq.StatementBuilder.PlaceholderFormat(dialect.Placeholder),
	}
}

// withConn runs fn on a dedicated connection that is released on return.
func (s *Store) withConn(ctx context.Context, fn func(conn *sqlx.Conn) error) error {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	return fn(conn)
}

// ─────────────────────────────────────────────────────────────────────────────
// withTx runs fn inside a transaction on a dedicated connection. The
// transaction is rolled back if fn fails or panics, and committed
// otherwise.
//
// ORDER OF EVENTS:
// ────────────────
//
//	acquire conn → BEGIN → fn(tx) → COMMIT           → release conn
//	                             ↘ error/panic → ROLLBACK ↗
//
// err is a named result so the deferred function can see what fn
// returned and attach a rollback failure to it. A rollback that reports
// sql.ErrTxDone means the transaction already ended and is not an error.
// ─────────────────────────────────────────────────────────────────────────────
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return s.withConn(ctx, func(conn *sqlx.Conn) (err error) {
		tx, err := conn.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}

		defer func() {
			if p := recover(); p != nil {
				// Undo the work, then let the panic continue upwards.
				_ = tx.Rollback()
				panic(p)
			}
			if err != nil {
				if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
					err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
				}
			}
		}()

		if err = fn(tx); err != nil {
			return err
		}

		if err = tx.Commit(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		return nil
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Init creates the person table if needed and seeds the sample rows.
//
// Everything runs in one transaction: if any step fails, the table and
// the seed rows are rolled back together and the database is left as it
// was. Both Postgres and SQLite support transactional DDL.
//
// Running Init again is harmless:
//   - CREATE TABLE uses IF NOT EXISTS
//   - seed rows use ON CONFLICT (id) DO NOTHING, so an edited seed row
//     is left alone (a deleted one comes back, its id being free again)
//   - SyncSequence only ever moves the id sequence forwards
// ─────────────────────────────────────────────────────────────────────────────
func (s *Store) Init(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, s.dialect.CreateTable); err != nil {
			return fmt.Errorf("Init: create table: %w", err)
		}

		// One multi-row INSERT:
		//   INSERT INTO person (id,name,age,gender) VALUES (?,?,?,?),(?,?,?,?),...
		insert := s.sb.Insert(table).Columns(columns...)
		for _, p := range seed {
			insert = insert.Values(p.ID, p.Name, p.Age, p.Gender)
		}
		query, args, err := insert.Suffix("ON CONFLICT (id) DO NOTHING").ToSql()
		if err != nil {
			return fmt.Errorf("Init: build seed: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("Init: seed: %w", err)
		}

		// Seed rows carry explicit ids, which Postgres' SERIAL sequence
		// does not see. Without this the next insert would get id 1.
		if s.dialect.SyncSequence != "" {
			if _, err := tx.ExecContext(ctx, s.dialect.SyncSequence); err != nil {
				return fmt.Errorf("Init: sync sequence: %w", err)
			}
		}
		return nil
	})
}

// ListPersons returns all rows ordered by id. It never returns a nil
// slice: an empty table gives []types.Person{}.
func (s *Store) ListPersons(ctx context.Context) ([]types.Person, error) {
	query, args, err := s.sb.Select(columns...).From(table).OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("ListPersons: build: %w", err)
	}

	// SelectContext appends one Person per row; starting from an empty
	// slice keeps the JSON output [] rather than null.
	persons := make([]types.Person, 0)
	err = s.withConn(ctx, func(conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, &persons, query, args...)
	})
	if err != nil {
		return nil, fmt.Errorf("ListPersons: query: %w", err)
	}

	return persons, nil
}

// GetPersonByID fetches the row with the given primary key. ok is false
// when no such row exists; err is reserved for real failures.
func (s *Store) GetPersonByID(ctx context.Context, id int64) (types.Person, bool, error) {
	return s.getOne(ctx, "GetPersonByID", sq.Eq{"id": id})
}

// GetPersonByName fetches the lowest-id row whose name matches exactly.
func (s *Store) GetPersonByName(ctx context.Context, name string) (types.Person, bool, error) {
	return s.getOne(ctx, "GetPersonByName", sq.Eq{"name": name})
}

// getOne runs SELECT ... WHERE <where> ORDER BY id LIMIT 1. op names the
// caller in error messages.
func (s *Store) getOne(ctx context.Context, op string, where sq.Eq) (types.Person, bool, error) {
	query, args, err := s.sb.Select(columns...).From(table).
		Where(where).OrderBy("id").Limit(1).ToSql()
	if err != nil {
		return types.Person{}, false, fmt.Errorf("%s: build: %w", op, err)
	}

	var person types.Person
	// GetContext returns sql.ErrNoRows when the query matched nothing.
	err = s.withConn(ctx, func(conn *sqlx.Conn) error {
		return conn.GetContext(ctx, &person, query, args...)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return types.Person{}, false, nil
	}
	if err != nil {
		return types.Person{}, false, fmt.Errorf("%s: scan: %w", op, err)
	}

	return person, true, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// CreatePerson inserts a row and returns the id the database generated.
//
// RETURNING instead of LastInsertId:
// ──────────────────────────────────
// The pgx driver does not implement LastInsertId. INSERT ... RETURNING id
// works on Postgres and on SQLite 3.35+, so both backends read the new id
// the same way: as a one-column result row.
// ─────────────────────────────────────────────────────────────────────────────
func (s *Store) CreatePerson(ctx context.Context, name string, age int, gender string) (int64, error) {
	query, args, err := s.sb.Insert(table).
		Columns("name", "age", "gender").
		Values(name, age, gender).
		Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("CreatePerson: build: %w", err)
	}

	var id int64
	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		return tx.QueryRowxContext(ctx, query, args...).Scan(&id)
	})
	if err != nil {
		return 0, fmt.Errorf("CreatePerson: exec: %w", err)
	}

	return id, nil
}

// UpdatePersonByID overwrites name, age and gender of the row with id.
// A missing id is not an error here; the caller checks existence first.
func (s *Store) UpdatePersonByID(ctx context.Context, id int64, name string, age int, gender string) error {
	query, args, err := s.sb.Update(table).
		Set("name", name).
		Set("age", age).
		Set("gender", gender).
		Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("UpdatePersonByID: build: %w", err)
	}

	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		return fmt.Errorf("UpdatePersonByID: exec: %w", err)
	}

	return nil
}

// DeletePersonByID removes the row with id. Deleting a missing id is a
// no-op.
func (s *Store) DeletePersonByID(ctx context.Context, id int64) error {
	query, args, err := s.sb.Delete(table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("DeletePersonByID: build: %w", err)
	}

	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		return fmt.Errorf("DeletePersonByID: exec: %w", err)
	}

	return nil
}

// Ping checks that a connection can be acquired and answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.withConn(ctx, func(conn *sqlx.Conn) error {
		return conn.PingContext(ctx)
	})
}

// Close closes the pool. Calls made afterwards return errors.
func (s *Store) Close() error {
	return s.db.Close()
}
