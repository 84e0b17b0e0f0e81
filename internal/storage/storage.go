// Package storage defines the Storage interface, the contract every
// database backend must satisfy to work with this application.
//
// The service layer depends only on this interface, so the Postgres
// backend used in production and the SQLite backend used for local runs
// and tests are interchangeable, and unit tests can pass an in-memory
// fake.
package storage

import (
	"context"

	"github.com/aanand-mishra/persons-api/internal/types"
)

// Storage is the database contract.
//
// Lookups report absence through the boolean result, never through the
// error: a nil error with ok == false means "no such person".
type Storage interface {
	// Init creates the person table when it is missing and seeds the
	// sample records. Safe to call on every startup.
	Init(ctx context.Context) error

	// ListPersons returns every person ordered by id.
	// Returns an empty slice (not nil) if there are none.
	ListPersons(ctx context.Context) ([]types.Person, error)

	// GetPersonByID fetches a single person by primary key.
	GetPersonByID(ctx context.Context, id int64) (types.Person, bool, error)

	// GetPersonByName fetches the first person whose name matches exactly.
	GetPersonByName(ctx context.Context, name string) (types.Person, bool, error)

	// CreatePerson inserts a new person and returns the generated id.
	CreatePerson(ctx context.Context, name string, age int, gender string) (int64, error)

	// UpdatePersonByID overwrites name, age and gender of the matching row.
	// It is a no-op when no row matches.
	UpdatePersonByID(ctx context.Context, id int64, name string, age int, gender string) error

	// DeletePersonByID removes the matching row. It is a no-op when no
	// row matches.
	DeletePersonByID(ctx context.Context, id int64) error

	// Ping verifies that a connection to the database can be acquired.
	Ping(ctx context.Context) error

	// Close releases the underlying database handle.
	Close() error
}
