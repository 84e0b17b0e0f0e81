package sqlstore_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/persons-api/internal/config"
	"github.com/aanand-mishra/persons-api/internal/storage/postgres"
	"github.com/aanand-mishra/persons-api/internal/storage/sqlite"
	"github.com/aanand-mishra/persons-api/internal/storage/sqlstore"
	"github.com/aanand-mishra/persons-api/internal/types"
)

func setupStore(t *testing.T) *sqlstore.Store {
	t.Helper()

	cfg := &config.Config{}
	cfg.Database.Path = filepath.Join(t.TempDir(), "data", "persons.db")

	store, err := sqlite.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Init(context.Background()))
	return store
}

func TestInitSeedsSampleRows(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	// A second Init must neither fail nor duplicate the seed rows.
	require.NoError(t, store.Init(ctx))

	persons, err := store.ListPersons(ctx)
	require.NoError(t, err)
	assert.Equal(t, []types.Person{
		{ID: 1, Name: "John Doe", Age: 30, Gender: "M"},
		{ID: 2, Name: "Jane Smith", Age: 25, Gender: "F"},
		{ID: 3, Name: "Alice Johnson", Age: 28, Gender: "F"},
		{ID: 4, Name: "Bob Brown", Age: 35, Gender: "M"},
	}, persons)
}

func TestInitKeepsModifiedSeedRows(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	require.NoError(t, store.UpdatePersonByID(ctx, 1, "Johnny", 31, "M"))
	require.NoError(t, store.Init(ctx))

	person, ok, err := store.GetPersonByID(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Johnny", person.Name)
}

// openWithDialect opens the SQLite file at path through the given dialect.
// The sqlite package import registers the "sqlite3" driver.
func openWithDialect(t *testing.T, path string, dialect sqlstore.Dialect) *sqlstore.Store {
	t.Helper()

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)

	store := sqlstore.New(db, dialect)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestInitRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "persons.db")

	broken := sqlite.Dialect
	broken.SyncSequence = "THIS IS NOT SQL"

	err := openWithDialect(t, path, broken).Init(ctx)
	require.ErrorContains(t, err, "Init: sync sequence")

	// The table was created and seeded inside the failed transaction, so
	// neither survives.
	_, err = openWithDialect(t, path, sqlite.Dialect).ListPersons(ctx)
	assert.ErrorContains(t, err, "no such table: person")
}

func TestFailedInitLeavesExistingRowsAlone(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "persons.db")

	store := openWithDialect(t, path, sqlite.Dialect)
	require.NoError(t, store.Init(ctx))
	require.NoError(t, store.DeletePersonByID(ctx, 1))
	require.NoError(t, store.DeletePersonByID(ctx, 2))

	broken := sqlite.Dialect
	broken.SyncSequence = "THIS IS NOT SQL"
	require.Error(t, openWithDialect(t, path, broken).Init(ctx))

	// The re-seed of ids 1 and 2 was rolled back with the rest.
	persons, err := store.ListPersons(ctx)
	require.NoError(t, err)
	require.Len(t, persons, 2)
	assert.Equal(t, int64(3), persons[0].ID)
	assert.Equal(t, int64(4), persons[1].ID)
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	id, err := store.CreatePerson(ctx, "New Person", 25, "F")
	require.NoError(t, err)
	assert.Greater(t, id, int64(4))

	person, ok, err := store.GetPersonByID(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, types.Person{ID: id, Name: "New Person", Age: 25, Gender: "F"}, person)

	second, err := store.CreatePerson(ctx, "Another", 40, "M")
	require.NoError(t, err)
	assert.NotEqual(t, id, second)
}

func TestGetByIDMissing(t *testing.T) {
	store := setupStore(t)

	person, ok, err := store.GetPersonByID(context.Background(), 9999)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, person)
}

func TestGetByName(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	person, ok, err := store.GetPersonByName(ctx, "Jane Smith")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(2), person.ID)

	// Exact match only.
	_, ok, err = store.GetPersonByName(ctx, "jane smith")
	require.NoError(t, err)
	assert.False(t, ok)

	// First match wins when names collide.
	_, err = store.CreatePerson(ctx, "Jane Smith", 60, "F")
	require.NoError(t, err)
	person, ok, err = store.GetPersonByName(ctx, "Jane Smith")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(2), person.ID)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	require.NoError(t, store.UpdatePersonByID(ctx, 3, "Alice Cooper", 29, "F"))

	person, ok, err := store.GetPersonByID(ctx, 3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, types.Person{ID: 3, Name: "Alice Cooper", Age: 29, Gender: "F"}, person)

	// Missing ids are a silent no-op.
	require.NoError(t, store.UpdatePersonByID(ctx, 9999, "Nobody", 1, "M"))
	persons, err := store.ListPersons(ctx)
	require.NoError(t, err)
	assert.Len(t, persons, 4)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	require.NoError(t, store.DeletePersonByID(ctx, 4))

	_, ok, err := store.GetPersonByID(ctx, 4)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.DeletePersonByID(ctx, 9999))

	persons, err := store.ListPersons(ctx)
	require.NoError(t, err)
	assert.Len(t, persons, 3)
}

func TestDeletedIDsAreNotReused(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	id, err := store.CreatePerson(ctx, "Temp", 20, "M")
	require.NoError(t, err)
	require.NoError(t, store.DeletePersonByID(ctx, id))

	next, err := store.CreatePerson(ctx, "Next", 21, "F")
	require.NoError(t, err)
	assert.Greater(t, next, id)
}

func TestListEmptyIsNotNil(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	for id := int64(1); id <= 4; id++ {
		require.NoError(t, store.DeletePersonByID(ctx, id))
	}

	persons, err := store.ListPersons(ctx)
	require.NoError(t, err)
	assert.NotNil(t, persons)
	assert.Empty(t, persons)
}

func TestClosedStoreReturnsErrors(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	require.NoError(t, store.Close())

	_, err := store.ListPersons(ctx)
	assert.Error(t, err)

	_, _, err = store.GetPersonByID(ctx, 1)
	assert.Error(t, err)

	_, err = store.CreatePerson(ctx, "X", 1, "M")
	assert.Error(t, err)

	assert.Error(t, store.Ping(ctx))
}

func TestPing(t *testing.T) {
	store := setupStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestDialects(t *testing.T) {
	assert.Equal(t, "sqlite3", sqlite.Dialect.DriverName)
	assert.Equal(t, sq.Question, sqlite.Dialect.Placeholder)
	assert.Empty(t, sqlite.Dialect.SyncSequence)

	assert.Equal(t, "pgx", postgres.Dialect.DriverName)
	assert.Equal(t, sq.Dollar, postgres.Dialect.Placeholder)
	assert.Contains(t, postgres.Dialect.SyncSequence, "setval")
}
