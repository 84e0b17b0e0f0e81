// Package service implements the person operations exposed over HTTP:
// CRUD dispatch to the store plus the derived reads (search, stats,
// health).
//
// WHERE THIS LAYER SITS:
// ──────────────────────
//
//	handler  ──▶  service  ──▶  storage.Storage  ──▶  Postgres / SQLite
//
// Handlers deal with HTTP (paths, JSON, status codes). The store deals
// with SQL. Everything in between lives here: turning "no row" into
// ErrNotFound, checking existence before a write, and computing the
// aggregates that are not a single query.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/aanand-mishra/persons-api/internal/storage"
	"github.com/aanand-mishra/persons-api/internal/types"
)

var (
	// ErrNotFound is returned when the requested person does not exist.
	ErrNotFound = errors.New("person not found")

	// ErrUnavailable wraps store failures reported by Health.
	ErrUnavailable = errors.New("database unavailable")
)

// Service is the query layer over a storage.Storage.
//
// It holds the interface, not a concrete store, so the same Service runs
// against Postgres in production, SQLite locally and an in-memory fake in
// tests.
type Service struct {
	store storage.Storage
}

// New returns a Service backed by store. The caller owns store and is
// responsible for closing it.
func New(store storage.Storage) *Service {
	return &Service{store: store}
}

// List returns every person ordered by ascending id. An empty table
// yields an empty, non-nil slice so it encodes as [] rather than null.
func (s *Service) List(ctx context.Context) ([]types.Person, error) {
	return s.store.ListPersons(ctx)
}

// ─────────────────────────────────────────────────────────────────────────────
// Get returns the person with the given id.
//
// THE THREE OUTCOMES OF A LOOKUP:
// ───────────────────────────────
// The store answers with (person, found, err):
//
//	err != nil   the query itself failed      → returned as-is (HTTP 500)
//	!found       the query ran, no such row   → ErrNotFound    (HTTP 404)
//	found        the row                      → person
//
// Keeping "missing" apart from "broken" is what lets the handler pick the
// right status code with a single errors.Is check.
// ─────────────────────────────────────────────────────────────────────────────
func (s *Service) Get(ctx context.Context, id int64) (types.Person, error) {
	person, ok, err := s.store.GetPersonByID(ctx, id)
	if err != nil {
		return types.Person{}, err
	}
	if !ok {
		return types.Person{}, ErrNotFound
	}
	return person, nil
}

// GetByName returns the first person (lowest id) whose name equals name
// exactly. Case matters here; use Search for a case-insensitive match.
func (s *Service) GetByName(ctx context.Context, name string) (types.Person, error) {
	person, ok, err := s.store.GetPersonByName(ctx, name)
	if err != nil {
		return types.Person{}, err
	}
	if !ok {
		return types.Person{}, ErrNotFound
	}
	return person, nil
}

// Search returns the persons whose name contains name, ignoring case.
// An empty name matches everyone. Matching happens in memory over the
// full list.
func (s *Service) Search(ctx context.Context, name string) ([]types.Person, error) {
	persons, err := s.store.ListPersons(ctx)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return persons, nil
	}

	// Lower-case both sides once so "JoHn" finds "Alice Johnson".
	term := strings.ToLower(name)
	matched := make([]types.Person, 0, len(persons))
	for _, p := range persons {
		if strings.Contains(strings.ToLower(p.Name), term) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// Create stores a new person and returns it as read back from the store.
//
// in has already passed validation, so in.Age is never nil here.
func (s *Service) Create(ctx context.Context, in types.PersonCreate) (types.Person, error) {
	id, err := s.store.CreatePerson(ctx, in.Name, *in.Age, in.Gender)
	if err != nil {
		return types.Person{}, err
	}
	// Read the row back instead of echoing in, so the response shows
	// exactly what the database stored.
	return s.Get(ctx, id)
}

// Update overwrites an existing person. It returns ErrNotFound without
// writing anything when id does not exist.
func (s *Service) Update(ctx context.Context, id int64, in types.PersonUpdate) (types.Person, error) {
	// An UPDATE on a missing id succeeds with zero rows affected, so
	// existence is checked first to report it as a 404.
	if _, err := s.Get(ctx, id); err != nil {
		return types.Person{}, err
	}
	if err := s.store.UpdatePersonByID(ctx, id, in.Name, *in.Age, in.Gender); err != nil {
		return types.Person{}, err
	}
	return s.Get(ctx, id)
}

// Delete removes an existing person. It returns ErrNotFound without
// writing anything when id does not exist.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.store.DeletePersonByID(ctx, id)
}

// ─────────────────────────────────────────────────────────────────────────────
// Stats aggregates over every stored person.
//
// OUTPUT FOR AN EMPTY TABLE:
// ──────────────────────────
//
//	{ "total_persons": 0, "gender_distribution": {}, "average_age": 0,
//	  "oldest_person": null, "youngest_person": null }
//
// ROUNDING:
// ─────────
// average_age is rounded to two decimals, with exact halves going to the
// even neighbour (banker's rounding): ages {30×7, 31} average 30.125,
// which becomes 30.12, not 30.13. The division is done on sum*100 so the
// halfway case is an exact float and RoundToEven sees it as such.
// ─────────────────────────────────────────────────────────────────────────────
func (s *Service) Stats(ctx context.Context) (types.Stats, error) {
	persons, err := s.store.ListPersons(ctx)
	if err != nil {
		return types.Stats{}, err
	}

	stats := types.Stats{
		TotalPersons:       len(persons),
		GenderDistribution: make(map[string]int),
	}
	if len(persons) == 0 {
		return stats, nil
	}

	// One pass collects everything: the gender histogram, the age sum
	// and both extremes.
	oldest, youngest := persons[0].Age, persons[0].Age
	sum := 0
	for _, p := range persons {
		stats.GenderDistribution[p.Gender]++
		sum += p.Age
		oldest = max(oldest, p.Age)
		youngest = min(youngest, p.Age)
	}

	stats.AverageAge = math.RoundToEven(float64(sum)*100/float64(len(persons))) / 100
	stats.OldestPerson = &oldest
	stats.YoungestPerson = &youngest

	return stats, nil
}

// Health reports whether the store answers and how many persons it holds.
//
// Any store failure is wrapped with ErrUnavailable so the handler can
// answer 503; the underlying error stays reachable through errors.Is/As
// and its text ends up in the response body.
func (s *Service) Health(ctx context.Context) (types.Health, error) {
	// Listing (rather than a bare ping) proves the table is readable too.
	persons, err := s.store.ListPersons(ctx)
	if err != nil {
		return types.Health{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return types.Health{
		Status:      "healthy",
		Database:    "connected",
		PersonCount: len(persons),
	}, nil
}
