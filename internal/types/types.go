// Package types holds the shared data structures used across the
// application. Keeping them in one place prevents import cycles:
// handlers, service, and storage all import types without depending
// on each other.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Person is a person record as stored in the person table and as
// returned to API clients.
//
// The db:"..." tags let sqlx scan a row into the struct by column name,
// so no code ever reads a column by its position.
type Person struct {
	ID     int64  `json:"id"     db:"id"`
	Name   string `json:"name"   db:"name"`
	Age    int    `json:"age"    db:"age"`
	Gender string `json:"gender" db:"gender"`
}

// PersonCreate is the payload accepted by POST /persons/.
//
// Age is a pointer so that validate:"required" distinguishes a missing
// field from an explicit 0. It is decoded leniently, see UnmarshalJSON.
type PersonCreate struct {
	Name   string `json:"name"   validate:"required"`
	Age    *int   `json:"age"    validate:"required"`
	Gender string `json:"gender" validate:"required,len=1"`
}

// UnmarshalJSON decodes the payload like the default decoder, except that
// age also accepts integral floats (25.0) and numeric strings ("25").
func (p *PersonCreate) UnmarshalJSON(data []byte) error {
	// alias has the same fields but no methods, so decoding into it does
	// not recurse back into UnmarshalJSON. The outer Age shadows alias.Age.
	type alias PersonCreate
	aux := struct {
		*alias
		Age json.RawMessage `json:"age"`
	}{alias: (*alias)(p)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	age, err := lenientInt("age", aux.Age)
	if err != nil {
		return err
	}
	p.Age = age
	return nil
}

// PersonUpdate is the payload accepted by PUT /persons/{id}. All three
// fields are overwritten together; there is no partial update.
type PersonUpdate struct {
	Name   string `json:"name"   validate:"required"`
	Age    *int   `json:"age"    validate:"required"`
	Gender string `json:"gender" validate:"required,len=1"`
}

// UnmarshalJSON applies the same age coercion as PersonCreate.
func (p *PersonUpdate) UnmarshalJSON(data []byte) error {
	type alias PersonUpdate
	aux := struct {
		*alias
		Age json.RawMessage `json:"age"`
	}{alias: (*alias)(p)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	age, err := lenientInt("age", aux.Age)
	if err != nil {
		return err
	}
	p.Age = age
	return nil
}

// lenientInt converts a raw JSON value into an int.
//
//	25, 25.0, "25", " 25 ", "25.0"  ->  25
//	25.5, "abc", true, [], {}       ->  error
//	null or absent                  ->  nil (left to validate:"required")
func lenientInt(field string, raw json.RawMessage) (*int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	invalid := fmt.Errorf("field %s must be an integer, got %s", field, raw)

	// UseNumber keeps the literal text, so large integers are not
	// squeezed through a float64 first.
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, invalid
	}

	var text string
	switch x := v.(type) {
	case json.Number:
		text = x.String()
	case string:
		text = strings.TrimSpace(x)
	default:
		return nil, invalid
	}

	if n, err := strconv.Atoi(text); err == nil {
		return &n, nil
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil || f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return nil, invalid
	}
	n := int(f)
	return &n, nil
}

// Stats is the aggregate view served by GET /stats.
//
// OldestPerson and YoungestPerson hold the maximum and minimum age. They
// are nil (null in JSON) when there are no records.
type Stats struct {
	TotalPersons       int            `json:"total_persons"`
	GenderDistribution map[string]int `json:"gender_distribution"`
	AverageAge         float64        `json:"average_age"`
	OldestPerson       *int           `json:"oldest_person"`
	YoungestPerson     *int           `json:"youngest_person"`
}

// Health is the body served by GET /health when the store is reachable.
type Health struct {
	Status      string `json:"status"`
	Database    string `json:"database"`
	PersonCount int    `json:"person_count"`
}
