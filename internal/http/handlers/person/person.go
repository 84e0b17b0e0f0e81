// Package person contains the HTTP handlers for the person resource.
//
// Handlers are built by factories that capture their dependencies:
//
//	r.Get("/{id}", person.GetByID(svc))
//
// GetByID(svc) runs once at startup; the returned function runs on
// every request.
package person

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/persons-api/internal/service"
	"github.com/aanand-mishra/persons-api/internal/types"
	"github.com/aanand-mishra/persons-api/internal/utils/response"
)

// Service is the subset of service.Service the handlers use.
type Service interface {
	List(ctx context.Context) ([]types.Person, error)
	Get(ctx context.Context, id int64) (types.Person, error)
	GetByName(ctx context.Context, name string) (types.Person, error)
	Search(ctx context.Context, name string) ([]types.Person, error)
	Create(ctx context.Context, in types.PersonCreate) (types.Person, error)
	Update(ctx context.Context, id int64, in types.PersonUpdate) (types.Person, error)
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context) (types.Stats, error)
}

const notFoundMessage = "Person not found"

// validate reports field errors under their JSON names.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// GetList handles GET /persons/
func GetList(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all persons")

		persons, err := svc.List(r.Context())
		if err != nil {
			writeError(w, "error getting persons", err)
			return
		}

		response.WriteJSON(w, http.StatusOK, persons)
	}
}

// GetByID handles GET /persons/{id}
func GetByID(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		slog.Info("getting a person", slog.Int64("id", id))

		person, err := svc.Get(r.Context(), id)
		if err != nil {
			writeError(w, "error getting person", err)
			return
		}

		response.WriteJSON(w, http.StatusOK, person)
	}
}

// GetByName handles GET /persons/by-name/{name}
// The name must match exactly; the first match by id is returned.
func GetByName(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		slog.Info("getting a person by name", slog.String("name", name))

		person, err := svc.GetByName(r.Context(), name)
		if err != nil {
			writeError(w, "error getting person by name", err)
			return
		}

		response.WriteJSON(w, http.StatusOK, person)
	}
}

// Search handles GET /persons/search?name=
// Matching is a case-insensitive substring match; without a name every
// person is returned.
func Search(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		slog.Info("searching persons", slog.String("name", name))

		persons, err := svc.Search(r.Context(), name)
		if err != nil {
			writeError(w, "error searching persons", err)
			return
		}

		response.WriteJSON(w, http.StatusOK, persons)
	}
}

// New handles POST /persons/
//
// Request body:
//
//	{ "name": "New Person", "age": 25, "gender": "F" }
//
// Responds 201 with the stored person, or 422 when the payload is
// malformed.
func New(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a person")

		var in types.PersonCreate
		if !decode(w, r, &in) {
			return
		}

		person, err := svc.Create(r.Context(), in)
		if err != nil {
			writeError(w, "error creating person", err)
			return
		}

		slog.Info("person created", slog.Int64("id", person.ID))
		response.WriteJSON(w, http.StatusCreated, person)
	}
}

// Update handles PUT /persons/{id}
// All three fields are required and replace the stored values.
func Update(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		slog.Info("updating a person", slog.Int64("id", id))

		var in types.PersonUpdate
		if !decode(w, r, &in) {
			return
		}

		person, err := svc.Update(r.Context(), id, in)
		if err != nil {
			writeError(w, "error updating person", err)
			return
		}

		slog.Info("person updated", slog.Int64("id", id))
		response.WriteJSON(w, http.StatusOK, person)
	}
}

// Delete handles DELETE /persons/{id}
func Delete(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		slog.Info("deleting a person", slog.Int64("id", id))

		if err := svc.Delete(r.Context(), id); err != nil {
			writeError(w, "error deleting person", err)
			return
		}

		slog.Info("person deleted", slog.Int64("id", id))
		response.WriteJSON(w, http.StatusOK, map[string]string{
			"message": fmt.Sprintf("Person with ID %d has been deleted", id),
		})
	}
}

// Stats handles GET /stats
func Stats(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("computing person stats")

		stats, err := svc.Stats(r.Context())
		if err != nil {
			writeError(w, "error computing stats", err)
			return
		}

		response.WriteJSON(w, http.StatusOK, stats)
	}
}

// pathID parses the {id} path segment. On failure it writes a 422 and
// returns false.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.WriteJSON(w, http.StatusUnprocessableEntity,
			response.Message("invalid id: must be an integer"))
		return 0, false
	}
	return id, true
}

// decode reads and validates a JSON payload into v. On failure it writes
// a 422 and returns false.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(v)
	if errors.Is(err, io.EOF) {
		response.WriteJSON(w, http.StatusUnprocessableEntity,
			response.Message("request body is empty"))
		return false
	}
	if err != nil {
		response.WriteJSON(w, http.StatusUnprocessableEntity, response.GeneralError(err))
		return false
	}

	// Anything after the object, even a second valid object, is rejected.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		response.WriteJSON(w, http.StatusUnprocessableEntity,
			response.Message("request body must contain a single JSON object"))
		return false
	}

	if err := validate.Struct(v); err != nil {
		var validateErrs validator.ValidationErrors
		if errors.As(err, &validateErrs) {
			response.WriteJSON(w, http.StatusUnprocessableEntity,
				response.ValidationError(validateErrs))
			return false
		}
		response.WriteJSON(w, http.StatusUnprocessableEntity, response.GeneralError(err))
		return false
	}

	return true
}

// writeError maps service errors to status codes.
func writeError(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, service.ErrNotFound) {
		response.WriteJSON(w, http.StatusNotFound, response.Message(notFoundMessage))
		return
	}

	slog.Error(msg, slog.String("error", err.Error()))
	response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
}
