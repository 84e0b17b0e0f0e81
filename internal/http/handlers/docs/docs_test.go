package docs_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/persons-api/internal/http/handlers/docs"
)

func get(t *testing.T, h http.HandlerFunc, target string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestJSONDescribesEveryRoute(t *testing.T) {
	rec := get(t, docs.JSON(), "/openapi.json")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var doc struct {
		OpenAPI string                    `json:"openapi"`
		Paths   map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "3.0.3", doc.OpenAPI)

	want := map[string][]string{
		"/":                       {"get"},
		"/persons/":               {"get", "post"},
		"/persons/search":         {"get"},
		"/persons/by-name/{name}": {"get"},
		"/persons/{id}":           {"get", "put", "delete"},
		"/stats":                  {"get"},
		"/health":                 {"get"},
		"/test":                   {"get"},
		"/live":                   {"get"},
		"/ready":                  {"get"},
		"/metrics":                {"get"},
	}
	assert.Len(t, doc.Paths, len(want))
	for path, methods := range want {
		require.Contains(t, doc.Paths, path)
		for _, m := range methods {
			assert.Contains(t, doc.Paths[path], m, path)
		}
	}
}

func TestYAML(t *testing.T) {
	rec := get(t, docs.YAML(), "/openapi.yaml")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "openapi: \"3.0.3\"")
}

func TestPagesPointAtJSON(t *testing.T) {
	for name, h := range map[string]http.HandlerFunc{
		"swagger": docs.SwaggerUI(),
		"redoc":   docs.ReDoc(),
	} {
		rec := get(t, h, "/")

		require.Equal(t, http.StatusOK, rec.Code, name)
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"), name)
		assert.Contains(t, rec.Body.String(), `"/openapi.json"`, name)
	}
}
