// Package docs serves the API description and two browsable renderings
// of it.
//
// The description lives in openapi.yaml next to this file and is compiled
// into the binary with go:embed, so there is nothing to deploy alongside
// it. Routes:
//
//	GET /openapi.yaml   the document as written
//	GET /openapi.json   the same document converted to JSON
//	GET /docs           Swagger UI (interactive, "try it out")
//	GET /redoc          ReDoc (read-only reference)
//
// The two HTML pages load their JavaScript from a CDN and point it at
// /openapi.json.
package docs

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"gopkg.in/yaml.v3"

	"github.com/aanand-mishra/persons-api/internal/utils/response"
)

//go:embed openapi.yaml
var spec []byte

// SpecURL is where the HTML pages fetch the document from.
const SpecURL = "/openapi.json"

// YAML handles GET /openapi.yaml
func YAML() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		w.Write(spec)
	}
}

// JSON handles GET /openapi.json
//
// The YAML is converted once, when the handler is built. A document that
// fails to convert is served as a 500 on every request.
func JSON() http.HandlerFunc {
	doc, err := toJSON(spec)
	if err != nil {
		slog.Error("cannot convert openapi.yaml", slog.String("error", err.Error()))
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(doc)
	}
}

// toJSON re-encodes a YAML document as JSON.
//
// yaml.v3 decodes a mapping into map[string]any as long as every key is a
// string, which encoding/json can marshal. Keys such as response codes
// must therefore be quoted in the YAML ("200", not 200).
func toJSON(src []byte) ([]byte, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return out, nil
}

// SwaggerUI handles GET /docs
func SwaggerUI() http.HandlerFunc {
	return page(swaggerPage)
}

// ReDoc handles GET /redoc
func ReDoc() http.HandlerFunc {
	return page(redocPage)
}

func page(body string) http.HandlerFunc {
	html := []byte(fmt.Sprintf(body, SpecURL))

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(html)
	}
}

const swaggerPage = `<!DOCTYPE html>
<html>
<head>
  <title>Persons API - Swagger UI</title>
  <meta charset="utf-8">
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({ url: %q, dom_id: "#swagger-ui" });
  </script>
</body>
</html>
`

const redocPage = `<!DOCTYPE html>
<html>
<head>
  <title>Persons API - ReDoc</title>
  <meta charset="utf-8">
</head>
<body>
  <redoc spec-url=%q></redoc>
  <script src="https://cdn.jsdelivr.net/npm/redoc@2/bundles/redoc.standalone.js"></script>
</body>
</html>
`
