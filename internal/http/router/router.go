// Package router wires the HTTP routes to their handlers.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aanand-mishra/persons-api/internal/http/handlers/docs"
	"github.com/aanand-mishra/persons-api/internal/http/handlers/person"
	"github.com/aanand-mishra/persons-api/internal/http/handlers/system"
	"github.com/aanand-mishra/persons-api/internal/http/middleware"
	"github.com/aanand-mishra/persons-api/internal/service"
)

// New builds the router.
//
// Route table:
//
//	GET    /                        welcome message
//	GET    /persons/                list all persons
//	POST   /persons/                create a person
//	GET    /persons/search?name=    case-insensitive name search
//	GET    /persons/by-name/{name}  exact name lookup
//	GET    /persons/{id}            get one person
//	PUT    /persons/{id}            replace a person
//	DELETE /persons/{id}            delete a person
//	GET    /health                  store health and person count
//	GET    /stats                   aggregate statistics
//	GET    /test                    smoke test
//	GET    /live, /ready            liveness and readiness probes
//	GET    /metrics                 Prometheus metrics
//	GET    /openapi.json, .yaml     OpenAPI description
//	GET    /docs, /redoc            API documentation pages
func New(svc *service.Service, health healthcheck.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)

	r.Get("/", system.Root())

	r.Route("/persons", func(r chi.Router) {
		r.Get("/", person.GetList(svc))
		r.Post("/", person.New(svc))
		r.Get("/search", person.Search(svc))
		r.Get("/by-name/{name}", person.GetByName(svc))
		r.Get("/{id}", person.GetByID(svc))
		r.Put("/{id}", person.Update(svc))
		r.Delete("/{id}", person.Delete(svc))
	})

	r.Get("/health", system.Health(svc))
	r.Get("/stats", person.Stats(svc))
	r.Get("/test", system.Ping(time.Now))

	r.Get("/live", health.LiveEndpoint)
	r.Get("/ready", health.ReadyEndpoint)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/openapi.yaml", docs.YAML())
	r.Get(docs.SpecURL, docs.JSON())
	r.Get("/docs", docs.SwaggerUI())
	r.Get("/redoc", docs.ReDoc())

	return r
}
