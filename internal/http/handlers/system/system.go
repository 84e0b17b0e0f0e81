// Package system contains the service-level HTTP handlers: the welcome
// message, the health check and the smoke-test endpoint.
package system

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aanand-mishra/persons-api/internal/service"
	"github.com/aanand-mishra/persons-api/internal/types"
	"github.com/aanand-mishra/persons-api/internal/utils/response"
)

// HealthChecker reports store health.
type HealthChecker interface {
	Health(ctx context.Context) (types.Health, error)
}

// Root handles GET /
func Root() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, map[string]string{
			"message": "Welcome to the Persons API",
			"status":  "running",
		})
	}
}

// Health handles GET /health
//
// Responds 200 with the person count, or 503 when the store cannot be
// reached.
func Health(hc HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health, err := hc.Health(r.Context())
		if err != nil {
			slog.Error("health check failed", slog.String("error", err.Error()))

			status := http.StatusInternalServerError
			if errors.Is(err, service.ErrUnavailable) {
				status = http.StatusServiceUnavailable
			}
			response.WriteJSON(w, status,
				response.Message("Database connection failed: "+err.Error()))
			return
		}

		response.WriteJSON(w, http.StatusOK, health)
	}
}

// Ping handles GET /test, a smoke test that never touches the store.
func Ping(now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, map[string]string{
			"message":   "API is working correctly!",
			"timestamp": now().Format(time.RFC3339),
		})
	}
}
