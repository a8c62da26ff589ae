package server

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker is one named backend dependency probe.
type HealthChecker struct {
	Name  string
	Check func(ctx context.Context) error
}

type HealthResponse map[string]struct {
	Status string `json:"status"`
}

func handleHealth(d *Deps) http.HandlerFunc {
	type result struct {
		Status string `json:"status"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := make(map[string]result, len(d.Health))
		status := http.StatusOK

		for _, c := range d.Health {
			checks[c.Name] = result{Status: "ok"}
			if err := c.Check(ctx); err != nil {
				d.Logger.Error("health check failed", "name", c.Name, "error", err)
				checks[c.Name] = result{Status: "error"}
				status = http.StatusServiceUnavailable
			}
		}

		writeJSON(w, status, checks)
	}
}
