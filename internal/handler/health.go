package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
)

// Liveness answers load balancers with a plain "ok" while the process runs.
func Liveness(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Check probes one dependency.
type Check func(ctx context.Context) error

// HealthHandler reports the state of each store. Critical checks decide the
// status code; the others are informational.
type HealthHandler struct {
	Critical map[string]Check
	Optional map[string]Check
	Timeout  time.Duration
}

func (h *HealthHandler) Health(c echo.Context) error {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
	defer cancel()

	status := http.StatusOK
	checks := echo.Map{}
	run := func(set map[string]Check, critical bool) {
		names := make([]string, 0, len(set))
		for n := range set {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			if err := set[n](ctx); err != nil {
				checks[n] = echo.Map{"status": "down", "error": err.Error()}
				if critical {
					status = http.StatusServiceUnavailable
				}
				continue
			}
			checks[n] = echo.Map{"status": "up"}
		}
	}
	run(h.Critical, true)
	run(h.Optional, false)

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	return c.JSON(status, echo.Map{
		"success":   status == http.StatusOK,
		"status":    state,
		"checks":    checks,
		"timestamp": time.Now().UTC(),
	})
}
