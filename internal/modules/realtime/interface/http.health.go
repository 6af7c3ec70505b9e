package transport

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"customerSyncWs/internal/modules/realtime/infrastructure"
)

// HealthDeps describes which optional channels the process was wired with.
// A disabled channel is reported as such rather than failing the check.
type HealthDeps struct {
	Hub          *infrastructure.Hub
	CacheEnabled bool
	CachePing    func() error
	LogEnabled   bool
}

// NewHealthHandler expone GET /health.
func NewHealthHandler(deps HealthDeps) func(echo.Context) error {
	return func(c echo.Context) error {
		cache := "disabled"
		status := http.StatusOK
		if deps.CacheEnabled {
			cache = "ok"
			if deps.CachePing != nil {
				if err := deps.CachePing(); err != nil {
					cache = "unreachable"
					status = http.StatusServiceUnavailable
				}
			}
		}
		log := "disabled"
		if deps.LogEnabled {
			log = "ok"
		}
		connections := 0
		if deps.Hub != nil {
			connections = deps.Hub.Len()
		}
		return c.JSON(status, map[string]any{
			"status":      http.StatusText(status),
			"cache":       cache,
			"durableLog":  log,
			"connections": connections,
			"time":        time.Now().UTC().Format(time.RFC3339),
		})
	}
}
