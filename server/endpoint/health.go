package endpoint

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/kubeping/component"
	"github.com/kbukum/kubeping/observability"
)

// HealthChecker returns health status for registered components.
type HealthChecker func(ctx context.Context) []component.Health

// Health returns a handler that aggregates component health. Degraded
// components still answer 200; any unhealthy component answers 503.
func Health(serviceName, version string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		sh := observability.NewServiceHealth(serviceName, version)
		if checker != nil {
			for _, ch := range checker(c.Request.Context()) {
				sh.AddComponent(observability.Health{
					Name:    ch.Name,
					Status:  toHealthStatus(ch.Status),
					Message: ch.Message,
				})
			}
		}

		c.JSON(sh.HTTPStatus(), gin.H{
			"status":     sh.Status,
			"service":    sh.Service,
			"version":    sh.Version,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"components": sh.Components,
		})
	}
}

func toHealthStatus(s component.HealthStatus) observability.HealthStatus {
	switch s {
	case component.StatusHealthy:
		return observability.HealthStatusUp
	case component.StatusDegraded:
		return observability.HealthStatusDegraded
	default:
		return observability.HealthStatusDown
	}
}
