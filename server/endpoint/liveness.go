package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Liveness answers the kubelet liveness probe with the agent's uptime. It
// never consults the components: a failing API server must not restart the
// pod.
func Liveness(serviceName string, startedAt time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":         "alive",
			"service":        serviceName,
			"uptime_seconds": int64(time.Since(startedAt).Seconds()),
		})
	}
}
