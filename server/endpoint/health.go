package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/dataflow/observability"
	"github.com/kbukum/dataflow/version"
)

// Health runs every checker and reports the worst status. Only a component
// that is down turns the response into a 503.
func Health(serviceName string, checkers ...observability.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		sh := observability.NewServiceHealth(serviceName, version.Get().Short())
		sh.CheckAll(c.Request.Context(), checkers...)

		status := http.StatusOK
		if sh.Status == observability.HealthStatusDown {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, healthResponse{
			ServiceHealth: sh,
			Timestamp:     time.Now().UTC().Format(time.RFC3339),
		})
	}
}

type healthResponse struct {
	*observability.ServiceHealth
	Timestamp string `json:"timestamp"`
}
