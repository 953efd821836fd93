package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/dataflow/memory"
	"github.com/kbukum/dataflow/version"
)

var startTime = time.Now()

// Info describes the service: its build, the document layout it accepts and
// the memory planner strategies a request may select.
func Info(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":        serviceName,
			"build":          version.Get(),
			"mem_strategies": memory.Strategies,
			"uptime":         time.Since(startTime).Round(time.Second).String(),
		})
	}
}
