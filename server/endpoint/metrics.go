package endpoint

import (
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"
)

// Metrics reports process statistics. Schedule metrics are exported over
// OTLP, not here.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		c.JSON(http.StatusOK, gin.H{
			"goroutines":   runtime.NumGoroutine(),
			"cpus":         runtime.NumCPU(),
			"heap_bytes":   m.HeapAlloc,
			"heap_objects": m.HeapObjects,
			"sys_bytes":    m.Sys,
			"gc_runs":      m.NumGC,
			"gc_pause_ns":  m.PauseTotalNs,
		})
	}
}
