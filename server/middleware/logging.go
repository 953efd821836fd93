package middleware

import (
	"net/http"
	"time"

	"github.com/kbukum/dataflow/logger"
)

// slowRequest marks requests logged with slow=true.
const slowRequest = 500 * time.Millisecond

// RequestLogger logs one line per request: 5xx at error, 4xx at warn and
// the rest at debug. Probes are not logged.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isProbe(r) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := record(w)
			next.ServeHTTP(rec, r)
			elapsed := time.Since(start)

			fields := logger.DurationFields(r.Method+" "+r.URL.Path, elapsed)
			fields[logger.FieldStatus] = rec.Status()
			fields["bytes"] = rec.bytes
			if id := r.Header.Get(HeaderRequestID); id != "" {
				fields[logger.FieldRequestID] = id
			}
			if elapsed > slowRequest {
				fields["slow"] = true
			}

			switch status := rec.Status(); {
			case status >= 500:
				log.Error("request failed", fields)
			case status >= 400:
				log.Warn("request rejected", fields)
			default:
				log.Debug("request served", fields)
			}
		})
	}
}
