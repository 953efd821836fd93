package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/kbukum/dataflow/errors"
	"github.com/kbukum/dataflow/logger"
)

// Recovery turns a handler panic into a logged INTERNAL_ERROR response.
func Recovery(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}
				log.Error("panic recovered", logger.Fields(
					logger.FieldError, fmt.Sprint(v),
					"stack", string(debug.Stack()),
					"method", r.Method,
					"path", r.URL.Path,
					logger.FieldRequestID, r.Header.Get(HeaderRequestID),
				))
				errors.Internal(fmt.Errorf("panic: %v", v)).WriteHTTP(w)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
