package middleware

import (
	"net/http"

	"github.com/kbukum/dataflow/errors"
)

// BodySizeLimit caps request bodies at limit bytes. A declared length over
// the limit is refused up front; otherwise reads past the limit fail inside
// the handler. limit <= 0 disables the check.
func BodySizeLimit(limit int64) Middleware {
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				errors.TooLarge(limit).WriteHTTP(w)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
