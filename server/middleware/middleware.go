package middleware

import (
	"net/http"
	"slices"
)

// Middleware decorates an http.Handler. The server applies the chain to
// the root mux, in front of gin, so every route sees it.
type Middleware func(http.Handler) http.Handler

// Chain composes mws with mws[0] outermost.
func Chain(mws ...Middleware) Middleware {
	return func(h http.Handler) http.Handler {
		for _, mw := range slices.Backward(mws) {
			h = mw(h)
		}
		return h
	}
}

// probePaths are answered without logging or rate limiting.
var probePaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
	"/version": true,
}

func isProbe(r *http.Request) bool {
	return probePaths[r.URL.Path]
}
