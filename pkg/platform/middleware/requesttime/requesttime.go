// Package requesttime pins one "now" per HTTP request. Every operation within
// a single request sees the same timestamp, which keeps derived date ranges
// and logged durations consistent.
package requesttime

import (
	"net/http"
	"time"

	"titlesearch/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request and stores
// it in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
