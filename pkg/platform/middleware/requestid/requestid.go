// Package requestid assigns each HTTP request a correlation ID.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"titlesearch/pkg/requestcontext"
)

// Header carries the request ID on both requests and responses.
const Header = "X-Request-ID"

// Middleware honors a caller-supplied X-Request-ID and generates one
// otherwise. The ID is stored in the context and echoed on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" {
			id = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), id)
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
