package errors

import (
	"net/http"
)

// RecoveryMiddleware turns handler panics into RFC 7807 problem responses.
// Mounted on the API router, where clients expect JSON rather than a
// plain-text 500 page.
func RecoveryMiddleware(handler *ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if recovered := recover(); recovered != nil {
					handler.HandlePanic(w, r, recovered)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
