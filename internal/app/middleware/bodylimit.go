package middleware

import (
	"fmt"
	"net/http"
)

// BodyLimitMiddleware rejects requests whose declared Content-Length exceeds
// maxBodyBytes outright, and wraps the body in http.MaxBytesReader so a
// client that lies about Content-Length (or omits it) still gets cut off
// once it actually sends too much. maxBodyBytes <= 0 disables the limit.
func BodyLimitMiddleware(maxBodyBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if maxBodyBytes <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBodyBytes {
				writeTooLarge(w, r.ContentLength, maxBodyBytes)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
			next.ServeHTTP(w, r)
		})
	}
}

func writeTooLarge(w http.ResponseWriter, got, max int64) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusRequestEntityTooLarge)
	fmt.Fprintf(w, `{"error":{"message":"request body of %d bytes exceeds limit of %d bytes","type":"invalid_request_error"}}`, got, max)
}
