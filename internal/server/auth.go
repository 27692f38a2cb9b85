package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// AuthMiddleware creates HTTP middleware that validates the Authorization
// header against the configured API key.
//
// The middleware:
//   - Extracts the "Authorization: Bearer <key>" header
//   - Returns 401 Unauthorized if the header is missing or the key is wrong
//   - Passes the request through unchanged for valid keys
func AuthMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				http.Error(w, "Unauthorized: missing bearer token", http.StatusUnauthorized)
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				http.Error(w, "Unauthorized: malformed Authorization header", http.StatusUnauthorized)
				return
			}

			if subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
				http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
