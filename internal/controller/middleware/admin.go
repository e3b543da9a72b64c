package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// bearerToken returns the credential of an "Authorization: Bearer <token>"
// header. A token containing whitespace is malformed.
func bearerToken(r *http.Request) (token string, present, ok bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false, false
	}
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" || strings.ContainsAny(token, " \t") {
		return "", true, false
	}
	return token, true, true
}

// RequireAdmin guards operator routes (user registration, queue
// inspection) with the shared admin secret. An empty secret disables them.
func RequireAdmin(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				writeError(w, "Admin endpoints are disabled", http.StatusForbidden)
				return
			}

			token, present, ok := bearerToken(r)
			switch {
			case !present:
				writeError(w, "Missing authorization header", http.StatusUnauthorized)
				return
			case !ok:
				writeError(w, "Invalid authorization header", http.StatusUnauthorized)
				return
			}

			if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
				writeError(w, "Invalid admin secret", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
