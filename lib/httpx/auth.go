package httpx

import (
	"crypto/subtle"
	"net/http"
)

// BearerAuth requires the Authorization header to be exactly "Bearer <token>".
//
// Paths in exempt skip the check. When token is empty the server is misconfigured:
// strict mode answers every gated request with 500, otherwise requests pass through.
func BearerAuth(token string, strict bool, exempt ...string) Middleware {
	exemptSet := make(map[string]bool, len(exempt))
	for _, path := range exempt {
		exemptSet[path] = true
	}
	expected := []byte("Bearer " + token)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exemptSet[r.URL.Path] || isPreflight(r) {
				next.ServeHTTP(w, r)
				return
			}
			if token == "" {
				if strict {
					JSONError(w, r, http.StatusInternalServerError, "Server access token is not configured")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			got := []byte(r.Header.Get("Authorization"))
			if subtle.ConstantTimeCompare(got, expected) != 1 {
				JSONError(w, r, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
