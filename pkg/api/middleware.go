package api

import (
	"net/http"
	"strings"

	"github.com/nextmu/updateservice/pkg/api/auth"
)

// requireCapability returns middleware that introspects the caller's bearer
// token and requires it carry capability.
func requireCapability(authenticator *auth.Authenticator, capability string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if err := authenticator.Authenticate(r.Context(), token, capability); err != nil {
				writeError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if strings.HasPrefix(h, prefix) {
		return strings.TrimPrefix(h, prefix)
	}
	return ""
}
