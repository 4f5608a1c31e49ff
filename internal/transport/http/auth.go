package http

import (
	"net/http"
	"strings"

	"github.com/tidex114/est-backend/internal/identity"
)

// Authenticate verifies the bearer token and stores the resulting identity in
// the request context. Credential checking itself lives in the auth service;
// this only validates the token it issued.
func Authenticate(verifier *identity.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				unauthorized(w, "missing bearer token")
				return
			}

			id, err := verifier.Verify(strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				unauthorized(w, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(identity.WithContext(r.Context(), id)))
		})
	}
}

// RequireRole lets the request through only when the authenticated identity
// carries one of the given roles.
func RequireRole(roles ...identity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := identity.FromContext(r.Context())
			if !ok {
				unauthorized(w, "missing bearer token")
				return
			}
			for _, role := range roles {
				if id.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, codeForbidden, "insufficient role")
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	writeError(w, http.StatusUnauthorized, codeUnauthorized, msg)
}

func callerIdentity(w http.ResponseWriter, r *http.Request) (identity.Identity, bool) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		unauthorized(w, "missing bearer token")
		return identity.Identity{}, false
	}
	return id, true
}
