package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

// ErrInvalidToken is returned by token validators on mismatch.
var ErrInvalidToken = errors.New("invalid token")

// AuthConfig configures the bearer token middleware.
type AuthConfig struct {
	// TokenValidator validates a bearer token.
	TokenValidator func(token string) error
	// SkipPaths bypass authentication. Probe paths belong here.
	SkipPaths []string
}

// StaticToken validates bearer tokens against a fixed secret.
func StaticToken(secret string) func(string) error {
	return func(token string) error {
		if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			return ErrInvalidToken
		}
		return nil
	}
}

// Auth returns middleware that requires a valid Bearer token on every path
// not listed in SkipPaths.
func Auth(cfg AuthConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.SkipPaths {
				if r.URL.Path == skip {
					next.ServeHTTP(w, r)
					return
				}
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSONError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || scheme != "Bearer" {
				writeJSONError(w, http.StatusUnauthorized, "Invalid authorization header format")
				return
			}

			if err := cfg.TokenValidator(token); err != nil {
				writeJSONError(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
