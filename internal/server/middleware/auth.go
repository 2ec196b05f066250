package middleware

import (
	"net/http"
	"strings"

	"taskboard/backend/internal/auth"
)

// SessionCookieName is the cookie carrying the session credential.
const SessionCookieName = "sid"

// Authenticate extracts the request credential, verifies it, and stores
// the identity in the request context. It never rejects: requests with a
// missing or invalid credential proceed anonymously and the policy layer
// decides what they may do.
func Authenticate(asserter auth.Asserter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential := extractCredential(r)
			ctx := r.Context()
			if credential != "" {
				ctx = WithCredential(ctx, credential)
				if claims, err := asserter.Verify(ctx, credential); err == nil {
					ctx = WithIdentity(ctx, claims)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractCredential prefers the Authorization bearer token and falls back
// to the session cookie.
func extractCredential(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if c, err := r.Cookie(SessionCookieName); err == nil {
		return c.Value
	}
	return ""
}
