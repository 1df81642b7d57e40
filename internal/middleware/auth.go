package middleware

import (
	"net/http"
	"strings"

	"github.com/jason-s-yu/scorekeeper/internal/auth"
	"github.com/sirupsen/logrus"
)

// AuthCookieName is the cookie holding the session token.
const AuthCookieName = "auth_token"

// RequireSession rejects requests without a valid session token with 401 and
// stores the caller in the request context otherwise. The token is read from
// the auth cookie, falling back to an "Authorization: Bearer" header.
func RequireSession(logger *logrus.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token == "" {
				http.Error(w, "missing auth token", http.StatusUnauthorized)
				return
			}
			u, err := auth.AuthenticateJWT(token)
			if err != nil {
				logger.WithFields(logrus.Fields{
					"path":   r.URL.Path,
					"remote": r.RemoteAddr,
				}).WithError(err).Debug("rejected session token")
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), u)))
		})
	}
}

func sessionToken(r *http.Request) string {
	if ck, err := r.Cookie(AuthCookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}
