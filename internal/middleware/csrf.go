package middleware

import (
	"crypto/subtle"
	"net/http"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sirupsen/logrus"
)

const (
	CSRFCookieName = "CSRF-TOKEN"
	CSRFHeaderName = "X-CSRF-TOKEN"

	csrfTokenLength = 32
)

// IssueCSRF hands out a CSRF cookie to clients that do not have one yet. The
// cookie is readable by scripts so browser clients can echo it back.
func IssueCSRF(logger *logrus.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ck, err := r.Cookie(CSRFCookieName); err != nil || ck.Value == "" {
				token, err := gonanoid.New(csrfTokenLength)
				if err != nil {
					logger.WithError(err).Error("failed to generate csrf token")
					http.Error(w, "internal error", http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     CSRFCookieName,
					Value:    token,
					Path:     "/",
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireCSRF answers 403 to unsafe requests whose X-CSRF-TOKEN header does
// not match the CSRF cookie.
func RequireCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		ck, err := r.Cookie(CSRFCookieName)
		header := r.Header.Get(CSRFHeaderName)
		if err != nil || ck.Value == "" || header == "" ||
			subtle.ConstantTimeCompare([]byte(ck.Value), []byte(header)) != 1 {
			http.Error(w, "csrf token mismatch", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
