package middleware

import (
	"context"
	"crypto/hmac"
	"log/slog"
	"net/http"
	"strings"

	"modulys-admin/internal/observability"
	"modulys-admin/internal/security"
)

// CSRFCookieName holds the double-submit token.
const CSRFCookieName = "console_csrf"

// CSRF implements the double-submit cookie pattern. Every response carries a
// random token in a cookie; state-changing requests must echo it back in the
// csrf_token form field or the X-CSRF-Token / X-XSRF-Token header.
func CSRF(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var expected string
			if c, err := r.Cookie(CSRFCookieName); err == nil && len(c.Value) == 64 {
				expected = c.Value
			}

			if !isSafeMethod(r.Method) && !isExemptPath(r.URL.Path) {
				submitted := extractCSRFToken(r)
				switch {
				case expected == "":
					logCSRFFailure(r, "missing cookie")
					writeForbidden(w)
					return
				case submitted == "":
					logCSRFFailure(r, "missing token")
					writeForbidden(w)
					return
				case !hmac.Equal([]byte(expected), []byte(submitted)):
					logCSRFFailure(r, "invalid token")
					writeForbidden(w)
					return
				}
			}

			if expected == "" {
				token, err := security.GenerateToken()
				if err != nil {
					http.Error(w, `{"error":"Internal server error"}`, http.StatusInternalServerError)
					return
				}
				expected = token
				http.SetCookie(w, &http.Cookie{
					Name:     CSRFCookieName,
					Value:    token,
					Path:     "/",
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), CSRFTokenKey, expected)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CSRFToken returns the token forms must submit.
func CSRFToken(ctx context.Context) string {
	token, _ := ctx.Value(CSRFTokenKey).(string)
	return token
}

func isSafeMethod(method string) bool {
	return method == http.MethodGet ||
		method == http.MethodHead ||
		method == http.MethodOptions
}

func isExemptPath(path string) bool {
	exemptPaths := []string{
		"/health",
		"/metrics",
	}

	for _, exemptPath := range exemptPaths {
		if strings.HasPrefix(path, exemptPath) {
			return true
		}
	}
	return false
}

// extractCSRFToken checks the headers, then the form field of urlencoded posts.
func extractCSRFToken(r *http.Request) string {
	if token := r.Header.Get("X-CSRF-Token"); token != "" {
		return token
	}
	if token := r.Header.Get("X-XSRF-Token"); token != "" {
		return token
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		return r.FormValue("csrf_token")
	}
	return ""
}

func writeForbidden(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"error":"Forbidden"}` + "\n"))
}

func logCSRFFailure(r *http.Request, reason string) {
	observability.FromContext(r.Context()).Warn("CSRF validation failed",
		slog.String("reason", reason),
		slog.String("method", r.Method),
		slog.String("path", r.RequestURI),
		slog.String("remote_addr", r.RemoteAddr),
	)
}
