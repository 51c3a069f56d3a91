package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"modulys-admin/internal/observability"
	"modulys-admin/internal/session"
)

type contextKey string

const (
	SessionKey   contextKey = "session"
	CSRFTokenKey contextKey = "csrf_token"
)

// requestSession is what Session stores in the request context.
type requestSession struct {
	guard *session.Guard
	nav   *session.PendingRedirect
}

// Session binds the session store to the requesting browser, restores the
// Guard and puts it in the request context. The Guard lives for one request.
func Session(backend session.Backend, opts ...session.Option) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			nav := &session.PendingRedirect{}

			guardOpts := append([]session.Option{session.WithLogger(observability.FromContext(ctx))}, opts...)
			guard := session.New(backend.For(w, r), nav, guardOpts...)
			guard.Restore(ctx)

			if identity := guard.Identity(); identity != nil {
				ctx = observability.WithUserID(ctx, identity.ID)
			}
			ctx = WithGuard(ctx, guard, nav)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RouteGuard applies the route-guard decision to page requests.
func RouteGuard() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			guard, ok := GetGuard(r.Context())
			if !ok {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}

			decision := guard.Check(r.URL.Path)
			switch decision.Action {
			case session.ActionSuspend:
				w.WriteHeader(http.StatusServiceUnavailable)
			case session.ActionRedirect:
				http.Redirect(w, r, decision.Target, RedirectStatus(r))
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// RequireIdentity rejects API requests made without a session.
func RequireIdentity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			guard, ok := GetGuard(r.Context())
			if !ok || !guard.Authenticated() {
				WriteUnauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WriteUnauthorized tells an API client its session is gone and where to go.
func WriteUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":    "Unauthorized",
		"redirect": session.LoginRoute,
	})
}

// RedirectStatus is 302 for reads and 303 after a form submission, so the
// browser follows with a GET.
func RedirectStatus(r *http.Request) int {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return http.StatusFound
	}
	return http.StatusSeeOther
}

func GetGuard(ctx context.Context) (*session.Guard, bool) {
	s, ok := ctx.Value(SessionKey).(*requestSession)
	if !ok {
		return nil, false
	}
	return s.guard, true
}

// GetNavigation returns the navigation requested by the request's Guard.
func GetNavigation(ctx context.Context) (*session.PendingRedirect, bool) {
	s, ok := ctx.Value(SessionKey).(*requestSession)
	if !ok {
		return nil, false
	}
	return s.nav, true
}

func WithGuard(ctx context.Context, guard *session.Guard, nav *session.PendingRedirect) context.Context {
	return context.WithValue(ctx, SessionKey, &requestSession{guard: guard, nav: nav})
}
