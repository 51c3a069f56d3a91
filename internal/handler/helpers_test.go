package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"modulys-admin/internal/adminapi"
	"modulys-admin/internal/domain"
	"modulys-admin/internal/middleware"
	"modulys-admin/internal/session"
	"modulys-admin/internal/testutil"
)

const testCSRF = "csrf-test-token"

// newBackend starts a fake admin API and returns a client pointed at it.
func newBackend(t *testing.T, h http.HandlerFunc) *adminapi.Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return adminapi.NewClient(server.URL, adminapi.WithBackoff(func(int) time.Duration { return 0 }))
}

// unreachableBackend returns a client whose server has already gone away.
func unreachableBackend(t *testing.T) *adminapi.Client {
	t.Helper()
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	return adminapi.NewClient(server.URL, adminapi.WithBackoff(func(int) time.Duration { return 0 }))
}

func sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// signedInStore holds a persisted session for identity "1".
func signedInStore() *testutil.MockStore {
	store := testutil.NewMockStore()
	store.Put(session.CredentialKey, "tok-abc")
	store.Put(session.IdentityKey, testutil.IdentityJSON(testutil.NewTestIdentity(testutil.WithIdentityID("1"))))
	return store
}

// withSession restores a Guard over store and attaches it, plus a CSRF
// token, to req the way the middleware chain does.
func withSession(req *http.Request, store session.Store) (*http.Request, *session.Guard, *session.PendingRedirect) {
	nav := &session.PendingRedirect{}
	guard := session.New(store, nav)
	guard.Restore(req.Context())

	ctx := middleware.WithGuard(req.Context(), guard, nav)
	ctx = context.WithValue(ctx, middleware.CSRFTokenKey, testCSRF)
	return req.WithContext(ctx), guard, nav
}

func newTestPages(t *testing.T, client *adminapi.Client) *PageHandler {
	t.Helper()
	renderer, err := NewRenderer()
	testutil.AssertNoError(t, err)
	return NewPageHandler(client, renderer)
}

func sampleTenants() []domain.Tenant {
	return []domain.Tenant{
		{ID: "t1", Code: "acme", Name: "Acme Ltda", Document: "12345678000195", Email: "contato@acme.com.br", Phone: "11987654321", Status: domain.TenantActive},
		{ID: "t2", Code: "beta", Name: "Beta Comércio", Document: "98765432000110", Email: "fin@beta.com", Status: domain.TenantTrial},
		{ID: "t3", Code: "gama", Name: "Gama SA", Document: "11222333000181", Email: "ti@gama.io", Status: domain.TenantSuspended},
	}
}
