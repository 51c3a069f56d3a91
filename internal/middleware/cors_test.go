package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"modulys-admin/internal/testutil"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORS_AllowedOrigin(t *testing.T) {
	tests := []struct {
		name           string
		allowedOrigins []string
		requestOrigin  string
		shouldAllow    bool
	}{
		{"allowed_origin", []string{"http://localhost:3000", "https://admin.modulys.com"}, "http://localhost:3000", true},
		{"allowed_second_origin", []string{"http://localhost:3000", "https://admin.modulys.com"}, "https://admin.modulys.com", true},
		{"disallowed_origin", []string{"http://localhost:3000"}, "http://malicious.com", false},
		{"empty_origin", []string{"http://localhost:3000"}, "", false},
		{"wildcard", []string{"*"}, "http://anywhere.dev", true},
		{"wildcard_without_origin", []string{"*"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/tenants", nil)
			if tt.requestOrigin != "" {
				req.Header.Set("Origin", tt.requestOrigin)
			}
			w := httptest.NewRecorder()

			CORS(tt.allowedOrigins)(okHandler()).ServeHTTP(w, req)

			testutil.AssertStatusCode(t, w, http.StatusOK)
			if tt.shouldAllow {
				testutil.AssertHeader(t, w, "Access-Control-Allow-Origin", tt.requestOrigin)
				testutil.AssertHeader(t, w, "Access-Control-Allow-Credentials", "true")
				testutil.AssertHeaderContains(t, w, "Access-Control-Allow-Methods", "PATCH")
				testutil.AssertHeaderContains(t, w, "Access-Control-Allow-Headers", "X-CSRF-Token")
			} else {
				testutil.AssertHeader(t, w, "Access-Control-Allow-Origin", "")
			}
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/tenants/t1", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	w := httptest.NewRecorder()

	CORS([]string{"http://localhost:3000"})(next).ServeHTTP(w, req)

	testutil.AssertStatusCode(t, w, http.StatusNoContent)
	testutil.AssertHeader(t, w, "Access-Control-Allow-Origin", "http://localhost:3000")
	testutil.AssertFalse(t, called, "preflight must not reach the handler")
}

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"http://localhost:3000", []string{"http://localhost:3000"}},
		{"http://a.com, http://b.com ,http://c.com", []string{"http://a.com", "http://b.com", "http://c.com"}},
		{"http://a.com,,", []string{"http://a.com"}},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseOrigins(tt.input)
			testutil.AssertLen(t, got, len(tt.want))
			for i := range tt.want {
				testutil.AssertEqual(t, got[i], tt.want[i])
			}
		})
	}
}
