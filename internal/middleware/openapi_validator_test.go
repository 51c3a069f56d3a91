package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const specPath = "../../artifacts/openapi.yaml"

func TestOpenAPISpecIsValid(t *testing.T) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(specPath)
	require.NoError(t, err, "Failed to load OpenAPI spec")
	require.NoError(t, doc.Validate(loader.Context))

	assert.Equal(t, "Modulys Admin Console API", doc.Info.Title)
	assert.Equal(t, "1.0.0", doc.Info.Version)
}

func TestAllRoutesAreDocumentedInOpenAPI(t *testing.T) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(specPath)
	require.NoError(t, err)

	implementedRoutes := []struct {
		method string
		path   string
	}{
		{"GET", "/api/me"},
		{"GET", "/api/tenants"},
		{"POST", "/api/tenants"},
		{"GET", "/api/tenants/statistics"},
		{"GET", "/api/tenants/{id}"},
		{"PATCH", "/api/tenants/{id}"},
		{"DELETE", "/api/tenants/{id}"},
		{"PATCH", "/api/tenants/{id}/status"},
		{"PATCH", "/api/tenants/{id}/modules"},
		{"POST", "/api/tenants/{id}/modules/{moduleId}/enable"},
		{"POST", "/api/tenants/{id}/modules/{moduleId}/disable"},
		{"POST", "/api/tenants/{id}/provision"},
		{"POST", "/api/tenants/{id}/migrations/apply"},
		{"GET", "/api/tenants/{id}/migrations/status"},
		{"GET", "/api/plans"},
		{"POST", "/api/plans"},
		{"GET", "/api/modules"},
		{"POST", "/api/modules"},
		{"POST", "/api/modules/seed"},
		{"GET", "/api/modules/{moduleId}"},
		{"PATCH", "/api/modules/{moduleId}"},
		{"DELETE", "/api/modules/{moduleId}"},
		{"POST", "/api/subscriptions"},
		{"GET", "/api/templates"},
		{"POST", "/api/templates/{templateId}/generate/{tenantId}"},
	}

	for _, route := range implementedRoutes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			pathItem := doc.Paths.Find(route.path)
			require.NotNil(t, pathItem, "Path not found in OpenAPI spec: %s", route.path)

			operation := pathItem.GetOperation(route.method)
			require.NotNil(t, operation, "Operation not found: %s %s", route.method, route.path)
			assert.NotEmpty(t, operation.OperationID)
			assert.NotEmpty(t, operation.Tags)
		})
	}
}

func newValidated(t *testing.T) (http.Handler, *bool) {
	t.Helper()
	router, err := LoadOpenAPIRouter(specPath)
	require.NoError(t, err)

	called := new(bool)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
	return validateWith(router, DefaultOpenAPIValidatorConfig(true, specPath))(next), called
}

func TestOpenAPIValidator_Requests(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
	}{
		{"valid_create_tenant", http.MethodPost, "/api/tenants", `{"code":"acme","name":"Acme","document":"12345678000195","email":"a@acme.com"}`, http.StatusOK},
		{"missing_required_field", http.MethodPost, "/api/tenants", `{"code":"acme","name":"Acme"}`, http.StatusBadRequest},
		{"invalid_status_enum", http.MethodPatch, "/api/tenants/t1/status", `{"status":"DELETED"}`, http.StatusBadRequest},
		{"valid_status", http.MethodPatch, "/api/tenants/t1/status", `{"status":"SUSPENDED"}`, http.StatusOK},
		{"negative_price", http.MethodPost, "/api/plans", `{"code":"p","name":"P","price":-1,"maxUsers":1,"maxBranches":1}`, http.StatusBadRequest},
		{"bad_query_type", http.MethodGet, "/api/modules?isCustom=maybe", "", http.StatusBadRequest},
		{"good_query", http.MethodGet, "/api/modules?isCustom=true", "", http.StatusOK},
		{"statistics", http.MethodGet, "/api/tenants/statistics", "", http.StatusOK},
		{"unknown_api_path", http.MethodGet, "/api/invoices", "", http.StatusNotFound},
		{"page_routes_skipped", http.MethodPost, "/login", "email=x", http.StatusOK},
		{"health_skipped", http.MethodGet, "/health", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, called := newValidated(t)

			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
				req.Header.Set("Content-Type", "application/json")
			} else {
				req = httptest.NewRequest(tt.method, tt.target, nil)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.wantStatus == http.StatusOK, *called)
		})
	}
}

func TestOpenAPIValidator_BodyStillReadable(t *testing.T) {
	router, err := LoadOpenAPIRouter(specPath)
	require.NoError(t, err)

	var got string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got = string(b)
	})
	handler := validateWith(router, DefaultOpenAPIValidatorConfig(true, specPath))(next)

	body := `{"tenantId":"t1","planId":"p1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.JSONEq(t, body, got)
}

func TestOpenAPIValidator_Disabled(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	OpenAPIValidator(DefaultOpenAPIValidatorConfig(false, specPath))(next).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/invoices", nil))

	assert.True(t, called)
}

func TestOpenAPIValidator_MissingSpecFallsBackToNoop(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	OpenAPIValidator(DefaultOpenAPIValidatorConfig(true, "does/not/exist.yaml"))(next).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/invoices", nil))

	assert.True(t, called)
}

func TestLoadOpenAPIRouter_Error(t *testing.T) {
	_, err := LoadOpenAPIRouter("does/not/exist.yaml")
	assert.Error(t, err)
}
