package adminapi

import (
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"

	"modulys-admin/internal/domain"
)

func (a *API) ProvisionTenant(ctx context.Context, tenantID string) (*domain.ProvisionResult, error) {
	var result domain.ProvisionResult
	err := a.call(ctx, call{method: http.MethodPost, endpoint: "/provisioning/tenant/{id}", path: "/provisioning/tenant/" + url.PathEscape(tenantID)}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (a *API) ApplyMigrations(ctx context.Context, tenantID string) (*domain.MigrationResult, error) {
	var result domain.MigrationResult
	err := a.call(ctx, call{method: http.MethodPost, endpoint: "/migrations/tenant/{id}/apply", path: "/migrations/tenant/" + url.PathEscape(tenantID) + "/apply"}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (a *API) MigrationStatus(ctx context.Context, tenantID string) (*domain.MigrationStatus, error) {
	var status domain.MigrationStatus
	err := a.call(ctx, call{method: http.MethodGet, endpoint: "/migrations/tenant/{id}/status", path: "/migrations/tenant/" + url.PathEscape(tenantID) + "/status"}, &status)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// Download is a file streamed from the backend. The caller must close Body.
type Download struct {
	Body        io.ReadCloser
	Filename    string
	ContentType string
	Size        int64
}

// GenerateProject asks the backend to render a template for a tenant and
// returns the resulting archive as a stream.
func (a *API) GenerateProject(ctx context.Context, templateID, tenantID string) (*Download, error) {
	target := "/templates/" + url.PathEscape(templateID) + "/generate/" + url.PathEscape(tenantID)
	resp, err := a.open(ctx, call{method: http.MethodPost, endpoint: "/templates/{templateId}/generate/{tenantId}", path: target})
	if err != nil {
		return nil, err
	}

	d := &Download{
		Body:        resp.Body,
		Filename:    "project-" + tenantID + ".zip",
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}
	if d.ContentType == "" {
		d.ContentType = "application/zip"
	}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		d.Filename = path.Base(params["filename"])
	}
	return d, nil
}
