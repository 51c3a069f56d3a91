package adminapi

import (
	"context"
	"net/http"
	"net/url"

	"modulys-admin/internal/domain"
)

func (a *API) ListTenants(ctx context.Context) ([]domain.Tenant, error) {
	var tenants []domain.Tenant
	err := a.call(ctx, call{method: http.MethodGet, endpoint: "/tenants", path: "/tenants"}, &tenants)
	return tenants, err
}

func (a *API) GetTenant(ctx context.Context, id string) (*domain.Tenant, error) {
	var tenant domain.Tenant
	err := a.call(ctx, call{method: http.MethodGet, endpoint: "/tenants/{id}", path: "/tenants/" + url.PathEscape(id)}, &tenant)
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (a *API) TenantStatistics(ctx context.Context) (*domain.TenantStatistics, error) {
	var stats domain.TenantStatistics
	err := a.call(ctx, call{method: http.MethodGet, endpoint: "/tenants/statistics", path: "/tenants/statistics"}, &stats)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (a *API) CreateTenant(ctx context.Context, in domain.CreateTenantInput) (*domain.Tenant, error) {
	var tenant domain.Tenant
	err := a.call(ctx, call{method: http.MethodPost, endpoint: "/tenants", path: "/tenants", body: in}, &tenant)
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (a *API) UpdateTenant(ctx context.Context, id string, in domain.UpdateTenantInput) (*domain.Tenant, error) {
	var tenant domain.Tenant
	err := a.call(ctx, call{method: http.MethodPatch, endpoint: "/tenants/{id}", path: "/tenants/" + url.PathEscape(id), body: in}, &tenant)
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (a *API) UpdateTenantStatus(ctx context.Context, id, status string) (*domain.Tenant, error) {
	var tenant domain.Tenant
	body := map[string]string{"status": status}
	err := a.call(ctx, call{method: http.MethodPatch, endpoint: "/tenants/{id}/status", path: "/tenants/" + url.PathEscape(id) + "/status", body: body}, &tenant)
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// SetTenantModules replaces the tenant's module set.
func (a *API) SetTenantModules(ctx context.Context, id string, moduleIDs []string) (*domain.Tenant, error) {
	if moduleIDs == nil {
		moduleIDs = []string{}
	}
	var tenant domain.Tenant
	body := map[string][]string{"moduleIds": moduleIDs}
	err := a.call(ctx, call{method: http.MethodPatch, endpoint: "/tenants/{id}/modules", path: "/tenants/" + url.PathEscape(id) + "/modules", body: body}, &tenant)
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (a *API) EnableTenantModule(ctx context.Context, id, moduleID string) error {
	path := "/tenants/" + url.PathEscape(id) + "/modules/" + url.PathEscape(moduleID) + "/enable"
	return a.call(ctx, call{method: http.MethodPost, endpoint: "/tenants/{id}/modules/{moduleId}/enable", path: path}, nil)
}

func (a *API) DisableTenantModule(ctx context.Context, id, moduleID string) error {
	path := "/tenants/" + url.PathEscape(id) + "/modules/" + url.PathEscape(moduleID) + "/disable"
	return a.call(ctx, call{method: http.MethodPost, endpoint: "/tenants/{id}/modules/{moduleId}/disable", path: path}, nil)
}

func (a *API) DeleteTenant(ctx context.Context, id string) (*domain.DeleteTenantResult, error) {
	var result domain.DeleteTenantResult
	err := a.call(ctx, call{method: http.MethodDelete, endpoint: "/tenants/{id}", path: "/tenants/" + url.PathEscape(id)}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
