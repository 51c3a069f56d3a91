package adminapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"modulys-admin/internal/domain"
)

func (a *API) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	var plans []domain.Plan
	err := a.call(ctx, call{method: http.MethodGet, endpoint: "/plans", path: "/plans"}, &plans)
	return plans, err
}

func (a *API) CreatePlan(ctx context.Context, in domain.CreatePlanInput) (*domain.Plan, error) {
	var plan domain.Plan
	err := a.call(ctx, call{method: http.MethodPost, endpoint: "/plans", path: "/plans", body: in}, &plan)
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListModules lists feature modules. A nil isCustom lists all of them.
func (a *API) ListModules(ctx context.Context, isCustom *bool) ([]domain.Module, error) {
	cl := call{method: http.MethodGet, endpoint: "/modules", path: "/modules"}
	if isCustom != nil {
		cl.query = url.Values{"isCustom": {strconv.FormatBool(*isCustom)}}.Encode()
	}
	var modules []domain.Module
	err := a.call(ctx, cl, &modules)
	return modules, err
}

func (a *API) GetModule(ctx context.Context, id string) (*domain.Module, error) {
	var module domain.Module
	err := a.call(ctx, call{method: http.MethodGet, endpoint: "/modules/{id}", path: "/modules/" + url.PathEscape(id)}, &module)
	if err != nil {
		return nil, err
	}
	return &module, nil
}

func (a *API) CreateModule(ctx context.Context, in domain.ModuleInput) (*domain.Module, error) {
	var module domain.Module
	err := a.call(ctx, call{method: http.MethodPost, endpoint: "/modules", path: "/modules", body: in}, &module)
	if err != nil {
		return nil, err
	}
	return &module, nil
}

func (a *API) UpdateModule(ctx context.Context, id string, in domain.ModuleInput) (*domain.Module, error) {
	var module domain.Module
	err := a.call(ctx, call{method: http.MethodPatch, endpoint: "/modules/{id}", path: "/modules/" + url.PathEscape(id), body: in}, &module)
	if err != nil {
		return nil, err
	}
	return &module, nil
}

func (a *API) DeleteModule(ctx context.Context, id string) error {
	return a.call(ctx, call{method: http.MethodDelete, endpoint: "/modules/{id}", path: "/modules/" + url.PathEscape(id)}, nil)
}

// SeedModules asks the backend to register its built-in modules.
func (a *API) SeedModules(ctx context.Context) error {
	return a.call(ctx, call{method: http.MethodPost, endpoint: "/modules/seed", path: "/modules/seed"}, nil)
}

func (a *API) CreateSubscription(ctx context.Context, in domain.SubscriptionInput) error {
	return a.call(ctx, call{method: http.MethodPost, endpoint: "/subscriptions", path: "/subscriptions", body: in}, nil)
}

func (a *API) ListTemplates(ctx context.Context) ([]domain.Template, error) {
	var templates []domain.Template
	err := a.call(ctx, call{method: http.MethodGet, endpoint: "/templates", path: "/templates"}, &templates)
	return templates, err
}
