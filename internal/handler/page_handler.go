package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"modulys-admin/internal/adminapi"
	"modulys-admin/internal/domain"
	"modulys-admin/internal/middleware"
	"modulys-admin/internal/observability"
	"modulys-admin/internal/session"

	"golang.org/x/sync/errgroup"
)

// MonthlyPrice is the flat monthly fee used to estimate revenue per active tenant.
const MonthlyPrice = 299.90

const recentTenants = 5

// PageHandler serves the console's server-rendered pages.
type PageHandler struct {
	client   *adminapi.Client
	renderer *Renderer
}

// NewPageHandler creates a new page handler
func NewPageHandler(client *adminapi.Client, renderer *Renderer) *PageHandler {
	return &PageHandler{
		client:   client,
		renderer: renderer,
	}
}

// DashboardData feeds the dashboard cards and the recent tenants table.
type DashboardData struct {
	TotalTenants  int
	ActiveTenants int
	TrialTenants  int
	Revenue       float64
	Recent        []domain.Tenant
}

// TenantsData feeds the tenants page.
type TenantsData struct {
	Query   string
	Total   int
	Tenants []domain.Tenant
	Plans   []domain.Plan

	// Core modules are always enabled; optional ones can be picked when a
	// tenant is created without a plan.
	CoreModules     []domain.Module
	OptionalModules []domain.Module
}

// ModulesData splits the catalog the way the modules page shows it.
type ModulesData struct {
	Standard []domain.Module
	Custom   []domain.Module
}

// Landing serves the public root page.
func (h *PageHandler) Landing(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "landing", PageData{Title: "Início"})
}

// Dashboard shows tenant statistics. Each source falls back to an empty
// value when the backend fails so the page always renders.
func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	api, ok := apiFor(h.client, r)
	if !ok {
		h.redirectToLogin(w, r)
		return
	}
	ctx := r.Context()

	var tenants []domain.Tenant
	var stats domain.TenantStatistics

	var g errgroup.Group
	g.Go(func() error {
		list, err := api.ListTenants(ctx)
		if err != nil {
			return fallback(ctx, "tenants", err)
		}
		tenants = list
		return nil
	})
	g.Go(func() error {
		s, err := api.TenantStatistics(ctx)
		if err != nil {
			return fallback(ctx, "statistics", err)
		}
		stats = *s
		return nil
	})
	if err := g.Wait(); err != nil {
		h.redirectToLogin(w, r)
		return
	}

	h.render(w, r, http.StatusOK, "dashboard", PageData{
		Title:  "Dashboard",
		Active: "dashboard",
		Data:   summarize(tenants, stats),
	})
}

func summarize(tenants []domain.Tenant, stats domain.TenantStatistics) DashboardData {
	total := stats.Total
	if total == 0 {
		total = len(tenants)
	}
	recent := tenants
	if len(recent) > recentTenants {
		recent = recent[:recentTenants]
	}
	return DashboardData{
		TotalTenants:  total,
		ActiveTenants: stats.Active,
		TrialTenants:  stats.Trial,
		Revenue:       float64(stats.Active) * MonthlyPrice,
		Recent:        recent,
	}
}

// Tenants lists tenants, filtered by the q query parameter.
func (h *PageHandler) Tenants(w http.ResponseWriter, r *http.Request) {
	api, ok := apiFor(h.client, r)
	if !ok {
		h.redirectToLogin(w, r)
		return
	}
	ctx := r.Context()

	var data TenantsData
	var g errgroup.Group
	g.Go(func() error {
		list, err := api.ListTenants(ctx)
		if err != nil {
			return fallback(ctx, "tenants", err)
		}
		data.Tenants = list
		return nil
	})
	g.Go(func() error {
		list, err := api.ListPlans(ctx)
		if err != nil {
			return fallback(ctx, "plans", err)
		}
		data.Plans = list
		return nil
	})
	g.Go(func() error {
		list, err := api.ListModules(ctx, nil)
		if err != nil {
			return fallback(ctx, "modules", err)
		}
		data.CoreModules, data.OptionalModules = domain.SplitModules(list)
		return nil
	})
	if err := g.Wait(); err != nil {
		h.redirectToLogin(w, r)
		return
	}

	data.Query = strings.TrimSpace(r.URL.Query().Get("q"))
	data.Total = len(data.Tenants)
	data.Tenants = FilterTenants(data.Tenants, data.Query)

	h.render(w, r, http.StatusOK, "tenants", PageData{Title: "Clientes", Active: "tenants", Data: data})
}

// FilterTenants keeps tenants whose name or email contains query ignoring
// case, or whose document contains it verbatim.
func FilterTenants(tenants []domain.Tenant, query string) []domain.Tenant {
	if query == "" {
		return tenants
	}
	lower := strings.ToLower(query)
	var out []domain.Tenant
	for _, t := range tenants {
		if strings.Contains(strings.ToLower(t.Name), lower) ||
			strings.Contains(t.Document, query) ||
			strings.Contains(strings.ToLower(t.Email), lower) {
			out = append(out, t)
		}
	}
	return out
}

// Modules shows standard and custom modules separately.
func (h *PageHandler) Modules(w http.ResponseWriter, r *http.Request) {
	api, ok := apiFor(h.client, r)
	if !ok {
		h.redirectToLogin(w, r)
		return
	}

	modules, err := api.ListModules(r.Context(), nil)
	if err != nil && fallback(r.Context(), "modules", err) != nil {
		h.redirectToLogin(w, r)
		return
	}

	var data ModulesData
	for _, m := range modules {
		if m.IsCustom {
			data.Custom = append(data.Custom, m)
		} else {
			data.Standard = append(data.Standard, m)
		}
	}

	h.render(w, r, http.StatusOK, "modules", PageData{Title: "Módulos", Active: "modules", Data: data})
}

// Plans lists subscription plans.
func (h *PageHandler) Plans(w http.ResponseWriter, r *http.Request) {
	api, ok := apiFor(h.client, r)
	if !ok {
		h.redirectToLogin(w, r)
		return
	}

	plans, err := api.ListPlans(r.Context())
	if err != nil && fallback(r.Context(), "plans", err) != nil {
		h.redirectToLogin(w, r)
		return
	}

	h.render(w, r, http.StatusOK, "plans", PageData{Title: "Planos", Active: "plans", Data: plans})
}

// Templates lists project-generation templates.
func (h *PageHandler) Templates(w http.ResponseWriter, r *http.Request) {
	api, ok := apiFor(h.client, r)
	if !ok {
		h.redirectToLogin(w, r)
		return
	}

	templates, err := api.ListTemplates(r.Context())
	if err != nil && fallback(r.Context(), "templates", err) != nil {
		h.redirectToLogin(w, r)
		return
	}

	h.render(w, r, http.StatusOK, "templates", PageData{Title: "Templates", Active: "templates", Data: templates})
}

// fallback logs a failed page load. Only an unauthorized failure is
// returned; the page renders without the missing data otherwise.
func fallback(ctx context.Context, source string, err error) error {
	if errors.Is(err, domain.ErrUnauthorized) {
		return err
	}
	observability.FromContext(ctx).Error("failed to load page data",
		slog.String("source", source),
		slog.String("error", err.Error()))
	return nil
}

// redirectToLogin follows the navigation the Guard requested when the
// backend invalidated the session, defaulting to the login page.
func (h *PageHandler) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := session.LoginRoute
	if nav, ok := middleware.GetNavigation(r.Context()); ok {
		if t, ok := nav.Target(); ok {
			target = t
		}
	}
	http.Redirect(w, r, target, middleware.RedirectStatus(r))
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, status int, name string, data PageData) {
	if guard, ok := middleware.GetGuard(r.Context()); ok {
		data.Identity = guard.Identity()
	}
	data.CSRFToken = middleware.CSRFToken(r.Context())

	if err := h.renderer.Render(w, status, name, data); err != nil {
		observability.FromContext(r.Context()).Error("failed to render page",
			slog.String("page", name),
			slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
