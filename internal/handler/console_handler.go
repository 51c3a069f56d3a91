package handler

import (
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"modulys-admin/internal/adminapi"
	"modulys-admin/internal/domain"
	"modulys-admin/internal/middleware"
	"modulys-admin/internal/observability"

	"github.com/go-chi/chi/v5"
)

// ConsoleHandler proxies the console's JSON API to the backend admin API
// using the credential held by the request's session.
type ConsoleHandler struct {
	client *adminapi.Client
}

// NewConsoleHandler creates a new console API handler
func NewConsoleHandler(client *adminapi.Client) *ConsoleHandler {
	return &ConsoleHandler{client: client}
}

// StatusRequest changes a tenant's status.
type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=ACTIVE SUSPENDED TRIAL"`
}

// ModulesRequest replaces the modules linked to a tenant.
type ModulesRequest struct {
	ModuleIDs []string `json:"moduleIds" validate:"required"`
}

// Routes mounts every console API endpoint on r.
func (h *ConsoleHandler) Routes(r chi.Router) {
	r.Route("/tenants", func(r chi.Router) {
		r.Get("/", h.ListTenants)
		r.Post("/", h.CreateTenant)
		r.Get("/statistics", h.TenantStatistics)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetTenant)
			r.Patch("/", h.UpdateTenant)
			r.Delete("/", h.DeleteTenant)
			r.Patch("/status", h.UpdateTenantStatus)
			r.Patch("/modules", h.SetTenantModules)
			r.Post("/modules/{moduleId}/enable", h.EnableTenantModule)
			r.Post("/modules/{moduleId}/disable", h.DisableTenantModule)
			r.Post("/provision", h.ProvisionTenant)
			r.Post("/migrations/apply", h.ApplyMigrations)
			r.Get("/migrations/status", h.MigrationStatus)
		})
	})

	r.Get("/plans", h.ListPlans)
	r.Post("/plans", h.CreatePlan)

	r.Route("/modules", func(r chi.Router) {
		r.Get("/", h.ListModules)
		r.Post("/", h.CreateModule)
		r.Post("/seed", h.SeedModules)
		r.Get("/{moduleId}", h.GetModule)
		r.Patch("/{moduleId}", h.UpdateModule)
		r.Delete("/{moduleId}", h.DeleteModule)
	})

	r.Post("/subscriptions", h.CreateSubscription)

	r.Get("/templates", h.ListTemplates)
	r.Post("/templates/{templateId}/generate/{tenantId}", h.GenerateProject)
}

func (h *ConsoleHandler) api(w http.ResponseWriter, r *http.Request) (*adminapi.API, bool) {
	api, ok := apiFor(h.client, r)
	if !ok {
		middleware.WriteUnauthorized(w)
	}
	return api, ok
}

// decodeValid decodes the body into v and validates it.
func decodeValid(w http.ResponseWriter, r *http.Request, v any) bool {
	if !decodeJSON(w, r, v) {
		return false
	}
	if fields := validateStruct(v); fields != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Dados inválidos", "fields": fields})
		return false
	}
	return true
}

// respond writes the result of a backend call, or maps its error.
func respond[T any](w http.ResponseWriter, r *http.Request, status int, v T, err error) {
	if err != nil {
		handleAPIError(w, r, err)
		return
	}
	writeJSON(w, status, v)
}

func respondEmpty(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		handleAPIError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ConsoleHandler) ListTenants(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	tenants, err := api.ListTenants(r.Context())
	if tenants == nil {
		tenants = []domain.Tenant{}
	}
	respond(w, r, http.StatusOK, tenants, err)
}

func (h *ConsoleHandler) TenantStatistics(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	stats, err := api.TenantStatistics(r.Context())
	respond(w, r, http.StatusOK, stats, err)
}

func (h *ConsoleHandler) GetTenant(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	tenant, err := api.GetTenant(r.Context(), chi.URLParam(r, "id"))
	respond(w, r, http.StatusOK, tenant, err)
}

func (h *ConsoleHandler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	var in domain.CreateTenantInput
	if !decodeValid(w, r, &in) {
		return
	}
	tenant, err := api.CreateTenant(r.Context(), in)
	if err == nil {
		observability.FromContext(r.Context()).Info("tenant created",
			slog.String("tenant_id", tenant.ID),
			slog.String("code", tenant.Code))
	}
	respond(w, r, http.StatusCreated, tenant, err)
}

func (h *ConsoleHandler) UpdateTenant(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	var in domain.UpdateTenantInput
	if !decodeValid(w, r, &in) {
		return
	}
	tenant, err := api.UpdateTenant(r.Context(), chi.URLParam(r, "id"), in)
	respond(w, r, http.StatusOK, tenant, err)
}

func (h *ConsoleHandler) UpdateTenantStatus(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	var in StatusRequest
	if !decodeValid(w, r, &in) {
		return
	}
	tenant, err := api.UpdateTenantStatus(r.Context(), chi.URLParam(r, "id"), in.Status)
	respond(w, r, http.StatusOK, tenant, err)
}

func (h *ConsoleHandler) SetTenantModules(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	var in ModulesRequest
	if !decodeValid(w, r, &in) {
		return
	}
	tenant, err := api.SetTenantModules(r.Context(), chi.URLParam(r, "id"), in.ModuleIDs)
	respond(w, r, http.StatusOK, tenant, err)
}

func (h *ConsoleHandler) EnableTenantModule(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	respondEmpty(w, r, api.EnableTenantModule(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "moduleId")))
}

func (h *ConsoleHandler) DisableTenantModule(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	respondEmpty(w, r, api.DisableTenantModule(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "moduleId")))
}

// DeleteTenant removes a tenant. The backend also drops the tenant database;
// a failed drop is reported in the result, not as an error.
func (h *ConsoleHandler) DeleteTenant(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	result, err := api.DeleteTenant(r.Context(), id)
	if err == nil && result.DropError != "" {
		observability.FromContext(r.Context()).Warn("tenant deleted but database drop failed",
			slog.String("tenant_id", id),
			slog.String("database", result.DatabaseName),
			slog.String("error", result.DropError))
	}
	respond(w, r, http.StatusOK, result, err)
}

func (h *ConsoleHandler) ProvisionTenant(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	result, err := api.ProvisionTenant(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"databaseName": result.Name(),
		"message":      result.Message,
	})
}

func (h *ConsoleHandler) ApplyMigrations(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	result, err := api.ApplyMigrations(r.Context(), chi.URLParam(r, "id"))
	respond(w, r, http.StatusOK, result, err)
}

func (h *ConsoleHandler) MigrationStatus(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	status, err := api.MigrationStatus(r.Context(), chi.URLParam(r, "id"))
	respond(w, r, http.StatusOK, status, err)
}

func (h *ConsoleHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	plans, err := api.ListPlans(r.Context())
	if plans == nil {
		plans = []domain.Plan{}
	}
	respond(w, r, http.StatusOK, plans, err)
}

func (h *ConsoleHandler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	var in domain.CreatePlanInput
	if !decodeValid(w, r, &in) {
		return
	}
	if in.ModuleIDs == nil {
		in.ModuleIDs = []string{}
	}
	plan, err := api.CreatePlan(r.Context(), in)
	respond(w, r, http.StatusCreated, plan, err)
}

// ListModules lists modules, optionally filtered by ?isCustom=true|false.
func (h *ConsoleHandler) ListModules(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}

	var isCustom *bool
	if raw := r.URL.Query().Get("isCustom"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "isCustom must be true or false")
			return
		}
		isCustom = &v
	}

	modules, err := api.ListModules(r.Context(), isCustom)
	if modules == nil {
		modules = []domain.Module{}
	}
	respond(w, r, http.StatusOK, modules, err)
}

func (h *ConsoleHandler) GetModule(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	module, err := api.GetModule(r.Context(), chi.URLParam(r, "moduleId"))
	respond(w, r, http.StatusOK, module, err)
}

func (h *ConsoleHandler) CreateModule(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	var in domain.ModuleInput
	if !decodeValid(w, r, &in) {
		return
	}
	missing := map[string]string{}
	if in.Code == "" {
		missing["code"] = fieldMessages["required"]
	}
	if in.Name == "" {
		missing["name"] = fieldMessages["required"]
	}
	if len(missing) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Dados inválidos", "fields": missing})
		return
	}
	module, err := api.CreateModule(r.Context(), in)
	respond(w, r, http.StatusCreated, module, err)
}

func (h *ConsoleHandler) UpdateModule(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	var in domain.ModuleInput
	if !decodeValid(w, r, &in) {
		return
	}
	module, err := api.UpdateModule(r.Context(), chi.URLParam(r, "moduleId"), in)
	respond(w, r, http.StatusOK, module, err)
}

func (h *ConsoleHandler) DeleteModule(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	respondEmpty(w, r, api.DeleteModule(r.Context(), chi.URLParam(r, "moduleId")))
}

// SeedModules recreates the backend's standard modules.
func (h *ConsoleHandler) SeedModules(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	respondEmpty(w, r, api.SeedModules(r.Context()))
}

func (h *ConsoleHandler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	var in domain.SubscriptionInput
	if !decodeValid(w, r, &in) {
		return
	}
	respondEmpty(w, r, api.CreateSubscription(r.Context(), in))
}

func (h *ConsoleHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}
	templates, err := api.ListTemplates(r.Context())
	if templates == nil {
		templates = []domain.Template{}
	}
	respond(w, r, http.StatusOK, templates, err)
}

// GenerateProject streams the generated project archive to the browser as
// an attachment.
func (h *ConsoleHandler) GenerateProject(w http.ResponseWriter, r *http.Request) {
	api, ok := h.api(w, r)
	if !ok {
		return
	}

	d, err := api.GenerateProject(r.Context(), chi.URLParam(r, "templateId"), chi.URLParam(r, "tenantId"))
	if err != nil {
		handleAPIError(w, r, err)
		return
	}
	defer d.Body.Close()

	w.Header().Set("Content-Type", d.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": d.Filename}))
	if d.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(d.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, d.Body); err != nil {
		observability.FromContext(r.Context()).Warn("project download interrupted",
			slog.String("filename", d.Filename),
			slog.String("error", err.Error()))
	}
}
