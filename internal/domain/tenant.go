package domain

import "time"

// Tenant status values accepted by the backend.
const (
	TenantActive    = "ACTIVE"
	TenantSuspended = "SUSPENDED"
	TenantTrial     = "TRIAL"
)

// Tenant is a customer company managed from the console.
type Tenant struct {
	ID            string         `json:"id"`
	Code          string         `json:"code"`
	Name          string         `json:"name"`
	Document      string         `json:"document"`
	Email         string         `json:"email"`
	Phone         string         `json:"phone,omitempty"`
	Status        string         `json:"status"`
	IsProvisioned bool           `json:"isProvisioned"`
	DatabaseName  string         `json:"databaseName,omitempty"`
	DatabaseUser  string         `json:"databaseUser,omitempty"`
	Modules       []TenantModule `json:"modules,omitempty"`
	CreatedAt     time.Time      `json:"createdAt,omitempty"`
}

// TenantModule links a tenant to an enabled feature module.
type TenantModule struct {
	ModuleID  string  `json:"moduleId"`
	IsEnabled bool    `json:"isEnabled"`
	Module    *Module `json:"module,omitempty"`
}

// ModuleIDs returns the ids of every module linked to the tenant.
func (t *Tenant) ModuleIDs() []string {
	ids := make([]string, 0, len(t.Modules))
	for _, m := range t.Modules {
		ids = append(ids, m.ModuleID)
	}
	return ids
}

// ToggledStatus is the status the activate/suspend action moves the tenant to.
func (t *Tenant) ToggledStatus() string {
	if t.Status == TenantActive {
		return TenantSuspended
	}
	return TenantActive
}

// TenantStatistics summarizes tenant counts by status.
type TenantStatistics struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Trial     int `json:"trial"`
	Suspended int `json:"suspended"`
}

// CreateTenantInput is sent when registering a tenant. PlanID and ModuleIDs
// are mutually exclusive: a tenant starts from a plan or from a custom module set.
type CreateTenantInput struct {
	Code      string   `json:"code" validate:"required"`
	Name      string   `json:"name" validate:"required"`
	Document  string   `json:"document" validate:"required"`
	Email     string   `json:"email" validate:"required,email"`
	Phone     string   `json:"phone,omitempty"`
	PlanID    string   `json:"planId,omitempty" validate:"excluded_with=ModuleIDs"`
	ModuleIDs []string `json:"moduleIds,omitempty"`
}

// UpdateTenantInput carries the editable tenant fields.
type UpdateTenantInput struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	Phone string `json:"phone,omitempty"`
}

// DeleteTenantResult reports what the backend removed alongside the tenant.
type DeleteTenantResult struct {
	WasProvisioned  bool   `json:"wasProvisioned"`
	DatabaseDropped bool   `json:"databaseDropped"`
	UserDropped     bool   `json:"userDropped"`
	DatabaseName    string `json:"databaseName,omitempty"`
	DatabaseUser    string `json:"databaseUser,omitempty"`
	DropError       string `json:"dropError,omitempty"`
}

// ProvisionResult is returned after a tenant database is provisioned.
type ProvisionResult struct {
	DatabaseName string `json:"databaseName,omitempty"`
	Database     *struct {
		Name string `json:"name"`
	} `json:"database,omitempty"`
	Message string `json:"message,omitempty"`
}

// Name returns the provisioned database name whichever shape the backend used.
func (p *ProvisionResult) Name() string {
	if p.Database != nil && p.Database.Name != "" {
		return p.Database.Name
	}
	return p.DatabaseName
}

// MigrationResult is returned after migrations are applied to a tenant.
type MigrationResult struct {
	Message string   `json:"message,omitempty"`
	Applied []string `json:"applied,omitempty"`
}

// MigrationStatus lists applied and pending migrations of a tenant database.
type MigrationStatus struct {
	TenantID string   `json:"tenantId,omitempty"`
	Applied  []string `json:"applied"`
	Pending  []string `json:"pending"`
}
