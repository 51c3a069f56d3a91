package domain

// Plan is a subscription plan bundling a set of modules.
type Plan struct {
	ID          string   `json:"id"`
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price"`
	MaxUsers    int      `json:"maxUsers"`
	MaxBranches int      `json:"maxBranches"`
	Modules     []Module `json:"modules,omitempty"`
}

// CreatePlanInput is sent when a plan is created.
type CreatePlanInput struct {
	Code        string   `json:"code" validate:"required"`
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price" validate:"gte=0"`
	MaxUsers    int      `json:"maxUsers" validate:"gte=1"`
	MaxBranches int      `json:"maxBranches" validate:"gte=1"`
	ModuleIDs   []string `json:"moduleIds"`
}

// Module is a feature module that can be enabled for tenants.
type Module struct {
	ID             string `json:"id"`
	Code           string `json:"code"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	Version        string `json:"version,omitempty"`
	IsCore         bool   `json:"isCore"`
	IsCustom       bool   `json:"isCustom"`
	RepositoryURL  string `json:"repositoryUrl,omitempty"`
	ModulePath     string `json:"modulePath,omitempty"`
	MigrationsPath string `json:"migrationsPath,omitempty"`
}

// ModuleInput carries module fields for create and update.
type ModuleInput struct {
	Code           string `json:"code,omitempty"`
	Name           string `json:"name,omitempty"`
	Description    string `json:"description,omitempty"`
	Version        string `json:"version,omitempty"`
	IsCustom       *bool  `json:"isCustom,omitempty"`
	RepositoryURL  string `json:"repositoryUrl,omitempty" validate:"omitempty,url"`
	ModulePath     string `json:"modulePath,omitempty"`
	MigrationsPath string `json:"migrationsPath,omitempty"`
}

// SplitModules separates core modules from optional ones, keeping order.
func SplitModules(modules []Module) (core, optional []Module) {
	for _, m := range modules {
		if m.IsCore {
			core = append(core, m)
		} else {
			optional = append(optional, m)
		}
	}
	return core, optional
}

// SubscriptionInput subscribes a tenant to a plan.
type SubscriptionInput struct {
	TenantID string `json:"tenantId" validate:"required"`
	PlanID   string `json:"planId" validate:"required"`
}

// Template is a project-generation template.
type Template struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	SourcePath  string `json:"sourcePath,omitempty"`
}
