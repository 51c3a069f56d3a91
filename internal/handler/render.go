package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"modulys-admin/internal/domain"
	"modulys-admin/internal/format"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"landing", "login", "dashboard", "tenants", "modules", "plans", "templates"}

// PageData is handed to every page template.
type PageData struct {
	Title     string
	Active    string
	Identity  *domain.Identity
	CSRFToken string
	Error     string
	Data      any
}

// Renderer executes the console's HTML pages.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page together with the shared layout.
func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"cnpj":     format.MaskCNPJ,
		"phone":    format.MaskPhone,
		"currency": format.Currency,
		"date": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.Format("02/01/2006")
		},
		"statusLabel": statusLabel,
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New("layout.html").Funcs(funcs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s page: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &Renderer{pages: pages}, nil
}

// Render writes page name with status. The page is executed into a buffer
// first so a template error never leaves a half-written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data PageData) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to render %s page: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

func statusLabel(status string) string {
	switch status {
	case domain.TenantActive:
		return "Ativo"
	case domain.TenantSuspended:
		return "Suspenso"
	case domain.TenantTrial:
		return "Trial"
	}
	return status
}
