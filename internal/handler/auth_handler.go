package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"modulys-admin/internal/adminapi"
	"modulys-admin/internal/domain"
	"modulys-admin/internal/middleware"
	"modulys-admin/internal/observability"
	"modulys-admin/internal/session"
)

const (
	unavailableMessage  = "Servidor indisponível. Tente novamente em instantes."
	sessionStartMessage = "Não foi possível iniciar a sessão. Tente novamente."
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	client *adminapi.Client
	pages  *PageHandler
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(client *adminapi.Client, pages *PageHandler) *AuthHandler {
	return &AuthHandler{
		client: client,
		pages:  pages,
	}
}

// LoginRequest represents login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents login response
type LoginResponse struct {
	User     domain.Identity `json:"user"`
	Redirect string          `json:"redirect"`
}

// LoginPage renders the sign-in form.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.pages.render(w, r, http.StatusOK, "login", PageData{Title: "Entrar"})
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.FromContext(ctx)
	asJSON := wantsJSON(r)

	guard, ok := middleware.GetGuard(ctx)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req LoginRequest
	if asJSON {
		if !decodeJSON(w, r, &req) {
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			h.loginFailed(w, r, http.StatusBadRequest, "", "Requisição inválida")
			return
		}
		req.Email = r.PostFormValue("email")
		req.Password = r.PostFormValue("password")
	}
	req.Email = strings.TrimSpace(req.Email)

	if fields := validateStruct(req); fields != nil {
		msg := firstMessage(fields, "email", "password")
		if asJSON {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": msg, "fields": fields})
			return
		}
		h.loginFailed(w, r, http.StatusBadRequest, req.Email, msg)
		return
	}

	result, err := h.client.Login(ctx, req.Email, req.Password)
	if err != nil {
		var credErr *domain.CredentialsError
		if errors.As(err, &credErr) {
			logger.Info("login rejected", slog.String("email", req.Email))
			h.respondLoginError(w, r, asJSON, http.StatusUnauthorized, req.Email, credErr.Message)
			return
		}
		logger.Error("login failed", slog.String("email", req.Email), slog.String("error", err.Error()))
		h.respondLoginError(w, r, asJSON, http.StatusBadGateway, req.Email, unavailableMessage)
		return
	}

	if err := guard.Login(ctx, &result.User, result.AccessToken); err != nil {
		logger.Error("failed to persist session", slog.String("error", err.Error()))
		h.respondLoginError(w, r, asJSON, http.StatusInternalServerError, req.Email, sessionStartMessage)
		return
	}

	target := session.LandingRoute
	if nav, ok := middleware.GetNavigation(ctx); ok {
		if t, ok := nav.Target(); ok {
			target = t
		}
	}

	logger.Info("operator signed in", slog.String("user_id", result.User.ID))

	if asJSON {
		writeJSON(w, http.StatusOK, LoginResponse{User: result.User, Redirect: target})
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *AuthHandler) respondLoginError(w http.ResponseWriter, r *http.Request, asJSON bool, status int, email, msg string) {
	if asJSON {
		writeError(w, status, msg)
		return
	}
	h.loginFailed(w, r, status, email, msg)
}

// loginFailed re-renders the form with msg, keeping the typed email.
func (h *AuthHandler) loginFailed(w http.ResponseWriter, r *http.Request, status int, email, msg string) {
	h.pages.render(w, r, status, "login", PageData{Title: "Entrar", Error: msg, Data: email})
}

// Logout handles user logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	guard, ok := middleware.GetGuard(ctx)
	if ok {
		if err := guard.Logout(ctx); err != nil {
			observability.FromContext(ctx).Error("failed to clear session", slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]string{"redirect": session.LoginRoute})
		return
	}
	http.Redirect(w, r, session.LoginRoute, http.StatusSeeOther)
}

// Me returns the signed-in operator.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	guard, ok := middleware.GetGuard(r.Context())
	if !ok || !guard.Authenticated() {
		middleware.WriteUnauthorized(w)
		return
	}
	writeJSON(w, http.StatusOK, guard.Identity())
}
