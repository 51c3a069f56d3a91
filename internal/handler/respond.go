package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"modulys-admin/internal/adminapi"
	"modulys-admin/internal/domain"
	"modulys-admin/internal/middleware"
	"modulys-admin/internal/observability"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleAPIError maps a failed backend call to the console's JSON error shape.
func handleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	logger := observability.FromContext(r.Context())

	var apiErr *domain.APIError
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		middleware.WriteUnauthorized(w)
	case errors.As(err, &apiErr):
		status := apiErr.Status
		if status < 400 || status >= 500 {
			logger.Error("admin API call failed", slog.Int("status", apiErr.Status), slog.String("error", apiErr.Message))
			status = http.StatusBadGateway
		}
		writeError(w, status, apiErr.Message)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		logger.Warn("admin API call timed out", slog.String("error", err.Error()))
		writeError(w, http.StatusGatewayTimeout, "Tempo de resposta esgotado")
	case errors.Is(err, adminapi.ErrInvalidResponse):
		logger.Error("invalid admin API response", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "Resposta inválida do servidor")
	default:
		logger.Error("admin API unavailable", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "Servidor indisponível")
	}
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// wantsJSON reports whether the client posted JSON rather than an HTML form.
func wantsJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

// apiFor binds the backend client to the request's session.
func apiFor(client *adminapi.Client, r *http.Request) (*adminapi.API, bool) {
	guard, ok := middleware.GetGuard(r.Context())
	if !ok {
		return nil, false
	}
	return client.For(guard), true
}
