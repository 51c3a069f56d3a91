package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("identity and credential must be set together")
	ErrCorruptIdentity    = errors.New("stored identity is corrupt")
	ErrCredentialExpired  = errors.New("stored credential has expired")
)

// Identity is the authenticated operator as returned by the backend.
type Identity struct {
	ID    string `json:"id" validate:"required"`
	Email string `json:"email" validate:"required"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// LoginResult is the backend response to a successful authentication.
type LoginResult struct {
	User        Identity `json:"user"`
	AccessToken string   `json:"accessToken"`
}

// CredentialsError is returned when the backend rejects an email/password pair.
type CredentialsError struct {
	Message string
}

func (e *CredentialsError) Error() string {
	return e.Message
}

func (e *CredentialsError) Unwrap() error {
	return ErrInvalidCredentials
}

// APIError carries a non-auth failure reported by the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}
