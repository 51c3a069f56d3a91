// Package session owns the console's authenticated identity: it restores it
// from browser-scoped storage, persists it on login, clears it on logout or
// when the backend rejects the credential, and decides where a request for a
// given route must be sent.
package session

import (
	"context"
	"net/http"
	"time"
)

const (
	// CredentialKey holds the opaque bearer token.
	CredentialKey = "admin_token"
	// IdentityKey holds the JSON encoded identity record.
	IdentityKey = "admin_user"

	// Retention is how long both entries survive after the last login.
	Retention = 7 * 24 * time.Hour
)

// Store is a durable key/value store scoped to a single browser.
// Deleting a key that does not exist must succeed.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Backend binds a Store to the browser that issued a request.
type Backend interface {
	For(w http.ResponseWriter, r *http.Request) Store
}

// CookieOptions controls the attributes of cookies written by the backends.
type CookieOptions struct {
	Path     string
	Secure   bool
	SameSite http.SameSite
}

func (o CookieOptions) normalize() CookieOptions {
	if o.Path == "" {
		o.Path = "/"
	}
	if o.SameSite == 0 {
		o.SameSite = http.SameSiteLaxMode
	}
	return o
}
