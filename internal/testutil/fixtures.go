package testutil

import (
	"encoding/json"
	"fmt"
	"sync/atomic"

	"modulys-admin/internal/domain"
)

// Counter for generating unique IDs
var idCounter atomic.Int64

// nextID generates a unique ID for test fixtures
func nextID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, idCounter.Add(1))
}

// NewTestIdentity creates an operator identity with sensible defaults.
func NewTestIdentity(opts ...func(*domain.Identity)) *domain.Identity {
	id := nextID("admin")
	identity := &domain.Identity{
		ID:    id,
		Email: id + "@grayskull.com.br",
		Name:  "Admin " + id,
		Role:  "SUPER_ADMIN",
	}
	for _, opt := range opts {
		opt(identity)
	}
	return identity
}

// WithIdentityID sets the identity id
func WithIdentityID(id string) func(*domain.Identity) {
	return func(i *domain.Identity) {
		i.ID = id
	}
}

// WithIdentityName sets the display name
func WithIdentityName(name string) func(*domain.Identity) {
	return func(i *domain.Identity) {
		i.Name = name
	}
}

// WithIdentityRole sets the role
func WithIdentityRole(role string) func(*domain.Identity) {
	return func(i *domain.Identity) {
		i.Role = role
	}
}

// IdentityJSON encodes an identity the way it is persisted.
func IdentityJSON(identity *domain.Identity) string {
	b, err := json.Marshal(identity)
	if err != nil {
		panic(err)
	}
	return string(b)
}

