// Package testutil provides shared test utilities, mocks, and fixtures
// for testing the admin console.
package testutil

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Common test errors
var (
	ErrMockNotImplemented = errors.New("mock function not implemented")
	ErrMockStorage        = errors.New("mock: storage failure")
)

type storedValue struct {
	value     string
	expiresAt time.Time
}

// MockStore is an in-memory session.Store honoring ttl against Now.
type MockStore struct {
	mu sync.Mutex

	// Function overrides - set these to customize behavior
	GetFunc    func(ctx context.Context, key string) (string, bool, error)
	SetFunc    func(ctx context.Context, key, value string, ttl time.Duration) error
	DeleteFunc func(ctx context.Context, key string) error

	// Now is the clock used for expiry; defaults to time.Now.
	Now func() time.Time

	Values      map[string]storedValue
	SetCalls    []string
	DeleteCalls []string
}

// NewMockStore creates an empty MockStore.
func NewMockStore() *MockStore {
	return &MockStore{Values: make(map[string]storedValue)}
}

func (m *MockStore) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// Put seeds a value without recording a Set call.
func (m *MockStore) Put(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Values[key] = storedValue{value: value, expiresAt: m.now().Add(24 * time.Hour)}
}

// Has reports whether key holds an unexpired value.
func (m *MockStore) Has(key string) bool {
	_, ok := m.Value(key)
	return ok
}

// Value returns the unexpired value stored under key.
func (m *MockStore) Value(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.Values[key]
	if !ok || !m.now().Before(v.expiresAt) {
		return "", false
	}
	return v.value, true
}

// ExpiresAt returns the expiry recorded for key.
func (m *MockStore) ExpiresAt(key string) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Values[key].expiresAt
}

// Len returns the number of stored keys, expired or not.
func (m *MockStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Values)
}

func (m *MockStore) Get(ctx context.Context, key string) (string, bool, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	v, ok := m.Value(key)
	return v, ok, nil
}

func (m *MockStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Values == nil {
		m.Values = make(map[string]storedValue)
	}
	m.Values[key] = storedValue{value: value, expiresAt: m.now().Add(ttl)}
	m.SetCalls = append(m.SetCalls, key)
	return nil
}

func (m *MockStore) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.Values, key)
	m.DeleteCalls = append(m.DeleteCalls, key)
	return nil
}

// MockKV implements session.KV in memory.
type MockKV struct {
	MockStore

	PingFunc func(ctx context.Context) error
}

// NewMockKV creates an empty MockKV.
func NewMockKV() *MockKV {
	return &MockKV{MockStore: MockStore{Values: make(map[string]storedValue)}}
}

func (m *MockKV) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		if err := m.MockStore.Delete(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockKV) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// MockCredentials implements adminapi.Credentials.
type MockCredentials struct {
	mu sync.Mutex

	Token              string
	OnUnauthorizedFunc func(ctx context.Context, cause error) error
	UnauthorizedCalls  int
}

func (m *MockCredentials) Credential() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Token
}

func (m *MockCredentials) OnUnauthorized(ctx context.Context, cause error) error {
	m.mu.Lock()
	m.UnauthorizedCalls++
	m.Token = ""
	m.mu.Unlock()
	if m.OnUnauthorizedFunc != nil {
		return m.OnUnauthorizedFunc(ctx, cause)
	}
	return cause
}
