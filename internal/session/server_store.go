package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// BrowserCookie identifies a browser to the server-side backends.
const BrowserCookie = "console_bid"

// KV is a server-side key/value store with per-key expiry.
// Deleting a missing key must succeed.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

// ServerBackend keeps the session entries in a shared KV, namespaced by a
// random browser id carried in a cookie.
type ServerBackend struct {
	kv     KV
	opts   CookieOptions
	prefix string
}

// NewServerBackend creates a Backend over kv.
func NewServerBackend(kv KV, opts CookieOptions) *ServerBackend {
	return &ServerBackend{kv: kv, opts: opts.normalize(), prefix: "console:"}
}

// Ping checks the underlying KV.
func (b *ServerBackend) Ping(ctx context.Context) error {
	return b.kv.Ping(ctx)
}

// For implements Backend. A browser without a valid id gets a new one, which
// is only issued once something is written.
func (b *ServerBackend) For(w http.ResponseWriter, r *http.Request) Store {
	s := &browserStore{backend: b, w: w}
	if c, err := r.Cookie(BrowserCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			s.id = id.String()
			return s
		}
	}
	s.id = uuid.NewString()
	s.fresh = true
	return s
}

type browserStore struct {
	backend *ServerBackend
	w       http.ResponseWriter
	id      string

	mu     sync.Mutex
	fresh  bool
	issued bool
}

func (s *browserStore) key(k string) string {
	return s.backend.prefix + s.id + ":" + k
}

func (s *browserStore) isFresh() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fresh && !s.issued
}

func (s *browserStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s.isFresh() {
		return "", false, nil
	}
	return s.backend.kv.Get(ctx, s.key(key))
}

func (s *browserStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.issueCookie(ttl)
	return s.backend.kv.Set(ctx, s.key(key), value, ttl)
}

func (s *browserStore) Delete(ctx context.Context, key string) error {
	if s.isFresh() {
		return nil
	}
	return s.backend.kv.Delete(ctx, s.key(key))
}

// issueCookie (re)sends the browser id so it outlives the entries it scopes.
func (s *browserStore) issueCookie(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.issued {
		return
	}
	opts := s.backend.opts
	http.SetCookie(s.w, &http.Cookie{
		Name:     BrowserCookie,
		Value:    s.id,
		Path:     opts.Path,
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})
	s.issued = true
}
