package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"modulys-admin/internal/security"
)

// CookieBackend keeps the session entries in the browser itself. Every value
// is sealed so the credential never travels or rests in clear text.
type CookieBackend struct {
	sealer *security.Sealer
	opts   CookieOptions
}

// NewCookieBackend creates a cookie-backed Backend.
func NewCookieBackend(sealer *security.Sealer, opts CookieOptions) *CookieBackend {
	return &CookieBackend{sealer: sealer, opts: opts.normalize()}
}

// For implements Backend.
func (b *CookieBackend) For(w http.ResponseWriter, r *http.Request) Store {
	return &cookieStore{
		w:       w,
		r:       r,
		sealer:  b.sealer,
		opts:    b.opts,
		written: make(map[string]*string),
	}
}

// cookieStore reads the request cookies and writes Set-Cookie headers. Values
// written during the request shadow the ones the browser sent.
type cookieStore struct {
	w      http.ResponseWriter
	r      *http.Request
	sealer *security.Sealer
	opts   CookieOptions

	mu      sync.Mutex
	written map[string]*string
}

func (s *cookieStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.written[key]; ok {
		if v == nil {
			return "", false, nil
		}
		return *v, true, nil
	}

	c, err := s.r.Cookie(key)
	if err != nil || c.Value == "" {
		return "", false, nil
	}

	plaintext, err := s.sealer.Open(c.Value)
	if err != nil {
		// A value we cannot open is indistinguishable from a missing one.
		return "", false, nil
	}
	return string(plaintext), true, nil
}

func (s *cookieStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	sealed, err := s.sealer.Seal([]byte(value))
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	http.SetCookie(s.w, &http.Cookie{
		Name:     key,
		Value:    sealed,
		Path:     s.opts.Path,
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: s.opts.SameSite,
	})
	s.written[key] = &value
	return nil
}

func (s *cookieStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.written[key]; ok && v == nil {
		return nil
	}

	http.SetCookie(s.w, &http.Cookie{
		Name:     key,
		Value:    "",
		Path:     s.opts.Path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: s.opts.SameSite,
	})
	s.written[key] = nil
	return nil
}
