package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"modulys-admin/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
)

var validate = validator.New()

// Navigator performs the navigation requested by a session transition.
type Navigator interface {
	Navigate(route string)
}

// Guard is the single owner of a session. Views read it through the accessor
// methods and mutate it only through Restore, Login, Logout and OnUnauthorized.
type Guard struct {
	store    Store
	nav      Navigator
	observer Observer
	now      func() time.Time
	logger   *slog.Logger

	mu          sync.Mutex
	identity    *domain.Identity
	credential  string
	loading     bool
	restored    bool
	invalidated bool
}

// Option configures a Guard.
type Option func(*Guard)

// WithObserver registers an observer for session transitions.
func WithObserver(o Observer) Option {
	return func(g *Guard) {
		g.observer = o
	}
}

// WithClock overrides the time source used for credential expiry checks.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		g.now = now
	}
}

// WithLogger sets the logger used for recovered storage failures.
func WithLogger(l *slog.Logger) Option {
	return func(g *Guard) {
		g.logger = l
	}
}

// New creates a Guard in the loading state. Restore must be called before
// any guarded view is rendered.
func New(store Store, nav Navigator, opts ...Option) *Guard {
	g := &Guard{
		store:   store,
		nav:     nav,
		now:     time.Now,
		logger:  slog.Default(),
		loading: true,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Restore loads the persisted identity and credential. It runs once; later
// calls do nothing. A half-written, corrupt or expired pair is purged and the
// session starts logged out. Loading is false when Restore returns. An empty
// store is not a transition and notifies no observer.
func (g *Guard) Restore(ctx context.Context) {
	g.mu.Lock()
	if g.restored {
		g.mu.Unlock()
		return
	}

	identity, credential, kind := g.readPersisted(ctx)
	g.identity = identity
	g.credential = credential
	g.restored = true
	g.loading = false
	g.mu.Unlock()

	if kind != "" {
		g.emit(ctx, kind, identity)
	}
}

func (g *Guard) readPersisted(ctx context.Context) (*domain.Identity, string, EventKind) {
	credential, hasCredential, credErr := g.store.Get(ctx, CredentialKey)
	raw, hasIdentity, idErr := g.store.Get(ctx, IdentityKey)

	if err := errors.Join(credErr, idErr); err != nil {
		g.logger.Warn("session storage read failed",
			slog.String("error", err.Error()))
		g.purgeLogged(ctx)
		return nil, "", EventRestorePurged
	}

	if !hasCredential && !hasIdentity {
		return nil, "", ""
	}

	if !hasCredential || !hasIdentity || credential == "" {
		g.logger.Debug("purging half-set session",
			slog.Bool("has_credential", hasCredential),
			slog.Bool("has_identity", hasIdentity))
		g.purgeLogged(ctx)
		return nil, "", EventRestorePurged
	}

	identity, err := decodeIdentity(raw)
	if err != nil {
		g.logger.Debug("purging corrupt session", slog.String("error", err.Error()))
		g.purgeLogged(ctx)
		return nil, "", EventRestorePurged
	}

	if err := checkExpiry(credential, g.now()); err != nil {
		g.logger.Debug("purging expired session",
			slog.String("user_id", identity.ID),
			slog.String("error", err.Error()))
		g.purgeLogged(ctx)
		return nil, "", EventRestorePurged
	}

	return identity, credential, EventRestored
}

// Login records a freshly authenticated identity, persists it for Retention
// and navigates to the landing route. The caller has already validated the
// credentials against the backend. If persisting fails, both entries are
// removed and the session is left logged out. An identity Restore would not
// accept back, one without id or email, is rejected with ErrInvalidSession.
func (g *Guard) Login(ctx context.Context, identity *domain.Identity, credential string) error {
	if identity == nil || credential == "" {
		return domain.ErrInvalidSession
	}
	if err := validate.Struct(identity); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidSession, err)
	}

	raw, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}
	stored := *identity

	g.mu.Lock()
	g.restored = true
	g.loading = false

	if err := g.persist(ctx, credential, string(raw)); err != nil {
		g.identity = nil
		g.credential = ""
		g.purgeLogged(ctx)
		g.mu.Unlock()
		return err
	}

	g.identity = &stored
	g.credential = credential
	g.invalidated = false
	g.mu.Unlock()

	g.emit(ctx, EventLogin, &stored)
	g.nav.Navigate(LandingRoute)
	return nil
}

func (g *Guard) persist(ctx context.Context, credential, identity string) error {
	if err := g.store.Set(ctx, CredentialKey, credential, Retention); err != nil {
		return fmt.Errorf("failed to persist credential: %w", err)
	}
	if err := g.store.Set(ctx, IdentityKey, identity, Retention); err != nil {
		return fmt.Errorf("failed to persist identity: %w", err)
	}
	return nil
}

// Logout clears the session and its persisted entries and navigates to the
// login route. Calling it on a logged-out session is harmless.
func (g *Guard) Logout(ctx context.Context) error {
	prev, err := g.clear(ctx)
	g.emit(ctx, EventLogout, prev)
	g.nav.Navigate(LoginRoute)
	if err != nil {
		return fmt.Errorf("failed to clear session storage: %w", err)
	}
	return nil
}

// OnUnauthorized reacts to the backend rejecting the credential mid-use. It
// clears the session like Logout and always returns an error matching
// domain.ErrUnauthorized, so the caller never reads the missing response as
// data. Concurrent and repeated calls leave one logged-out state and navigate
// once.
func (g *Guard) OnUnauthorized(ctx context.Context, cause error) error {
	g.mu.Lock()
	first := !g.invalidated
	g.invalidated = true
	g.mu.Unlock()

	prev, err := g.clear(ctx)
	if err != nil {
		g.logger.Warn("failed to clear session after rejection",
			slog.String("error", err.Error()))
	}

	if first {
		g.emit(ctx, EventInvalidated, prev)
		g.nav.Navigate(LoginRoute)
	}

	if cause == nil || errors.Is(cause, domain.ErrUnauthorized) {
		return domain.ErrUnauthorized
	}
	return fmt.Errorf("%w: %w", domain.ErrUnauthorized, cause)
}

func (g *Guard) clear(ctx context.Context) (*domain.Identity, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	prev := g.identity
	g.identity = nil
	g.credential = ""
	g.restored = true
	g.loading = false
	return prev, g.purge(ctx)
}

func (g *Guard) purge(ctx context.Context) error {
	return errors.Join(
		g.store.Delete(ctx, CredentialKey),
		g.store.Delete(ctx, IdentityKey),
	)
}

func (g *Guard) purgeLogged(ctx context.Context) {
	if err := g.purge(ctx); err != nil {
		g.logger.Warn("failed to purge session storage", slog.String("error", err.Error()))
	}
}

func (g *Guard) emit(ctx context.Context, kind EventKind, identity *domain.Identity) {
	if g.observer == nil {
		return
	}
	var snapshot *domain.Identity
	if identity != nil {
		c := *identity
		snapshot = &c
	}
	g.observer.Observe(ctx, Event{Kind: kind, Identity: snapshot, At: g.now()})
}

// Identity returns a copy of the current identity, or nil when logged out.
func (g *Guard) Identity() *domain.Identity {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.identity == nil {
		return nil
	}
	c := *g.identity
	return &c
}

// Credential returns the bearer token, or "" when logged out.
func (g *Guard) Credential() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.credential
}

// Loading reports whether the initial restore is still pending.
func (g *Guard) Loading() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loading
}

// Authenticated reports whether an identity is present.
func (g *Guard) Authenticated() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.identity != nil
}

// State returns a snapshot suitable for Decide.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := State{Loading: g.loading}
	if g.identity != nil {
		c := *g.identity
		s.Identity = &c
	}
	return s
}

// Check evaluates the route guard against the current state.
func (g *Guard) Check(route string) Decision {
	return Decide(g.State(), route)
}

func decodeIdentity(raw string) (*domain.Identity, error) {
	var identity *domain.Identity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCorruptIdentity, err)
	}
	if identity == nil {
		return nil, domain.ErrCorruptIdentity
	}
	if err := validate.Struct(identity); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCorruptIdentity, err)
	}
	return identity, nil
}

// checkExpiry returns domain.ErrCredentialExpired when credential is a JWT
// whose exp claim has passed. Opaque tokens are never inspected.
func checkExpiry(credential string, now time.Time) error {
	if strings.Count(credential, ".") != 2 {
		return nil
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(credential, &claims); err != nil {
		return nil
	}
	if claims.ExpiresAt == nil || claims.ExpiresAt.Time.After(now) {
		return nil
	}
	return fmt.Errorf("%w at %s", domain.ErrCredentialExpired, claims.ExpiresAt.Time.UTC().Format(time.RFC3339))
}
