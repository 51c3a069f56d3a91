package session

import (
	"context"
	"time"

	"modulys-admin/internal/domain"
)

// EventKind names a session lifecycle transition.
type EventKind string

const (
	EventRestored      EventKind = "restored"
	EventRestorePurged EventKind = "restore_purged"
	EventLogin         EventKind = "login"
	EventLogout        EventKind = "logout"
	EventInvalidated   EventKind = "invalidated"
)

// Event describes a transition. Identity is the identity the session held
// after a restore or login, and before a logout or invalidation.
type Event struct {
	Kind     EventKind
	Identity *domain.Identity
	At       time.Time
}

// Observer is notified of every session transition.
type Observer interface {
	Observe(ctx context.Context, e Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, e Event)

func (f ObserverFunc) Observe(ctx context.Context, e Event) {
	f(ctx, e)
}

// Observers fans an event out to several observers in order.
type Observers []Observer

func (o Observers) Observe(ctx context.Context, e Event) {
	for _, obs := range o {
		if obs != nil {
			obs.Observe(ctx, e)
		}
	}
}
