package messaging

import (
	"context"
	"log/slog"
	"time"

	"modulys-admin/internal/observability"
	"modulys-admin/internal/session"

	"github.com/google/uuid"
)

// AuditEvent is the message published for a session transition.
type AuditEvent struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	UserID     string    `json:"user_id,omitempty"`
	Email      string    `json:"email,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers audit events. *RabbitMQ implements it.
type Publisher interface {
	PublishAudit(ctx context.Context, event *AuditEvent) error
}

// AuditObserver publishes session transitions as audit events. Publishing
// failures are logged and never reach the request.
type AuditObserver struct {
	publisher Publisher
	timeout   time.Duration
}

func NewAuditObserver(publisher Publisher, timeout time.Duration) *AuditObserver {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &AuditObserver{publisher: publisher, timeout: timeout}
}

// Observe publishes e. A successful restore is an ordinary page load, not a
// transition, and is not audited.
func (a *AuditObserver) Observe(ctx context.Context, e session.Event) {
	if e.Kind == session.EventRestored {
		return
	}

	event := &AuditEvent{
		ID:         uuid.NewString(),
		Kind:       string(e.Kind),
		RequestID:  observability.RequestID(ctx),
		OccurredAt: e.At.UTC(),
	}
	if e.Identity != nil {
		event.UserID = e.Identity.ID
		event.Email = e.Identity.Email
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	defer cancel()

	if err := a.publisher.PublishAudit(pubCtx, event); err != nil {
		observability.FromContext(ctx).Error("failed to publish audit event",
			slog.String("kind", event.Kind),
			slog.String("error", err.Error()))
	}
}
