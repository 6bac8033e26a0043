// Package publisher enriches audit events with request metadata and appends
// them to the outbox store.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	audit "sacra360/pkg/platform/audit"
	"sacra360/pkg/requestcontext"
)

// Store is the append side of the audit outbox.
type Store interface {
	Append(ctx context.Context, event audit.Event) error
}

// Publisher is synchronous: Emit returns only after the event is in the
// store, so an outbox write joins the caller's transaction.
type Publisher struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit fills the event from the request context and appends it.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Action == "" {
		return fmt.Errorf("audit event requires an action")
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx).UTC()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	if event.UserID == 0 {
		event.UserID = requestcontext.UserID(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
	}
	if event.UserAgent == "" {
		event.UserAgent = summarizeUserAgent(requestcontext.UserAgent(ctx))
	}

	if err := p.store.Append(ctx, event); err != nil {
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "failed to append audit event",
				"action", event.Action,
				"error", err,
				"request_id", event.RequestID,
			)
		}
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// summarizeUserAgent reduces a raw User-Agent header to "Browser version (OS)".
func summarizeUserAgent(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	ua := useragent.New(raw)
	if ua.Bot() {
		name, _ := ua.Browser()
		return "bot: " + name
	}
	name, version := ua.Browser()
	if name == "" {
		return raw
	}
	summary := strings.TrimSpace(name + " " + version)
	if osName := ua.OS(); osName != "" {
		summary += " (" + osName + ")"
	}
	return summary
}
