// Package outbox decouples domain-event publication from the request path.
//
// Events are appended to a durable journal inside the request; a background
// dispatcher drains pending rows and publishes them over the broker. Publish
// latency or failure therefore never affects the response of the operation
// that produced the event, and a crash between mutation and publish loses
// nothing: the row is still pending on restart.
package outbox

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/onlinestore/shopping-service/internal/shopping/domain"
	"github.com/onlinestore/shopping-service/internal/shopping/ports"
)

// Status is the delivery state of a journal row.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSent    Status = "SENT"
)

// Entry is a single row of the outbox journal: one event bound for one
// broker channel.
type Entry struct {
	// ID is the event id; combined with Channel it identifies the row.
	ID string

	// Channel is the broker channel this event is bound for.
	Channel string

	// EventType mirrors the domain event type for observability queries.
	EventType string

	// Payload is the JSON-serialised domain event.
	Payload string

	Status Status

	// Attempts counts delivery tries; LastError keeps the most recent
	// failure for inspection.
	Attempts  int
	LastError string

	CreatedAt time.Time
	SentAt    time.Time
}

// Store is the port for persisting journal rows. The sqlite subpackage is the
// production implementation; tests use an in-memory one.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
	// Pending returns up to limit undelivered rows, oldest first.
	Pending(ctx context.Context, limit int) ([]*Entry, error)
	MarkSent(ctx context.Context, id, channel string) error
	MarkFailed(ctx context.Context, id, channel string, cause error) error
}

var _ ports.EventNotifier = (*Notifier)(nil)

// Notifier implements the event-notifier port by journaling each event for
// every configured target channel. Emit is best-effort: append failures are
// logged and swallowed so the primary operation's response is never affected.
type Notifier struct {
	store    Store
	channels []string
}

func NewNotifier(store Store, channels []string) *Notifier {
	return &Notifier{store: store, channels: channels}
}

func (n *Notifier) Emit(ctx context.Context, event domain.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.ErrorContext(ctx, "dropping event: marshal failed", "event_id", event.ID, "type", event.Type, "error", err)
		return
	}

	for _, channel := range n.channels {
		entry := &Entry{
			ID:        event.ID,
			Channel:   channel,
			EventType: event.Type,
			Payload:   string(payload),
			Status:    StatusPending,
			CreatedAt: time.Now().UTC(),
		}
		if err := n.store.Append(ctx, entry); err != nil {
			slog.ErrorContext(ctx, "dropping event: journal append failed",
				"event_id", event.ID, "type", event.Type, "channel", channel, "error", err)
		}
	}
}
