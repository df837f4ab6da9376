// Package broker wraps the message-broker client: fire-and-forget publish,
// long-lived subscriptions, and a request/reply primitive that emulates a
// synchronous remote call over pub/sub.
//
// Request/reply uses an explicit correlation protocol: every request carries
// a fresh correlation id and a per-request reply channel the caller is
// subscribed to before the request is published. The wait is always bounded
// by the configured timeout or the caller's context, never unbounded.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const DefaultRequestTimeout = 5 * time.Second

// Handler consumes one inbound message body. A returned error is logged;
// it does not stop the subscription loop.
type Handler func(ctx context.Context, body []byte) error

type Broker interface {
	// Request publishes a payload on the named RPC channel and blocks until
	// the correlated reply arrives, the timeout fires, or ctx is cancelled.
	Request(ctx context.Context, channel string, payload any) ([]byte, error)

	// Publish sends a fire-and-forget message.
	Publish(ctx context.Context, channel string, payload any) error

	// Subscribe delivers every message on the channel to the handler until
	// ctx is done. It blocks; run it in its own goroutine.
	Subscribe(ctx context.Context, channel string, handler Handler) error
}

// envelope is the wire shape of a request on an RPC channel. The serving peer
// publishes its raw reply body to ReplyTo.
type envelope struct {
	CorrelationID string          `json:"correlation_id"`
	ReplyTo       string          `json:"reply_to"`
	Body          json.RawMessage `json:"body"`
}

type redisBroker struct {
	client  *redis.Client
	timeout time.Duration
}

func NewRedisBroker(addr string, timeout time.Duration) Broker {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &redisBroker{
		client:  redis.NewClient(&redis.Options{Addr: addr}),
		timeout: timeout,
	}
}

func (b *redisBroker) Request(ctx context.Context, channel string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("broker: marshal request for %q: %w", channel, err)
	}

	correlationID := uuid.NewString()
	env := envelope{
		CorrelationID: correlationID,
		ReplyTo:       fmt.Sprintf("%s.reply.%s", channel, correlationID),
		Body:          body,
	}

	// Subscribe to the reply channel before publishing so the reply cannot
	// race past us.
	sub := b.client.Subscribe(ctx, env.ReplyTo)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("broker: subscribe reply channel for %q: %w", channel, err)
	}

	raw, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("broker: marshal envelope for %q: %w", channel, err)
	}
	if err := b.client.Publish(ctx, channel, raw).Err(); err != nil {
		return nil, fmt.Errorf("broker: publish request on %q: %w", channel, err)
	}

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case msg, ok := <-sub.Channel():
		if !ok {
			return nil, fmt.Errorf("broker: reply subscription on %q closed", channel)
		}
		return []byte(msg.Payload), nil
	case <-timer.C:
		return nil, fmt.Errorf("broker: request on %q timed out after %s (correlation_id=%s)",
			channel, b.timeout, env.CorrelationID)
	case <-ctx.Done():
		return nil, fmt.Errorf("broker: request on %q: %w", channel, ctx.Err())
	}
}

func (b *redisBroker) Publish(ctx context.Context, channel string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("broker: marshal message for %q: %w", channel, err)
	}
	if err := b.client.Publish(ctx, channel, raw).Err(); err != nil {
		return fmt.Errorf("broker: publish on %q: %w", channel, err)
	}
	return nil
}

func (b *redisBroker) Subscribe(ctx context.Context, channel string, handler Handler) error {
	sub := b.client.Subscribe(ctx, channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("broker: subscribe %q: %w", channel, err)
	}

	slog.InfoContext(ctx, "broker subscription active", "channel", channel)
	for {
		select {
		case msg, ok := <-sub.Channel():
			if !ok {
				return fmt.Errorf("broker: subscription on %q closed", channel)
			}
			if err := handler(ctx, []byte(msg.Payload)); err != nil {
				slog.ErrorContext(ctx, "broker message handling failed", "channel", channel, "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
