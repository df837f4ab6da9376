package outbox

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/onlinestore/shopping-service/internal/pkg/broker"
)

const (
	defaultInterval  = time.Second
	defaultBatchSize = 100
)

// Dispatcher drains pending journal rows and publishes them over the broker.
// Rows that fail to publish stay pending and are retried on the next sweep.
type Dispatcher struct {
	store     Store
	broker    broker.Broker
	interval  time.Duration
	batchSize int
}

func NewDispatcher(store Store, b broker.Broker, interval time.Duration) *Dispatcher {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Dispatcher{
		store:     store,
		broker:    b,
		interval:  interval,
		batchSize: defaultBatchSize,
	}
}

// Run sweeps the journal until ctx is done. It blocks; run it in its own
// goroutine.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (d *Dispatcher) sweep(ctx context.Context) {
	entries, err := d.store.Pending(ctx, d.batchSize)
	if err != nil {
		slog.ErrorContext(ctx, "outbox sweep failed", "error", err)
		return
	}

	for _, entry := range entries {
		if err := d.broker.Publish(ctx, entry.Channel, json.RawMessage(entry.Payload)); err != nil {
			slog.WarnContext(ctx, "event publish failed, will retry",
				"event_id", entry.ID, "channel", entry.Channel, "attempts", entry.Attempts+1, "error", err)
			if markErr := d.store.MarkFailed(ctx, entry.ID, entry.Channel, err); markErr != nil {
				slog.ErrorContext(ctx, "failed to record publish failure", "event_id", entry.ID, "error", markErr)
			}
			continue
		}
		if err := d.store.MarkSent(ctx, entry.ID, entry.Channel); err != nil {
			slog.ErrorContext(ctx, "failed to mark event sent", "event_id", entry.ID, "error", err)
		}
	}
}
