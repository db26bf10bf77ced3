package amqp

import (
	"context"
	"log/slog"

	"gastos/internal/events"
)

// Publisher is the part of Client the forwarder needs.
type Publisher interface {
	PublishChange(ctx context.Context, msg *ChangeMessage) error
}

// Forwarder relays bus changes to a Publisher from its own goroutine, so a
// slow broker never delays the write that produced the change.
type Forwarder struct {
	pub   Publisher
	queue chan *ChangeMessage
}

func NewForwarder(pub Publisher, buffer int) *Forwarder {
	if buffer <= 0 {
		buffer = 256
	}
	return &Forwarder{pub: pub, queue: make(chan *ChangeMessage, buffer)}
}

// Attach subscribes to every collection on bus. When the buffer is full the
// change is dropped with a warning.
func (f *Forwarder) Attach(bus *events.Bus) (unsubscribe func()) {
	return bus.Subscribe(func(c events.Change) {
		select {
		case f.queue <- NewChangeMessage(c):
		default:
			slog.Warn("AMQP forward buffer full, dropping change",
				"collection", c.Collection, "op", c.Op, "id", c.ID)
		}
	})
}

// Run publishes queued changes until ctx is done.
func (f *Forwarder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-f.queue:
			if err := f.pub.PublishChange(ctx, msg); err != nil {
				slog.ErrorContext(ctx, "Failed to publish change message",
					"collection", msg.Collection,
					"op", msg.Op,
					"id", msg.ID,
					"error", err)
			}
		}
	}
}
