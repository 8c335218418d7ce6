package audit

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Subscriber receives committed booking events, e.g. the notification
// collaborator.
type Subscriber interface {
	Handle(ctx context.Context, ev Event) error
}

type SubscriberFunc func(ctx context.Context, ev Event) error

func (f SubscriberFunc) Handle(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// Dispatcher fans committed events out to subscribers on a worker goroutine.
// Events are already persisted by the time they get here, so Dispatch waits
// for queue space instead of dropping.
type Dispatcher struct {
	logger *zap.Logger
	queue  chan Event
	done   chan struct{}

	mu          sync.RWMutex
	subscribers []Subscriber
	closeOnce   sync.Once
}

func NewDispatcher(logger *zap.Logger, buffer int, subscribers ...Subscriber) *Dispatcher {
	if buffer <= 0 {
		buffer = 100
	}

	d := &Dispatcher{
		logger:      logger,
		queue:       make(chan Event, buffer),
		done:        make(chan struct{}),
		subscribers: subscribers,
	}

	go d.worker()
	return d
}

func (d *Dispatcher) Subscribe(s Subscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subscribers = append(d.subscribers, s)
}

func (d *Dispatcher) worker() {
	defer close(d.done)

	for ev := range d.queue {
		d.mu.RLock()
		subs := d.subscribers
		d.mu.RUnlock()

		for _, s := range subs {
			if err := s.Handle(context.Background(), ev); err != nil {
				d.logger.Error("audit subscriber failed",
					zap.String("event", string(ev.Kind)),
					zap.String("booking_id", ev.BookingID.String()),
					zap.Error(err),
				)
			}
		}
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, events ...Event) error {
	for _, ev := range events {
		select {
		case d.queue <- ev:
		case <-ctx.Done():
			d.logger.Warn("audit dispatch abandoned",
				zap.String("event", string(ev.Kind)),
				zap.String("booking_id", ev.BookingID.String()),
			)
			return ctx.Err()
		}
	}
	return nil
}

// Close stops accepting events and waits for the queue to drain.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.queue)
	})
	<-d.done
}
