// Package notify delivers user notifications asynchronously. The dispatcher
// drains a bounded in-memory queue into a Sink; enqueueing never blocks the
// request path and delivery failures are counted, not propagated — the
// contract is fire-and-forget.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gigmatch/gigmatch/pkg/logger"
	"github.com/gigmatch/gigmatch/pkg/metrics"
)

// Notification types emitted by the lifecycle engine.
const (
	TypeApplicationReceived = "application_received"
	TypeApplicationAccepted = "application_accepted"
	TypeApplicationRejected = "application_rejected"
)

// Notification is one message for one user.
type Notification struct {
	NotificationID string         `json:"notification_id"`
	UserID         string         `json:"user_id"`
	Type           string         `json:"type"`
	Payload        map[string]any `json:"payload,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Sink is the delivery backend.
type Sink interface {
	// Deliver sends one notification. Errors are observed by the dispatcher
	// for accounting only; nothing is retried.
	Deliver(ctx context.Context, n Notification) error
}

// Dispatcher queues notifications and delivers them on background workers.
type Dispatcher struct {
	sink     Sink
	queue    chan Notification
	capacity int
	workers  int
	logger   logger.Logger

	mu      sync.Mutex
	started bool
	closed  bool
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with configuration options.
func NewDispatcher(sink Sink, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sink:     sink,
		capacity: defaultCapacity,
		workers:  defaultWorkers,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.queue = make(chan Notification, d.capacity)
	return d
}

// Start launches the delivery workers.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return
	}
	if d.logger == nil {
		d.logger = logger.Get().Named("notify")
	}
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.run(ctx)
	}
	d.started = true
}

// Stop closes the queue and waits for in-flight deliveries to finish.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}

// Notify queues a notification for delivery. It returns immediately; a full
// queue drops the notification and bumps a counter rather than stalling a
// state transition.
func (d *Dispatcher) Notify(ctx context.Context, userID, notificationType string, payload map[string]any) {
	n := Notification{
		NotificationID: uuid.NewString(),
		UserID:         userID,
		Type:           notificationType,
		Payload:        payload,
		CreatedAt:      time.Now().UTC(),
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		metrics.RecordNotificationDropped()
		return
	}
	select {
	case d.queue <- n:
		metrics.RecordNotificationQueued()
	default:
		metrics.RecordNotificationDropped()
		if d.logger != nil {
			d.logger.Warn(ctx, "notification queue full, dropping",
				logger.String("user_id", userID),
				logger.String("type", notificationType),
			)
		}
	}
	d.mu.Unlock()
}

// Len returns the number of queued, undelivered notifications.
func (d *Dispatcher) Len() int {
	return len(d.queue)
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()

	for n := range d.queue {
		if err := d.sink.Deliver(ctx, n); err != nil {
			metrics.RecordNotificationError()
			d.logger.Warn(ctx, "notification delivery failed",
				logger.String("user_id", n.UserID),
				logger.String("type", n.Type),
				logger.Error(err),
			)
			continue
		}
		metrics.RecordNotificationDelivered()
	}
}
