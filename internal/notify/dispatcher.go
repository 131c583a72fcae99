package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/redact"
)

// Errors returned by Dispatcher.Enqueue.
var (
	ErrQueueClosed = errors.New("notification queue is closed")
	ErrQueueFull   = errors.New("notification queue is full")
)

// DispatcherConfig tunes a Dispatcher.
type DispatcherConfig struct {
	// QueueSize is the number of events that may wait for delivery.
	QueueSize int
	// WorkerCount is the number of goroutines delivering to the bus.
	WorkerCount int
	// PublishTimeout bounds a single delivery attempt.
	PublishTimeout time.Duration
}

// DefaultDispatcherConfig returns a DispatcherConfig with reasonable defaults.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		QueueSize:      256,
		WorkerCount:    2,
		PublishTimeout: 5 * time.Second,
	}
}

type delivery struct {
	ctx     context.Context
	channel uuid.UUID
	event   Event
}

// Dispatcher queues events in memory and delivers them to a Bus from a
// pool of workers. Publish never blocks: when the queue is full the event
// is dropped and logged.
type Dispatcher struct {
	bus     Bus
	cfg     DispatcherConfig
	logger  *slog.Logger
	queue   chan delivery
	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

var _ Publisher = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher delivering to bus. Call Start to begin
// delivery and Stop to drain.
func NewDispatcher(bus Bus, cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	defaults := DefaultDispatcherConfig()
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaults.QueueSize
	}
	if cfg.WorkerCount <= 0 {
		logger.Warn("invalid worker count specified, using default",
			"specified_count", cfg.WorkerCount,
			"default_count", defaults.WorkerCount)
		cfg.WorkerCount = defaults.WorkerCount
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = defaults.PublishTimeout
	}

	return &Dispatcher{
		bus:    bus,
		cfg:    cfg,
		logger: logger.With("component", "notify_dispatcher"),
		queue:  make(chan delivery, cfg.QueueSize),
	}
}

// Start launches the worker goroutines. Calling it again has no effect.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true

	for i := 0; i < d.cfg.WorkerCount; i++ {
		d.wg.Add(1)
		go d.work(i)
	}
	d.logger.Info("notification dispatcher started",
		"workers", d.cfg.WorkerCount,
		"queue_size", d.cfg.QueueSize)
}

func (d *Dispatcher) work(id int) {
	defer d.wg.Done()
	for item := range d.queue {
		d.deliver(id, item)
	}
}

func (d *Dispatcher) deliver(worker int, item delivery) {
	ctx, cancel := context.WithTimeout(item.ctx, d.cfg.PublishTimeout)
	defer cancel()

	if err := d.bus.Publish(ctx, item.channel, item.event); err != nil {
		d.logger.Error("failed to deliver notification",
			"error", redact.Error(err),
			"worker", worker,
			"channel", item.channel,
			"event", item.event.Name)
		return
	}
	d.logger.Debug("notification delivered",
		"worker", worker,
		"channel", item.channel,
		"event", item.event.Name)
}

// Enqueue adds an event to the delivery queue.
func (d *Dispatcher) Enqueue(ctx context.Context, channel uuid.UUID, event Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrQueueClosed
	}

	// The request context is cancelled once the response is written; keep
	// only its values.
	item := delivery{ctx: context.WithoutCancel(ctx), channel: channel, event: event}
	select {
	case d.queue <- item:
		return nil
	default:
		return ErrQueueFull
	}
}

// Publish implements Publisher. Enqueue failures are logged, not returned.
func (d *Dispatcher) Publish(ctx context.Context, channel uuid.UUID, event Event) {
	if err := d.Enqueue(ctx, channel, event); err != nil {
		d.logger.Warn("dropping notification",
			"error", err,
			"channel", channel,
			"event", event.Name)
	}
}

// Stop closes the queue and waits for queued events to be delivered or for
// ctx to end, whichever comes first.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if !started {
		return nil
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("notification dispatcher stopped")
		return nil
	case <-ctx.Done():
		d.logger.Warn("notification dispatcher stop timed out", "pending", len(d.queue))
		return ctx.Err()
	}
}
