package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// DefaultSubscriptionBuffer is the number of undelivered events a
// subscriber may fall behind by before further events are dropped.
const DefaultSubscriptionBuffer = 16

// Hub is an in-process Bus.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]map[*hubSubscriber]struct{}
	closed bool
	buffer int
	logger *slog.Logger
}

type hubSubscriber struct {
	ch chan Event
}

var _ Bus = (*Hub)(nil)

// NewHub creates an empty Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subs:   make(map[uuid.UUID]map[*hubSubscriber]struct{}),
		buffer: DefaultSubscriptionBuffer,
		logger: logger.With("component", "notify_hub"),
	}
}

// Publish implements Bus. A subscriber whose buffer is full misses the event.
func (h *Hub) Publish(ctx context.Context, channel uuid.UUID, event Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return ErrBusClosed
	}

	for s := range h.subs[channel] {
		select {
		case s.ch <- event:
		default:
			h.logger.WarnContext(ctx, "subscriber buffer full, dropping event",
				"channel", channel,
				"event", event.Name)
		}
	}
	return nil
}

// Subscribe implements Bus.
func (h *Hub) Subscribe(_ context.Context, channel uuid.UUID) (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrBusClosed
	}

	s := &hubSubscriber{ch: make(chan Event, h.buffer)}
	if h.subs[channel] == nil {
		h.subs[channel] = make(map[*hubSubscriber]struct{})
	}
	h.subs[channel][s] = struct{}{}

	h.logger.Debug("subscriber added", "channel", channel, "subscribers", len(h.subs[channel]))

	return newSubscription(s.ch, func() { h.remove(channel, s) }), nil
}

func (h *Hub) remove(channel uuid.UUID, s *hubSubscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[channel]
	if !ok {
		return
	}
	if _, ok := set[s]; !ok {
		return
	}
	delete(set, s)
	close(s.ch)
	if len(set) == 0 {
		delete(h.subs, channel)
	}
}

// SubscriberCount returns the number of open subscriptions on channel.
func (h *Hub) SubscriberCount(channel uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[channel])
}

// Close implements Bus.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	for _, set := range h.subs {
		for s := range set {
			close(s.ch)
		}
	}
	h.subs = nil
	return nil
}
