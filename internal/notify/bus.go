package notify

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrBusClosed is returned by operations on a closed Bus.
var ErrBusClosed = errors.New("notification bus is closed")

// Publisher hands an event off for delivery to a user's channel.
// Publish never blocks on delivery and never fails the caller.
type Publisher interface {
	Publish(ctx context.Context, channel uuid.UUID, event Event)
}

// Bus is a per-user publish/subscribe transport.
type Bus interface {
	// Publish delivers event to every current subscriber of channel.
	Publish(ctx context.Context, channel uuid.UUID, event Event) error

	// Subscribe registers a listener on channel. The caller must Close the
	// returned Subscription.
	Subscribe(ctx context.Context, channel uuid.UUID) (*Subscription, error)

	// Close releases the bus and ends every open subscription.
	Close() error
}

// Subscription receives the events published to one channel. C is closed
// when the subscription ends.
type Subscription struct {
	C <-chan Event

	once    sync.Once
	onClose func()
}

func newSubscription(c <-chan Event, onClose func()) *Subscription {
	return &Subscription{C: c, onClose: onClose}
}

// Close stops delivery. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(s.onClose)
}
