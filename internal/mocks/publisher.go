package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/notify"
)

// Published is one call to RecordingPublisher.Publish.
type Published struct {
	Channel uuid.UUID
	Event   notify.Event
}

// RecordingPublisher implements notify.Publisher by remembering every event.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []Published
}

var _ notify.Publisher = (*RecordingPublisher)(nil)

// Publish implements notify.Publisher
func (p *RecordingPublisher) Publish(_ context.Context, channel uuid.UUID, event notify.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, Published{Channel: channel, Event: event})
}

// Events returns a copy of every published event.
func (p *RecordingPublisher) Events() []Published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Published(nil), p.events...)
}

// For returns the events published to channel.
func (p *RecordingPublisher) For(channel uuid.UUID) []notify.Event {
	var out []notify.Event
	for _, e := range p.Events() {
		if e.Channel == channel {
			out = append(out, e.Event)
		}
	}
	return out
}
