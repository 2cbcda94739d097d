// Package broadcast fans change notifications out to whoever is listening right now.
package broadcast

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/festy23/prtracker/internal/prkey"
)

const (
	// EventChanged names every change event.
	EventChanged = "changed"
	// ActionStatsUpdated is the message action page contexts react to.
	ActionStatsUpdated = "statsUpdated"

	defaultBuffer = 16
)

// Event tells listeners that the state of one pull request changed.
type Event struct {
	Event        string    `json:"event"`
	CanonicalKey prkey.Key `json:"canonicalKey"`
	Action       string    `json:"action"`
	PrID         prkey.Key `json:"prId"`
}

// NewEvent returns the change event for key.
func NewEvent(key prkey.Key) Event {
	return Event{
		Event:        EventChanged,
		CanonicalKey: key,
		Action:       ActionStatsUpdated,
		PrID:         key,
	}
}

// Broadcaster delivers events to current subscribers without blocking the sender.
// A subscriber whose buffer is full misses the event.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]chan Event
	buffer int
	closed bool
	logger *zap.SugaredLogger
}

// New creates a broadcaster with the default subscriber buffer.
func New(logger *zap.SugaredLogger) *Broadcaster {
	return NewWithBuffer(defaultBuffer, logger)
}

// NewWithBuffer creates a broadcaster whose subscribers buffer up to size events.
func NewWithBuffer(size int, logger *zap.SugaredLogger) *Broadcaster {
	if size < 0 {
		size = 0
	}
	return &Broadcaster{
		subs:   make(map[uuid.UUID]chan Event),
		buffer: size,
		logger: logger,
	}
}

// Notify sends the change event for key to every subscriber.
func (b *Broadcaster) Notify(key prkey.Key) {
	ev := NewEvent(key)

	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.logger.Debugw("dropping change event for slow subscriber", "subscriber", id, "key", key)
		}
	}
}

// Subscribe registers a listener. The returned function unsubscribes and closes the channel.
// Subscribing to a closed broadcaster yields a closed channel.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, b.buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := uuid.New()
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() { b.unsubscribe(id) })
	}
}

// Subscribers returns the number of current listeners.
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close removes every subscriber and closes its channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
}

func (b *Broadcaster) unsubscribe(id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		close(ch)
		delete(b.subs, id)
	}
}
