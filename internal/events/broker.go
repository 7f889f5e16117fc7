package events

import (
	"sync"

	"github.com/leandro-lugaresi/hub"

	"hologram/internal/library"
	"hologram/internal/logging"
	"hologram/internal/metrics"
)

const (
	// TopicProgress carries ScanProgress updates.
	TopicProgress = "scan.progress"
	// TopicComplete is published once per scan after the index is stable.
	TopicComplete = "scan.complete"

	eventField = "event"
)

// DefaultCapacity is the per-subscriber buffer used when none is given.
const DefaultCapacity = 64

// Event is a single scan notification.
type Event struct {
	Topic    string               `json:"topic"`
	ScanID   string               `json:"scan_id"`
	Root     string               `json:"root,omitempty"`
	Progress library.ScanProgress `json:"progress"`
	Outcome  library.Outcome      `json:"outcome,omitempty"`
	Photos   int                  `json:"photos,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// IsComplete reports whether e is a completion event.
func (e Event) IsComplete() bool {
	return e.Topic == TopicComplete
}

// Broker fans scan events out to subscribers.
type Broker struct {
	hub      *hub.Hub
	capacity int

	// mu orders Publish against Unsubscribe so a message is never sent on
	// a subscriber channel the hub has already closed.
	mu     sync.Mutex
	closed bool

	subsMu sync.Mutex
	subs   map[*Subscription]struct{}
}

// NewBroker creates a Broker whose subscribers buffer up to capacity events.
func NewBroker(capacity int) *Broker {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Broker{
		hub:      hub.New(),
		capacity: capacity,
		subs:     make(map[*Subscription]struct{}),
	}
}

// Publish delivers e to every subscriber of e.Topic. It blocks while a
// subscriber's buffer is full. Publishing on a closed Broker is a no-op.
func (b *Broker) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.hub.Publish(hub.Message{
		Name:   e.Topic,
		Fields: hub.Fields{eventField: e},
	})
	metrics.EventsPublished.WithLabelValues(e.Topic).Inc()
}

// PublishProgress is shorthand for a TopicProgress event.
func (b *Broker) PublishProgress(scanID string, p library.ScanProgress) {
	b.Publish(Event{Topic: TopicProgress, ScanID: scanID, Progress: p})
}

// Subscribe registers for the given topics, or both scan topics when none
// are given. The caller must Close the returned Subscription.
func (b *Broker) Subscribe(topics ...string) *Subscription {
	if len(topics) == 0 {
		topics = []string{TopicProgress, TopicComplete}
	}

	s := &Subscription{
		broker: b,
		out:    make(chan Event, b.capacity),
		done:   make(chan struct{}),
	}

	b.subsMu.Lock()
	if b.isClosed() {
		b.subsMu.Unlock()
		s.closeOnce.Do(func() { close(s.done) })
		close(s.out)
		return s
	}
	s.sub = b.hub.Subscribe(b.capacity, topics...)
	b.subs[s] = struct{}{}
	b.subsMu.Unlock()

	metrics.EventSubscribers.Inc()
	go s.pump()
	return s
}

func (b *Broker) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *Broker) release(s *Subscription) {
	b.subsMu.Lock()
	_, ok := b.subs[s]
	delete(b.subs, s)
	b.subsMu.Unlock()
	if !ok {
		return
	}

	b.mu.Lock()
	if !b.closed {
		b.hub.Unsubscribe(s.sub)
	}
	b.mu.Unlock()
	metrics.EventSubscribers.Dec()
}

// Close releases every subscription and stops accepting events.
func (b *Broker) Close() {
	b.subsMu.Lock()
	subs := make([]*Subscription, 0, len(b.subs))
	for s := range b.subs {
		subs = append(subs, s)
	}
	b.subsMu.Unlock()

	for _, s := range subs {
		s.Close()
	}

	b.mu.Lock()
	if !b.closed {
		b.closed = true
		b.hub.Close()
	}
	b.mu.Unlock()
	logging.Debug("Event broker closed")
}
