// Package events provides a topic-scoped publish/subscribe bus.
//
// Subscriptions are buffered and a full buffer drops the event for that
// subscriber rather than blocking the publisher. Closing a topic closes every
// subscription to it, which is how console-scoped listeners are torn down.
package events

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultBuffer is the per-subscription channel capacity
const DefaultBuffer = 64

const (
	// TopicWindow carries engagement window changes
	TopicWindow = "window"
	// TopicConsole carries console lifecycle changes (opened, closed)
	TopicConsole = "console"
)

// ConsoleTopic returns the topic of one console's events
func ConsoleTopic(consoleID string) string {
	return "console:" + consoleID
}

// Event is one published change
type Event struct {
	Seq       uint64    `json:"seq"`
	Topic     string    `json:"topic"`
	Type      string    `json:"type"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Subscription receives a topic's events until closed
type Subscription struct {
	id    uint64
	topic string
	ch    chan Event
	bus   *Bus
	once  sync.Once
}

// C returns the event channel. It is closed when the subscription ends.
func (s *Subscription) C() <-chan Event { return s.ch }

// Topic returns the subscribed topic
func (s *Subscription) Topic() string { return s.topic }

// Close ends the subscription; safe to call more than once
func (s *Subscription) Close() {
	s.bus.remove(s)
}

// Bus routes events to topic subscribers
type Bus struct {
	mu      sync.RWMutex
	topics  map[string]map[uint64]*Subscription
	nextID  uint64
	buffer  int
	seq     atomic.Uint64
	dropped atomic.Uint64
	closed  bool
}

// NewBus creates a bus; buffer <= 0 means DefaultBuffer
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Bus{
		topics: make(map[string]map[uint64]*Subscription),
		buffer: buffer,
	}
}

// Subscribe registers for topic. On a closed bus the subscription is
// returned already closed.
func (b *Bus) Subscribe(topic string) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{id: b.nextID, topic: topic, ch: make(chan Event, b.buffer), bus: b}
	if b.closed {
		sub.once.Do(func() { close(sub.ch) })
		return sub
	}

	subs, ok := b.topics[topic]
	if !ok {
		subs = make(map[uint64]*Subscription)
		b.topics[topic] = subs
	}
	subs[sub.id] = sub
	return sub
}

// Publish delivers an event to the topic's current subscribers
func (b *Bus) Publish(topic, eventType string, payload any) {
	event := Event{
		Seq:       b.seq.Add(1),
		Topic:     topic,
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.topics[topic] {
		select {
		case sub.ch <- event:
		default:
			b.dropped.Add(1)
		}
	}
}

// CloseTopic ends every subscription to topic
func (b *Bus) CloseTopic(topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.topics[topic] {
		sub.once.Do(func() { close(sub.ch) })
	}
	delete(b.topics, topic)
}

// Close ends all subscriptions; later subscriptions start closed
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for topic, subs := range b.topics {
		for _, sub := range subs {
			sub.once.Do(func() { close(sub.ch) })
		}
		delete(b.topics, topic)
	}
	b.closed = true
}

// Subscribers returns the number of live subscriptions to topic
func (b *Bus) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}

// Dropped returns how many deliveries were skipped because a buffer was full
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

func (b *Bus) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if subs, ok := b.topics[sub.topic]; ok {
		delete(subs, sub.id)
		if len(subs) == 0 {
			delete(b.topics, sub.topic)
		}
	}
	sub.once.Do(func() { close(sub.ch) })
}
