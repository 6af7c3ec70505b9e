// Package bus provides the in-process subscription channel of the fanout.
// It is constructed explicitly and injected; there is no process-global
// instance. Delivery is synchronous and lossy: a publish with no listener
// attached is dropped, there is no buffering beyond each subscriber's
// channel and no replay.
package bus

import (
	"log/slog"
	"sync"
	"time"
)

// Message is one published payload on a topic.
type Message struct {
	Topic     string
	Payload   any
	Timestamp time.Time
}

type subscriber struct {
	id int
	ch chan Message
}

// Bus routes messages to subscribers matching exactly the published topic.
type Bus struct {
	mu     sync.RWMutex
	topics map[string]map[int]*subscriber
	nextID int
}

// New returns an empty bus.
func New() *Bus {
	return &Bus{topics: make(map[string]map[int]*subscriber)}
}

// Subscribe attaches a listener to a topic and returns its stream plus a
// cancel function. Cancel is idempotent and closes the stream.
func (b *Bus) Subscribe(topic string, buffer int) (<-chan Message, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	sub := &subscriber{ch: make(chan Message, buffer)}

	b.mu.Lock()
	b.nextID++
	sub.id = b.nextID
	if b.topics[topic] == nil {
		b.topics[topic] = make(map[int]*subscriber)
	}
	b.topics[topic][sub.id] = sub
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			if subs, ok := b.topics[topic]; ok {
				delete(subs, sub.id)
				if len(subs) == 0 {
					delete(b.topics, topic)
				}
			}
			b.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Publish delivers the payload to every listener currently attached to the
// exact topic. A subscriber whose buffer is full misses the message; the
// publisher never blocks.
func (b *Bus) Publish(topic string, payload any) {
	msg := Message{Topic: topic, Payload: payload, Timestamp: time.Now().UTC()}

	// Sends stay under the read lock so a concurrent cancel cannot close a
	// channel mid-send; they are non-blocking, so the lock is held briefly.
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.topics[topic] {
		select {
		case sub.ch <- msg:
		default:
			slog.Debug("bus subscriber buffer full, message dropped", slog.String("topic", topic))
		}
	}
}

// SubscriberCount reports how many listeners a topic currently has.
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}
