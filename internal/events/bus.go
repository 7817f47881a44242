// Package events provides a non-blocking pub/sub bus for job lifecycle
// events.
package events

import (
	"sync"
	"time"
)

// Type identifies a job lifecycle event.
type Type string

const (
	// JobDiscovered is published the first cycle a job appears.
	JobDiscovered Type = "job_discovered"
	// JobFinished is published the cycle a job vanishes from the snapshot.
	JobFinished Type = "job_finished"
	// DetailAttached is published when an enrichment result lands on a job.
	DetailAttached Type = "detail_attached"
)

// Event is one job lifecycle event.
type Event struct {
	Type      Type
	Timestamp time.Time
	JobID     int64
	Name      string
	User      string
}

// Subscriber receives events for one event type.
type Subscriber func(Event)

// Bus fans events out to subscribers through buffered channels. Publishing
// never blocks; a subscriber that falls behind loses events silently, which
// is fine for cosmetic consumers like notifications.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[Type][]chan Event
	bufferSize  int
}

// NewBus creates a bus with the given per-subscriber buffer size.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Bus{
		subscribers: make(map[Type][]chan Event),
		bufferSize:  bufferSize,
	}
}

// Subscribe registers fn for one event type and returns an unsubscribe
// function. Delivery happens on a dedicated goroutine per subscriber.
func (b *Bus) Subscribe(t Type, fn Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.bufferSize)
	b.subscribers[t] = append(b.subscribers[t], ch)

	go func() {
		for ev := range ch {
			fn(ev)
		}
	}()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subscribers[t]
		for i, c := range subs {
			if c == ch {
				b.subscribers[t] = append(subs[:i], subs[i+1:]...)
				close(ch)
				break
			}
		}
	}
}

// Publish delivers the event to every subscriber of its type, dropping it
// for subscribers whose buffer is full.
func (b *Bus) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers[ev.Type] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Close closes all subscriber channels and clears subscriptions.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for t, subs := range b.subscribers {
		for _, ch := range subs {
			close(ch)
		}
		delete(b.subscribers, t)
	}
}
