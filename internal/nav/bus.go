package nav

import "sync"

// SubscriberID identifies a Bus subscription.
type SubscriberID uint64

// Bus fans events out to subscriber channels.
//
// Each subscriber channel holds a single event. Publish never blocks: if a
// subscriber has not taken the previous event it is replaced, so a slow
// consumer always sees the most recent notification.
type Bus struct {
	mu     sync.Mutex
	subs   map[SubscriberID]chan Event
	nextID SubscriberID
	closed bool
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[SubscriberID]chan Event)}
}

// Subscribe returns a new subscription and its channel.
// The channel is closed by Unsubscribe or Close.
func (b *Bus) Subscribe() (SubscriberID, <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 1)
	if b.closed {
		close(ch)
		return 0, ch
	}
	b.nextID++
	b.subs[b.nextID] = ch
	return b.nextID, ch
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Bus) Unsubscribe(id SubscriberID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish delivers evt to every subscriber, replacing any event the
// subscriber has not yet received.
func (b *Bus) Publish(evt Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- evt:
			continue
		default:
		}
		// Full: drop the stale event and retry once. Holding mu means
		// no other publisher can refill the slot in between.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- evt:
		default:
		}
	}
}

// Close unsubscribes everyone. Publish after Close is a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	b.closed = true
}
