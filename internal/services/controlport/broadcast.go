package controlport

import (
	"sync"
	"sync/atomic"

	"github.com/lucsky/cuid"
)

// buttonChannelCapacity bounds each subscriber's event buffer. Overflow is
// signaled as lag, never as blocking of the producer.
const buttonChannelCapacity = 100

// ButtonSubscription receives every button vector delivered after the
// subscription was created. A slow consumer does not see individual drops;
// it observes a non-zero Lagged count and resynchronizes from the next event.
type ButtonSubscription struct {
	id     string
	ch     chan []bool
	lagged atomic.Uint64
	b      *buttonBroadcaster
}

// Events is the stream of button vectors.
func (s *ButtonSubscription) Events() <-chan []bool {
	return s.ch
}

// Lagged reports how many events were dropped since the last call and resets
// the counter.
func (s *ButtonSubscription) Lagged() uint64 {
	return s.lagged.Swap(0)
}

// Close detaches the subscription from its broadcaster.
func (s *ButtonSubscription) Close() {
	s.b.unsubscribe(s.id)
}

// buttonBroadcaster fans button vectors out to any number of subscriptions.
type buttonBroadcaster struct {
	mu   sync.RWMutex
	subs map[string]*ButtonSubscription
}

func newButtonBroadcaster() *buttonBroadcaster {
	return &buttonBroadcaster{subs: make(map[string]*ButtonSubscription)}
}

// Subscribe registers a new consumer.
func (b *buttonBroadcaster) Subscribe() *ButtonSubscription {
	sub := &ButtonSubscription{
		id: cuid.New(),
		ch: make(chan []bool, buttonChannelCapacity),
		b:  b,
	}
	b.mu.Lock()
	b.subs[sub.id] = sub
	b.mu.Unlock()
	return sub
}

func (b *buttonBroadcaster) unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(sub.ch)
	}
}

// Publish delivers the vector to every subscriber without blocking.
func (b *buttonBroadcaster) Publish(buttons []bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		select {
		case sub.ch <- buttons:
		default:
			sub.lagged.Add(1)
		}
	}
}

// SubscriberCount returns the number of live subscriptions.
func (b *buttonBroadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
