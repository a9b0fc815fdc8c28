// Package eventbus fans out trade, depth, and BBO events to subscribed
// market-data consumers with bounded, backpressure-aware delivery.
//
// Each symbol owns three topics: trades, depth, bbo. A subscriber registers
// a bounded sink; when the sink is full the bus drops the oldest buffered
// event rather than blocking the publisher, and notifies the subscriber via
// Lagged so slow consumers can detect and report the gap.
package eventbus

import (
	"sync"

	"go.uber.org/zap"
)

// Topic identifies one per-symbol event stream.
type Topic string

const (
	TopicTrades Topic = "trades"
	TopicDepth  Topic = "depth"
	TopicBBO    Topic = "bbo"
)

// Event is the envelope delivered to subscribers. Payload is one of
// *model.Trade, model.BookDelta, or model.BBO depending on Topic.
type Event struct {
	Symbol  string
	Topic   Topic
	Payload any
}

// DefaultBufferSize is the per-subscriber sink capacity used when none is
// specified at Subscribe time.
const DefaultBufferSize = 256

// Subscription is a live registration against the bus. Events arrive on
// Events(); Lagged() reports how many events have been dropped for this
// subscriber due to a full buffer since the last read.
type Subscription struct {
	id     int64
	ch     chan Event
	bus    *Bus
	mu     sync.Mutex
	lagged int64
}

// Events returns the channel events are delivered on.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Lagged returns and resets the number of events dropped for this
// subscriber since the last call.
func (s *Subscription) Lagged() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.lagged
	s.lagged = 0
	return n
}

func (s *Subscription) noteLag() {
	s.mu.Lock()
	s.lagged++
	s.mu.Unlock()
}

// Unsubscribe drops the subscription and releases its buffer.
func (s *Subscription) Unsubscribe() {
	s.bus.unsubscribe(s)
}

// Bus is the in-memory, single-process event fabric. A Bus is safe for
// concurrent Publish/Subscribe calls, but publication ordering within one
// (symbol, topic) pair is only guaranteed when every Publish for that pair
// comes from the same goroutine — in this system, the owning symbol lane.
type Bus struct {
	logger *zap.Logger

	mu     sync.RWMutex
	nextID int64
	subs   map[string]map[int64]*Subscription // key: symbol|topic
}

// New constructs an empty Bus.
func New(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		logger: logger,
		subs:   make(map[string]map[int64]*Subscription),
	}
}

func key(symbol string, topic Topic) string {
	return symbol + "|" + string(topic)
}

// Subscribe registers a new bounded sink for (symbol, topic). buffer <= 0
// uses DefaultBufferSize.
func (b *Bus) Subscribe(symbol string, topic Topic, buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultBufferSize
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	sub := &Subscription{id: b.nextID, ch: make(chan Event, buffer), bus: b}
	k := key(symbol, topic)
	if b.subs[k] == nil {
		b.subs[k] = make(map[int64]*Subscription)
	}
	b.subs[k][sub.id] = sub
	return sub
}

func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, set := range b.subs {
		if _, ok := set[sub.id]; ok {
			delete(set, sub.id)
			close(sub.ch)
			return
		}
	}
}

// Publish delivers an event to every subscriber of (symbol, topic) in
// publication order. A full subscriber buffer is drained by one slot
// (drop-oldest) before the new event is enqueued, and the subscriber's lag
// counter is incremented. Each Subscription carries exactly one
// (symbol, topic) pair, so ordering holds within that pair only: a consumer
// that subscribes to several topics gets one channel per topic, and the bus
// does not preserve the interleaving of events across those channels.
func (b *Bus) Publish(symbol string, topic Topic, payload any) {
	ev := Event{Symbol: symbol, Topic: topic, Payload: payload}

	b.mu.RLock()
	subs := b.subs[key(symbol, topic)]
	targets := make([]*Subscription, 0, len(subs))
	for _, s := range subs {
		targets = append(targets, s)
	}
	b.mu.RUnlock()

	for _, sub := range targets {
		deliver(sub, ev)
	}
}

func deliver(sub *Subscription, ev Event) {
	select {
	case sub.ch <- ev:
		return
	default:
	}
	// Buffer full: drop the oldest queued event to make room, per the
	// bus's drop-oldest overflow policy, then enqueue the new one.
	select {
	case <-sub.ch:
		sub.noteLag()
	default:
	}
	select {
	case sub.ch <- ev:
	default:
		// Another publisher raced us and refilled the buffer; count this
		// event as dropped rather than blocking the lane.
		sub.noteLag()
	}
}

// SubscriberCount returns the number of live subscribers for (symbol, topic),
// mainly for tests and metrics.
func (b *Bus) SubscriberCount(symbol string, topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[key(symbol, topic)])
}
