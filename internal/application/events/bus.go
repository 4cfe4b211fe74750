// Package events is the in-process event log: a fixed-capacity ring buffer of
// lifecycle events plus best-effort fan-out to live subscribers (the
// websocket hub). Consumers that fall behind lose events; the ring is the
// only replay buffer.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type classifies an event for display.
type Type string

const (
	TypeInfo    Type = "info"
	TypeScan    Type = "scan"
	TypeSignal  Type = "signal"
	TypeTrade   Type = "trade"
	TypeSettle  Type = "settle"
	TypeWarning Type = "warning"
	TypeError   Type = "error"
)

// Event is one entry in the bot's lifecycle log.
type Event struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Type      Type           `json:"type"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
}

// Bus is a bounded event log with subscriber fan-out. Publish never blocks:
// a subscriber with a full channel misses that event.
type Bus struct {
	mu   sync.Mutex
	buf  []Event
	max  int
	subs map[chan Event]struct{}
}

// NewBus creates a bus retaining the last max events.
func NewBus(max int) *Bus {
	if max <= 0 {
		max = 200
	}
	return &Bus{
		max:  max,
		subs: make(map[chan Event]struct{}),
	}
}

// Publish appends an event to the ring and fans it out.
func (b *Bus) Publish(typ Type, msg string, data map[string]any) Event {
	ev := Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Type:      typ,
		Message:   msg,
		Data:      data,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.buf = append(b.buf, ev)
	if len(b.buf) > b.max {
		b.buf = b.buf[len(b.buf)-b.max:]
	}
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return ev
}

// Recent returns up to limit events, newest first. limit <= 0 returns all.
func (b *Bus) Recent(limit int) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(b.buf)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Event, n)
	for i := 0; i < n; i++ {
		out[i] = b.buf[len(b.buf)-1-i]
	}
	return out
}

// Subscribe registers a live consumer. The returned cancel must be called to
// release the channel; after cancel the channel is closed.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 64)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}
