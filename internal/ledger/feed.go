package ledger

import (
	"sync"
	"time"
)

// EventKind classifies a ledger change.
type EventKind string

const (
	EventMemberAdded    EventKind = "member_added"
	EventMemberRemoved  EventKind = "member_removed"
	EventBalanceUpdated EventKind = "balance_updated"
	EventExpenseAdded   EventKind = "expense_added"
	EventPaymentSettled EventKind = "payment_settled"
)

// Event is a human-readable change record emitted after every ledger mutation.
// Events feed activity views; nothing relies on them for correctness.
type Event struct {
	GroupID string
	Kind    EventKind
	Message string
	At      time.Time
}

// Publisher receives ledger events.
type Publisher interface {
	Publish(Event)
}

// Feed fans events out to subscribers over buffered channels.
// Publish never blocks: a subscriber whose buffer is full misses the event.
type Feed struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	closed bool
}

// NewFeed creates an empty Feed.
func NewFeed() *Feed {
	return &Feed{subs: make(map[int]chan Event)}
}

// Subscribe registers a new subscriber. The returned cancel func unregisters
// it and closes the channel; calling it more than once is safe.
func (f *Feed) Subscribe(buffer int) (<-chan Event, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan Event, buffer)
	if f.closed {
		close(ch)
		return ch, func() {}
	}

	id := f.nextID
	f.nextID++
	f.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			if sub, ok := f.subs[id]; ok {
				delete(f.subs, id)
				close(sub)
			}
		})
	}
	return ch, cancel
}

// Publish delivers e to every subscriber with room in its buffer.
func (f *Feed) Publish(e Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, ch := range f.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Close closes every subscriber channel. Later subscriptions get a closed channel.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for id, ch := range f.subs {
		close(ch)
		delete(f.subs, id)
	}
	f.closed = true
}
