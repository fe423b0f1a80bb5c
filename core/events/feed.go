package events

import "sync"

// Feed fans committed events out to subscribers. Slow subscribers drop events
// rather than blocking the ledger.
type Feed struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]chan Event
	size   int
	onDrop func()
}

// NewFeed constructs a feed whose subscriber channels hold size events.
func NewFeed(size int) *Feed {
	if size <= 0 {
		size = 64
	}
	return &Feed{subs: make(map[uint64]chan Event), size: size}
}

// SetDropHook registers a callback invoked for every event a subscriber
// missed.
func (f *Feed) SetDropHook(hook func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onDrop = hook
}

// Emit implements the Emitter interface.
func (f *Feed) Emit(evt Event) {
	if f == nil || evt == nil {
		return
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, ch := range f.subs {
		select {
		case ch <- evt:
		default:
			if f.onDrop != nil {
				f.onDrop()
			}
		}
	}
}

// Subscribe registers a new subscriber. The returned cancel function must be
// called to release the subscription.
func (f *Feed) Subscribe() (<-chan Event, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := f.nextID
	ch := make(chan Event, f.size)
	f.subs[id] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			close(ch)
			f.mu.Unlock()
		})
	}
}

// Multi emits every event to each of the wrapped emitters in order.
type Multi []Emitter

// Emit implements the Emitter interface.
func (m Multi) Emit(evt Event) {
	for _, e := range m {
		if e != nil {
			e.Emit(evt)
		}
	}
}
