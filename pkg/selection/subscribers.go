package selection

import (
	"sync"
	"sync/atomic"
)

// subscription is one registered callback.
// deliver holds mu for the whole callback, so a subscriber never sees two
// values at once and never sees them out of order.
type subscription[T any] struct {
	id     uint64
	fn     func(T)
	mu     sync.Mutex
	active atomic.Bool
}

func (s *subscription[T]) deliver(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active.Load() {
		return
	}
	s.fn(v)
}

// subscriberList is an ordered observer list.
type subscriberList[T any] struct {
	mu     sync.Mutex
	nextID uint64
	subs   []*subscription[T]
}

// add appends fn and returns its subscription, already active.
func (l *subscriberList[T]) add(fn func(T)) *subscription[T] {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	sub := &subscription[T]{id: l.nextID, fn: fn}
	sub.active.Store(true)
	l.subs = append(l.subs, sub)
	return sub
}

// remove deactivates sub and drops it from the list, keeping the order of
// the remaining subscribers.
func (l *subscriberList[T]) remove(sub *subscription[T]) {
	sub.active.Store(false)

	l.mu.Lock()
	defer l.mu.Unlock()

	for i, existing := range l.subs {
		if existing.id == sub.id {
			l.subs = append(l.subs[:i:i], l.subs[i+1:]...)
			return
		}
	}
}

// snapshot copies the list so callbacks run without holding the lock.
func (l *subscriberList[T]) snapshot() []*subscription[T] {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]*subscription[T], len(l.subs))
	copy(out, l.subs)
	return out
}

func (l *subscriberList[T]) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs)
}
