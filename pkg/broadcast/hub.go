// Package broadcast fans a single writer's latest value out to any number of readers.
package broadcast

import (
	"context"
	"sync"
)

// Hub keeps the most recent published value and delivers it to subscribers.
// Each subscriber channel holds at most one pending value: a reader that falls
// behind skips intermediate values and receives the newest one. Publish never
// blocks on readers.
type Hub[T any] struct {
	mu      sync.Mutex
	current T
	hasVal  bool
	subs    map[chan T]struct{}
	closed  bool
	done    chan struct{}
}

func NewHub[T any]() *Hub[T] {
	return &Hub[T]{subs: make(map[chan T]struct{}), done: make(chan struct{})}
}

// NewHubWith creates a hub that already holds an initial value.
func NewHubWith[T any](initial T) *Hub[T] {
	h := NewHub[T]()
	h.current = initial
	h.hasVal = true
	return h
}

func (h *Hub[T]) Publish(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.current = v
	h.hasVal = true
	for ch := range h.subs {
		offer(ch, v)
	}
}

// Current returns the last published value and whether one exists.
func (h *Hub[T]) Current() (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current, h.hasVal
}

// Subscribe returns a channel that first receives the current value (if any)
// and then every later one. The channel is closed when ctx is done or the hub
// is closed.
func (h *Hub[T]) Subscribe(ctx context.Context) <-chan T {
	ch := make(chan T, 1)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch
	}
	if h.hasVal {
		ch <- h.current
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			h.unsubscribe(ch)
		case <-h.done:
		}
	}()

	return ch
}

func (h *Hub[T]) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.done)
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}

func (h *Hub[T]) unsubscribe(ch chan T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[ch]; !ok {
		return
	}
	delete(h.subs, ch)
	close(ch)
}

// offer replaces a pending stale value with v. Callers hold h.mu, so no other
// sender races on ch.
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}
