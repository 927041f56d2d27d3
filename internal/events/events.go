// Package events models the host side of the speed estimator: something that
// produces "a keystroke happened at T" notifications and the listeners that
// consume them.
package events

import (
	"sync"
	"time"
)

type Listener interface {
	OnEvent(now time.Time)
}

// ListenerFunc adapts a function to a Listener.
type ListenerFunc func(now time.Time)

func (f ListenerFunc) OnEvent(now time.Time) {
	f(now)
}

type Subscription interface {
	Close() error
}

type Source interface {
	Subscribe(l Listener) Subscription
}

// Hub fans out published events to every subscribed listener, in
// subscription order. Publish calls are serialised. Listeners run without the
// hub lock held, so they may subscribe or close subscriptions from OnEvent.
type Hub struct {
	publishMu sync.Mutex

	mu        sync.Mutex
	nextID    uint64
	listeners map[uint64]Listener
	order     []uint64
	closed    bool
}

func NewHub() *Hub {
	return &Hub{
		listeners: make(map[uint64]Listener),
	}
}

func (h *Hub) Subscribe(l Listener) Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++

	if !h.closed {
		h.listeners[id] = l
		h.order = append(h.order, id)
	}

	return &subscription{hub: h, id: id}
}

func (h *Hub) Publish(now time.Time) {
	h.publishMu.Lock()
	defer h.publishMu.Unlock()

	for _, l := range h.snapshot() {
		l.OnEvent(now)
	}
}

func (h *Hub) snapshot() []Listener {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}

	listeners := make([]Listener, 0, len(h.order))
	for _, id := range h.order {
		listeners = append(listeners, h.listeners[id])
	}

	return listeners
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.order)
}

// Close drops every listener. Later Publish calls are no-ops.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	h.listeners = make(map[uint64]Listener)
	h.order = nil
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.listeners[id]; !ok {
		return
	}
	delete(h.listeners, id)

	for i, v := range h.order {
		if v == id {
			h.order = append(h.order[:i], h.order[i+1:]...)

			break
		}
	}
}

type subscription struct {
	hub  *Hub
	id   uint64
	once sync.Once
}

func (s *subscription) Close() error {
	s.once.Do(func() {
		s.hub.unsubscribe(s.id)
	})

	return nil
}
