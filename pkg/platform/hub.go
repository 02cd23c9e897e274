package platform

import (
	"sync"
)

// Hub fans events out to subscribers. Backends publish from their own goroutines; handlers are
// invoked synchronously in publish order.
//
// A handler must not call Unsubscribe on its own subscription, since Unsubscribe waits for
// in-flight deliveries to return.
type Hub struct {
	lock     sync.RWMutex
	nextID   int
	handlers map[int]func(Event)
}

func NewHub() *Hub {
	return &Hub{handlers: make(map[int]func(Event))}
}

func (h *Hub) Subscribe(handler func(Event)) Subscription {
	h.lock.Lock()
	defer h.lock.Unlock()
	id := h.nextID
	h.nextID++
	h.handlers[id] = handler
	return &hubSubscription{hub: h, id: id}
}

// Publish delivers e to every current subscriber.
func (h *Hub) Publish(e Event) {
	h.lock.RLock()
	defer h.lock.RUnlock()
	for _, handler := range h.handlers {
		handler(e)
	}
}

// Len returns the number of active subscriptions.
func (h *Hub) Len() int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.handlers)
}

type hubSubscription struct {
	hub  *Hub
	id   int
	once sync.Once
}

func (s *hubSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.hub.lock.Lock()
		defer s.hub.lock.Unlock()
		delete(s.hub.handlers, s.id)
	})
}
