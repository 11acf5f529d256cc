// Package events is a small typed publish/subscribe layer between the
// viewer and whatever drives it.
package events

import "sync"

// Subscription removes a handler from its topic.
type Subscription interface {
	Unsubscribe()
}

type handler[E any] struct {
	id uint64
	fn func(E)
}

// Topic delivers events of one type to its subscribers, in the order they
// subscribed. The zero value is ready to use.
type Topic[E any] struct {
	mu       sync.Mutex
	next     uint64
	handlers []handler[E]
}

func (t *Topic[E]) Subscribe(fn func(E)) Subscription {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	t.handlers = append(t.handlers, handler[E]{id: t.next, fn: fn})
	return &subscription[E]{topic: t, id: t.next}
}

// Publish calls every handler synchronously on the calling goroutine.
// Handlers may subscribe or unsubscribe while being called; the change
// applies to the next Publish.
func (t *Topic[E]) Publish(e E) {
	t.mu.Lock()
	handlers := make([]handler[E], len(t.handlers))
	copy(handlers, t.handlers)
	t.mu.Unlock()

	for _, h := range handlers {
		h.fn(e)
	}
}

func (t *Topic[E]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.handlers)
}

func (t *Topic[E]) remove(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, h := range t.handlers {
		if h.id == id {
			t.handlers = append(t.handlers[:i:i], t.handlers[i+1:]...)
			return
		}
	}
}

type subscription[E any] struct {
	topic *Topic[E]
	id    uint64
	once  sync.Once
}

func (s *subscription[E]) Unsubscribe() {
	s.once.Do(func() { s.topic.remove(s.id) })
}

// Group collects subscriptions so a component can drop all of them on
// teardown.
type Group struct {
	mu   sync.Mutex
	subs []Subscription
}

func (g *Group) Add(subs ...Subscription) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.subs = append(g.subs, subs...)
}

// Unsubscribe removes every subscription in reverse order of addition.
func (g *Group) Unsubscribe() {
	g.mu.Lock()
	subs := g.subs
	g.subs = nil
	g.mu.Unlock()

	for i := len(subs) - 1; i >= 0; i-- {
		subs[i].Unsubscribe()
	}
}
