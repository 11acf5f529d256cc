package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishInSubscriptionOrder(t *testing.T) {
	var topic Topic[int]
	var got []string

	topic.Subscribe(func(v int) { got = append(got, "a") })
	topic.Subscribe(func(v int) { got = append(got, "b") })
	topic.Subscribe(func(v int) { got = append(got, "c") })

	topic.Publish(1)
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestUnsubscribe(t *testing.T) {
	var topic Topic[string]
	var got []string

	a := topic.Subscribe(func(v string) { got = append(got, "a:"+v) })
	topic.Subscribe(func(v string) { got = append(got, "b:"+v) })

	a.Unsubscribe()
	a.Unsubscribe()
	topic.Publish("x")

	assert.Equal(t, []string{"b:x"}, got)
	assert.Equal(t, 1, topic.Len())
}

func TestUnsubscribeDuringPublish(t *testing.T) {
	var topic Topic[int]
	calls := 0

	var sub Subscription
	sub = topic.Subscribe(func(int) {
		calls++
		sub.Unsubscribe()
	})

	topic.Publish(1)
	topic.Publish(2)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, topic.Len())
}

func TestGroup(t *testing.T) {
	bus := NewBus()
	var g Group
	var pages []int

	g.Add(
		bus.PageChanged.Subscribe(func(e PageChanged) { pages = append(pages, e.Page) }),
		bus.ZoomChanged.Subscribe(func(ZoomChanged) {}),
	)
	bus.PageChanged.Publish(PageChanged{Page: 2})

	g.Unsubscribe()
	bus.PageChanged.Publish(PageChanged{Page: 3})

	assert.Equal(t, []int{2}, pages)
	assert.Equal(t, 0, bus.PageChanged.Len())
	assert.Equal(t, 0, bus.ZoomChanged.Len())
}
