package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSubscribe(t *testing.T) {
	bus := NewBus(4)
	window := bus.Subscribe(TopicWindow)
	console := bus.Subscribe(ConsoleTopic("c1"))

	bus.Publish(TopicWindow, "window.attached", "node-1")

	event := <-window.C()
	assert.Equal(t, TopicWindow, event.Topic)
	assert.Equal(t, "window.attached", event.Type)
	assert.Equal(t, "node-1", event.Payload)
	assert.NotZero(t, event.Seq)

	select {
	case e := <-console.C():
		t.Fatalf("console subscriber got %v", e)
	default:
	}
}

func TestCloseTopic(t *testing.T) {
	bus := NewBus(4)
	a := bus.Subscribe(ConsoleTopic("c1"))
	b := bus.Subscribe(ConsoleTopic("c1"))
	other := bus.Subscribe(ConsoleTopic("c2"))
	require.Equal(t, 2, bus.Subscribers(ConsoleTopic("c1")))

	bus.CloseTopic(ConsoleTopic("c1"))

	_, open := <-a.C()
	assert.False(t, open)
	_, open = <-b.C()
	assert.False(t, open)
	assert.Equal(t, 0, bus.Subscribers(ConsoleTopic("c1")))
	assert.Equal(t, 1, bus.Subscribers(ConsoleTopic("c2")))

	// Closing an already closed subscription is a no-op
	a.Close()
	other.Close()
	assert.Equal(t, 0, bus.Subscribers(ConsoleTopic("c2")))
}

func TestSlowSubscriberDrops(t *testing.T) {
	bus := NewBus(2)
	sub := bus.Subscribe(TopicWindow)

	for i := 0; i < 5; i++ {
		bus.Publish(TopicWindow, "tick", i)
	}

	assert.Len(t, sub.C(), 2)
	assert.Equal(t, uint64(3), bus.Dropped())
}

func TestCloseBus(t *testing.T) {
	bus := NewBus(1)
	sub := bus.Subscribe(TopicWindow)
	bus.Close()

	_, open := <-sub.C()
	assert.False(t, open)

	late := bus.Subscribe(TopicWindow)
	_, open = <-late.C()
	assert.False(t, open)
	late.Close()
}

func TestConcurrentPublishAndClose(t *testing.T) {
	bus := NewBus(8)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sub := bus.Subscribe(TopicWindow)
			sub.Close()
		}()
		go func() {
			defer wg.Done()
			bus.Publish(TopicWindow, "tick", nil)
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, bus.Subscribers(TopicWindow))
}
