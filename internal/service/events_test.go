package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventBusPublish(t *testing.T) {
	bus := NewEventBus()
	ch := make(chan Event, 2)
	bus.Subscribe(ch)

	bus.Publish(Event{Type: EventDeviceUpdated, Payload: "x"})
	got := <-ch
	assert.Equal(t, EventDeviceUpdated, got.Type)
	assert.Equal(t, "x", got.Payload)

	bus.Unsubscribe(ch)
	bus.Publish(Event{Type: EventDeviceUpdated})
	assert.Len(t, ch, 0)
}

func TestEventBusSkipsSlowSubscriber(t *testing.T) {
	bus := NewEventBus()
	slow := make(chan Event)
	fast := make(chan Event, 1)
	bus.Subscribe(slow)
	bus.Subscribe(fast)

	bus.Publish(Event{Type: EventDiscoveryStarted})

	assert.Len(t, fast, 1)
}

func TestEventBusDiscoveryEvent(t *testing.T) {
	bus := NewEventBus()
	ch := make(chan Event, 1)
	bus.Subscribe(ch)

	bus.PublishDiscoveryEvent("discovery-progress", map[string]interface{}{"ip": "10.0.0.1"})
	got := <-ch
	assert.Equal(t, EventDiscoveryProgress, got.Type)
}
