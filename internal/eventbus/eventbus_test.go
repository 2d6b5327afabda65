package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := New()
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Publish("hello")
	assert.Equal(t, Event("hello"), <-ch1)
	assert.Equal(t, Event("hello"), <-ch2)

	bus.Unsubscribe(ch1)
	_, ok := <-ch1
	assert.False(t, ok)
	bus.Publish("again")
	assert.Equal(t, Event("again"), <-ch2)
}

func TestBusClose(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	bus.Close()
	_, ok := <-ch
	assert.False(t, ok)

	late := bus.Subscribe()
	_, ok = <-late
	assert.False(t, ok)

	require.NotPanics(t, func() {
		bus.Publish("ignored")
		bus.Unsubscribe(ch)
		bus.Close()
	})
}

func TestBusCountsDrops(t *testing.T) {
	bus := NewWithBuffer(2)
	ch := bus.Subscribe()
	for i := 0; i < 5; i++ {
		bus.Publish(i)
	}
	assert.Equal(t, uint64(3), bus.Dropped())
	assert.Equal(t, Event(0), <-ch)
	assert.Equal(t, Event(1), <-ch)
}
