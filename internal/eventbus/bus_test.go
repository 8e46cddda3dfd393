package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	Name string
}

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	bus := New[testEvent]()
	_, ch1 := bus.Subscribe()
	_, ch2 := bus.Subscribe()

	bus.Publish(testEvent{Name: "NewPhy"})

	select {
	case ev := <-ch1:
		assert.Equal(t, "NewPhy", ev.Name)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ch1")
	}
	select {
	case ev := <-ch2:
		assert.Equal(t, "NewPhy", ev.Name)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ch2")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := New[testEvent]()
	id, ch := bus.Subscribe()
	bus.Unsubscribe(id)

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, bus.SubscriberCount())
}

func TestPublishNeverBlocksOnSlowSubscriber(t *testing.T) {
	bus := New[testEvent]()
	_, ch := bus.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 64; i++ {
			bus.Publish(testEvent{Name: "spam"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full subscriber channel")
	}
	require.NotNil(t, ch)
}
