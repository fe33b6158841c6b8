package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBroker struct {
	topics []string
	err    error
}

func (b *recordingBroker) Publish(_ context.Context, topic, _ string, _ any) error {
	b.topics = append(b.topics, topic)
	return b.err
}

func TestSubscribeReceivesPublishedEvents(t *testing.T) {
	d := NewDispatcher(nil, zerolog.Nop())
	events, cancel := d.Subscribe("restaurant:1", 4)
	defer cancel()

	d.Publish("restaurant:1", EventOrderCreated, map[string]uint{"order_id": 7})

	select {
	case ev := <-events:
		assert.Equal(t, EventOrderCreated, ev.Type)
		assert.Equal(t, "restaurant:1", ev.Topic)
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestPublishIgnoresOtherTopics(t *testing.T) {
	d := NewDispatcher(nil, zerolog.Nop())
	events, cancel := d.Subscribe("order:1", 4)
	defer cancel()

	d.Publish("order:2", EventStatusChanged, nil)

	select {
	case <-events:
		t.Fatal("event leaked across topics")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	d := NewDispatcher(nil, zerolog.Nop())
	events, cancel := d.Subscribe("order:1", 4)

	cancel()
	// a second cancel is safe
	cancel()

	_, open := <-events
	assert.False(t, open)

	// publishing after unsubscribe must not panic
	d.Publish("order:1", EventStatusChanged, nil)
}

func TestFullBufferDropsInsteadOfBlocking(t *testing.T) {
	d := NewDispatcher(nil, zerolog.Nop())
	events, cancel := d.Subscribe("order:1", 1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		d.Publish("order:1", EventItemChanged, 1)
		d.Publish("order:1", EventItemChanged, 2)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}

	ev := <-events
	assert.Equal(t, 1, ev.Payload)
	assert.Empty(t, events)
}

func TestBrokerFailureDoesNotPropagate(t *testing.T) {
	broker := &recordingBroker{err: errors.New("connection reset")}
	d := NewDispatcher(broker, zerolog.Nop())

	// nothing to assert beyond "does not panic"; the error is logged only
	d.Publish("restaurant:1", EventOrderModified, nil)
	require.Len(t, broker.topics, 1)
}

func TestPublishOrderEventFansOutToBothTopics(t *testing.T) {
	d := NewDispatcher(nil, zerolog.Nop())
	restaurant, cancelR := d.Subscribe(RestaurantTopic(1), 4)
	defer cancelR()
	order, cancelO := d.Subscribe(OrderTopic(9), 4)
	defer cancelO()

	d.PublishOrderEvent(EventOrderCreated, 1, 9, nil)

	for _, ch := range []<-chan Event{restaurant, order} {
		select {
		case ev := <-ch:
			assert.Equal(t, EventOrderCreated, ev.Type)
		case <-time.After(time.Second):
			t.Fatal("fan-out event missing")
		}
	}
}

func TestTopicNames(t *testing.T) {
	assert.Equal(t, "restaurant:12", RestaurantTopic(12))
	assert.Equal(t, "order:7", OrderTopic(7))
}
