// Package notify fans post-commit order events out to subscribers grouped
// by restaurant and by order. Delivery is best-effort: it never blocks and
// never fails the commit that produced the event.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event types emitted by the order orchestrator.
const (
	EventOrderCreated  = "order.created"
	EventStatusChanged = "order.status_changed"
	EventItemChanged   = "order.item_changed"
	EventOrderModified = "order.modified"
)

// Event is one notification payload.
type Event struct {
	Topic     string    `json:"topic"`
	Type      string    `json:"type"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// BrokerPublisher is the outbound broker leg (AMQP in production).
type BrokerPublisher interface {
	Publish(ctx context.Context, topic, eventType string, payload any) error
}

// RestaurantTopic groups events for every order of one restaurant.
func RestaurantTopic(restaurantID uint) string {
	return fmt.Sprintf("restaurant:%d", restaurantID)
}

// OrderTopic groups events for a single order.
func OrderTopic(orderID uint) string {
	return fmt.Sprintf("order:%d", orderID)
}

// Dispatcher owns the subscription registry. Subscriptions are keyed by
// topic; sends to slow subscribers are dropped rather than blocking.
type Dispatcher struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]chan Event

	broker BrokerPublisher
	log    zerolog.Logger

	publishTimeout time.Duration
}

// NewDispatcher builds a dispatcher. broker may be nil when no external
// broker is configured; local subscribers still receive events.
func NewDispatcher(broker BrokerPublisher, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		subs:           make(map[string]map[int]chan Event),
		broker:         broker,
		log:            log,
		publishTimeout: 10 * time.Second,
	}
}

// Subscribe registers a buffered channel for a topic and returns it with an
// unsubscribe func. Unsubscribing closes the channel.
func (d *Dispatcher) Subscribe(topic string, buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	d.mu.Lock()
	d.nextID++
	id := d.nextID
	if d.subs[topic] == nil {
		d.subs[topic] = make(map[int]chan Event)
	}
	d.subs[topic][id] = ch
	d.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			d.mu.Lock()
			if subs, ok := d.subs[topic]; ok {
				delete(subs, id)
				if len(subs) == 0 {
					delete(d.subs, topic)
				}
			}
			d.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber of the topic and to the
// broker. Failures are logged and discarded.
func (d *Dispatcher) Publish(topic, eventType string, payload any) {
	ev := Event{Topic: topic, Type: eventType, Payload: payload, Timestamp: time.Now().UTC()}

	d.mu.RLock()
	for _, ch := range d.subs[topic] {
		select {
		case ch <- ev:
		default:
			d.log.Warn().Str("topic", topic).Str("type", eventType).
				Msg("subscriber buffer full, event dropped")
		}
	}
	d.mu.RUnlock()

	if d.broker == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.publishTimeout)
	defer cancel()
	if err := d.broker.Publish(ctx, topic, eventType, payload); err != nil {
		d.log.Error().Err(err).Str("topic", topic).Str("type", eventType).
			Msg("broker publish failed")
	}
}

// PublishOrderEvent posts the event to both the restaurant and the order
// topic asynchronously. Intended to be called right after a successful
// commit; it never reports failure to the caller.
func (d *Dispatcher) PublishOrderEvent(eventType string, restaurantID, orderID uint, payload any) {
	go func() {
		d.Publish(RestaurantTopic(restaurantID), eventType, payload)
		d.Publish(OrderTopic(orderID), eventType, payload)
	}()
}
