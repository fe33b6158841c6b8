package handlers

import (
	"io"

	"restaurant-pos-api/notify"

	"github.com/gin-gonic/gin"
)

// StreamRestaurantEvents streams a restaurant's order events over SSE
func StreamRestaurantEvents(c *gin.Context) {
	restaurantID, ok := paramID(c, "id")
	if !ok {
		return
	}
	streamTopic(c, notify.RestaurantTopic(restaurantID))
}

// StreamOrderEvents streams a single order's events over SSE
func StreamOrderEvents(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	streamTopic(c, notify.OrderTopic(orderID))
}

func streamTopic(c *gin.Context, topic string) {
	events, cancel := Dispatcher.Subscribe(topic, 16)
	defer cancel()

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, open := <-events:
			if !open {
				return false
			}
			c.SSEvent(ev.Type, ev)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
