package handlers

import (
	"net/http"

	"restaurant-pos-api/config"
	"restaurant-pos-api/models"
	"restaurant-pos-api/statemachine"

	"github.com/gin-gonic/gin"
)

// GetRestaurant returns a single restaurant (public)
func GetRestaurant(c *gin.Context) {
	var restaurant models.Restaurant
	if err := config.DB.First(&restaurant, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant": restaurant})
}

// GetStateMachineInfo returns the full state machines for informational purposes
func GetStateMachineInfo(c *gin.Context) {
	orderInfo := []gin.H{}
	for _, t := range statemachine.AllOrderTransitions() {
		entry := gin.H{"from": t.From, "to": t.To}
		if t.DeliveryOnly {
			entry["delivery_only"] = true
		}
		orderInfo = append(orderInfo, entry)
	}

	itemInfo := []gin.H{}
	for _, t := range statemachine.AllItemTransitions() {
		itemInfo = append(itemInfo, gin.H{"from": t.From, "to": t.To})
	}

	c.JSON(http.StatusOK, gin.H{
		"order_state_machine":   orderInfo,
		"item_state_machine":    itemInfo,
		"order_terminal_states": []models.OrderStatus{models.OrderCompleted, models.OrderCancelled},
		"item_terminal_states":  []models.ItemStatus{models.ItemCompleted, models.ItemCancelled, models.ItemRefunded},
		"description":           "Order and item lifecycle state machines",
	})
}
