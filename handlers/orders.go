package handlers

import (
	"net/http"
	"strconv"

	"restaurant-pos-api/config"
	"restaurant-pos-api/middleware"
	"restaurant-pos-api/models"
	"restaurant-pos-api/orders"

	"github.com/gin-gonic/gin"
)

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// CreateOrder opens a new order
func CreateOrder(c *gin.Context) {
	var req orders.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := Svc.Create(c.Request.Context(), req, middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": snap})
}

// GetOrder returns the full order snapshot
func GetOrder(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	snap, err := Svc.Get(c.Request.Context(), orderID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": snap})
}

// ListRestaurantOrders returns orders for a restaurant, newest first
func ListRestaurantOrders(c *gin.Context) {
	restaurantID, ok := paramID(c, "id")
	if !ok {
		return
	}

	query := config.DB.Where("restaurant_id = ?", restaurantID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var list []models.Order
	if err := query.Preload("Items").Order("created_at DESC").Find(&list).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list, "count": len(list)})
}

type statusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
	Note   string             `json:"note"`
}

// UpdateOrderStatus moves the order along its lifecycle
func UpdateOrderStatus(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := Svc.ChangeStatus(c.Request.Context(), orderID, req.Status, middleware.GetUserID(c), req.Note)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": snap})
}

// AddOrderItem appends a line to an open order
func AddOrderItem(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req orders.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := Svc.AddItem(c.Request.Context(), orderID, req, middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": snap})
}

type quantityRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// UpdateOrderItemQuantity changes a line's quantity
func UpdateOrderItemQuantity(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	itemID, ok := paramID(c, "item_id")
	if !ok {
		return
	}

	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := Svc.UpdateItemQuantity(c.Request.Context(), orderID, itemID, req.Quantity, middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": snap})
}

// UpdateOrderItem edits a line's comment or additives
func UpdateOrderItem(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	itemID, ok := paramID(c, "item_id")
	if !ok {
		return
	}

	var req orders.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := Svc.UpdateItem(c.Request.Context(), orderID, itemID, req, middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": snap})
}

// RemoveOrderItem deletes a line that has not been started
func RemoveOrderItem(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	itemID, ok := paramID(c, "item_id")
	if !ok {
		return
	}

	snap, err := Svc.RemoveItem(c.Request.Context(), orderID, itemID, middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": snap})
}

type itemStatusRequest struct {
	Status models.ItemStatus `json:"status" binding:"required"`
	Reason string            `json:"reason"`
}

// UpdateOrderItemStatus moves one line along its lifecycle
func UpdateOrderItemStatus(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	itemID, ok := paramID(c, "item_id")
	if !ok {
		return
	}

	var req itemStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := Svc.UpdateItemStatus(c.Request.Context(), orderID, itemID, req.Status, middleware.GetUserID(c), req.Reason)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": snap})
}

type bulkItemStatusRequest struct {
	Changes []orders.ItemStatusChange `json:"changes" binding:"required,min=1"`
}

// BulkUpdateOrderItemStatus applies several line transitions atomically
func BulkUpdateOrderItemStatus(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req bulkItemStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := Svc.BulkUpdateItemStatus(c.Request.Context(), orderID, req.Changes, middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": snap})
}

type refundRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// RefundOrderItem refunds a line on a settled or open order
func RefundOrderItem(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	itemID, ok := paramID(c, "item_id")
	if !ok {
		return
	}

	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := Svc.RefundItem(c.Request.Context(), orderID, itemID, req.Reason, middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": snap})
}

// AttachOrderAddOn adds a service charge line to an order
func AttachOrderAddOn(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req orders.AddOnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := Svc.AttachAddOn(c.Request.Context(), orderID, req, middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": snap})
}

// RemoveOrderAddOn removes a service charge line
func RemoveOrderAddOn(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	addOnID, ok := paramID(c, "addon_id")
	if !ok {
		return
	}

	snap, err := Svc.RemoveAddOn(c.Request.Context(), orderID, addOnID, middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": snap})
}

// ApplyOrderDiscount applies a campaign discount to the order
func ApplyOrderDiscount(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	discountID, ok := paramID(c, "discount_id")
	if !ok {
		return
	}

	snap, err := Svc.ApplyDiscount(c.Request.Context(), orderID, discountID, middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": snap})
}

// ApplyOrderPersonalDiscount applies the customer's personal discount
func ApplyOrderPersonalDiscount(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	snap, err := Svc.ApplyPersonalDiscount(c.Request.Context(), orderID, middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": snap})
}

// RemoveOrderDiscount reverses a previously applied discount
func RemoveOrderDiscount(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	applicationID, ok := paramID(c, "application_id")
	if !ok {
		return
	}

	snap, err := Svc.RemoveDiscount(c.Request.Context(), orderID, applicationID, middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": snap})
}

type bonusRequest struct {
	Points int64 `json:"points" binding:"required,min=1"`
}

// ApplyOrderBonusPoints redeems loyalty points against the order total
func ApplyOrderBonusPoints(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req bonusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := Svc.ApplyBonusPoints(c.Request.Context(), orderID, req.Points, middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": snap})
}

// RemoveOrderBonusPoints re-credits redeemed points back to the customer
func RemoveOrderBonusPoints(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	snap, err := Svc.RemoveBonusPoints(c.Request.Context(), orderID, middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": snap})
}

// AssignOrderTable seats the order at a table
func AssignOrderTable(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	tableID, ok := paramID(c, "table_id")
	if !ok {
		return
	}

	snap, err := Svc.AssignTable(c.Request.Context(), orderID, tableID, middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": snap})
}

// UnassignOrderTable frees the order's table
func UnassignOrderTable(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	snap, err := Svc.UnassignTable(c.Request.Context(), orderID, middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": snap})
}

// SettleOrderPayment marks the pending payment as settled
func SettleOrderPayment(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	snap, err := Svc.SettlePayment(c.Request.Context(), orderID, middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": snap})
}
