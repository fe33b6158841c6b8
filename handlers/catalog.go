package handlers

import (
	"net/http"

	"restaurant-pos-api/config"
	"restaurant-pos-api/models"

	"github.com/gin-gonic/gin"
)

// CreateRestaurant registers a restaurant — admin only
func CreateRestaurant(c *gin.Context) {
	var restaurant models.Restaurant
	if err := c.ShouldBindJSON(&restaurant); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := config.DB.Create(&restaurant).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create restaurant"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"restaurant": restaurant})
}

// ListRestaurants returns all restaurants
func ListRestaurants(c *gin.Context) {
	var restaurants []models.Restaurant
	query := config.DB
	if networkID := c.Query("network_id"); networkID != "" {
		query = query.Where("network_id = ?", networkID)
	}
	query.Find(&restaurants)
	c.JSON(http.StatusOK, gin.H{"count": len(restaurants), "restaurants": restaurants})
}

// SetRestaurantOpen flips the accepting-orders flag — manager only
func SetRestaurantOpen(c *gin.Context) {
	restaurantID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		IsOpen *bool `json:"is_open" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var restaurant models.Restaurant
	if err := config.DB.First(&restaurant, restaurantID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		return
	}
	config.DB.Model(&restaurant).Update("is_open", *req.IsOpen)
	c.JSON(http.StatusOK, gin.H{"restaurant_id": restaurant.ID, "is_open": *req.IsOpen})
}

// CreateTable adds a table to a restaurant — manager only
func CreateTable(c *gin.Context) {
	var table models.Table
	if err := c.ShouldBindJSON(&table); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if table.Status == "" {
		table.Status = models.TableAvailable
	}
	if err := config.DB.Create(&table).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create table"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"table": table})
}

// ListRestaurantTables returns a restaurant's tables with current status
func ListRestaurantTables(c *gin.Context) {
	restaurantID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var tables []models.Table
	config.DB.Where("restaurant_id = ?", restaurantID).Order("name").Find(&tables)
	c.JSON(http.StatusOK, gin.H{"count": len(tables), "tables": tables})
}

// SetTableStatus overrides a table's status, e.g. for cleaning — manager only
func SetTableStatus(c *gin.Context) {
	tableID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status models.TableStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	valid := map[models.TableStatus]bool{
		models.TableAvailable:    true,
		models.TableOccupied:     true,
		models.TableReserved:     true,
		models.TableOutOfService: true,
		models.TableCleaning:     true,
	}
	if !valid[req.Status] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid table status"})
		return
	}

	var table models.Table
	if err := config.DB.First(&table, tableID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Table not found"})
		return
	}
	config.DB.Model(&table).Update("status", req.Status)
	c.JSON(http.StatusOK, gin.H{"table_id": table.ID, "status": req.Status})
}

// CreateProduct adds a product to the shared catalog — admin only
func CreateProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := config.DB.Create(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product": product})
}

// CreateRestaurantProduct publishes a product on a restaurant's menu with
// its local price — manager only
func CreateRestaurantProduct(c *gin.Context) {
	var rp models.RestaurantProduct
	if err := c.ShouldBindJSON(&rp); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := config.DB.Create(&rp).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Product already on the menu"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"restaurant_product": rp})
}

// ListRestaurantMenu returns a restaurant's sellable products
func ListRestaurantMenu(c *gin.Context) {
	restaurantID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var menu []models.RestaurantProduct
	query := config.DB.Preload("Product").Where("restaurant_id = ?", restaurantID)
	if c.Query("available") == "true" {
		query = query.Where("stopped = ?", false)
	}
	query.Find(&menu)
	c.JSON(http.StatusOK, gin.H{"count": len(menu), "menu": menu})
}

// SetProductStopped toggles a menu position's stop-list flag — manager only
func SetProductStopped(c *gin.Context) {
	rpID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Stopped *bool `json:"stopped" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var rp models.RestaurantProduct
	if err := config.DB.First(&rp, rpID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Menu position not found"})
		return
	}
	config.DB.Model(&rp).Update("stopped", *req.Stopped)
	c.JSON(http.StatusOK, gin.H{"restaurant_product_id": rp.ID, "stopped": *req.Stopped})
}

// CreateAdditive adds a modifier to the shared catalog — admin only
func CreateAdditive(c *gin.Context) {
	var additive models.Additive
	if err := c.ShouldBindJSON(&additive); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := config.DB.Create(&additive).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create additive"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"additive": additive})
}

// CreateRestaurantAdditive prices a modifier for a restaurant — manager only
func CreateRestaurantAdditive(c *gin.Context) {
	var ra models.RestaurantAdditive
	if err := c.ShouldBindJSON(&ra); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := config.DB.Create(&ra).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Additive already priced"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"restaurant_additive": ra})
}

// CreateAddOnDef defines a reusable order add-on — manager only
func CreateAddOnDef(c *gin.Context) {
	var def models.OrderAddOnDef
	if err := c.ShouldBindJSON(&def); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	validModes := map[models.AddOnMode]bool{
		models.AddOnFixed:     true,
		models.AddOnPerItem:   true,
		models.AddOnPerPerson: true,
	}
	if !validModes[def.Mode] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid mode. Must be: FIXED, PER_ITEM, or PER_PERSON"})
		return
	}

	if err := config.DB.Create(&def).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create add-on"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"add_on": def})
}

// CreateDiscount defines a discount campaign — manager only
func CreateDiscount(c *gin.Context) {
	var discount models.Discount
	if err := c.ShouldBindJSON(&discount); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if discount.Mode == models.DiscountPercentage && (discount.Value < 1 || discount.Value > 100) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Percentage must be between 1 and 100"})
		return
	}
	if discount.Target == models.TargetProduct && len(discount.Products) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Product-targeted discount needs at least one product"})
		return
	}

	if err := config.DB.Create(&discount).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create discount"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"discount": discount})
}

// ListRestaurantDiscounts returns a restaurant's discount campaigns
func ListRestaurantDiscounts(c *gin.Context) {
	restaurantID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var discounts []models.Discount
	config.DB.Preload("Products").Where("restaurant_id = ?", restaurantID).Find(&discounts)
	c.JSON(http.StatusOK, gin.H{"count": len(discounts), "discounts": discounts})
}

// CreateCustomer registers a loyalty customer
func CreateCustomer(c *gin.Context) {
	var customer models.Customer
	if err := c.ShouldBindJSON(&customer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := config.DB.Create(&customer).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create customer"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"customer": customer})
}

// GetCustomerBalance returns a customer's bonus balance per network
func GetCustomerBalance(c *gin.Context) {
	customerID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var accounts []models.BonusAccount
	config.DB.Where("customer_id = ?", customerID).Find(&accounts)
	c.JSON(http.StatusOK, gin.H{"customer_id": customerID, "accounts": accounts})
}
