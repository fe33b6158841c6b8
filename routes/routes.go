package routes

import (
	"restaurant-pos-api/handlers"
	"restaurant-pos-api/middleware"
	"restaurant-pos-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine) {
	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		// Auth
		public.POST("/auth/register", handlers.Register)
		public.POST("/auth/login", handlers.Login)

		// Restaurants & menus (no auth needed)
		public.GET("/restaurants", handlers.ListRestaurants)
		public.GET("/restaurants/:id", handlers.GetRestaurant)
		public.GET("/restaurants/:id/menu", handlers.ListRestaurantMenu)

		// State machine info (great for docs/Postman)
		public.GET("/state-machine", handlers.GetStateMachineInfo)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(middleware.AuthRequired())
	{
		auth.GET("/profile", handlers.GetProfile)

		// Live order events (SSE)
		auth.GET("/restaurants/:id/events", middleware.RestaurantScoped(), handlers.StreamRestaurantEvents)
		auth.GET("/orders/:id/events", handlers.StreamOrderEvents)
	}

	// ── Floor staff routes ─────────────────────────────────────────
	floor := r.Group("/api")
	floor.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleWaiter, models.RoleManager))
	{
		floor.POST("/orders", handlers.CreateOrder)
		floor.GET("/orders/:id", handlers.GetOrder)
		floor.PUT("/orders/:id/status", handlers.UpdateOrderStatus)

		// Item lines
		floor.POST("/orders/:id/items", handlers.AddOrderItem)
		floor.PUT("/orders/:id/items/:item_id", handlers.UpdateOrderItem)
		floor.PUT("/orders/:id/items/:item_id/quantity", handlers.UpdateOrderItemQuantity)
		floor.DELETE("/orders/:id/items/:item_id", handlers.RemoveOrderItem)

		// Add-ons
		floor.POST("/orders/:id/add-ons", handlers.AttachOrderAddOn)
		floor.DELETE("/orders/:id/add-ons/:addon_id", handlers.RemoveOrderAddOn)

		// Discounts & loyalty
		floor.POST("/orders/:id/discounts/:discount_id", handlers.ApplyOrderDiscount)
		floor.POST("/orders/:id/personal-discount", handlers.ApplyOrderPersonalDiscount)
		floor.DELETE("/orders/:id/discounts/:application_id", handlers.RemoveOrderDiscount)
		floor.POST("/orders/:id/bonus", handlers.ApplyOrderBonusPoints)
		floor.DELETE("/orders/:id/bonus", handlers.RemoveOrderBonusPoints)

		// Tables
		floor.PUT("/orders/:id/table/:table_id", handlers.AssignOrderTable)
		floor.DELETE("/orders/:id/table", handlers.UnassignOrderTable)

		// Payment
		floor.POST("/orders/:id/settle", handlers.SettleOrderPayment)

		floor.GET("/restaurants/:id/tables", middleware.RestaurantScoped(), handlers.ListRestaurantTables)
		floor.POST("/customers", handlers.CreateCustomer)
		floor.GET("/customers/:id/balance", handlers.GetCustomerBalance)
	}

	// ── Kitchen routes ─────────────────────────────────────────────
	kitchen := r.Group("/api/kitchen")
	kitchen.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleKitchen, models.RoleManager))
	{
		kitchen.GET("/restaurants/:id/orders", middleware.RestaurantScoped(), handlers.ListRestaurantOrders)
		kitchen.PUT("/orders/:id/items/:item_id/status", handlers.UpdateOrderItemStatus)
		kitchen.PUT("/orders/:id/items/status", handlers.BulkUpdateOrderItemStatus)
	}

	// ── Manager routes ─────────────────────────────────────────────
	manager := r.Group("/api/manager")
	manager.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleManager))
	{
		manager.POST("/orders/:id/items/:item_id/refund", handlers.RefundOrderItem)

		// Floor plan
		manager.POST("/tables", handlers.CreateTable)
		manager.PUT("/tables/:id/status", handlers.SetTableStatus)
		manager.PUT("/restaurants/:id/open", handlers.SetRestaurantOpen)

		// Menu management
		manager.POST("/menu", handlers.CreateRestaurantProduct)
		manager.PUT("/menu/:id/stop", handlers.SetProductStopped)
		manager.POST("/additives", handlers.CreateRestaurantAdditive)
		manager.POST("/add-ons", handlers.CreateAddOnDef)

		// Discount campaigns
		manager.POST("/discounts", handlers.CreateDiscount)
		manager.GET("/restaurants/:id/discounts", handlers.ListRestaurantDiscounts)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleAdmin))
	{
		admin.POST("/restaurants", handlers.CreateRestaurant)
		admin.POST("/products", handlers.CreateProduct)
		admin.POST("/additives", handlers.CreateAdditive)
	}
}
