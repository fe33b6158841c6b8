package models

import "time"

// Product is a network-wide catalog entry; the restaurant-specific price and
// stop-list flag live on RestaurantProduct.
type Product struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Additive is an extra attachable to an order line (sauce, topping).
type Additive struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RestaurantProduct carries the per-restaurant price (minor currency units)
// and the stop-list flag for a product.
type RestaurantProduct struct {
	ID           uint  `json:"id" gorm:"primaryKey"`
	RestaurantID uint  `json:"restaurant_id" gorm:"not null;uniqueIndex:idx_rest_product"`
	ProductID    uint  `json:"product_id" gorm:"not null;uniqueIndex:idx_rest_product"`
	Price        int64 `json:"price" gorm:"not null"`
	Stopped      bool  `json:"stopped" gorm:"default:false"`
}

type RestaurantAdditive struct {
	ID           uint  `json:"id" gorm:"primaryKey"`
	RestaurantID uint  `json:"restaurant_id" gorm:"not null;uniqueIndex:idx_rest_additive"`
	AdditiveID   uint  `json:"additive_id" gorm:"not null;uniqueIndex:idx_rest_additive"`
	Price        int64 `json:"price" gorm:"not null"`
	Stopped      bool  `json:"stopped" gorm:"default:false"`
}

// AddOnMode decides how an order-level add-on is billed.
type AddOnMode string

const (
	AddOnFixed     AddOnMode = "FIXED"
	AddOnPerItem   AddOnMode = "PER_ITEM"
	AddOnPerPerson AddOnMode = "PER_PERSON"
)

// OrderAddOnDef is a reusable priced extra service attachable to an order
// (service fee, cutlery set, corkage), not tied to a specific product.
type OrderAddOnDef struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	RestaurantID uint      `json:"restaurant_id" gorm:"not null;index"`
	Name         string    `json:"name" gorm:"not null"`
	Mode         AddOnMode `json:"mode" gorm:"not null;default:'FIXED'"`
	UnitPrice    int64     `json:"unit_price" gorm:"not null"`
	Active       bool      `json:"active" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
