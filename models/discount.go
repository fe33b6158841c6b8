package models

import "time"

// DiscountMode decides how a discount amount is computed.
type DiscountMode string

const (
	DiscountFixed      DiscountMode = "FIXED"
	DiscountPercentage DiscountMode = "PERCENTAGE"
)

// DiscountTarget — ALL applies to the running order total, PRODUCT only to
// the subtotal of the listed products.
type DiscountTarget string

const (
	TargetAll     DiscountTarget = "ALL"
	TargetProduct DiscountTarget = "PRODUCT"
)

// Discount is a reusable promo owned by a restaurant. UsageCount goes up on
// every application and back down when an application is removed.
type Discount struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	RestaurantID uint           `json:"restaurant_id" gorm:"not null;index"`
	Name         string         `json:"name" gorm:"not null"`
	Mode         DiscountMode   `json:"mode" gorm:"not null;default:'PERCENTAGE'"`
	Value        int64          `json:"value" gorm:"not null"` // percent or fixed amount
	Target       DiscountTarget `json:"target" gorm:"not null;default:'ALL'"`
	Active       bool           `json:"active" gorm:"default:true"`
	UsageCount   int64          `json:"usage_count" gorm:"default:0"`
	Products     []DiscountProduct `json:"products,omitempty" gorm:"foreignKey:DiscountID"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// DiscountProduct lists the products a PRODUCT-targeted discount applies to.
type DiscountProduct struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	DiscountID uint `json:"discount_id" gorm:"not null;index"`
	ProductID  uint `json:"product_id" gorm:"not null"`
}

// DiscountApplication links one discount to one order with the amount frozen
// at apply time. Removal must reverse exactly this amount. DiscountID is nil
// for a personal (loyalty) discount.
type DiscountApplication struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	OrderID     uint      `json:"order_id" gorm:"not null;index"`
	DiscountID  *uint     `json:"discount_id"`
	Discount    *Discount `json:"discount,omitempty" gorm:"foreignKey:DiscountID"`
	Amount      int64     `json:"amount" gorm:"not null"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// PaymentStatus — a settled payment freezes the order's composition.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentSettled  PaymentStatus = "SETTLED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// Payment is the pending payment record created with the order; its amount
// tracks the order total through every mutation.
type Payment struct {
	ID        uint          `json:"id" gorm:"primaryKey"`
	OrderID   uint          `json:"order_id" gorm:"not null;uniqueIndex"`
	Amount    int64         `json:"amount" gorm:"not null;default:0"`
	Status    PaymentStatus `json:"status" gorm:"not null;default:'PENDING'"`
	SettledAt *time.Time    `json:"settled_at"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
