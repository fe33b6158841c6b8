package models

import "time"

// BonusAccount is a customer's point balance at one restaurant network.
// 1 point == 1 minor currency unit.
type BonusAccount struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	CustomerID uint      `json:"customer_id" gorm:"not null;uniqueIndex:idx_customer_network"`
	NetworkID  uint      `json:"network_id" gorm:"not null;uniqueIndex:idx_customer_network"`
	Balance    int64     `json:"balance" gorm:"not null;default:0"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BonusTransaction is one signed ledger entry against a bonus account.
type BonusTransaction struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	AccountID   uint      `json:"account_id" gorm:"not null;index"`
	OrderID     *uint     `json:"order_id"`
	Amount      int64     `json:"amount" gorm:"not null"` // negative for spend
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// PersonalDiscount is a per-customer percentage discount at one restaurant.
type PersonalDiscount struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	CustomerID   uint      `json:"customer_id" gorm:"not null;uniqueIndex:idx_customer_restaurant"`
	RestaurantID uint      `json:"restaurant_id" gorm:"not null;uniqueIndex:idx_customer_restaurant"`
	Percent      int64     `json:"percent" gorm:"not null"`
	Active       bool      `json:"active" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
