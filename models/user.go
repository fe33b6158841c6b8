package models

import (
	"time"
)

// UserRole defines allowed staff roles in the system
type UserRole string

const (
	RoleWaiter  UserRole = "waiter"
	RoleKitchen UserRole = "kitchen"
	RoleManager UserRole = "manager"
	RoleAdmin   UserRole = "admin"
)

// User is a staff member acting on orders; the acting user is stamped on
// every status transition. RestaurantID is the home restaurant the account
// is scoped to; nil means a network-wide account.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Role         UserRole  `json:"role" gorm:"not null;default:'waiter'"`
	RestaurantID *uint     `json:"restaurant_id,omitempty" gorm:"index"`
	Phone        string    `json:"phone"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Customer is a guest an order may be attached to; loyalty accounts and
// personal discounts hang off the customer.
type Customer struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Phone     string    `json:"phone" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
