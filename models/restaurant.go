package models

import "time"

type Restaurant struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	NetworkID        uint      `json:"network_id" gorm:"not null;index"` // loyalty network the restaurant belongs to
	Name             string    `json:"name" gorm:"not null"`
	Address          string    `json:"address"`
	IsOpen           bool      `json:"is_open" gorm:"default:true"`
	BonusEarnPercent int64     `json:"bonus_earn_percent" gorm:"default:0"` // % of settled total credited as points
	Tables           []Table   `json:"tables,omitempty" gorm:"foreignKey:RestaurantID"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableStatus represents the occupancy state of a seating resource
type TableStatus string

const (
	TableAvailable    TableStatus = "AVAILABLE"
	TableOccupied     TableStatus = "OCCUPIED"
	TableReserved     TableStatus = "RESERVED"
	TableOutOfService TableStatus = "OUT_OF_SERVICE"
	TableCleaning     TableStatus = "CLEANING"
)

// Table is a seating resource; at most one active (non-terminal) order may
// hold it at a time.
type Table struct {
	ID           uint        `json:"id" gorm:"primaryKey"`
	RestaurantID uint        `json:"restaurant_id" gorm:"not null;index"`
	Name         string      `json:"name" gorm:"not null"`
	Seats        int         `json:"seats" gorm:"default:2"`
	Status       TableStatus `json:"status" gorm:"not null;default:'AVAILABLE'"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// ReservationStatus — only CONFIRMED reservations constrain table assignment.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationCancelled ReservationStatus = "CANCELLED"
)

// Reservation is written by the reservation subsystem; this core only reads
// it when checking table availability.
type Reservation struct {
	ID           uint              `json:"id" gorm:"primaryKey"`
	RestaurantID uint              `json:"restaurant_id" gorm:"not null;index"`
	TableID      uint              `json:"table_id" gorm:"not null;index"`
	GuestName    string            `json:"guest_name"`
	Status       ReservationStatus `json:"status" gorm:"not null;default:'PENDING'"`
	StartsAt     time.Time         `json:"starts_at" gorm:"not null"`
	CreatedAt    time.Time         `json:"created_at"`
}
