package models

import "time"

// OrderStatus represents all possible states of an order
type OrderStatus string

const (
	OrderCreated    OrderStatus = "CREATED"
	OrderConfirmed  OrderStatus = "CONFIRMED"
	OrderPreparing  OrderStatus = "PREPARING"
	OrderReady      OrderStatus = "READY"
	OrderDelivering OrderStatus = "DELIVERING"
	OrderCompleted  OrderStatus = "COMPLETED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

// OrderType — DELIVERING is only reachable for delivery orders.
type OrderType string

const (
	TypeDineIn    OrderType = "DINE_IN"
	TypeTakeaway  OrderType = "TAKEAWAY"
	TypeDelivery  OrderType = "DELIVERY"
	TypeBanquet   OrderType = "BANQUET"
	TypeScheduled OrderType = "SCHEDULED"
)

// ItemStatus represents the state of one order line
type ItemStatus string

const (
	ItemCreated       ItemStatus = "CREATED"
	ItemInProgress    ItemStatus = "IN_PROGRESS"
	ItemPartiallyDone ItemStatus = "PARTIALLY_DONE"
	ItemPaused        ItemStatus = "PAUSED"
	ItemCompleted     ItemStatus = "COMPLETED"
	ItemCancelled     ItemStatus = "CANCELLED"
	ItemRefunded      ItemStatus = "REFUNDED"
)

// Order is one customer transaction at one restaurant. All money fields are
// integer minor currency units. Total must always reconcile with its
// components: total == Σ item totals + Σ add-on totals + Σ surcharges −
// discount_total − bonus_points_used.
type Order struct {
	ID               uint                  `json:"id" gorm:"primaryKey"`
	Number           string                `json:"number" gorm:"uniqueIndex;not null"`
	RestaurantID     uint                  `json:"restaurant_id" gorm:"not null;index"`
	Restaurant       Restaurant            `json:"restaurant,omitempty" gorm:"foreignKey:RestaurantID"`
	CustomerID       *uint                 `json:"customer_id"`
	Customer         *Customer             `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	TableID          *uint                 `json:"table_id" gorm:"index"`
	Table            *Table                `json:"table,omitempty" gorm:"foreignKey:TableID"`
	Status           OrderStatus           `json:"status" gorm:"not null;default:'CREATED';index"`
	Type             OrderType             `json:"type" gorm:"not null;default:'DINE_IN'"`
	Total            int64                 `json:"total" gorm:"not null;default:0"`
	DiscountTotal    int64                 `json:"discount_total" gorm:"not null;default:0"`
	BonusPointsUsed  int64                 `json:"bonus_points_used" gorm:"not null;default:0"`
	PartySize        int                   `json:"party_size" gorm:"default:1"`
	Comment          string                `json:"comment"`
	IsReordered      bool                  `json:"is_reordered" gorm:"default:false"`
	HasDiscount      bool                  `json:"has_discount" gorm:"default:false"`
	DiscountCanceled bool                  `json:"discount_canceled" gorm:"default:false"`
	IsPrecheck       bool                  `json:"is_precheck" gorm:"default:false"`
	IsRefund         bool                  `json:"is_refund" gorm:"default:false"`
	ScheduledFor     *time.Time            `json:"scheduled_for"`
	Items            []OrderItem           `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	AddOns           []OrderAddOn          `json:"add_ons,omitempty" gorm:"foreignKey:OrderID"`
	Surcharges       []Surcharge           `json:"surcharges,omitempty" gorm:"foreignKey:OrderID"`
	Discounts        []DiscountApplication `json:"discounts,omitempty" gorm:"foreignKey:OrderID"`
	Payment          *Payment              `json:"payment,omitempty" gorm:"foreignKey:OrderID"`
	StatusHistory    []OrderStatusHistory  `json:"status_history,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

// OrderItem is one product line. UnitPrice and additive prices are frozen at
// add-time and never re-read from the catalog.
type OrderItem struct {
	ID            uint                `json:"id" gorm:"primaryKey"`
	OrderID       uint                `json:"order_id" gorm:"not null;index"`
	ProductID     uint                `json:"product_id" gorm:"not null"`
	Product       Product             `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Name          string              `json:"name"` // snapshot name
	Quantity      int                 `json:"quantity" gorm:"not null"`
	UnitPrice     int64               `json:"unit_price" gorm:"not null"` // snapshot price
	Comment       string              `json:"comment"`
	Status        ItemStatus          `json:"status" gorm:"not null;default:'CREATED'"`
	IsReordered   bool                `json:"is_reordered" gorm:"default:false"`
	Additives     []OrderItemAdditive `json:"additives,omitempty" gorm:"foreignKey:OrderItemID"`
	AssigneeID    *uint               `json:"assignee_id"`
	StartedAt     *time.Time          `json:"started_at"`
	StartedByID   *uint               `json:"started_by_id"`
	PausedAt      *time.Time          `json:"paused_at"`
	PausedByID    *uint               `json:"paused_by_id"`
	CompletedAt   *time.Time          `json:"completed_at"`
	CompletedByID *uint               `json:"completed_by_id"`
	CancelledAt   *time.Time          `json:"cancelled_at"`
	CancelledByID *uint               `json:"cancelled_by_id"`
	CancelReason  string              `json:"cancel_reason"`
	RefundedAt    *time.Time          `json:"refunded_at"`
	RefundedByID  *uint               `json:"refunded_by_id"`
	RefundReason  string              `json:"refund_reason"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// OrderItemAdditive is an additive attached to a line, with its own frozen price.
type OrderItemAdditive struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	OrderItemID uint   `json:"order_item_id" gorm:"not null;index"`
	AdditiveID  uint   `json:"additive_id" gorm:"not null"`
	Name        string `json:"name"`
	Price       int64  `json:"price" gorm:"not null"` // snapshot price
}

// OrderAddOn attaches a reusable add-on definition to an order. UnitPrice,
// Mode and Name are frozen at attach time; Total is recomputed whenever the
// order's item count or party size changes (PER_ITEM / PER_PERSON modes).
type OrderAddOn struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	OrderID   uint      `json:"order_id" gorm:"not null;index"`
	DefID     uint      `json:"def_id" gorm:"not null"`
	Def       OrderAddOnDef `json:"def,omitempty" gorm:"foreignKey:DefID"`
	Name      string    `json:"name"`
	Mode      AddOnMode `json:"mode" gorm:"not null"`
	UnitPrice int64     `json:"unit_price" gorm:"not null"` // snapshot price
	Quantity  int       `json:"quantity" gorm:"not null;default:1"`
	Total     int64     `json:"total" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
}

// SurchargeMode decides how a surcharge amount is computed.
type SurchargeMode string

const (
	SurchargeFixed      SurchargeMode = "FIXED"
	SurchargePercentage SurchargeMode = "PERCENTAGE"
)

// SurchargeKindDelivery marks the delivery fee; it participates in the base
// of percentage surcharges.
const SurchargeKindDelivery = "DELIVERY"

// Surcharge is an order-level extra charge. Value is a literal amount for
// FIXED mode and a percent for PERCENTAGE mode; Amount is the computed
// contribution to the total.
type Surcharge struct {
	ID      uint          `json:"id" gorm:"primaryKey"`
	OrderID uint          `json:"order_id" gorm:"not null;index"`
	Name    string        `json:"name"`
	Kind    string        `json:"kind"`
	Mode    SurchargeMode `json:"mode" gorm:"not null;default:'FIXED'"`
	Value   int64         `json:"value" gorm:"not null"`
	Amount  int64         `json:"amount" gorm:"not null;default:0"`
}

// OrderStatusHistory tracks every order-level status change.
type OrderStatusHistory struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    uint        `json:"order_id" gorm:"not null;index"`
	FromStatus OrderStatus `json:"from_status"`
	ToStatus   OrderStatus `json:"to_status" gorm:"not null"`
	ChangedBy  uint        `json:"changed_by"` // 0 means the system (scheduled sweep)
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"created_at"`
}
