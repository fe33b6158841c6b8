package statemachine

import (
	"restaurant-pos-api/apperr"
	"restaurant-pos-api/models"
)

// OrderTransition defines a valid order-level state change
type OrderTransition struct {
	From models.OrderStatus
	To   models.OrderStatus
	// DeliveryOnly restricts the transition to delivery-type orders
	DeliveryOnly bool
}

// validOrderTransitions is the authoritative order state machine definition
var validOrderTransitions = []OrderTransition{
	{From: models.OrderCreated, To: models.OrderConfirmed},
	{From: models.OrderConfirmed, To: models.OrderPreparing},
	{From: models.OrderPreparing, To: models.OrderReady},
	{From: models.OrderReady, To: models.OrderDelivering, DeliveryOnly: true},
	{From: models.OrderReady, To: models.OrderCompleted},
	{From: models.OrderDelivering, To: models.OrderCompleted},
	// CANCELLED is reachable only before the order is READY
	{From: models.OrderCreated, To: models.OrderCancelled},
	{From: models.OrderConfirmed, To: models.OrderCancelled},
	{From: models.OrderPreparing, To: models.OrderCancelled},
}

type orderTransitionKey struct {
	From models.OrderStatus
	To   models.OrderStatus
}

// Build a lookup map for O(1) validation
var orderTransitionMap = func() map[orderTransitionKey]OrderTransition {
	m := make(map[orderTransitionKey]OrderTransition)
	for _, t := range validOrderTransitions {
		m[orderTransitionKey{t.From, t.To}] = t
	}
	return m
}()

// IsTerminalOrderStatus reports whether no transition leaves the status.
func IsTerminalOrderStatus(s models.OrderStatus) bool {
	return s == models.OrderCompleted || s == models.OrderCancelled
}

// OrderTransitionsFrom returns all valid next states from a given state for
// the given order type.
func OrderTransitionsFrom(status models.OrderStatus, orderType models.OrderType) []models.OrderStatus {
	var nexts []models.OrderStatus
	for _, t := range validOrderTransitions {
		if t.From != status {
			continue
		}
		if t.DeliveryOnly && orderType != models.TypeDelivery {
			continue
		}
		nexts = append(nexts, t.To)
	}
	return nexts
}

// CanTransitionOrder checks whether an order of the given type may move from
// one status to another.
func CanTransitionOrder(from, to models.OrderStatus, orderType models.OrderType) error {
	t, ok := orderTransitionMap[orderTransitionKey{From: from, To: to}]
	if !ok {
		return apperr.InvalidState(
			"invalid order transition %s → %s; valid next states: %s",
			from, to, describeOrderNexts(from, orderType))
	}
	if t.DeliveryOnly && orderType != models.TypeDelivery {
		return apperr.InvalidState(
			"order transition %s → %s is only valid for delivery orders", from, to)
	}
	return nil
}

func describeOrderNexts(status models.OrderStatus, orderType models.OrderType) string {
	nexts := OrderTransitionsFrom(status, orderType)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	result := ""
	for i, s := range nexts {
		if i > 0 {
			result += ", "
		}
		result += string(s)
	}
	return result
}

// AllOrderTransitions returns the full order state machine for documentation
func AllOrderTransitions() []OrderTransition {
	return validOrderTransitions
}
