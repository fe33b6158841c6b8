package statemachine

import (
	"restaurant-pos-api/apperr"
	"restaurant-pos-api/models"
)

// ItemTransition defines a valid item-level state change
type ItemTransition struct {
	From models.ItemStatus
	To   models.ItemStatus
}

// validItemTransitions is the forward chain of the item state machine.
// REFUNDED is deliberately absent: it is a side-channel operator action
// handled by CanTransitionItem directly.
var validItemTransitions = []ItemTransition{
	{From: models.ItemCreated, To: models.ItemInProgress},
	// a never-started line may be cancelled outright
	{From: models.ItemCreated, To: models.ItemCancelled},
	{From: models.ItemInProgress, To: models.ItemPartiallyDone},
	{From: models.ItemPartiallyDone, To: models.ItemInProgress},
	{From: models.ItemInProgress, To: models.ItemPaused},
	{From: models.ItemPaused, To: models.ItemInProgress},
	{From: models.ItemInProgress, To: models.ItemCompleted},
	{From: models.ItemInProgress, To: models.ItemCancelled},
}

type itemTransitionKey struct {
	From models.ItemStatus
	To   models.ItemStatus
}

var itemTransitionMap = func() map[itemTransitionKey]bool {
	m := make(map[itemTransitionKey]bool)
	for _, t := range validItemTransitions {
		m[itemTransitionKey{t.From, t.To}] = true
	}
	return m
}()

// IsTerminalItemStatus reports whether the forward chain ends at the status.
// REFUNDED is terminal too but reached out of band.
func IsTerminalItemStatus(s models.ItemStatus) bool {
	return s == models.ItemCompleted || s == models.ItemCancelled || s == models.ItemRefunded
}

// ItemTransitionsFrom returns all valid next states from a given item state.
func ItemTransitionsFrom(status models.ItemStatus) []models.ItemStatus {
	var nexts []models.ItemStatus
	for _, t := range validItemTransitions {
		if t.From == status {
			nexts = append(nexts, t.To)
		}
	}
	// the refund side channel: every state except CANCELLED and REFUNDED
	if status != models.ItemCancelled && status != models.ItemRefunded {
		nexts = append(nexts, models.ItemRefunded)
	}
	return nexts
}

// CanTransitionItem checks whether an item may move from one status to
// another. REFUNDED is reachable from any status except CANCELLED and
// REFUNDED itself; everything else follows the transition table.
func CanTransitionItem(from, to models.ItemStatus) error {
	if to == models.ItemRefunded {
		if from == models.ItemRefunded {
			return apperr.InvalidState("item is already refunded")
		}
		if from == models.ItemCancelled {
			return apperr.InvalidState("a cancelled item cannot be refunded")
		}
		return nil
	}
	if itemTransitionMap[itemTransitionKey{From: from, To: to}] {
		return nil
	}
	return apperr.InvalidState(
		"invalid item transition %s → %s; valid next states: %s",
		from, to, describeItemNexts(from))
}

func describeItemNexts(status models.ItemStatus) string {
	nexts := ItemTransitionsFrom(status)
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

// AllItemTransitions returns the item state machine for documentation
func AllItemTransitions() []ItemTransition {
	return validItemTransitions
}

// DeriveOrderStatus recomputes the order status from its items' statuses.
// If every line that is not cancelled or refunded is COMPLETED the order is
// READY; if any line is IN_PROGRESS the order is PREPARING; otherwise the
// order keeps its explicit status. Terminal and DELIVERING orders are never
// regressed by derivation.
func DeriveOrderStatus(current models.OrderStatus, items []models.ItemStatus) models.OrderStatus {
	if IsTerminalOrderStatus(current) || current == models.OrderDelivering {
		return current
	}
	anyInProgress := false
	anyCompleted := false
	allDone := true
	for _, s := range items {
		switch s {
		case models.ItemInProgress:
			anyInProgress = true
			allDone = false
		case models.ItemCancelled, models.ItemRefunded:
			// excluded from derivation
		case models.ItemCompleted:
			anyCompleted = true
		default:
			allDone = false
		}
	}
	if anyInProgress {
		return models.OrderPreparing
	}
	if allDone && anyCompleted {
		return models.OrderReady
	}
	return current
}
