package orders

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"restaurant-pos-api/apperr"
	"restaurant-pos-api/models"
	"restaurant-pos-api/notify"
	"restaurant-pos-api/statemachine"
)

// ChangeStatus applies an explicit order-level transition.
func (s *Service) ChangeStatus(ctx context.Context, orderID uint, to models.OrderStatus, actorID uint, note string) (*Snapshot, error) {
	return s.mutate(ctx, orderID, func(tx *gorm.DB, o *models.Order) (string, error) {
		if err := statemachine.CanTransitionOrder(o.Status, to, o.Type); err != nil {
			return "", err
		}
		if err := s.writeOrderStatus(tx, o, to, actorID, note); err != nil {
			return "", err
		}
		return notify.EventStatusChanged, nil
	})
}

// UpdateItemStatus applies one item-level transition with its side-effect
// stamps, then re-derives the order status. Refunds go through RefundItem.
func (s *Service) UpdateItemStatus(ctx context.Context, orderID, itemID uint, to models.ItemStatus, actorID uint, reason string) (*Snapshot, error) {
	if to == models.ItemRefunded {
		return nil, apperr.Validation("refunds go through the refund operation, not a status update")
	}
	return s.mutate(ctx, orderID, func(tx *gorm.DB, o *models.Order) (string, error) {
		item, err := findItem(o, itemID)
		if err != nil {
			return "", err
		}
		if err := statemachine.CanTransitionItem(item.Status, to); err != nil {
			return "", err
		}
		if err := s.applyItemTransition(tx, item, to, actorID, reason); err != nil {
			return "", err
		}

		if to == models.ItemCancelled {
			oldTotal := o.Total
			if _, err := s.reprice(tx, o); err != nil {
				return "", err
			}
			if err := s.applyTotals(tx, o, oldTotal); err != nil {
				return "", err
			}
		}

		before := o.Status
		if err := s.deriveOrderStatus(tx, o, actorID); err != nil {
			return "", err
		}
		if o.Status != before {
			return notify.EventStatusChanged, nil
		}
		return notify.EventItemChanged, nil
	})
}

// ItemStatusChange is one entry of a bulk item-status update.
type ItemStatusChange struct {
	ItemID uint              `json:"item_id" binding:"required"`
	Status models.ItemStatus `json:"status" binding:"required"`
	Reason string            `json:"reason"`
}

// BulkUpdateItemStatus validates every change before touching anything:
// foreign item ids are rejected as a full list, and one invalid transition
// fails the whole batch.
func (s *Service) BulkUpdateItemStatus(ctx context.Context, orderID uint, changes []ItemStatusChange, actorID uint) (*Snapshot, error) {
	if len(changes) == 0 {
		return nil, apperr.Validation("bulk status update requires at least one change")
	}
	for _, ch := range changes {
		if ch.Status == models.ItemRefunded {
			return nil, apperr.Validation("refunds go through the refund operation, not a status update")
		}
	}
	return s.mutate(ctx, orderID, func(tx *gorm.DB, o *models.Order) (string, error) {
		byID := make(map[uint]*models.OrderItem, len(o.Items))
		for i := range o.Items {
			byID[o.Items[i].ID] = &o.Items[i]
		}
		var foreign []string
		for _, ch := range changes {
			if _, ok := byID[ch.ItemID]; !ok {
				foreign = append(foreign, fmt.Sprintf("%d", ch.ItemID))
			}
		}
		if len(foreign) > 0 {
			return "", apperr.Validation("items do not belong to order %s: %s",
				o.Number, strings.Join(foreign, ", "))
		}
		// Validate against the projected status so a batch that names the
		// same item twice cannot sneak an unvalidated second transition in.
		projected := make(map[uint]models.ItemStatus, len(byID))
		for id, item := range byID {
			projected[id] = item.Status
		}
		for _, ch := range changes {
			if err := statemachine.CanTransitionItem(projected[ch.ItemID], ch.Status); err != nil {
				return "", err
			}
			projected[ch.ItemID] = ch.Status
		}

		anyCancelled := false
		for _, ch := range changes {
			if err := s.applyItemTransition(tx, byID[ch.ItemID], ch.Status, actorID, ch.Reason); err != nil {
				return "", err
			}
			if ch.Status == models.ItemCancelled {
				anyCancelled = true
			}
		}

		if anyCancelled {
			oldTotal := o.Total
			if _, err := s.reprice(tx, o); err != nil {
				return "", err
			}
			if err := s.applyTotals(tx, o, oldTotal); err != nil {
				return "", err
			}
		}

		before := o.Status
		if err := s.deriveOrderStatus(tx, o, actorID); err != nil {
			return "", err
		}
		if o.Status != before {
			return notify.EventStatusChanged, nil
		}
		return notify.EventItemChanged, nil
	})
}

// applyItemTransition writes the new item status plus its per-transition
// stamps. The transition must already be validated.
func (s *Service) applyItemTransition(tx *gorm.DB, item *models.OrderItem, to models.ItemStatus, actorID uint, reason string) error {
	now := s.now()
	updates := map[string]any{"status": to}
	switch to {
	case models.ItemInProgress:
		if item.StartedAt == nil {
			item.StartedAt = &now
			item.StartedByID = &actorID
			updates["started_at"] = now
			updates["started_by_id"] = actorID
		}
		if item.AssigneeID == nil && actorID != 0 {
			item.AssigneeID = &actorID
			updates["assignee_id"] = actorID
		}
	case models.ItemCompleted:
		item.CompletedAt = &now
		item.CompletedByID = &actorID
		updates["completed_at"] = now
		updates["completed_by_id"] = actorID
	case models.ItemCancelled:
		item.CancelledAt = &now
		item.CancelledByID = &actorID
		item.CancelReason = reason
		updates["cancelled_at"] = now
		updates["cancelled_by_id"] = actorID
		updates["cancel_reason"] = reason
	case models.ItemPaused:
		item.PausedAt = &now
		item.PausedByID = &actorID
		updates["paused_at"] = now
		updates["paused_by_id"] = actorID
	}
	item.Status = to
	if err := tx.Model(&models.OrderItem{}).Where("id = ?", item.ID).Updates(updates).Error; err != nil {
		return apperr.Internal(err, "item status update failed")
	}
	return nil
}

// deriveOrderStatus recomputes the order status from its items after every
// item-status mutation and records the change when it moves.
func (s *Service) deriveOrderStatus(tx *gorm.DB, o *models.Order, actorID uint) error {
	statuses := make([]models.ItemStatus, len(o.Items))
	for i, it := range o.Items {
		statuses[i] = it.Status
	}
	derived := statemachine.DeriveOrderStatus(o.Status, statuses)
	if derived == o.Status {
		return nil
	}
	return s.writeOrderStatus(tx, o, derived, actorID, "derived from item status")
}
