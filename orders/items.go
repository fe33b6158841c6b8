package orders

import (
	"context"

	"gorm.io/gorm"

	"restaurant-pos-api/apperr"
	"restaurant-pos-api/models"
	"restaurant-pos-api/notify"
	"restaurant-pos-api/statemachine"
)

// editableItemStatuses: quantity and additives are mutable only here.
var editableItemStatuses = map[models.ItemStatus]bool{
	models.ItemCreated:       true,
	models.ItemInProgress:    true,
	models.ItemPartiallyDone: true,
	models.ItemPaused:        true,
}

// AddItem appends a line to an existing order with freshly frozen catalog
// prices. Added after other lines have started, the line and the order are
// flagged reordered.
func (s *Service) AddItem(ctx context.Context, orderID uint, req AddItemRequest, actorID uint) (*Snapshot, error) {
	if req.Quantity < 1 {
		return nil, apperr.Validation("item quantity must be at least 1")
	}
	return s.mutate(ctx, orderID, func(tx *gorm.DB, o *models.Order) (string, error) {
		if err := s.requireMutable(o); err != nil {
			return "", err
		}
		items, err := s.buildItems(ctx, o.RestaurantID, []AddItemRequest{req})
		if err != nil {
			return "", err
		}
		item := items[0]
		item.OrderID = o.ID
		if anyItemStarted(o) {
			item.IsReordered = true
			o.IsReordered = true
		}
		if err := tx.Create(&item).Error; err != nil {
			return "", apperr.Internal(err, "item create failed")
		}
		o.Items = append(o.Items, item)

		oldTotal := o.Total
		if _, err := s.reprice(tx, o); err != nil {
			return "", err
		}
		if err := s.applyTotals(tx, o, oldTotal); err != nil {
			return "", err
		}
		return notify.EventItemChanged, nil
	})
}

// UpdateItemQuantity changes a line's quantity. A reduction after the order
// left CREATED flags the order reordered.
func (s *Service) UpdateItemQuantity(ctx context.Context, orderID, itemID uint, quantity int, actorID uint) (*Snapshot, error) {
	if quantity < 1 {
		return nil, apperr.Validation("item quantity must be at least 1")
	}
	return s.mutate(ctx, orderID, func(tx *gorm.DB, o *models.Order) (string, error) {
		if err := s.requireMutable(o); err != nil {
			return "", err
		}
		item, err := findItem(o, itemID)
		if err != nil {
			return "", err
		}
		if !editableItemStatuses[item.Status] {
			return "", apperr.InvalidState("item %d is %s and cannot be edited", itemID, item.Status)
		}
		reduced := quantity < item.Quantity
		item.Quantity = quantity
		if reduced && o.Status != models.OrderCreated {
			item.IsReordered = true
			o.IsReordered = true
		}
		err = tx.Model(&models.OrderItem{}).Where("id = ?", item.ID).Updates(map[string]any{
			"quantity":     item.Quantity,
			"is_reordered": item.IsReordered,
		}).Error
		if err != nil {
			return "", apperr.Internal(err, "item update failed")
		}

		oldTotal := o.Total
		if _, err := s.reprice(tx, o); err != nil {
			return "", err
		}
		if err := s.applyTotals(tx, o, oldTotal); err != nil {
			return "", err
		}
		return notify.EventItemChanged, nil
	})
}

// UpdateItemRequest — nil fields are left untouched. Additives may only be
// replaced while the line is still CREATED.
type UpdateItemRequest struct {
	Comment     *string `json:"comment"`
	AdditiveIDs *[]uint `json:"additive_ids"`
}

// UpdateItem edits a line's comment and additive set. Comments stay
// editable on refunded lines; everything else about a refunded line is
// immutable.
func (s *Service) UpdateItem(ctx context.Context, orderID, itemID uint, req UpdateItemRequest, actorID uint) (*Snapshot, error) {
	return s.mutate(ctx, orderID, func(tx *gorm.DB, o *models.Order) (string, error) {
		item, err := findItem(o, itemID)
		if err != nil {
			return "", err
		}
		if req.Comment != nil {
			if item.Status == models.ItemCancelled {
				return "", apperr.InvalidState("item %d is cancelled and cannot be edited", itemID)
			}
			item.Comment = *req.Comment
			if err := tx.Model(&models.OrderItem{}).Where("id = ?", item.ID).
				Update("comment", item.Comment).Error; err != nil {
				return "", apperr.Internal(err, "item update failed")
			}
		}
		if req.AdditiveIDs == nil {
			return notify.EventItemChanged, nil
		}

		if err := s.requireMutable(o); err != nil {
			return "", err
		}
		if item.Status != models.ItemCreated {
			return "", apperr.InvalidState("additives of item %d can only change while it is CREATED, not %s", itemID, item.Status)
		}
		additives, err := s.catalog.Additives(ctx, o.RestaurantID, *req.AdditiveIDs)
		if err != nil {
			return "", err
		}
		if err := tx.Where("order_item_id = ?", item.ID).
			Delete(&models.OrderItemAdditive{}).Error; err != nil {
			return "", apperr.Internal(err, "additive replace failed")
		}
		item.Additives = item.Additives[:0]
		for _, aid := range *req.AdditiveIDs {
			a := additives[aid]
			if a.Stopped {
				return "", apperr.Validation("additive %q is stop-listed for this restaurant", a.Name)
			}
			attached := models.OrderItemAdditive{
				OrderItemID: item.ID, AdditiveID: aid, Name: a.Name, Price: a.Price,
			}
			if err := tx.Create(&attached).Error; err != nil {
				return "", apperr.Internal(err, "additive attach failed")
			}
			item.Additives = append(item.Additives, attached)
		}

		oldTotal := o.Total
		if _, err := s.reprice(tx, o); err != nil {
			return "", err
		}
		if err := s.applyTotals(tx, o, oldTotal); err != nil {
			return "", err
		}
		return notify.EventItemChanged, nil
	})
}

// RemoveItem deletes a line that has not started yet; started lines must be
// cancelled or refunded instead so their audit trail survives.
func (s *Service) RemoveItem(ctx context.Context, orderID, itemID uint, actorID uint) (*Snapshot, error) {
	return s.mutate(ctx, orderID, func(tx *gorm.DB, o *models.Order) (string, error) {
		if err := s.requireMutable(o); err != nil {
			return "", err
		}
		item, err := findItem(o, itemID)
		if err != nil {
			return "", err
		}
		if item.Status != models.ItemCreated {
			return "", apperr.InvalidState("item %d is %s; cancel or refund it instead of removing", itemID, item.Status)
		}
		if err := tx.Where("order_item_id = ?", item.ID).
			Delete(&models.OrderItemAdditive{}).Error; err != nil {
			return "", apperr.Internal(err, "additive delete failed")
		}
		if err := tx.Delete(&models.OrderItem{}, item.ID).Error; err != nil {
			return "", apperr.Internal(err, "item delete failed")
		}
		kept := o.Items[:0]
		for _, it := range o.Items {
			if it.ID != item.ID {
				kept = append(kept, it)
			}
		}
		o.Items = kept

		oldTotal := o.Total
		if _, err := s.reprice(tx, o); err != nil {
			return "", err
		}
		if err := s.applyTotals(tx, o, oldTotal); err != nil {
			return "", err
		}
		return notify.EventItemChanged, nil
	})
}

// RefundItem is the explicit operator side channel: it stamps the refund
// metadata, drops the line out of the total and flags the order.
func (s *Service) RefundItem(ctx context.Context, orderID, itemID uint, reason string, actorID uint) (*Snapshot, error) {
	return s.mutate(ctx, orderID, func(tx *gorm.DB, o *models.Order) (string, error) {
		item, err := findItem(o, itemID)
		if err != nil {
			return "", err
		}
		if o.Payment != nil && o.Payment.Status == models.PaymentSettled {
			return "", apperr.InvalidState("order %s is already paid and cannot be modified", o.Number)
		}
		if err := statemachine.CanTransitionItem(item.Status, models.ItemRefunded); err != nil {
			return "", err
		}
		now := s.now()
		item.Status = models.ItemRefunded
		item.RefundedAt = &now
		item.RefundedByID = &actorID
		item.RefundReason = reason
		err = tx.Model(&models.OrderItem{}).Where("id = ?", item.ID).Updates(map[string]any{
			"status":         models.ItemRefunded,
			"refunded_at":    now,
			"refunded_by_id": actorID,
			"refund_reason":  reason,
		}).Error
		if err != nil {
			return "", apperr.Internal(err, "item refund failed")
		}

		o.IsRefund = true
		if o.Status != models.OrderCreated {
			o.IsReordered = true
		}

		oldTotal := o.Total
		if _, err := s.reprice(tx, o); err != nil {
			return "", err
		}
		if err := s.applyTotals(tx, o, oldTotal); err != nil {
			return "", err
		}
		if err := s.deriveOrderStatus(tx, o, actorID); err != nil {
			return "", err
		}
		return notify.EventItemChanged, nil
	})
}

func findItem(o *models.Order, itemID uint) (*models.OrderItem, error) {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return &o.Items[i], nil
		}
	}
	return nil, apperr.NotFound("item %d does not belong to order %s", itemID, o.Number)
}
