package orders

import (
	"context"

	"gorm.io/gorm"

	"restaurant-pos-api/apperr"
	"restaurant-pos-api/models"
	"restaurant-pos-api/notify"
)

// AttachAddOn attaches an order-level add-on with its price frozen from the
// definition at attach time.
func (s *Service) AttachAddOn(ctx context.Context, orderID uint, req AddOnRequest, actorID uint) (*Snapshot, error) {
	if req.Quantity < 1 {
		return nil, apperr.Validation("add-on quantity must be at least 1")
	}
	return s.mutate(ctx, orderID, func(tx *gorm.DB, o *models.Order) (string, error) {
		if err := s.requireMutable(o); err != nil {
			return "", err
		}
		addOns, err := s.buildAddOns(ctx, o.RestaurantID, []AddOnRequest{req})
		if err != nil {
			return "", err
		}
		addOn := addOns[0]
		addOn.OrderID = o.ID
		if err := tx.Create(&addOn).Error; err != nil {
			return "", apperr.Internal(err, "add-on attach failed")
		}
		o.AddOns = append(o.AddOns, addOn)

		oldTotal := o.Total
		if _, err := s.reprice(tx, o); err != nil {
			return "", err
		}
		if err := s.applyTotals(tx, o, oldTotal); err != nil {
			return "", err
		}
		return notify.EventOrderModified, nil
	})
}

// RemoveAddOn detaches an order-level add-on and reverses its contribution.
func (s *Service) RemoveAddOn(ctx context.Context, orderID, addOnID uint, actorID uint) (*Snapshot, error) {
	return s.mutate(ctx, orderID, func(tx *gorm.DB, o *models.Order) (string, error) {
		if err := s.requireMutable(o); err != nil {
			return "", err
		}
		found := false
		kept := o.AddOns[:0]
		for _, a := range o.AddOns {
			if a.ID == addOnID {
				found = true
				continue
			}
			kept = append(kept, a)
		}
		if !found {
			return "", apperr.NotFound("add-on %d does not belong to order %s", addOnID, o.Number)
		}
		if err := tx.Delete(&models.OrderAddOn{}, addOnID).Error; err != nil {
			return "", apperr.Internal(err, "add-on removal failed")
		}
		o.AddOns = kept

		oldTotal := o.Total
		if _, err := s.reprice(tx, o); err != nil {
			return "", err
		}
		if err := s.applyTotals(tx, o, oldTotal); err != nil {
			return "", err
		}
		return notify.EventOrderModified, nil
	})
}
