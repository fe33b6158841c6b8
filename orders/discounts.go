package orders

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"restaurant-pos-api/apperr"
	"restaurant-pos-api/models"
	"restaurant-pos-api/notify"
	"restaurant-pos-api/pricing"
)

// ApplyDiscount prices a promo against the order, freezes the amount on a
// DiscountApplication and bumps the promo's usage counter.
func (s *Service) ApplyDiscount(ctx context.Context, orderID, discountID uint, actorID uint) (*Snapshot, error) {
	return s.mutate(ctx, orderID, func(tx *gorm.DB, o *models.Order) (string, error) {
		if err := s.requireMutable(o); err != nil {
			return "", err
		}
		var discount models.Discount
		err := tx.Preload("Products").First(&discount, discountID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperr.NotFound("discount %d not found", discountID)
		}
		if err != nil {
			return "", apperr.Internal(err, "discount lookup failed")
		}
		if discount.RestaurantID != o.RestaurantID {
			return "", apperr.Validation("discount %q belongs to a different restaurant", discount.Name)
		}
		if !discount.Active {
			return "", apperr.Validation("discount %q is not active", discount.Name)
		}

		amount, err := pricing.DiscountAmount(pricing.InputFromOrder(o), pricing.DiscountFromModel(&discount))
		if err != nil {
			return "", err
		}
		if amount <= 0 {
			return "", apperr.Validation("discount %q computes to %d against this order", discount.Name, amount)
		}

		app := models.DiscountApplication{
			OrderID: o.ID, DiscountID: &discount.ID,
			Amount: amount, Description: discount.Name,
		}
		if err := tx.Create(&app).Error; err != nil {
			return "", apperr.Internal(err, "discount application failed")
		}
		if err := tx.Model(&models.Discount{}).Where("id = ?", discount.ID).
			Update("usage_count", gorm.Expr("usage_count + 1")).Error; err != nil {
			return "", apperr.Internal(err, "discount usage counter failed")
		}

		o.Discounts = append(o.Discounts, app)
		o.DiscountTotal += amount
		o.HasDiscount = true

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

// ApplyPersonalDiscount applies the customer's loyalty percentage through
// the ledger collaborator.
func (s *Service) ApplyPersonalDiscount(ctx context.Context, orderID uint, actorID uint) (*Snapshot, error) {
	return s.mutate(ctx, orderID, func(tx *gorm.DB, o *models.Order) (string, error) {
		if err := s.requireMutable(o); err != nil {
			return "", err
		}
		if o.CustomerID == nil {
			return "", apperr.Validation("order %s has no customer attached", o.Number)
		}
		percent, active, err := s.ledger.PersonalDiscount(ctx, *o.CustomerID, o.RestaurantID)
		if err != nil {
			return "", err
		}
		if !active || percent <= 0 {
			return "", apperr.Validation("customer %d has no active personal discount here", *o.CustomerID)
		}

		amount, err := pricing.DiscountAmount(pricing.InputFromOrder(o), pricing.Discount{
			Mode: models.DiscountPercentage, Value: percent, Target: models.TargetAll,
		})
		if err != nil {
			return "", err
		}
		if amount <= 0 {
			return "", apperr.Validation("personal discount computes to %d against this order", amount)
		}

		app := models.DiscountApplication{
			OrderID: o.ID, Amount: amount,
			Description: fmt.Sprintf("personal discount %d%%", percent),
		}
		if err := tx.Create(&app).Error; err != nil {
			return "", apperr.Internal(err, "discount application failed")
		}
		o.Discounts = append(o.Discounts, app)
		o.DiscountTotal += amount
		o.HasDiscount = true

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

// RemoveDiscount reverses exactly the frozen amount of one application and
// decrements the source promo's usage counter.
func (s *Service) RemoveDiscount(ctx context.Context, orderID, applicationID uint, actorID uint) (*Snapshot, error) {
	return s.mutate(ctx, orderID, func(tx *gorm.DB, o *models.Order) (string, error) {
		if err := s.requireMutable(o); err != nil {
			return "", err
		}
		var app *models.DiscountApplication
		for i := range o.Discounts {
			if o.Discounts[i].ID == applicationID {
				app = &o.Discounts[i]
				break
			}
		}
		if app == nil {
			return "", apperr.NotFound("discount application %d not found on order %s", applicationID, o.Number)
		}

		if err := tx.Delete(&models.DiscountApplication{}, app.ID).Error; err != nil {
			return "", apperr.Internal(err, "discount removal failed")
		}
		if app.DiscountID != nil {
			if err := tx.Model(&models.Discount{}).Where("id = ?", *app.DiscountID).
				Update("usage_count", gorm.Expr("usage_count - 1")).Error; err != nil {
				return "", apperr.Internal(err, "discount usage counter failed")
			}
		}

		o.DiscountTotal -= app.Amount
		kept := o.Discounts[:0]
		for _, d := range o.Discounts {
			if d.ID != applicationID {
				kept = append(kept, d)
			}
		}
		o.Discounts = kept
		o.HasDiscount = len(o.Discounts) > 0
		o.DiscountCanceled = true

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

// ApplyBonusPoints redeems points 1:1 against the order total through the
// loyalty ledger. The spend runs before the order transaction: the ledger
// owns its own atomicity, and the order side re-credits the points if its
// writes fail afterwards.
func (s *Service) ApplyBonusPoints(ctx context.Context, orderID uint, points int64, actorID uint) (*Snapshot, error) {
	if points <= 0 {
		return nil, apperr.Validation("bonus points to redeem must be positive, got %d", points)
	}
	o, err := s.loadOrder(s.db.WithContext(ctx), orderID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMutable(o); err != nil {
		return nil, err
	}
	if o.CustomerID == nil {
		return nil, apperr.Validation("order %s has no customer attached", o.Number)
	}
	if points > o.Total {
		return nil, apperr.Validation("cannot redeem %d points against a total of %d", points, o.Total)
	}
	customerID, networkID := *o.CustomerID, o.Restaurant.NetworkID

	if _, err := s.ledger.SpendBonusPoints(ctx, customerID, networkID, points, orderID,
		fmt.Sprintf("redeemed on order %s", o.Number)); err != nil {
		return nil, err
	}

	snap, err := s.mutate(ctx, orderID, func(tx *gorm.DB, o *models.Order) (string, error) {
		if err := s.requireMutable(o); err != nil {
			return "", err
		}
		if points > o.Total {
			return "", apperr.Validation("cannot redeem %d points against a total of %d", points, o.Total)
		}
		o.BonusPointsUsed += points
		oldTotal := o.Total
		if _, err := s.reprice(tx, o); err != nil {
			return "", err
		}
		if err := s.applyTotals(tx, o, oldTotal); err != nil {
			return "", err
		}
		return notify.EventOrderModified, nil
	})
	if err != nil {
		if _, cerr := s.ledger.EarnBonusPoints(context.Background(), customerID, networkID, points, orderID,
			fmt.Sprintf("redemption rollback on order %s", o.Number)); cerr != nil {
			s.log.Error().Err(cerr).Uint("order_id", orderID).Int64("points", points).
				Msg("bonus compensation failed")
		}
		return nil, err
	}
	return snap, nil
}

// RemoveBonusPoints undoes the redemption: the full redeemed amount is
// re-credited through the ledger before the total is restored, and spent
// back if the order writes fail.
func (s *Service) RemoveBonusPoints(ctx context.Context, orderID uint, actorID uint) (*Snapshot, error) {
	o, err := s.loadOrder(s.db.WithContext(ctx), orderID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMutable(o); err != nil {
		return nil, err
	}
	if o.BonusPointsUsed == 0 {
		return nil, apperr.Validation("order %s has no redeemed bonus points", o.Number)
	}
	if o.CustomerID == nil {
		return nil, apperr.Validation("order %s has no customer attached", o.Number)
	}
	points := o.BonusPointsUsed
	customerID, networkID := *o.CustomerID, o.Restaurant.NetworkID

	if _, err := s.ledger.EarnBonusPoints(ctx, customerID, networkID, points, orderID,
		fmt.Sprintf("redemption removed from order %s", o.Number)); err != nil {
		return nil, err
	}

	snap, err := s.mutate(ctx, orderID, func(tx *gorm.DB, o *models.Order) (string, error) {
		if err := s.requireMutable(o); err != nil {
			return "", err
		}
		if o.BonusPointsUsed != points {
			return "", apperr.Conflict("bonus redemption on order %s changed concurrently", o.Number)
		}
		o.BonusPointsUsed = 0
		oldTotal := o.Total
		if _, err := s.reprice(tx, o); err != nil {
			return "", err
		}
		if err := s.applyTotals(tx, o, oldTotal); err != nil {
			return "", err
		}
		return notify.EventOrderModified, nil
	})
	if err != nil {
		if _, cerr := s.ledger.SpendBonusPoints(context.Background(), customerID, networkID, points, orderID,
			fmt.Sprintf("re-credit rollback on order %s", o.Number)); cerr != nil {
			s.log.Error().Err(cerr).Uint("order_id", orderID).Int64("points", points).
				Msg("bonus compensation failed")
		}
		return nil, err
	}
	return snap, nil
}
