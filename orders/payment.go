package orders

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"restaurant-pos-api/apperr"
	"restaurant-pos-api/models"
	"restaurant-pos-api/notify"
)

// SettlePayment marks the pending payment settled, freezing the order's
// composition. Earned loyalty points are credited after the commit; a ledger
// failure does not unsettle the payment.
func (s *Service) SettlePayment(ctx context.Context, orderID uint, actorID uint) (*Snapshot, error) {
	var earn int64
	var customerID, networkID uint
	var number string
	snap, err := s.mutate(ctx, orderID, func(tx *gorm.DB, o *models.Order) (string, error) {
		if o.Payment == nil {
			return "", apperr.NotFound("order %s has no payment record", o.Number)
		}
		if o.Payment.Status != models.PaymentPending {
			return "", apperr.InvalidState("payment for order %s is already %s", o.Number, o.Payment.Status)
		}
		now := s.now()
		err := tx.Model(&models.Payment{}).Where("id = ?", o.Payment.ID).Updates(map[string]any{
			"status":     models.PaymentSettled,
			"settled_at": now,
		}).Error
		if err != nil {
			return "", apperr.Internal(err, "payment settle failed")
		}
		o.Payment.Status = models.PaymentSettled
		o.Payment.SettledAt = &now

		if o.CustomerID != nil && o.Restaurant.BonusEarnPercent > 0 && o.Total > 0 {
			earn = o.Total * o.Restaurant.BonusEarnPercent / 100
			customerID, networkID = *o.CustomerID, o.Restaurant.NetworkID
			number = o.Number
		}
		return notify.EventOrderModified, nil
	})
	if err != nil {
		return nil, err
	}

	if earn > 0 {
		if _, err := s.ledger.EarnBonusPoints(ctx, customerID, networkID, earn, orderID,
			fmt.Sprintf("earned on order %s", number)); err != nil {
			s.log.Error().Err(err).Uint("order_id", orderID).Int64("points", earn).
				Msg("bonus earn failed after settlement")
		}
	}
	return snap, nil
}
