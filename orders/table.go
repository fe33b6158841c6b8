package orders

import (
	"context"

	"gorm.io/gorm"

	"restaurant-pos-api/apperr"
	"restaurant-pos-api/models"
	"restaurant-pos-api/notify"
	"restaurant-pos-api/statemachine"
)

// AssignTable moves the order onto a table through the availability
// checker. Assignment forces the order type to dine-in; a previously held
// table is released first.
func (s *Service) AssignTable(ctx context.Context, orderID, tableID uint, actorID uint) (*Snapshot, error) {
	return s.mutate(ctx, orderID, func(tx *gorm.DB, o *models.Order) (string, error) {
		if statemachine.IsTerminalOrderStatus(o.Status) {
			return "", apperr.InvalidState("order %s is %s and cannot change tables", o.Number, o.Status)
		}
		if o.TableID != nil && *o.TableID == tableID {
			return "", nil // already there
		}
		if o.TableID != nil {
			if err := s.tables.Release(tx, *o.TableID, o.ID); err != nil {
				return "", err
			}
		}
		if err := s.tables.CheckAndReserve(tx, tableID, o, o.ID); err != nil {
			return "", err
		}
		o.TableID = &tableID
		o.Type = models.TypeDineIn
		err := tx.Model(&models.Order{}).Where("id = ?", o.ID).Updates(map[string]any{
			"table_id": tableID,
			"type":     models.TypeDineIn,
		}).Error
		if err != nil {
			return "", apperr.Internal(err, "table assignment failed")
		}
		return notify.EventOrderModified, nil
	})
}

// UnassignTable takes the order off its table, releasing the resource if no
// other active order still holds it.
func (s *Service) UnassignTable(ctx context.Context, orderID uint, actorID uint) (*Snapshot, error) {
	return s.mutate(ctx, orderID, func(tx *gorm.DB, o *models.Order) (string, error) {
		if o.TableID == nil {
			return "", apperr.Validation("order %s has no table assigned", o.Number)
		}
		if err := s.tables.Release(tx, *o.TableID, o.ID); err != nil {
			return "", err
		}
		o.TableID = nil
		err := tx.Model(&models.Order{}).Where("id = ?", o.ID).
			Update("table_id", nil).Error
		if err != nil {
			return "", apperr.Internal(err, "table unassignment failed")
		}
		return notify.EventOrderModified, nil
	})
}
