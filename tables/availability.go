// Package tables arbitrates seating-resource assignment: a table may be
// held by at most one active order, and confirmed reservations in a near
// window block assignment.
package tables

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"restaurant-pos-api/apperr"
	"restaurant-pos-api/models"
)

// ReservationWindow is how far around "now" a confirmed reservation blocks
// table assignment.
const ReservationWindow = 2 * time.Hour

// Sentinel causes so callers can tell the conflict flavors apart with
// errors.Is; every one of them surfaces as a Conflict.
var (
	ErrCrossTenant         = errors.New("table belongs to a different restaurant")
	ErrOccupied            = errors.New("table is held by another active order")
	ErrUnavailable         = errors.New("table is not in service")
	ErrReservationConflict = errors.New("table has a confirmed reservation nearby")
)

var terminalOrderStatuses = []models.OrderStatus{models.OrderCompleted, models.OrderCancelled}

type Checker struct {
	log zerolog.Logger
	now func() time.Time
}

func NewChecker(log zerolog.Logger) *Checker {
	return &Checker{log: log, now: time.Now}
}

// CheckAndReserve verifies a table can take the order and flips it to
// OCCUPIED. It runs inside the caller's transaction; on any failure nothing
// is mutated. The conditional occupancy update is the serialization point
// between two concurrent assignments: the loser sees zero rows affected and
// must retry the whole check.
func (c *Checker) CheckAndReserve(tx *gorm.DB, tableID uint, order *models.Order, excludeOrderID uint) error {
	var table models.Table
	if err := tx.First(&table, tableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("table %d not found", tableID)
		}
		return apperr.Internal(err, "table lookup failed")
	}
	if table.RestaurantID != order.RestaurantID {
		return apperr.Wrap(apperr.KindConflict, ErrCrossTenant,
			"table %d belongs to restaurant %d, order belongs to restaurant %d",
			tableID, table.RestaurantID, order.RestaurantID)
	}
	if table.Status == models.TableOutOfService || table.Status == models.TableCleaning {
		return apperr.Wrap(apperr.KindConflict, ErrUnavailable,
			"table %d is %s", tableID, table.Status)
	}

	var active int64
	err := tx.Model(&models.Order{}).
		Where("table_id = ? AND id <> ? AND status NOT IN ?", tableID, excludeOrderID, terminalOrderStatuses).
		Count(&active).Error
	if err != nil {
		return apperr.Internal(err, "active order check failed")
	}
	if active > 0 {
		return apperr.Wrap(apperr.KindConflict, ErrOccupied,
			"table %d is held by another active order", tableID)
	}

	now := c.now()
	var reservations int64
	err = tx.Model(&models.Reservation{}).
		Where("table_id = ? AND status = ? AND starts_at BETWEEN ? AND ?",
			tableID, models.ReservationConfirmed,
			now.Add(-ReservationWindow), now.Add(ReservationWindow)).
		Count(&reservations).Error
	if err != nil {
		return apperr.Internal(err, "reservation check failed")
	}
	if reservations > 0 {
		return apperr.Wrap(apperr.KindConflict, ErrReservationConflict,
			"table %d has a confirmed reservation within %s", tableID, ReservationWindow)
	}

	// Compare-and-set against the status we read. A stale OCCUPIED row with
	// zero active orders is reclaimable; a row changed since the read means a
	// concurrent assignment won.
	res := tx.Model(&models.Table{}).
		Where("id = ? AND status = ?", tableID, table.Status).
		Update("status", models.TableOccupied)
	if res.Error != nil {
		return apperr.Internal(res.Error, "table occupancy update failed")
	}
	if res.RowsAffected == 0 {
		return apperr.Wrap(apperr.KindConflict, ErrOccupied,
			"table %d was occupied concurrently", tableID)
	}
	c.log.Debug().Uint("table_id", tableID).Uint("order_id", order.ID).Msg("table reserved")
	return nil
}

// Release frees the table if no other active order still holds it;
// otherwise it is a no-op. Called on unassignment and when an order holding
// a table reaches a terminal status.
func (c *Checker) Release(tx *gorm.DB, tableID, orderID uint) error {
	var active int64
	err := tx.Model(&models.Order{}).
		Where("table_id = ? AND id <> ? AND status NOT IN ?", tableID, orderID, terminalOrderStatuses).
		Count(&active).Error
	if err != nil {
		return apperr.Internal(err, "active order check failed")
	}
	if active > 0 {
		return nil
	}
	err = tx.Model(&models.Table{}).
		Where("id = ? AND status = ?", tableID, models.TableOccupied).
		Update("status", models.TableAvailable).Error
	if err != nil {
		return apperr.Internal(err, "table release failed")
	}
	c.log.Debug().Uint("table_id", tableID).Uint("order_id", orderID).Msg("table released")
	return nil
}
