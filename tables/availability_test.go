package tables

import (
	"errors"
	"testing"
	"time"

	"restaurant-pos-api/apperr"
	"restaurant-pos-api/models"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Restaurant{}, &models.Table{}, &models.Reservation{}, &models.Order{},
	))
	return db
}

func newTestChecker() *Checker {
	return NewChecker(zerolog.Nop())
}

func seedTable(t *testing.T, db *gorm.DB, restaurantID uint, status models.TableStatus) models.Table {
	t.Helper()
	table := models.Table{RestaurantID: restaurantID, Name: "T1", Status: status}
	require.NoError(t, db.Create(&table).Error)
	return table
}

func TestCheckAndReserveMarksTableOccupied(t *testing.T) {
	db := newTestDB(t)
	table := seedTable(t, db, 1, models.TableAvailable)
	order := models.Order{Number: "X-1", RestaurantID: 1}
	require.NoError(t, db.Create(&order).Error)

	require.NoError(t, newTestChecker().CheckAndReserve(db, table.ID, &order, order.ID))

	var got models.Table
	require.NoError(t, db.First(&got, table.ID).Error)
	assert.Equal(t, models.TableOccupied, got.Status)
}

func TestCheckAndReserveUnknownTable(t *testing.T) {
	db := newTestDB(t)
	order := models.Order{Number: "X-1", RestaurantID: 1}
	require.NoError(t, db.Create(&order).Error)

	err := newTestChecker().CheckAndReserve(db, 42, &order, order.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestCheckAndReserveCrossTenant(t *testing.T) {
	db := newTestDB(t)
	table := seedTable(t, db, 2, models.TableAvailable)
	order := models.Order{Number: "X-1", RestaurantID: 1}
	require.NoError(t, db.Create(&order).Error)

	err := newTestChecker().CheckAndReserve(db, table.ID, &order, order.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCrossTenant))
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestCheckAndReserveOutOfService(t *testing.T) {
	db := newTestDB(t)
	order := models.Order{Number: "X-1", RestaurantID: 1}
	require.NoError(t, db.Create(&order).Error)

	for _, status := range []models.TableStatus{models.TableOutOfService, models.TableCleaning} {
		table := seedTable(t, db, 1, status)
		err := newTestChecker().CheckAndReserve(db, table.ID, &order, order.ID)
		assert.True(t, errors.Is(err, ErrUnavailable), "status %s", status)
	}
}

func TestCheckAndReserveHeldByActiveOrder(t *testing.T) {
	db := newTestDB(t)
	table := seedTable(t, db, 1, models.TableOccupied)
	holder := models.Order{Number: "X-1", RestaurantID: 1, TableID: &table.ID, Status: models.OrderPreparing}
	require.NoError(t, db.Create(&holder).Error)
	order := models.Order{Number: "X-2", RestaurantID: 1}
	require.NoError(t, db.Create(&order).Error)

	err := newTestChecker().CheckAndReserve(db, table.ID, &order, order.ID)
	assert.True(t, errors.Is(err, ErrOccupied))
}

func TestCheckAndReserveReclaimsStaleOccupiedTable(t *testing.T) {
	db := newTestDB(t)
	// OCCUPIED by a manual status override, no order holds it
	table := seedTable(t, db, 1, models.TableOccupied)
	order := models.Order{Number: "X-1", RestaurantID: 1}
	require.NoError(t, db.Create(&order).Error)

	require.NoError(t, newTestChecker().CheckAndReserve(db, table.ID, &order, order.ID))

	var got models.Table
	require.NoError(t, db.First(&got, table.ID).Error)
	assert.Equal(t, models.TableOccupied, got.Status)
}

func TestCheckAndReserveTerminalHolderDoesNotBlock(t *testing.T) {
	db := newTestDB(t)
	table := seedTable(t, db, 1, models.TableAvailable)
	done := models.Order{Number: "X-1", RestaurantID: 1, TableID: &table.ID, Status: models.OrderCompleted}
	require.NoError(t, db.Create(&done).Error)
	order := models.Order{Number: "X-2", RestaurantID: 1}
	require.NoError(t, db.Create(&order).Error)

	assert.NoError(t, newTestChecker().CheckAndReserve(db, table.ID, &order, order.ID))
}

func TestCheckAndReserveReservationWindow(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	checker := newTestChecker()
	checker.now = func() time.Time { return now }

	table := seedTable(t, db, 1, models.TableAvailable)
	order := models.Order{Number: "X-1", RestaurantID: 1}
	require.NoError(t, db.Create(&order).Error)

	res := models.Reservation{
		RestaurantID: 1, TableID: table.ID,
		Status: models.ReservationConfirmed, StartsAt: now.Add(time.Hour),
	}
	require.NoError(t, db.Create(&res).Error)

	err := checker.CheckAndReserve(db, table.ID, &order, order.ID)
	assert.True(t, errors.Is(err, ErrReservationConflict))

	// a reservation outside the window does not block
	require.NoError(t, db.Model(&res).Update("starts_at", now.Add(3*time.Hour)).Error)
	assert.NoError(t, checker.CheckAndReserve(db, table.ID, &order, order.ID))
}

func TestCheckAndReservePendingReservationIgnored(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	checker := newTestChecker()
	checker.now = func() time.Time { return now }

	table := seedTable(t, db, 1, models.TableAvailable)
	order := models.Order{Number: "X-1", RestaurantID: 1}
	require.NoError(t, db.Create(&order).Error)
	require.NoError(t, db.Create(&models.Reservation{
		RestaurantID: 1, TableID: table.ID,
		Status: models.ReservationPending, StartsAt: now.Add(time.Hour),
	}).Error)

	assert.NoError(t, checker.CheckAndReserve(db, table.ID, &order, order.ID))
}

func TestReleaseFreesTable(t *testing.T) {
	db := newTestDB(t)
	table := seedTable(t, db, 1, models.TableOccupied)
	order := models.Order{Number: "X-1", RestaurantID: 1, TableID: &table.ID, Status: models.OrderCompleted}
	require.NoError(t, db.Create(&order).Error)

	require.NoError(t, newTestChecker().Release(db, table.ID, order.ID))

	var got models.Table
	require.NoError(t, db.First(&got, table.ID).Error)
	assert.Equal(t, models.TableAvailable, got.Status)
}

func TestReleaseIsNoOpWhileAnotherOrderHolds(t *testing.T) {
	db := newTestDB(t)
	table := seedTable(t, db, 1, models.TableOccupied)
	other := models.Order{Number: "X-1", RestaurantID: 1, TableID: &table.ID, Status: models.OrderPreparing}
	require.NoError(t, db.Create(&other).Error)
	order := models.Order{Number: "X-2", RestaurantID: 1, TableID: &table.ID, Status: models.OrderCompleted}
	require.NoError(t, db.Create(&order).Error)

	require.NoError(t, newTestChecker().Release(db, table.ID, order.ID))

	var got models.Table
	require.NoError(t, db.First(&got, table.ID).Error)
	assert.Equal(t, models.TableOccupied, got.Status)
}
