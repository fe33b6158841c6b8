package orders

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"restaurant-pos-api/apperr"
	"restaurant-pos-api/catalog"
	"restaurant-pos-api/loyalty"
	"restaurant-pos-api/models"
	"restaurant-pos-api/notify"
	"restaurant-pos-api/tables"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	svc    *Service
	ledger loyalty.Ledger
	db     *gorm.DB

	restaurant models.Restaurant
	customer   models.Customer
	table      models.Table
	burgerID   uint // 300, cheese additive 50
	pizzaID    uint // 500
	cheeseID   uint
	perPerson  models.OrderAddOnDef // PER_PERSON 20
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	// file-backed so the ledger's own transactions see the same database as
	// the order transaction
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "orders.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Customer{},
		&models.Restaurant{}, &models.Table{}, &models.Reservation{},
		&models.Product{}, &models.Additive{},
		&models.RestaurantProduct{}, &models.RestaurantAdditive{}, &models.OrderAddOnDef{},
		&models.Order{}, &models.OrderItem{}, &models.OrderItemAdditive{},
		&models.OrderAddOn{}, &models.Surcharge{}, &models.OrderStatusHistory{},
		&models.Discount{}, &models.DiscountProduct{}, &models.DiscountApplication{},
		&models.Payment{},
		&models.BonusAccount{}, &models.BonusTransaction{}, &models.PersonalDiscount{},
	))

	f := &fixture{db: db}
	f.restaurant = models.Restaurant{NetworkID: 1, Name: "Trattoria", BonusEarnPercent: 10}
	require.NoError(t, db.Create(&f.restaurant).Error)
	f.customer = models.Customer{Name: "Guest"}
	require.NoError(t, db.Create(&f.customer).Error)
	f.table = models.Table{RestaurantID: f.restaurant.ID, Name: "T1"}
	require.NoError(t, db.Create(&f.table).Error)

	burger := models.Product{Name: "Burger"}
	pizza := models.Product{Name: "Pizza"}
	cheese := models.Additive{Name: "Cheese"}
	require.NoError(t, db.Create(&burger).Error)
	require.NoError(t, db.Create(&pizza).Error)
	require.NoError(t, db.Create(&cheese).Error)
	f.burgerID, f.pizzaID, f.cheeseID = burger.ID, pizza.ID, cheese.ID

	require.NoError(t, db.Create(&models.RestaurantProduct{
		RestaurantID: f.restaurant.ID, ProductID: burger.ID, Price: 300,
	}).Error)
	require.NoError(t, db.Create(&models.RestaurantProduct{
		RestaurantID: f.restaurant.ID, ProductID: pizza.ID, Price: 500,
	}).Error)
	require.NoError(t, db.Create(&models.RestaurantAdditive{
		RestaurantID: f.restaurant.ID, AdditiveID: cheese.ID, Price: 50,
	}).Error)

	f.perPerson = models.OrderAddOnDef{
		RestaurantID: f.restaurant.ID, Name: "Cutlery", Mode: models.AddOnPerPerson, UnitPrice: 20, Active: true,
	}
	require.NoError(t, db.Create(&f.perPerson).Error)

	f.ledger = loyalty.NewGormLedger(db)
	f.svc = New(db, catalog.NewService(db), f.ledger,
		tables.NewChecker(zerolog.Nop()), notify.NewDispatcher(nil, zerolog.Nop()), zerolog.Nop())
	return f
}

// full quote: (300+50)*2 items, 20*3 per-person add-on, 10% service charge
func (f *fixture) fullQuoteRequest() CreateOrderRequest {
	return CreateOrderRequest{
		RestaurantID: f.restaurant.ID,
		CustomerID:   &f.customer.ID,
		PartySize:    3,
		Items: []AddItemRequest{
			{ProductID: f.burgerID, Quantity: 2, AdditiveIDs: []uint{f.cheeseID}},
		},
		AddOns: []AddOnRequest{
			{DefID: f.perPerson.ID, Quantity: 1},
		},
		Surcharges: []SurchargeRequest{
			{Name: "Service", Mode: models.SurchargePercentage, Value: 10},
		},
	}
}

func TestCreateOrderFullQuote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	snap, err := f.svc.Create(ctx, f.fullQuoteRequest(), 1)
	require.NoError(t, err)

	assert.Equal(t, int64(700), snap.ItemSubtotal)
	assert.Equal(t, int64(60), snap.AddOnSubtotal)
	assert.Equal(t, int64(76), snap.SurchargeTotal)
	assert.Equal(t, int64(836), snap.Total)
	assert.Equal(t, models.OrderCreated, snap.Status)
	assert.True(t, strings.HasPrefix(snap.Number, time.Now().Format("20060102")+"-"))

	require.NotNil(t, snap.Payment)
	assert.Equal(t, int64(836), snap.Payment.Amount)
	assert.Equal(t, models.PaymentPending, snap.Payment.Status)

	require.Len(t, snap.Items, 1)
	assert.Equal(t, int64(700), snap.Items[0].Total)
	require.Len(t, snap.Items[0].Additives, 1)
	assert.Equal(t, int64(50), snap.Items[0].Additives[0].Price)

	var history []models.OrderStatusHistory
	require.NoError(t, f.db.Where("order_id = ?", snap.ID).Find(&history).Error)
	require.Len(t, history, 1)
	assert.Equal(t, models.OrderCreated, history[0].ToStatus)
}

func TestCreateOrderClosedRestaurant(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(&f.restaurant).Update("is_open", false).Error)

	_, err := f.svc.Create(context.Background(), f.fullQuoteRequest(), 1)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestCreateOrderStopListedProduct(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(&models.RestaurantProduct{}).
		Where("product_id = ?", f.burgerID).Update("stopped", true).Error)

	_, err := f.svc.Create(context.Background(), f.fullQuoteRequest(), 1)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	// nothing committed
	var count int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	f := newFixture(t)
	req := f.fullQuoteRequest()
	req.Items[0].ProductID = 999

	_, err := f.svc.Create(context.Background(), req, 1)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestCreateOrderWithTableReservesIt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.fullQuoteRequest()
	req.TableID = &f.table.ID
	snap, err := f.svc.Create(ctx, req, 1)
	require.NoError(t, err)
	assert.Equal(t, models.TypeDineIn, snap.Type)

	var got models.Table
	require.NoError(t, f.db.First(&got, f.table.ID).Error)
	assert.Equal(t, models.TableOccupied, got.Status)

	// a second order cannot take the same table
	_, err = f.svc.Create(ctx, req, 1)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestAddThenRemoveItemRestoresTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	snap, err := f.svc.Create(ctx, f.fullQuoteRequest(), 1)
	require.NoError(t, err)
	before := snap.Total

	snap, err = f.svc.AddItem(ctx, snap.ID, AddItemRequest{ProductID: f.pizzaID, Quantity: 1}, 1)
	require.NoError(t, err)
	// 500 more plus 10% of it in the service charge
	assert.Equal(t, before+550, snap.Total)
	assert.Equal(t, snap.Total, snap.Payment.Amount)

	var added uint
	for _, it := range snap.Items {
		if it.ProductID == f.pizzaID {
			added = it.ID
		}
	}
	require.NotZero(t, added)

	snap, err = f.svc.RemoveItem(ctx, snap.ID, added, 1)
	require.NoError(t, err)
	assert.Equal(t, before, snap.Total)
	assert.Equal(t, before, snap.Payment.Amount)
}

func TestAddItemAfterKitchenStartFlagsReordered(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	snap, err := f.svc.Create(ctx, f.fullQuoteRequest(), 1)
	require.NoError(t, err)
	assert.False(t, snap.Attention.IsReordered)

	snap, err = f.svc.UpdateItemStatus(ctx, snap.ID, snap.Items[0].ID, models.ItemInProgress, 5, "")
	require.NoError(t, err)

	snap, err = f.svc.AddItem(ctx, snap.ID, AddItemRequest{ProductID: f.pizzaID, Quantity: 1}, 1)
	require.NoError(t, err)
	assert.True(t, snap.Attention.IsReordered)
	for _, it := range snap.Items {
		if it.ProductID == f.pizzaID {
			assert.True(t, it.IsReordered)
		}
	}
}

func TestUpdateItemStatusDerivesOrderStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	snap, err := f.svc.Create(ctx, f.fullQuoteRequest(), 1)
	require.NoError(t, err)
	itemID := snap.Items[0].ID

	snap, err = f.svc.UpdateItemStatus(ctx, snap.ID, itemID, models.ItemInProgress, 5, "")
	require.NoError(t, err)
	assert.Equal(t, models.OrderPreparing, snap.Status)
	require.NotNil(t, snap.Items[0].AssigneeID)
	assert.Equal(t, uint(5), *snap.Items[0].AssigneeID)

	snap, err = f.svc.UpdateItemStatus(ctx, snap.ID, itemID, models.ItemCompleted, 5, "")
	require.NoError(t, err)
	assert.Equal(t, models.OrderReady, snap.Status)
}

func TestUpdateItemStatusRejectsRefund(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.UpdateItemStatus(context.Background(), 1, 1, models.ItemRefunded, 1, "")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestCancelledItemDropsOutOfTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.fullQuoteRequest()
	req.Items = append(req.Items, AddItemRequest{ProductID: f.pizzaID, Quantity: 1})
	snap, err := f.svc.Create(ctx, req, 1)
	require.NoError(t, err)

	var pizzaLine uint
	for _, it := range snap.Items {
		if it.ProductID == f.pizzaID {
			pizzaLine = it.ID
		}
	}
	snap, err = f.svc.UpdateItemStatus(ctx, snap.ID, pizzaLine, models.ItemCancelled, 1, "86'd")
	require.NoError(t, err)

	// back to the single-burger quote
	assert.Equal(t, int64(836), snap.Total)
	for _, it := range snap.Items {
		if it.ID == pizzaLine {
			assert.Equal(t, models.ItemCancelled, it.Status)
			assert.Equal(t, "86'd", it.CancelReason)
			assert.Zero(t, it.Total)
		}
	}
}

func TestBulkUpdateRejectsForeignItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	snap, err := f.svc.Create(ctx, f.fullQuoteRequest(), 1)
	require.NoError(t, err)
	itemID := snap.Items[0].ID

	_, err = f.svc.BulkUpdateItemStatus(ctx, snap.ID, []ItemStatusChange{
		{ItemID: itemID, Status: models.ItemInProgress},
		{ItemID: 777, Status: models.ItemInProgress},
		{ItemID: 888, Status: models.ItemInProgress},
	}, 1)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "777")
	assert.Contains(t, err.Error(), "888")

	// the valid entry was not applied either
	var item models.OrderItem
	require.NoError(t, f.db.First(&item, itemID).Error)
	assert.Equal(t, models.ItemCreated, item.Status)
}

func TestBulkUpdateAllOrNothingOnInvalidTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.fullQuoteRequest()
	req.Items = append(req.Items, AddItemRequest{ProductID: f.pizzaID, Quantity: 1})
	snap, err := f.svc.Create(ctx, req, 1)
	require.NoError(t, err)

	_, err = f.svc.BulkUpdateItemStatus(ctx, snap.ID, []ItemStatusChange{
		{ItemID: snap.Items[0].ID, Status: models.ItemInProgress},
		{ItemID: snap.Items[1].ID, Status: models.ItemCompleted}, // CREATED -> COMPLETED is invalid
	}, 1)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))

	var item models.OrderItem
	require.NoError(t, f.db.First(&item, snap.Items[0].ID).Error)
	assert.Equal(t, models.ItemCreated, item.Status)
}

func TestBulkUpdateValidatesRepeatedItemAgainstProjectedStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	snap, err := f.svc.Create(ctx, f.fullQuoteRequest(), 1)
	require.NoError(t, err)
	itemID := snap.Items[0].ID

	// Both entries are valid from CREATED, but the second must be judged
	// against the first's outcome: CANCELLED -> IN_PROGRESS is a dead end.
	_, err = f.svc.BulkUpdateItemStatus(ctx, snap.ID, []ItemStatusChange{
		{ItemID: itemID, Status: models.ItemCancelled, Reason: "misfire"},
		{ItemID: itemID, Status: models.ItemInProgress},
	}, 1)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))

	var item models.OrderItem
	require.NoError(t, f.db.First(&item, itemID).Error)
	assert.Equal(t, models.ItemCreated, item.Status)
	assert.Nil(t, item.CancelledAt)
}

func TestBulkUpdateAllowsChainedTransitionsOnOneItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	snap, err := f.svc.Create(ctx, f.fullQuoteRequest(), 1)
	require.NoError(t, err)
	itemID := snap.Items[0].ID

	snap, err = f.svc.BulkUpdateItemStatus(ctx, snap.ID, []ItemStatusChange{
		{ItemID: itemID, Status: models.ItemInProgress},
		{ItemID: itemID, Status: models.ItemCompleted},
	}, 1)
	require.NoError(t, err)
	assert.Equal(t, models.ItemCompleted, snap.Items[0].Status)
	assert.Equal(t, models.OrderReady, snap.Status)
}

func TestBulkUpdateDerivesReady(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.fullQuoteRequest()
	req.Items = append(req.Items, AddItemRequest{ProductID: f.pizzaID, Quantity: 1})
	snap, err := f.svc.Create(ctx, req, 1)
	require.NoError(t, err)

	changes := []ItemStatusChange{
		{ItemID: snap.Items[0].ID, Status: models.ItemInProgress},
		{ItemID: snap.Items[1].ID, Status: models.ItemInProgress},
	}
	snap, err = f.svc.BulkUpdateItemStatus(ctx, snap.ID, changes, 1)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPreparing, snap.Status)

	for i := range changes {
		changes[i].Status = models.ItemCompleted
	}
	snap, err = f.svc.BulkUpdateItemStatus(ctx, snap.ID, changes, 1)
	require.NoError(t, err)
	assert.Equal(t, models.OrderReady, snap.Status)
}

func TestApplyAndRemoveDiscount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	discount := models.Discount{
		RestaurantID: f.restaurant.ID, Name: "Happy Hour",
		Mode: models.DiscountPercentage, Value: 20, Target: models.TargetAll, Active: true,
	}
	require.NoError(t, f.db.Create(&discount).Error)

	snap, err := f.svc.Create(ctx, f.fullQuoteRequest(), 1)
	require.NoError(t, err)
	orderID, before := snap.ID, snap.Total

	snap, err = f.svc.ApplyDiscount(ctx, orderID, discount.ID, 1)
	require.NoError(t, err)
	// 20% of 836 rounded down
	assert.Equal(t, int64(167), snap.DiscountTotal)
	assert.Equal(t, before-167, snap.Total)
	assert.Equal(t, snap.Total, snap.Payment.Amount)
	assert.True(t, snap.Attention.HasDiscount)
	require.Len(t, snap.Discounts, 1)

	var d models.Discount
	require.NoError(t, f.db.First(&d, discount.ID).Error)
	assert.Equal(t, int64(1), d.UsageCount)

	snap, err = f.svc.RemoveDiscount(ctx, orderID, snap.Discounts[0].ID, 1)
	require.NoError(t, err)
	assert.Equal(t, before, snap.Total)
	assert.Zero(t, snap.DiscountTotal)
	assert.False(t, snap.Attention.HasDiscount)
	assert.True(t, snap.Attention.DiscountCanceled)

	require.NoError(t, f.db.First(&d, discount.ID).Error)
	assert.Zero(t, d.UsageCount)
}

func TestApplyDiscountFromAnotherRestaurant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other := models.Restaurant{NetworkID: 1, Name: "Elsewhere"}
	require.NoError(t, f.db.Create(&other).Error)
	discount := models.Discount{
		RestaurantID: other.ID, Name: "Foreign",
		Mode: models.DiscountPercentage, Value: 10, Target: models.TargetAll, Active: true,
	}
	require.NoError(t, f.db.Create(&discount).Error)

	snap, err := f.svc.Create(ctx, f.fullQuoteRequest(), 1)
	require.NoError(t, err)

	_, err = f.svc.ApplyDiscount(ctx, snap.ID, discount.ID, 1)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestApplyPersonalDiscount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.db.Create(&models.PersonalDiscount{
		CustomerID: f.customer.ID, RestaurantID: f.restaurant.ID, Percent: 10, Active: true,
	}).Error)

	snap, err := f.svc.Create(ctx, f.fullQuoteRequest(), 1)
	require.NoError(t, err)

	snap, err = f.svc.ApplyPersonalDiscount(ctx, snap.ID, 1)
	require.NoError(t, err)
	// 10% of 836 rounded down
	assert.Equal(t, int64(83), snap.DiscountTotal)
	require.Len(t, snap.Discounts, 1)
	assert.Nil(t, snap.Discounts[0].DiscountID)
}

func TestBonusRedeemAndRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.EarnBonusPoints(ctx, f.customer.ID, f.restaurant.NetworkID, 500, 0, "seed")
	require.NoError(t, err)

	snap, err := f.svc.Create(ctx, f.fullQuoteRequest(), 1)
	require.NoError(t, err)
	orderID := snap.ID

	snap, err = f.svc.ApplyBonusPoints(ctx, orderID, 100, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(736), snap.Total)
	assert.Equal(t, int64(100), snap.BonusPointsUsed)
	assert.Equal(t, int64(736), snap.Payment.Amount)

	balance, err := f.ledger.BonusBalance(ctx, f.customer.ID, f.restaurant.NetworkID)
	require.NoError(t, err)
	assert.Equal(t, int64(400), balance)

	snap, err = f.svc.RemoveBonusPoints(ctx, orderID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(836), snap.Total)
	assert.Zero(t, snap.BonusPointsUsed)

	balance, err = f.ledger.BonusBalance(ctx, f.customer.ID, f.restaurant.NetworkID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), balance)
}

func TestBonusRedeemInsufficientBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	snap, err := f.svc.Create(ctx, f.fullQuoteRequest(), 1)
	require.NoError(t, err)

	_, err = f.svc.ApplyBonusPoints(ctx, snap.ID, 100, 1)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	// order untouched
	after, err := f.svc.Get(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.Total, after.Total)
	assert.Zero(t, after.BonusPointsUsed)
}

func TestBonusRedeemCannotExceedTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.EarnBonusPoints(ctx, f.customer.ID, f.restaurant.NetworkID, 5000, 0, "seed")
	require.NoError(t, err)

	snap, err := f.svc.Create(ctx, f.fullQuoteRequest(), 1)
	require.NoError(t, err)

	_, err = f.svc.ApplyBonusPoints(ctx, snap.ID, snap.Total+1, 1)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestAssignTableConflictAndNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, f.fullQuoteRequest(), 1)
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, f.fullQuoteRequest(), 1)
	require.NoError(t, err)

	_, err = f.svc.AssignTable(ctx, first.ID, f.table.ID, 1)
	require.NoError(t, err)

	// re-assigning the same table is a no-op
	snap, err := f.svc.AssignTable(ctx, first.ID, f.table.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, snap.TableID)
	assert.Equal(t, f.table.ID, *snap.TableID)

	_, err = f.svc.AssignTable(ctx, second.ID, f.table.ID, 1)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	// releasing frees it for the second order
	_, err = f.svc.UnassignTable(ctx, first.ID, 1)
	require.NoError(t, err)
	_, err = f.svc.AssignTable(ctx, second.ID, f.table.ID, 1)
	require.NoError(t, err)
}

func TestTerminalOrderReleasesTable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.fullQuoteRequest()
	req.TableID = &f.table.ID
	snap, err := f.svc.Create(ctx, req, 1)
	require.NoError(t, err)

	_, err = f.svc.ChangeStatus(ctx, snap.ID, models.OrderCancelled, 1, "guest left")
	require.NoError(t, err)

	var got models.Table
	require.NoError(t, f.db.First(&got, f.table.ID).Error)
	assert.Equal(t, models.TableAvailable, got.Status)
}

func TestChangeStatusEnforcesStateMachine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	snap, err := f.svc.Create(ctx, f.fullQuoteRequest(), 1)
	require.NoError(t, err)

	_, err = f.svc.ChangeStatus(ctx, snap.ID, models.OrderReady, 1, "")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))

	snap, err = f.svc.ChangeStatus(ctx, snap.ID, models.OrderConfirmed, 1, "")
	require.NoError(t, err)
	assert.Equal(t, models.OrderConfirmed, snap.Status)
}

func TestSettlePaymentFreezesOrderAndEarnsPoints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	snap, err := f.svc.Create(ctx, f.fullQuoteRequest(), 1)
	require.NoError(t, err)

	snap, err = f.svc.SettlePayment(ctx, snap.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentSettled, snap.Payment.Status)

	// 10% of 836 rounded down
	balance, err := f.ledger.BonusBalance(ctx, f.customer.ID, f.restaurant.NetworkID)
	require.NoError(t, err)
	assert.Equal(t, int64(83), balance)

	// composition is frozen now
	_, err = f.svc.AddItem(ctx, snap.ID, AddItemRequest{ProductID: f.pizzaID, Quantity: 1}, 1)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))

	_, err = f.svc.SettlePayment(ctx, snap.ID, 1)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))
}

func TestRefundItemAfterSettlementRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	snap, err := f.svc.Create(ctx, f.fullQuoteRequest(), 1)
	require.NoError(t, err)
	_, err = f.svc.SettlePayment(ctx, snap.ID, 1)
	require.NoError(t, err)

	_, err = f.svc.RefundItem(ctx, snap.ID, snap.Items[0].ID, "cold", 1)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))
}

func TestRefundItemDropsLineAndFlagsOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.fullQuoteRequest()
	req.Items = append(req.Items, AddItemRequest{ProductID: f.pizzaID, Quantity: 1})
	snap, err := f.svc.Create(ctx, req, 1)
	require.NoError(t, err)

	var pizzaLine uint
	for _, it := range snap.Items {
		if it.ProductID == f.pizzaID {
			pizzaLine = it.ID
		}
	}
	snap, err = f.svc.RefundItem(ctx, snap.ID, pizzaLine, "wrong order", 9)
	require.NoError(t, err)

	assert.Equal(t, int64(836), snap.Total)
	assert.True(t, snap.Attention.IsRefund)
	for _, it := range snap.Items {
		if it.ID == pizzaLine {
			assert.Equal(t, models.ItemRefunded, it.Status)
			assert.Equal(t, "wrong order", it.RefundReason)
		}
	}

	var item models.OrderItem
	require.NoError(t, f.db.First(&item, pizzaLine).Error)
	require.NotNil(t, item.RefundedByID)
	assert.Equal(t, uint(9), *item.RefundedByID)
}

func TestAttachAndRemoveAddOn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	snap, err := f.svc.Create(ctx, f.fullQuoteRequest(), 1)
	require.NoError(t, err)
	before := snap.Total

	corkage := models.OrderAddOnDef{
		RestaurantID: f.restaurant.ID, Name: "Corkage", Mode: models.AddOnFixed, UnitPrice: 150, Active: true,
	}
	require.NoError(t, f.db.Create(&corkage).Error)

	snap, err = f.svc.AttachAddOn(ctx, snap.ID, AddOnRequest{DefID: corkage.ID, Quantity: 1}, 1)
	require.NoError(t, err)
	// 150 plus 10% of it in the service charge
	assert.Equal(t, before+165, snap.Total)

	var attached uint
	for _, a := range snap.AddOns {
		if a.DefID == corkage.ID {
			attached = a.ID
		}
	}
	require.NotZero(t, attached)

	snap, err = f.svc.RemoveAddOn(ctx, snap.ID, attached, 1)
	require.NoError(t, err)
	assert.Equal(t, before, snap.Total)
}

func TestUpdateItemQuantityRepricesAddOns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	perItem := models.OrderAddOnDef{
		RestaurantID: f.restaurant.ID, Name: "Packaging", Mode: models.AddOnPerItem, UnitPrice: 10, Active: true,
	}
	require.NoError(t, f.db.Create(&perItem).Error)

	snap, err := f.svc.Create(ctx, CreateOrderRequest{
		RestaurantID: f.restaurant.ID,
		Items:        []AddItemRequest{{ProductID: f.burgerID, Quantity: 2}},
		AddOns:       []AddOnRequest{{DefID: perItem.ID, Quantity: 1}},
	}, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(620), snap.Total) // 600 + 10*2

	snap, err = f.svc.UpdateItemQuantity(ctx, snap.ID, snap.Items[0].ID, 5, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1550), snap.Total) // 1500 + 10*5
	assert.Equal(t, int64(50), snap.AddOns[0].Total)
}

func TestSweepScheduledStartsDueOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	soon := time.Now().Add(30 * time.Minute)
	req := f.fullQuoteRequest()
	req.Type = models.TypeScheduled
	req.ScheduledFor = &soon
	snap, err := f.svc.Create(ctx, req, 1)
	require.NoError(t, err)
	_, err = f.svc.ChangeStatus(ctx, snap.ID, models.OrderConfirmed, 1, "")
	require.NoError(t, err)

	// a far-future order must not start
	far := time.Now().Add(6 * time.Hour)
	reqFar := f.fullQuoteRequest()
	reqFar.Type = models.TypeScheduled
	reqFar.ScheduledFor = &far
	farSnap, err := f.svc.Create(ctx, reqFar, 1)
	require.NoError(t, err)
	_, err = f.svc.ChangeStatus(ctx, farSnap.ID, models.OrderConfirmed, 1, "")
	require.NoError(t, err)

	started, err := f.svc.SweepScheduled(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, started)

	got, err := f.svc.Get(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPreparing, got.Status)
	for _, it := range got.Items {
		assert.Equal(t, models.ItemInProgress, it.Status)
	}

	farGot, err := f.svc.Get(ctx, farSnap.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderConfirmed, farGot.Status)

	// the sweep is idempotent
	started, err = f.svc.SweepScheduled(ctx)
	require.NoError(t, err)
	assert.Zero(t, started)
}

func TestGetUnknownOrder(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Get(context.Background(), 42)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
