// Package orders is the order orchestrator: every operation runs as one
// atomic unit of work (catalog reads, pricing, table arbitration, storage
// writes) and emits a denormalized snapshot plus a post-commit notification.
package orders

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"restaurant-pos-api/apperr"
	"restaurant-pos-api/catalog"
	"restaurant-pos-api/loyalty"
	"restaurant-pos-api/models"
	"restaurant-pos-api/notify"
	"restaurant-pos-api/pricing"
	"restaurant-pos-api/statemachine"
	"restaurant-pos-api/tables"
)

type Service struct {
	db       *gorm.DB
	catalog  *catalog.Service
	ledger   loyalty.Ledger
	tables   *tables.Checker
	notifier *notify.Dispatcher
	log      zerolog.Logger

	now            func() time.Time
	numberAttempts int
}

func New(db *gorm.DB, cat *catalog.Service, ledger loyalty.Ledger, checker *tables.Checker, notifier *notify.Dispatcher, log zerolog.Logger) *Service {
	return &Service{
		db:             db,
		catalog:        cat,
		ledger:         ledger,
		tables:         checker,
		notifier:       notifier,
		log:            log,
		now:            time.Now,
		numberAttempts: 5,
	}
}

// AddItemRequest describes one line to add; additive prices are frozen from
// the catalog at add time.
type AddItemRequest struct {
	ProductID   uint   `json:"product_id" binding:"required"`
	Quantity    int    `json:"quantity" binding:"required,min=1"`
	Comment     string `json:"comment"`
	AdditiveIDs []uint `json:"additive_ids"`
}

type AddOnRequest struct {
	DefID    uint `json:"def_id" binding:"required"`
	Quantity int  `json:"quantity" binding:"required,min=1"`
}

type SurchargeRequest struct {
	Name  string               `json:"name" binding:"required"`
	Mode  models.SurchargeMode `json:"mode" binding:"required"`
	Value int64                `json:"value" binding:"required"`
}

type CreateOrderRequest struct {
	RestaurantID uint               `json:"restaurant_id" binding:"required"`
	Type         models.OrderType   `json:"type"`
	CustomerID   *uint              `json:"customer_id"`
	TableID      *uint              `json:"table_id"`
	PartySize    int                `json:"party_size"`
	Comment      string             `json:"comment"`
	ScheduledFor *time.Time         `json:"scheduled_for"`
	DeliveryFee  int64              `json:"delivery_fee"`
	Items        []AddItemRequest   `json:"items"`
	AddOns       []AddOnRequest     `json:"add_ons"`
	Surcharges   []SurchargeRequest `json:"surcharges"`
}

var validOrderTypes = map[models.OrderType]bool{
	models.TypeDineIn:    true,
	models.TypeTakeaway:  true,
	models.TypeDelivery:  true,
	models.TypeBanquet:   true,
	models.TypeScheduled: true,
}

// Create builds a new order with frozen prices, reserves the table if one
// is requested, persists order, items, add-ons, surcharges and a pending
// payment in one transaction, and notifies after commit.
func (s *Service) Create(ctx context.Context, req CreateOrderRequest, actorID uint) (*Snapshot, error) {
	if req.Type == "" {
		req.Type = models.TypeDineIn
	}
	if !validOrderTypes[req.Type] {
		return nil, apperr.Validation("unknown order type %q", req.Type)
	}
	if req.PartySize < 0 {
		return nil, apperr.Validation("party size cannot be negative")
	}
	if req.DeliveryFee < 0 {
		return nil, apperr.Validation("delivery fee cannot be negative")
	}
	for _, it := range req.Items {
		if it.Quantity < 1 {
			return nil, apperr.Validation("item quantity must be at least 1")
		}
	}
	for _, a := range req.AddOns {
		if a.Quantity < 1 {
			return nil, apperr.Validation("add-on quantity must be at least 1")
		}
	}
	for _, sc := range req.Surcharges {
		if sc.Mode != models.SurchargeFixed && sc.Mode != models.SurchargePercentage {
			return nil, apperr.Validation("unknown surcharge mode %q", sc.Mode)
		}
		if sc.Value < 0 {
			return nil, apperr.Validation("surcharge value cannot be negative")
		}
	}

	var snap *Snapshot
	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var restaurant models.Restaurant
		if err := tx.First(&restaurant, req.RestaurantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("restaurant %d not found", req.RestaurantID)
			}
			return apperr.Internal(err, "restaurant lookup failed")
		}
		if !restaurant.IsOpen {
			return apperr.Validation("restaurant %q is currently closed", restaurant.Name)
		}
		if req.CustomerID != nil {
			var customer models.Customer
			if err := tx.First(&customer, *req.CustomerID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.NotFound("customer %d not found", *req.CustomerID)
				}
				return apperr.Internal(err, "customer lookup failed")
			}
		}

		items, err := s.buildItems(ctx, req.RestaurantID, req.Items)
		if err != nil {
			return err
		}
		addOns, err := s.buildAddOns(ctx, req.RestaurantID, req.AddOns)
		if err != nil {
			return err
		}

		surcharges := make([]models.Surcharge, 0, len(req.Surcharges)+1)
		for _, sc := range req.Surcharges {
			surcharges = append(surcharges, models.Surcharge{
				Name: sc.Name, Mode: sc.Mode, Value: sc.Value,
			})
		}
		if req.DeliveryFee > 0 {
			surcharges = append(surcharges, models.Surcharge{
				Name: "Delivery", Kind: models.SurchargeKindDelivery,
				Mode: models.SurchargeFixed, Value: req.DeliveryFee,
			})
		}

		number, err := s.generateNumber(tx)
		if err != nil {
			return err
		}

		order = models.Order{
			Number:       number,
			RestaurantID: req.RestaurantID,
			CustomerID:   req.CustomerID,
			Status:       models.OrderCreated,
			Type:         req.Type,
			PartySize:    req.PartySize,
			Comment:      req.Comment,
			ScheduledFor: req.ScheduledFor,
			Items:        items,
			AddOns:       addOns,
			Surcharges:   surcharges,
		}
		if req.TableID != nil {
			order.Type = models.TypeDineIn
		}

		q, err := pricing.Calculate(pricing.InputFromOrder(&order))
		if err != nil {
			return err
		}
		for i := range order.AddOns {
			order.AddOns[i].Total = q.AddOnTotals[i]
		}
		for i := range order.Surcharges {
			order.Surcharges[i].Amount = q.SurchargeAmounts[i]
		}
		order.Total = q.Total

		if err := tx.Create(&order).Error; err != nil {
			return apperr.Internal(err, "order create failed")
		}

		if req.TableID != nil {
			if err := s.tables.CheckAndReserve(tx, *req.TableID, &order, order.ID); err != nil {
				return err
			}
			order.TableID = req.TableID
			if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).
				Update("table_id", *req.TableID).Error; err != nil {
				return apperr.Internal(err, "table assignment failed")
			}
		}

		payment := models.Payment{OrderID: order.ID, Amount: order.Total, Status: models.PaymentPending}
		if err := tx.Create(&payment).Error; err != nil {
			return apperr.Internal(err, "payment create failed")
		}

		history := models.OrderStatusHistory{
			OrderID: order.ID, ToStatus: models.OrderCreated,
			ChangedBy: actorID, Note: "order created",
		}
		if err := tx.Create(&history).Error; err != nil {
			return apperr.Internal(err, "status history write failed")
		}

		loaded, err := s.loadOrder(tx, order.ID)
		if err != nil {
			return err
		}
		snap = s.snapshot(loaded)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Uint("order_id", order.ID).Str("number", order.Number).
		Int64("total", order.Total).Msg("order created")
	s.notifier.PublishOrderEvent(notify.EventOrderCreated, order.RestaurantID, order.ID, snap)
	return snap, nil
}

// Get returns the denormalized snapshot of one order.
func (s *Service) Get(ctx context.Context, orderID uint) (*Snapshot, error) {
	o, err := s.loadOrder(s.db.WithContext(ctx), orderID)
	if err != nil {
		return nil, err
	}
	return s.snapshot(o), nil
}

// buildItems resolves products and additives and freezes their prices onto
// new order lines. Stop-listed entries are rejected.
func (s *Service) buildItems(ctx context.Context, restaurantID uint, reqs []AddItemRequest) ([]models.OrderItem, error) {
	if len(reqs) == 0 {
		return nil, nil
	}
	productIDs := make([]uint, 0, len(reqs))
	additiveIDs := make([]uint, 0)
	for _, r := range reqs {
		productIDs = append(productIDs, r.ProductID)
		additiveIDs = append(additiveIDs, r.AdditiveIDs...)
	}
	products, err := s.catalog.Products(ctx, restaurantID, productIDs)
	if err != nil {
		return nil, err
	}
	additives, err := s.catalog.Additives(ctx, restaurantID, additiveIDs)
	if err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, 0, len(reqs))
	for _, r := range reqs {
		p := products[r.ProductID]
		if p.Stopped {
			return nil, apperr.Validation("product %q is stop-listed for this restaurant", p.Name)
		}
		item := models.OrderItem{
			ProductID: r.ProductID,
			Name:      p.Name,
			Quantity:  r.Quantity,
			UnitPrice: p.Price,
			Comment:   r.Comment,
			Status:    models.ItemCreated,
		}
		for _, aid := range r.AdditiveIDs {
			a := additives[aid]
			if a.Stopped {
				return nil, apperr.Validation("additive %q is stop-listed for this restaurant", a.Name)
			}
			item.Additives = append(item.Additives, models.OrderItemAdditive{
				AdditiveID: aid, Name: a.Name, Price: a.Price,
			})
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Service) buildAddOns(ctx context.Context, restaurantID uint, reqs []AddOnRequest) ([]models.OrderAddOn, error) {
	if len(reqs) == 0 {
		return nil, nil
	}
	ids := make([]uint, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.DefID)
	}
	defs, err := s.catalog.AddOnDefs(ctx, restaurantID, ids)
	if err != nil {
		return nil, err
	}
	addOns := make([]models.OrderAddOn, 0, len(reqs))
	for _, r := range reqs {
		d := defs[r.DefID]
		if !d.Active {
			return nil, apperr.Validation("order add-on %q is not active", d.Name)
		}
		addOns = append(addOns, models.OrderAddOn{
			DefID: r.DefID, Name: d.Name, Mode: d.Mode,
			UnitPrice: d.UnitPrice, Quantity: r.Quantity,
		})
	}
	return addOns, nil
}

// mutate is the shared unit-of-work wrapper: load the order, run fn inside
// the transaction, rebuild the snapshot from committed state, then notify.
// fn returns the event type to publish, or "" for none.
func (s *Service) mutate(ctx context.Context, orderID uint, fn func(tx *gorm.DB, o *models.Order) (string, error)) (*Snapshot, error) {
	var snap *Snapshot
	var eventType string
	var restaurantID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := s.loadOrder(tx, orderID)
		if err != nil {
			return err
		}
		eventType, err = fn(tx, o)
		if err != nil {
			return err
		}
		reloaded, err := s.loadOrder(tx, orderID)
		if err != nil {
			return err
		}
		restaurantID = reloaded.RestaurantID
		snap = s.snapshot(reloaded)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if eventType != "" {
		s.notifier.PublishOrderEvent(eventType, restaurantID, orderID, snap)
	}
	return snap, nil
}

func (s *Service) loadOrder(tx *gorm.DB, orderID uint) (*models.Order, error) {
	var o models.Order
	err := tx.
		Preload("Items.Additives").
		Preload("AddOns").
		Preload("Surcharges").
		Preload("Discounts").
		Preload("Payment").
		Preload("Restaurant").
		First(&o, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("order %d not found", orderID)
	}
	if err != nil {
		return nil, apperr.Internal(err, "order load failed")
	}
	return &o, nil
}

// requireMutable rejects composition changes on terminal orders and on
// orders whose payment is already settled.
func (s *Service) requireMutable(o *models.Order) error {
	if statemachine.IsTerminalOrderStatus(o.Status) {
		return apperr.InvalidState("order %s is %s and cannot be modified", o.Number, o.Status)
	}
	if o.Payment != nil && o.Payment.Status == models.PaymentSettled {
		return apperr.InvalidState("order %s is already paid and cannot be modified", o.Number)
	}
	return nil
}

// reprice recomputes the quote from the order's frozen components and
// pushes changed add-on totals and surcharge amounts back to storage. The
// caller persists the order total via applyTotals.
func (s *Service) reprice(tx *gorm.DB, o *models.Order) (pricing.Quote, error) {
	q, err := pricing.Calculate(pricing.InputFromOrder(o))
	if err != nil {
		return q, err
	}
	for i := range o.AddOns {
		if o.AddOns[i].Total == q.AddOnTotals[i] {
			continue
		}
		o.AddOns[i].Total = q.AddOnTotals[i]
		if err := tx.Model(&models.OrderAddOn{}).Where("id = ?", o.AddOns[i].ID).
			Update("total", q.AddOnTotals[i]).Error; err != nil {
			return q, apperr.Internal(err, "add-on total update failed")
		}
	}
	for i := range o.Surcharges {
		if o.Surcharges[i].Amount == q.SurchargeAmounts[i] {
			continue
		}
		o.Surcharges[i].Amount = q.SurchargeAmounts[i]
		if err := tx.Model(&models.Surcharge{}).Where("id = ?", o.Surcharges[i].ID).
			Update("amount", q.SurchargeAmounts[i]).Error; err != nil {
			return q, apperr.Internal(err, "surcharge amount update failed")
		}
	}
	o.Total = q.Total
	return q, nil
}

// applyTotals persists the order's money fields and flags and applies the
// exact total delta to the pending payment.
func (s *Service) applyTotals(tx *gorm.DB, o *models.Order, oldTotal int64) error {
	err := tx.Model(&models.Order{}).Where("id = ?", o.ID).Updates(map[string]any{
		"total":             o.Total,
		"discount_total":    o.DiscountTotal,
		"bonus_points_used": o.BonusPointsUsed,
		"is_reordered":      o.IsReordered,
		"has_discount":      o.HasDiscount,
		"discount_canceled": o.DiscountCanceled,
		"is_refund":         o.IsRefund,
	}).Error
	if err != nil {
		return apperr.Internal(err, "order totals update failed")
	}
	delta := o.Total - oldTotal
	if delta != 0 && o.Payment != nil && o.Payment.Status == models.PaymentPending {
		err := tx.Model(&models.Payment{}).Where("id = ?", o.Payment.ID).
			Update("amount", gorm.Expr("amount + ?", delta)).Error
		if err != nil {
			return apperr.Internal(err, "payment amount update failed")
		}
		o.Payment.Amount += delta
	}
	return nil
}

// anyItemStarted reports whether some line already left CREATED; a line
// added after that point is a late addition ("reordered").
func anyItemStarted(o *models.Order) bool {
	for _, it := range o.Items {
		if it.Status != models.ItemCreated {
			return true
		}
	}
	return false
}

// writeOrderStatus applies an order-level status change with its audit row.
// The transition must already be validated by the caller.
func (s *Service) writeOrderStatus(tx *gorm.DB, o *models.Order, to models.OrderStatus, actorID uint, note string) error {
	from := o.Status
	if err := tx.Model(&models.Order{}).Where("id = ?", o.ID).
		Update("status", to).Error; err != nil {
		return apperr.Internal(err, "order status update failed")
	}
	o.Status = to
	history := models.OrderStatusHistory{
		OrderID: o.ID, FromStatus: from, ToStatus: to, ChangedBy: actorID, Note: note,
	}
	if err := tx.Create(&history).Error; err != nil {
		return apperr.Internal(err, "status history write failed")
	}
	if statemachine.IsTerminalOrderStatus(to) && o.TableID != nil {
		if err := s.tables.Release(tx, *o.TableID, o.ID); err != nil {
			return err
		}
	}
	return nil
}
