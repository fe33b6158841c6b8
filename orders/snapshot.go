package orders

import (
	"time"

	"restaurant-pos-api/models"
	"restaurant-pos-api/pricing"
)

// Snapshot is the fully denormalized response every orchestrator operation
// returns: items with computed per-line totals, add-ons and surcharges with
// their computed amounts, the payment record and attention flags.
type Snapshot struct {
	ID              uint                `json:"id"`
	Number          string              `json:"number"`
	RestaurantID    uint                `json:"restaurant_id"`
	CustomerID      *uint               `json:"customer_id,omitempty"`
	TableID         *uint               `json:"table_id,omitempty"`
	Status          models.OrderStatus  `json:"status"`
	Type            models.OrderType    `json:"type"`
	PartySize       int                 `json:"party_size"`
	Comment         string              `json:"comment,omitempty"`
	ScheduledFor    *time.Time          `json:"scheduled_for,omitempty"`
	Items           []ItemSnapshot      `json:"items"`
	AddOns          []AddOnSnapshot     `json:"add_ons"`
	Surcharges      []SurchargeSnapshot `json:"surcharges"`
	Discounts       []DiscountSnapshot  `json:"discounts"`
	Payment         *PaymentSnapshot    `json:"payment,omitempty"`
	ItemSubtotal    int64               `json:"item_subtotal"`
	AddOnSubtotal   int64               `json:"add_on_subtotal"`
	SurchargeTotal  int64               `json:"surcharge_total"`
	DiscountTotal   int64               `json:"discount_total"`
	BonusPointsUsed int64               `json:"bonus_points_used"`
	Total           int64               `json:"total"`
	Attention       AttentionFlags      `json:"attention"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// AttentionFlags surface the conditions staff should notice at a glance.
type AttentionFlags struct {
	IsReordered      bool `json:"is_reordered"`
	HasDiscount      bool `json:"has_discount"`
	DiscountCanceled bool `json:"discount_canceled"`
	IsPrecheck       bool `json:"is_precheck"`
	IsRefund         bool `json:"is_refund"`
}

type ItemSnapshot struct {
	ID          uint                `json:"id"`
	ProductID   uint                `json:"product_id"`
	Name        string              `json:"name"`
	Quantity    int                 `json:"quantity"`
	UnitPrice   int64               `json:"unit_price"`
	Comment     string              `json:"comment,omitempty"`
	Status      models.ItemStatus   `json:"status"`
	IsReordered bool                `json:"is_reordered"`
	Additives   []AdditiveSnapshot  `json:"additives"`
	Total       int64               `json:"total"`
	AssigneeID  *uint               `json:"assignee_id,omitempty"`
	RefundReason string             `json:"refund_reason,omitempty"`
	CancelReason string             `json:"cancel_reason,omitempty"`
}

type AdditiveSnapshot struct {
	AdditiveID uint   `json:"additive_id"`
	Name       string `json:"name"`
	Price      int64  `json:"price"`
}

type AddOnSnapshot struct {
	ID        uint             `json:"id"`
	DefID     uint             `json:"def_id"`
	Name      string           `json:"name"`
	Mode      models.AddOnMode `json:"mode"`
	UnitPrice int64            `json:"unit_price"`
	Quantity  int              `json:"quantity"`
	Total     int64            `json:"total"`
}

type SurchargeSnapshot struct {
	ID     uint                 `json:"id"`
	Name   string               `json:"name"`
	Kind   string               `json:"kind,omitempty"`
	Mode   models.SurchargeMode `json:"mode"`
	Value  int64                `json:"value"`
	Amount int64                `json:"amount"`
}

type DiscountSnapshot struct {
	ID          uint   `json:"id"`
	DiscountID  *uint  `json:"discount_id,omitempty"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
}

type PaymentSnapshot struct {
	ID     uint                 `json:"id"`
	Amount int64                `json:"amount"`
	Status models.PaymentStatus `json:"status"`
}

// snapshot denormalizes a loaded order; per-line and per-add-on totals come
// from a fresh quote over the frozen component prices.
func (s *Service) snapshot(o *models.Order) *Snapshot {
	q, err := pricing.Calculate(pricing.InputFromOrder(o))
	if err != nil {
		// stored components always price (mutations validate before commit);
		// fall back to stored figures if they somehow do not
		s.log.Error().Err(err).Uint("order_id", o.ID).Msg("snapshot reprice failed")
		q = pricing.Quote{
			ItemTotals:       make([]int64, len(o.Items)),
			AddOnTotals:      make([]int64, len(o.AddOns)),
			SurchargeAmounts: make([]int64, len(o.Surcharges)),
			Total:            o.Total,
		}
	}

	snap := &Snapshot{
		ID:              o.ID,
		Number:          o.Number,
		RestaurantID:    o.RestaurantID,
		CustomerID:      o.CustomerID,
		TableID:         o.TableID,
		Status:          o.Status,
		Type:            o.Type,
		PartySize:       o.PartySize,
		Comment:         o.Comment,
		ScheduledFor:    o.ScheduledFor,
		ItemSubtotal:    q.ItemSubtotal,
		AddOnSubtotal:   q.AddOnSubtotal,
		SurchargeTotal:  q.SurchargeTotal,
		DiscountTotal:   o.DiscountTotal,
		BonusPointsUsed: o.BonusPointsUsed,
		Total:           o.Total,
		Attention: AttentionFlags{
			IsReordered:      o.IsReordered,
			HasDiscount:      o.HasDiscount,
			DiscountCanceled: o.DiscountCanceled,
			IsPrecheck:       o.IsPrecheck,
			IsRefund:         o.IsRefund,
		},
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}

	snap.Items = make([]ItemSnapshot, len(o.Items))
	for i, it := range o.Items {
		additives := make([]AdditiveSnapshot, len(it.Additives))
		for j, a := range it.Additives {
			additives[j] = AdditiveSnapshot{AdditiveID: a.AdditiveID, Name: a.Name, Price: a.Price}
		}
		snap.Items[i] = ItemSnapshot{
			ID:           it.ID,
			ProductID:    it.ProductID,
			Name:         it.Name,
			Quantity:     it.Quantity,
			UnitPrice:    it.UnitPrice,
			Comment:      it.Comment,
			Status:       it.Status,
			IsReordered:  it.IsReordered,
			Additives:    additives,
			Total:        q.ItemTotals[i],
			AssigneeID:   it.AssigneeID,
			RefundReason: it.RefundReason,
			CancelReason: it.CancelReason,
		}
	}
	snap.AddOns = make([]AddOnSnapshot, len(o.AddOns))
	for i, a := range o.AddOns {
		snap.AddOns[i] = AddOnSnapshot{
			ID: a.ID, DefID: a.DefID, Name: a.Name, Mode: a.Mode,
			UnitPrice: a.UnitPrice, Quantity: a.Quantity, Total: q.AddOnTotals[i],
		}
	}
	snap.Surcharges = make([]SurchargeSnapshot, len(o.Surcharges))
	for i, sc := range o.Surcharges {
		snap.Surcharges[i] = SurchargeSnapshot{
			ID: sc.ID, Name: sc.Name, Kind: sc.Kind, Mode: sc.Mode,
			Value: sc.Value, Amount: q.SurchargeAmounts[i],
		}
	}
	snap.Discounts = make([]DiscountSnapshot, len(o.Discounts))
	for i, d := range o.Discounts {
		snap.Discounts[i] = DiscountSnapshot{
			ID: d.ID, DiscountID: d.DiscountID, Description: d.Description, Amount: d.Amount,
		}
	}
	if o.Payment != nil {
		snap.Payment = &PaymentSnapshot{ID: o.Payment.ID, Amount: o.Payment.Amount, Status: o.Payment.Status}
	}
	return snap
}
