// Package pricing turns an order's components into a reconciled total.
// It is pure and deterministic: no I/O, integer minor-currency-unit
// arithmetic, percentages rounded down.
package pricing

import (
	"restaurant-pos-api/apperr"
	"restaurant-pos-api/models"
)

// Item is one order line with its frozen prices. Cancelled and refunded
// lines contribute nothing to the item subtotal.
type Item struct {
	ProductID      uint
	Quantity       int
	UnitPrice      int64
	AdditivePrices []int64
	Cancelled      bool
	Refunded       bool
}

// AddOn is an order-level add-on attachment with its frozen unit price.
type AddOn struct {
	Mode      models.AddOnMode
	UnitPrice int64
	Quantity  int
}

// Surcharge — Value is a literal amount for FIXED mode, a percent for
// PERCENTAGE mode. A FIXED surcharge of kind DELIVERY is the delivery fee
// and joins the base of percentage surcharges.
type Surcharge struct {
	Mode  models.SurchargeMode
	Kind  string
	Value int64
}

// Discount describes a promo to price against an order.
type Discount struct {
	Mode       models.DiscountMode
	Value      int64
	Target     models.DiscountTarget
	ProductIDs []uint
}

// Input is everything the calculator needs. DiscountAmount and BonusPoints
// are the already-applied stored components; they are subtracted as-is so a
// full recomputation reproduces the incrementally maintained total.
type Input struct {
	Items          []Item
	AddOns         []AddOn
	Surcharges     []Surcharge
	PartySize      int
	DiscountAmount int64
	BonusPoints    int64
}

// Quote is the itemized result. Slices are index-aligned with the input.
type Quote struct {
	ItemTotals       []int64
	AddOnTotals      []int64
	SurchargeAmounts []int64
	ItemSubtotal     int64
	AddOnSubtotal    int64
	SurchargeTotal   int64
	DiscountAmount   int64
	BonusValue       int64
	Total            int64
}

func (i Item) lineTotal() int64 {
	if i.Cancelled || i.Refunded {
		return 0
	}
	unit := i.UnitPrice
	for _, p := range i.AdditivePrices {
		unit += p
	}
	return unit * int64(i.Quantity)
}

// Calculate prices the input. A negative result is an input error, not a
// value to clamp.
func Calculate(in Input) (Quote, error) {
	q := Quote{
		ItemTotals:       make([]int64, len(in.Items)),
		AddOnTotals:      make([]int64, len(in.AddOns)),
		SurchargeAmounts: make([]int64, len(in.Surcharges)),
		DiscountAmount:   in.DiscountAmount,
		BonusValue:       in.BonusPoints,
	}

	totalQuantity := int64(0)
	for i, item := range in.Items {
		q.ItemTotals[i] = item.lineTotal()
		q.ItemSubtotal += q.ItemTotals[i]
		if !item.Cancelled && !item.Refunded {
			totalQuantity += int64(item.Quantity)
		}
	}

	partySize := in.PartySize
	if partySize < 1 {
		partySize = 1
	}
	for i, a := range in.AddOns {
		base := a.UnitPrice * int64(a.Quantity)
		switch a.Mode {
		case models.AddOnPerItem:
			q.AddOnTotals[i] = base * totalQuantity
		case models.AddOnPerPerson:
			q.AddOnTotals[i] = base * int64(partySize)
		default: // FIXED
			q.AddOnTotals[i] = base
		}
		q.AddOnSubtotal += q.AddOnTotals[i]
	}

	// fixed surcharges first: the delivery fee must be known before any
	// percentage surcharge is computed
	deliveryFee := int64(0)
	for i, s := range in.Surcharges {
		if s.Mode != models.SurchargeFixed {
			continue
		}
		q.SurchargeAmounts[i] = s.Value
		if s.Kind == models.SurchargeKindDelivery {
			deliveryFee += s.Value
		}
	}
	percentBase := q.ItemSubtotal + q.AddOnSubtotal + deliveryFee
	for i, s := range in.Surcharges {
		if s.Mode != models.SurchargePercentage {
			continue
		}
		q.SurchargeAmounts[i] = percentBase * s.Value / 100
	}
	for _, amount := range q.SurchargeAmounts {
		q.SurchargeTotal += amount
	}

	q.Total = q.ItemSubtotal + q.AddOnSubtotal + q.SurchargeTotal -
		q.DiscountAmount - q.BonusValue
	if q.Total < 0 {
		return Quote{}, apperr.Validation(
			"order total would be negative (%d): discount and bonus exceed the order value", q.Total)
	}
	return q, nil
}

// DiscountAmount computes what the given discount is worth against the
// input, before it is applied. The base for an ALL-targeted discount is the
// running total net of discounts already applied; for a PRODUCT-targeted
// discount it is the subtotal of the matching non-cancelled, non-refunded
// lines. A FIXED discount is capped at its base.
func DiscountAmount(in Input, d Discount) (int64, error) {
	q, err := Calculate(in)
	if err != nil {
		return 0, err
	}

	base := q.ItemSubtotal + q.AddOnSubtotal + q.SurchargeTotal - q.DiscountAmount
	if d.Target == models.TargetProduct {
		matching := make(map[uint]bool, len(d.ProductIDs))
		for _, id := range d.ProductIDs {
			matching[id] = true
		}
		base = 0
		for i, item := range in.Items {
			if matching[item.ProductID] {
				base += q.ItemTotals[i]
			}
		}
	}

	switch d.Mode {
	case models.DiscountFixed:
		if d.Value > base {
			return base, nil
		}
		return d.Value, nil
	case models.DiscountPercentage:
		return base * d.Value / 100, nil
	default:
		return 0, apperr.Validation("unknown discount mode %q", d.Mode)
	}
}
