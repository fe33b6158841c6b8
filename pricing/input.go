package pricing

import "restaurant-pos-api/models"

// InputFromOrder maps a loaded order and its components onto a calculator
// input, using only the frozen snapshot prices stored on the order.
func InputFromOrder(o *models.Order) Input {
	in := Input{
		Items:          make([]Item, len(o.Items)),
		AddOns:         make([]AddOn, len(o.AddOns)),
		Surcharges:     make([]Surcharge, len(o.Surcharges)),
		PartySize:      o.PartySize,
		DiscountAmount: o.DiscountTotal,
		BonusPoints:    o.BonusPointsUsed,
	}
	for i, item := range o.Items {
		prices := make([]int64, len(item.Additives))
		for j, a := range item.Additives {
			prices[j] = a.Price
		}
		in.Items[i] = Item{
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			AdditivePrices: prices,
			Cancelled:      item.Status == models.ItemCancelled,
			Refunded:       item.Status == models.ItemRefunded,
		}
	}
	for i, a := range o.AddOns {
		in.AddOns[i] = AddOn{Mode: a.Mode, UnitPrice: a.UnitPrice, Quantity: a.Quantity}
	}
	for i, s := range o.Surcharges {
		in.Surcharges[i] = Surcharge{Mode: s.Mode, Kind: s.Kind, Value: s.Value}
	}
	return in
}

// DiscountFromModel maps a stored discount onto the calculator's view of it.
func DiscountFromModel(d *models.Discount) Discount {
	ids := make([]uint, len(d.Products))
	for i, p := range d.Products {
		ids[i] = p.ProductID
	}
	return Discount{Mode: d.Mode, Value: d.Value, Target: d.Target, ProductIDs: ids}
}
