package cart

import (
	"github.com/shopspring/decimal"
)

// CalculateTotals sums price times quantity over items. An item without a
// loaded product counts as price zero and is reported in MissingProducts.
func CalculateTotals(items []CartItem) CartTotals {
	totals := CartTotals{TotalPrice: decimal.Zero}

	for _, item := range items {
		totals.ItemCount++
		totals.TotalQuantity += item.Quantity

		if item.Product == nil {
			totals.MissingProducts++
			continue
		}
		line := item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		totals.TotalPrice = totals.TotalPrice.Add(line)
	}

	return totals
}

// RecalculateTotal sets cart.TotalPrice from its current items and returns
// the cart. Persisting it is the caller's job.
func RecalculateTotal(cart *Cart) *Cart {
	cart.TotalPrice = CalculateTotals(cart.Items).TotalPrice
	return cart
}
