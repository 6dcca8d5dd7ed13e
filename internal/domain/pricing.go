package domain

import "github.com/shopspring/decimal"

// Quote — результат расчёта стоимости заказа до его сохранения.
type Quote struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// PriceItems считает стоимость позиций по уже загруженным ценам товаров.
// Чистая функция: сток не трогает, хранилище не читает.
//
// Subtotal = Σ цена × количество (отсутствующая цена считается нулём),
// Discount = Subtotal × discountPct / 100 при discountPct > 0,
// Total = max(Subtotal − Discount, 0).
func PriceItems(prices map[int64]decimal.Decimal, items []OrderItemInput, discountPct float64) Quote {
	subtotal := decimal.Zero
	for _, item := range items {
		price, ok := prices[item.ProductID]
		if !ok {
			continue
		}
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	discount := decimal.Zero
	if discountPct > 0 {
		discount = subtotal.Mul(decimal.NewFromFloat(discountPct)).Div(hundred)
	}

	total := subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Quote{Subtotal: subtotal, Discount: discount, Total: total}
}
