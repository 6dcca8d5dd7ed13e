package domain

import "github.com/shopspring/decimal"

// Product — товар со стоком и ценой. Размещение заказа мутирует только
// Stock (списание); Stock никогда не опускается ниже нуля.
type Product struct {
	ID    int64
	Name  string
	Price decimal.Decimal
	Stock int
}
