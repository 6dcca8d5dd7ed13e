package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentType — способ оплаты счёта.
type PaymentType string

const (
	PaymentTypeCash     PaymentType = "cash"
	PaymentTypeCard     PaymentType = "card"
	PaymentTypeTransfer PaymentType = "transfer"
)

// Bill — счёт, связанный с заказом. BillNumber хранится строкой, но при
// размещении заказа всегда равен строковому представлению ID заказа.
type Bill struct {
	ID         int64
	BillNumber string
	Discount   decimal.Decimal
	Date       time.Time
	Total      decimal.Decimal
	Payment    PaymentType
	ClientID   int64
}
