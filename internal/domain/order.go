package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает жизненный цикл заказа.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан и ожидает обработки.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusShipped — заказ передан в доставку.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered — заказ доставлен клиенту.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCanceled — заказ отменён.
	OrderStatusCanceled OrderStatus = "canceled"
)

// DeliveryMethod — способ получения заказа.
type DeliveryMethod string

const (
	DeliveryMethodPickup  DeliveryMethod = "pickup"
	DeliveryMethodCourier DeliveryMethod = "courier"
	DeliveryMethodPost    DeliveryMethod = "post"
)

// SequenceFloor — нижняя граница общего счётчика: первый выданный номер
// заказа/счёта равен SequenceFloor.
const SequenceFloor int64 = 1000

// Order агрегирует заказ и его строки. ID назначается явно из общего
// счётчика и численно совпадает с bill_number связанного счёта.
type Order struct {
	ID             int64
	Date           time.Time
	Total          decimal.Decimal
	DeliveryMethod DeliveryMethod
	Status         OrderStatus
	ClientID       int64
	BillID         *int64
	Details        []OrderDetail
}

// OrderDetail — одна строка заказа. Price фиксируется в момент продажи
// и никогда не пересчитывается по текущей цене товара.
type OrderDetail struct {
	OrderID   int64
	ProductID int64
	Quantity  int
	Price     decimal.Decimal
}

// OrderItemInput — входная позиция заказа от вызывающей стороны.
// Не персистится: из неё создаются строки заказа и списывается сток.
type OrderItemInput struct {
	ProductID int64
	Quantity  int
}

// PlaceOrderInput — проверенный выше по стеку payload создания заказа.
// Total из запроса игнорируется и всегда пересчитывается.
type PlaceOrderInput struct {
	Date           *time.Time
	DeliveryMethod DeliveryMethod
	Status         OrderStatus
	ClientID       int64
	BillID         *int64
	Items          []OrderItemInput
	DiscountPct    float64
}

// ValidateInvariants проверяет базовые инварианты запроса и возвращает список замечаний.
func (in *PlaceOrderInput) ValidateInvariants() []error {
	var errs []error

	if in.ClientID <= 0 {
		errs = append(errs, ErrClientRequired)
	}
	if in.DeliveryMethod == "" {
		errs = append(errs, ErrDeliveryMethodRequired)
	}
	for _, item := range in.Items {
		if item.Quantity <= 0 {
			errs = append(errs, ErrItemQuantityInvalid)
		}
		if item.ProductID <= 0 {
			errs = append(errs, ErrItemProductRequired)
		}
	}
	if in.DiscountPct < 0 || in.DiscountPct > 100 {
		errs = append(errs, ErrDiscountOutOfRange)
	}

	return errs
}

// OrderPatch описывает частичное обновление заказа. nil-поля не трогаются.
// Обновление никогда не пересчитывает цены и не меняет сток.
type OrderPatch struct {
	Date           *time.Time
	Total          *decimal.Decimal
	DeliveryMethod *DeliveryMethod
	Status         *OrderStatus
	ClientID       *int64
	BillID         *int64
}
