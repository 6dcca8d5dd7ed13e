package domain

import (
	"errors"
	"fmt"
)

var (
	// Ошибка отсутствующего идентификатора клиента в запросе.
	ErrClientRequired = errors.New("client_id is required")
	// Ошибка отсутствующего способа доставки.
	ErrDeliveryMethodRequired = errors.New("delivery_method is required")
	// Ошибка при некорректном количестве товара в позиции (<= 0).
	ErrItemQuantityInvalid = errors.New("item quantity must be greater than zero")
	// Ошибка отсутствующего идентификатора товара в позиции.
	ErrItemProductRequired = errors.New("item product_id is required")
	// Ошибка скидки вне диапазона [0, 100].
	ErrDiscountOutOfRange = errors.New("discount_pct must be between 0 and 100")

	// ErrClientNotFound возвращается, если клиент не найден в хранилище.
	ErrClientNotFound = errors.New("client not found")
	// ErrProductNotFound возвращается, если товар не найден в хранилище.
	ErrProductNotFound = errors.New("product not found")
	// ErrBillNotFound возвращается, если счёт не найден в хранилище.
	ErrBillNotFound = errors.New("bill not found")
	// ErrOrderNotFound возвращается, если заказ не найден в хранилище.
	ErrOrderNotFound = errors.New("order not found")
)

// NotFound оборачивает sentinel-ошибку отсутствующей сущности её идентификатором.
func NotFound(sentinel error, id int64) error {
	return fmt.Errorf("%w: id=%d", sentinel, id)
}

// IsNotFound проверяет, является ли ошибка отсутствием сущности любого типа.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrClientNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrBillNotFound) ||
		errors.Is(err, ErrOrderNotFound)
}

// InsufficientStockError сигнализирует о нехватке стока: либо на
// предварительной проверке, либо после списания внутри транзакции.
type InsufficientStockError struct {
	ProductID int64
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

// IsInsufficientStock проверяет, является ли ошибка нехваткой стока.
func IsInsufficientStock(err error) bool {
	var target *InsufficientStockError
	return errors.As(err, &target)
}
