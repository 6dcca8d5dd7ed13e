package domain

import "context"

// Store описывает требования к хранилищу сущностей размещения заказа.
// Читающие методы выполняются вне транзакции; мутации доступны только
// через WithinTx.
type Store interface {
	// GetClient возвращает клиента или ErrClientNotFound.
	GetClient(ctx context.Context, id int64) (Client, error)
	// GetProduct возвращает товар или ErrProductNotFound.
	GetProduct(ctx context.Context, id int64) (Product, error)
	// GetBill возвращает счёт или ErrBillNotFound.
	GetBill(ctx context.Context, id int64) (Bill, error)
	// GetOrder возвращает заказ вместе со строками или ErrOrderNotFound.
	GetOrder(ctx context.Context, id int64) (Order, error)
	// ListOrdersByClient возвращает заказы клиента, новые первыми,
	// с опциональным ограничением на количество (limit > 0).
	ListOrdersByClient(ctx context.Context, clientID int64, limit int) ([]Order, error)

	// WithinTx выполняет fn в одной транзакции: либо применяются все
	// мутации, либо ни одной. Ошибка fn откатывает транзакцию и
	// возвращается вызывающему без изменений. Конкурентные размещения
	// сериализуются хранилищем, поэтому выдача общего номера внутри
	// транзакции не может выдать один номер двум заказам.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// NumberSource — источники данных для выдачи общего номера заказа/счёта.
type NumberSource interface {
	// MaxOrderID возвращает максимальный ID заказа (0, если заказов нет).
	MaxOrderID(ctx context.Context) (int64, error)
	// BillNumbers возвращает все bill_number как есть, без разбора.
	BillNumbers(ctx context.Context) ([]string, error)
}

// Tx — операции, доступные внутри транзакции размещения заказа.
type Tx interface {
	NumberSource

	// DecrementStock списывает qty со стока товара. Возвращает
	// InsufficientStockError, если после списания сток стал бы
	// отрицательным; повторные списания одного товара накапливаются.
	DecrementStock(ctx context.Context, productID int64, qty int) error
	// InsertOrder сохраняет заказ с явно назначенным ID.
	InsertOrder(ctx context.Context, order Order) error
	// InsertBill сохраняет новый счёт и возвращает сгенерированный ID,
	// не завершая транзакцию.
	InsertBill(ctx context.Context, bill Bill) (int64, error)
	// GetBill возвращает счёт в рамках транзакции или ErrBillNotFound.
	GetBill(ctx context.Context, id int64) (Bill, error)
	// RenumberBill перезаписывает bill_number существующего счёта.
	RenumberBill(ctx context.Context, billID int64, number string) error
	// LinkOrderBill привязывает заказ к счёту.
	LinkOrderBill(ctx context.Context, orderID, billID int64) error
	// InsertOrderDetail сохраняет одну строку заказа.
	InsertOrderDetail(ctx context.Context, detail OrderDetail) error
	// UpdateOrder перезаписывает поля заказа (путь обновления).
	UpdateOrder(ctx context.Context, order Order) error
}

// ProductCache описывает контракт инвалидации кэша товаров.
// Детали реализации кэша для ядра не важны, только eviction по шаблону.
type ProductCache interface {
	// DeletePattern удаляет все ключи кэша по шаблону.
	DeletePattern(ctx context.Context, pattern string) error
}

// OrderEventPublisher публикует события заказов наружу.
// Вызывается после коммита; сбой публикации не влияет на заказ.
type OrderEventPublisher interface {
	OrderPlaced(ctx context.Context, order Order) error
}
