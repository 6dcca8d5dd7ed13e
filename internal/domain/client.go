package domain

// Client — якорь идентичности для заказов и счетов. Со стороны
// размещения заказа клиент неизменяем и используется только по ссылке.
type Client struct {
	ID      int64
	Name    string
	Email   string
	Address string
}
