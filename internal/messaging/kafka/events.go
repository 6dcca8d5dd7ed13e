package kafka

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/retail-orders/internal/domain"
)

// EventType определяет тип события заказа
type EventType string

const (
	EventTypeOrderPlaced  EventType = "order.placed"
	EventTypeOrderUpdated EventType = "order.updated"
)

// TopicOrderEvents — топик событий заказов
const TopicOrderEvents = "retail.order.events"

// OrderPlacedEvent публикуется после коммита размещения заказа.
type OrderPlacedEvent struct {
	EventID    string          `json:"event_id"`
	EventType  EventType       `json:"event_type"`
	OrderID    int64           `json:"order_id"`
	ClientID   int64           `json:"client_id"`
	BillID     *int64          `json:"bill_id,omitempty"`
	Total      decimal.Decimal `json:"total"`
	Status     string          `json:"status"`
	ItemsCount int             `json:"items_count"`
	Timestamp  time.Time       `json:"timestamp"`
}

// NewOrderPlacedEvent создает событие из сохранённого заказа
func NewOrderPlacedEvent(order domain.Order) *OrderPlacedEvent {
	return &OrderPlacedEvent{
		EventID:    uuid.NewString(),
		EventType:  EventTypeOrderPlaced,
		OrderID:    order.ID,
		ClientID:   order.ClientID,
		BillID:     order.BillID,
		Total:      order.Total,
		Status:     string(order.Status),
		ItemsCount: len(order.Details),
		Timestamp:  time.Now().UTC(),
	}
}
