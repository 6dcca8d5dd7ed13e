package kafka

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/retail-orders/internal/domain"
)

func TestNewOrderPlacedEvent(t *testing.T) {
	billID := int64(12)
	order := domain.Order{
		ID:       1000,
		ClientID: 1,
		BillID:   &billID,
		Total:    decimal.NewFromFloat(9.0),
		Status:   domain.OrderStatusPending,
		Details: []domain.OrderDetail{
			{OrderID: 1000, ProductID: 1, Quantity: 2, Price: decimal.NewFromInt(5)},
		},
	}

	event := NewOrderPlacedEvent(order)

	if _, err := uuid.Parse(event.EventID); err != nil {
		t.Fatalf("event_id должен быть валидным UUID: %v", err)
	}
	if event.EventType != EventTypeOrderPlaced {
		t.Fatalf("неверный тип события: %s", event.EventType)
	}
	if event.OrderID != 1000 || event.ClientID != 1 {
		t.Fatalf("неверные идентификаторы: order=%d client=%d", event.OrderID, event.ClientID)
	}
	if event.BillID == nil || *event.BillID != billID {
		t.Fatalf("неверный bill_id: %v", event.BillID)
	}
	if event.ItemsCount != 1 {
		t.Fatalf("items_count = %d, ожидался 1", event.ItemsCount)
	}
	if event.Timestamp.IsZero() {
		t.Fatal("timestamp не должен быть нулевым")
	}
}

func TestOrderPlacedEvent_JSON(t *testing.T) {
	event := NewOrderPlacedEvent(domain.Order{
		ID:       1001,
		ClientID: 2,
		Total:    decimal.NewFromInt(42),
		Status:   domain.OrderStatusPending,
	})

	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, key := range []string{"event_id", "event_type", "order_id", "client_id", "total", "status", "timestamp"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("в payload отсутствует ключ %q", key)
		}
	}
	if _, ok := decoded["bill_id"]; ok {
		t.Fatal("bill_id должен опускаться, когда счёт не привязан")
	}
}
