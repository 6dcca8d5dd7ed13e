package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vladislavdragonenkov/retail-orders/internal/domain"
)

func TestNewDependencies_MemoryMode(t *testing.T) {
	deps, err := NewDependencies(context.Background(), Config{MetricsAddr: ":0"}, nil)
	if err != nil {
		t.Fatalf("new dependencies: %v", err)
	}
	defer deps.Close()

	if deps.Store == nil {
		t.Fatal("store must be initialized")
	}
	if deps.Orders == nil {
		t.Fatal("orders service must be initialized")
	}

	// Без Postgres/Redis сервис работает, но размещение на пустом
	// хранилище отклоняется проверкой клиента.
	_, err = deps.Orders.Place(context.Background(), domain.PlaceOrderInput{
		DeliveryMethod: domain.DeliveryMethodPickup,
		ClientID:       1,
		Items:          []domain.OrderItemInput{{ProductID: 1, Quantity: 1}},
	})
	if !errors.Is(err, domain.ErrClientNotFound) {
		t.Fatalf("ожидался ErrClientNotFound, получено %v", err)
	}
}

func TestDependencies_HealthHandlerWithoutBackends(t *testing.T) {
	deps, err := NewDependencies(context.Background(), Config{}, nil)
	if err != nil {
		t.Fatalf("new dependencies: %v", err)
	}
	defer deps.Close()

	handler := deps.HealthHandler("test")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	// Без Postgres и Redis проверок нет, сервис считается здоровым.
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
}
