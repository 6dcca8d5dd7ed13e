package order

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/retail-orders/internal/domain"
	"github.com/vladislavdragonenkov/retail-orders/internal/storage/memory"
)

type stubCache struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *stubCache) DeletePattern(_ context.Context, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.err
}

type stubPublisher struct {
	mu    sync.Mutex
	calls int
	err   error
	last  domain.Order
}

func (s *stubPublisher) OrderPlaced(_ context.Context, order domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.last = order
	return s.err
}

func seedStore(t *testing.T) *memory.Store {
	t.Helper()

	store := memory.NewStore()
	store.SeedClient(domain.Client{ID: 1, Name: "Acme Retail", Email: "acme@example.com"})
	store.SeedProduct(domain.Product{ID: 1, Name: "Widget", Price: decimal.NewFromFloat(5.0), Stock: 10})
	return store
}

func newTestService(store domain.Store, cache domain.ProductCache, events domain.OrderEventPublisher) *Service {
	return NewServiceWithoutMetrics(store, cache, events, log.New().WithField("test", "order-service"))
}

func productStock(t *testing.T, store *memory.Store, id int64) int {
	t.Helper()

	product, err := store.GetProduct(context.Background(), id)
	if err != nil {
		t.Fatalf("get product %d: %v", id, err)
	}
	return product.Stock
}

func TestPlace_Success(t *testing.T) {
	store := seedStore(t)
	cache := &stubCache{}
	events := &stubPublisher{}
	svc := newTestService(store, cache, events)

	order, err := svc.Place(context.Background(), domain.PlaceOrderInput{
		DeliveryMethod: domain.DeliveryMethodCourier,
		ClientID:       1,
		Items:          []domain.OrderItemInput{{ProductID: 1, Quantity: 2}},
		DiscountPct:    10,
	})
	require.NoError(t, err)

	require.GreaterOrEqual(t, order.ID, domain.SequenceFloor)
	require.True(t, order.Total.Equal(decimal.NewFromFloat(9.0)), "total = %s", order.Total)
	require.Equal(t, domain.OrderStatusPending, order.Status)
	require.False(t, order.Date.IsZero())

	require.Equal(t, 8, productStock(t, store, 1))

	require.NotNil(t, order.BillID)
	bill, err := store.GetBill(context.Background(), *order.BillID)
	require.NoError(t, err)
	require.Equal(t, strconv.FormatInt(order.ID, 10), bill.BillNumber)
	require.True(t, bill.Discount.Equal(decimal.NewFromFloat(1.0)), "discount = %s", bill.Discount)
	require.True(t, bill.Total.Equal(order.Total))
	require.Equal(t, domain.PaymentTypeCash, bill.Payment)
	require.Equal(t, int64(1), bill.ClientID)

	require.Len(t, order.Details, 1)
	require.Equal(t, 2, order.Details[0].Quantity)
	require.True(t, order.Details[0].Price.Equal(decimal.NewFromFloat(5.0)))

	require.Equal(t, 1, cache.calls)
	require.Equal(t, 1, events.calls)
	require.Equal(t, order.ID, events.last.ID)

	stored, err := store.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Details, 1)
}

func TestPlace_FirstNumberIsFloor(t *testing.T) {
	store := seedStore(t)
	svc := newTestService(store, nil, nil)

	order, err := svc.Place(context.Background(), domain.PlaceOrderInput{
		DeliveryMethod: domain.DeliveryMethodPickup,
		ClientID:       1,
		Items:          []domain.OrderItemInput{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, domain.SequenceFloor, order.ID)
}

func TestPlace_SequentialNumbersIncrease(t *testing.T) {
	store := seedStore(t)
	svc := newTestService(store, nil, nil)

	first, err := svc.Place(context.Background(), domain.PlaceOrderInput{
		DeliveryMethod: domain.DeliveryMethodPickup,
		ClientID:       1,
		Items:          []domain.OrderItemInput{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	second, err := svc.Place(context.Background(), domain.PlaceOrderInput{
		DeliveryMethod: domain.DeliveryMethodPickup,
		ClientID:       1,
		Items:          []domain.OrderItemInput{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	require.Greater(t, second.ID, first.ID)

	secondBill, err := store.GetBill(context.Background(), *second.BillID)
	require.NoError(t, err)
	require.Equal(t, strconv.FormatInt(second.ID, 10), secondBill.BillNumber)
}

func TestPlace_ClientNotFound(t *testing.T) {
	store := seedStore(t)
	cache := &stubCache{}
	svc := newTestService(store, cache, nil)

	_, err := svc.Place(context.Background(), domain.PlaceOrderInput{
		DeliveryMethod: domain.DeliveryMethodPickup,
		ClientID:       42,
		Items:          []domain.OrderItemInput{{ProductID: 1, Quantity: 1}},
	})
	require.ErrorIs(t, err, domain.ErrClientNotFound)

	require.Equal(t, 10, productStock(t, store, 1))
	require.Equal(t, 0, cache.calls)
}

func TestPlace_ProductNotFound(t *testing.T) {
	store := seedStore(t)
	svc := newTestService(store, nil, nil)

	_, err := svc.Place(context.Background(), domain.PlaceOrderInput{
		DeliveryMethod: domain.DeliveryMethodPickup,
		ClientID:       1,
		Items:          []domain.OrderItemInput{{ProductID: 99, Quantity: 1}},
	})
	require.ErrorIs(t, err, domain.ErrProductNotFound)

	require.Equal(t, 10, productStock(t, store, 1))
}

func TestPlace_InsufficientStock(t *testing.T) {
	store := seedStore(t)
	svc := newTestService(store, nil, nil)

	_, err := svc.Place(context.Background(), domain.PlaceOrderInput{
		DeliveryMethod: domain.DeliveryMethodPickup,
		ClientID:       1,
		Items:          []domain.OrderItemInput{{ProductID: 1, Quantity: 11}},
	})
	require.Error(t, err)

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Equal(t, int64(1), stockErr.ProductID)
	require.Equal(t, 10, stockErr.Available)
	require.Equal(t, 11, stockErr.Requested)

	require.Equal(t, 10, productStock(t, store, 1))
}

func TestPlace_RepeatedItemsAccumulate(t *testing.T) {
	store := seedStore(t)
	svc := newTestService(store, nil, nil)

	// Две строки по 6 штук: каждая проходит против исходного стока 10,
	// но вместе они требуют 12 и должны быть отклонены.
	_, err := svc.Place(context.Background(), domain.PlaceOrderInput{
		DeliveryMethod: domain.DeliveryMethodPickup,
		ClientID:       1,
		Items: []domain.OrderItemInput{
			{ProductID: 1, Quantity: 6},
			{ProductID: 1, Quantity: 6},
		},
	})
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Equal(t, 4, stockErr.Available)
	require.Equal(t, 6, stockErr.Requested)
	require.Equal(t, 10, productStock(t, store, 1))

	order, err := svc.Place(context.Background(), domain.PlaceOrderInput{
		DeliveryMethod: domain.DeliveryMethodPickup,
		ClientID:       1,
		Items: []domain.OrderItemInput{
			{ProductID: 1, Quantity: 4},
			{ProductID: 1, Quantity: 4},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, productStock(t, store, 1))
	require.True(t, order.Total.Equal(decimal.NewFromInt(40)), "total = %s", order.Total)
	require.Len(t, order.Details, 2)
}

func TestPlace_BillNotFoundRollsBackStock(t *testing.T) {
	store := seedStore(t)
	svc := newTestService(store, nil, nil)

	billID := int64(99)
	_, err := svc.Place(context.Background(), domain.PlaceOrderInput{
		DeliveryMethod: domain.DeliveryMethodPickup,
		ClientID:       1,
		BillID:         &billID,
		Items:          []domain.OrderItemInput{{ProductID: 1, Quantity: 3}},
	})
	require.ErrorIs(t, err, domain.ErrBillNotFound)

	// Списание стока шло внутри транзакции и обязано откатиться целиком.
	require.Equal(t, 10, productStock(t, store, 1))
	_, err = store.GetOrder(context.Background(), domain.SequenceFloor)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestPlace_ExistingBillRenumbered(t *testing.T) {
	store := seedStore(t)
	store.SeedBill(domain.Bill{
		ID:         5,
		BillNumber: "draft-5",
		Date:       testDate(),
		Payment:    domain.PaymentTypeCard,
		ClientID:   1,
	})
	svc := newTestService(store, nil, nil)

	billID := int64(5)
	order, err := svc.Place(context.Background(), domain.PlaceOrderInput{
		DeliveryMethod: domain.DeliveryMethodCourier,
		ClientID:       1,
		BillID:         &billID,
		Items:          []domain.OrderItemInput{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)
	require.NotNil(t, order.BillID)
	require.Equal(t, billID, *order.BillID)

	bill, err := store.GetBill(context.Background(), billID)
	require.NoError(t, err)
	require.Equal(t, strconv.FormatInt(order.ID, 10), bill.BillNumber)
}

func TestPlace_FullDiscountFloorsTotalAtZero(t *testing.T) {
	store := seedStore(t)
	svc := newTestService(store, nil, nil)

	order, err := svc.Place(context.Background(), domain.PlaceOrderInput{
		DeliveryMethod: domain.DeliveryMethodPickup,
		ClientID:       1,
		Items:          []domain.OrderItemInput{{ProductID: 1, Quantity: 2}},
		DiscountPct:    100,
	})
	require.NoError(t, err)
	require.True(t, order.Total.IsZero(), "total = %s", order.Total)
}

func TestPlace_InvalidInput(t *testing.T) {
	store := seedStore(t)
	svc := newTestService(store, nil, nil)

	_, err := svc.Place(context.Background(), domain.PlaceOrderInput{
		DeliveryMethod: domain.DeliveryMethodPickup,
		ClientID:       1,
		Items:          []domain.OrderItemInput{{ProductID: 1, Quantity: 0}},
	})
	require.ErrorIs(t, err, domain.ErrItemQuantityInvalid)

	_, err = svc.Place(context.Background(), domain.PlaceOrderInput{
		DeliveryMethod: domain.DeliveryMethodPickup,
		ClientID:       1,
		Items:          []domain.OrderItemInput{{ProductID: 1, Quantity: 1}},
		DiscountPct:    150,
	})
	require.ErrorIs(t, err, domain.ErrDiscountOutOfRange)
}

func TestPlace_CacheFailureDoesNotFailPlacement(t *testing.T) {
	store := seedStore(t)
	cache := &stubCache{err: errCacheDown}
	svc := newTestService(store, cache, nil)

	order, err := svc.Place(context.Background(), domain.PlaceOrderInput{
		DeliveryMethod: domain.DeliveryMethodPickup,
		ClientID:       1,
		Items:          []domain.OrderItemInput{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, cache.calls)
	require.Equal(t, 9, productStock(t, store, 1))

	_, err = store.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
}

func TestPlace_PublisherFailureDoesNotFailPlacement(t *testing.T) {
	store := seedStore(t)
	events := &stubPublisher{err: errKafkaDown}
	svc := newTestService(store, nil, events)

	_, err := svc.Place(context.Background(), domain.PlaceOrderInput{
		DeliveryMethod: domain.DeliveryMethodPickup,
		ClientID:       1,
		Items:          []domain.OrderItemInput{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, events.calls)
}

func TestUpdate_ValidatesClientReference(t *testing.T) {
	store := seedStore(t)
	svc := newTestService(store, nil, nil)

	placed, err := svc.Place(context.Background(), domain.PlaceOrderInput{
		DeliveryMethod: domain.DeliveryMethodPickup,
		ClientID:       1,
		Items:          []domain.OrderItemInput{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	missing := int64(42)
	_, err = svc.Update(context.Background(), placed.ID, domain.OrderPatch{ClientID: &missing})
	require.ErrorIs(t, err, domain.ErrClientNotFound)
}

func TestUpdate_ValidatesBillReference(t *testing.T) {
	store := seedStore(t)
	svc := newTestService(store, nil, nil)

	placed, err := svc.Place(context.Background(), domain.PlaceOrderInput{
		DeliveryMethod: domain.DeliveryMethodPickup,
		ClientID:       1,
		Items:          []domain.OrderItemInput{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	missing := int64(77)
	_, err = svc.Update(context.Background(), placed.ID, domain.OrderPatch{BillID: &missing})
	require.ErrorIs(t, err, domain.ErrBillNotFound)
}

func TestUpdate_OverwritesFieldsWithoutTouchingStock(t *testing.T) {
	store := seedStore(t)
	svc := newTestService(store, nil, nil)

	placed, err := svc.Place(context.Background(), domain.PlaceOrderInput{
		DeliveryMethod: domain.DeliveryMethodPickup,
		ClientID:       1,
		Items:          []domain.OrderItemInput{{ProductID: 1, Quantity: 2}},
	})
	require.NoError(t, err)
	require.Equal(t, 8, productStock(t, store, 1))

	status := domain.OrderStatusShipped
	delivery := domain.DeliveryMethodCourier
	updated, err := svc.Update(context.Background(), placed.ID, domain.OrderPatch{
		Status:         &status,
		DeliveryMethod: &delivery,
	})
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusShipped, updated.Status)
	require.Equal(t, domain.DeliveryMethodCourier, updated.DeliveryMethod)

	// Обновление не пересчитывает цены и не трогает сток.
	require.True(t, updated.Total.Equal(placed.Total))
	require.Equal(t, 8, productStock(t, store, 1))
}

func TestGetAndListByClient(t *testing.T) {
	store := seedStore(t)
	svc := newTestService(store, nil, nil)

	placed, err := svc.Place(context.Background(), domain.PlaceOrderInput{
		DeliveryMethod: domain.DeliveryMethodPickup,
		ClientID:       1,
		Items:          []domain.OrderItemInput{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), placed.ID)
	require.NoError(t, err)
	require.Equal(t, placed.ID, got.ID)
	require.Len(t, got.Details, 1)

	orders, err := svc.ListByClient(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, orders, 1)
}
