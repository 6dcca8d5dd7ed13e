package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/retail-orders/internal/domain"
)

// Store — in-memory реализация domain.Store для локальной
// разработки и тестов. Транзакция мутирует копию состояния и
// подменяет её целиком только при успехе fn.
type Store struct {
	mu sync.RWMutex

	clients  map[int64]domain.Client
	products map[int64]domain.Product
	bills    map[int64]domain.Bill
	orders   map[int64]domain.Order

	nextBillID int64
}

// NewStore возвращает пустое in-memory хранилище.
func NewStore() *Store {
	return &Store{
		clients:    make(map[int64]domain.Client),
		products:   make(map[int64]domain.Product),
		bills:      make(map[int64]domain.Bill),
		orders:     make(map[int64]domain.Order),
		nextBillID: 1,
	}
}

// SeedClient добавляет клиента (для тестов и dev-режима).
func (s *Store) SeedClient(client domain.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client.ID] = client
}

// SeedProduct добавляет товар (для тестов и dev-режима).
func (s *Store) SeedProduct(product domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[product.ID] = product
}

// SeedOrder добавляет заказ с уже назначенным номером (для тестов).
func (s *Store) SeedOrder(order domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = order
}

// SeedBill добавляет счёт с уже назначенным ID (для тестов).
func (s *Store) SeedBill(bill domain.Bill) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bills[bill.ID] = bill
	if bill.ID >= s.nextBillID {
		s.nextBillID = bill.ID + 1
	}
}

func (s *Store) GetClient(_ context.Context, id int64) (domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	client, ok := s.clients[id]
	if !ok {
		return domain.Client{}, domain.NotFound(domain.ErrClientNotFound, id)
	}
	return client, nil
}

func (s *Store) GetProduct(_ context.Context, id int64) (domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, ok := s.products[id]
	if !ok {
		return domain.Product{}, domain.NotFound(domain.ErrProductNotFound, id)
	}
	return product, nil
}

func (s *Store) GetBill(_ context.Context, id int64) (domain.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bill, ok := s.bills[id]
	if !ok {
		return domain.Bill{}, domain.NotFound(domain.ErrBillNotFound, id)
	}
	return bill, nil
}

func (s *Store) GetOrder(_ context.Context, id int64) (domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return domain.Order{}, domain.NotFound(domain.ErrOrderNotFound, id)
	}
	return cloneOrder(order), nil
}

func (s *Store) ListOrdersByClient(_ context.Context, clientID int64, limit int) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Order, 0, len(s.orders))
	for _, order := range s.orders {
		if order.ClientID != clientID {
			continue
		}
		result = append(result, cloneOrder(order))
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

func (s *Store) MaxOrderID(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var max int64
	for id := range s.orders {
		if id > max {
			max = id
		}
	}
	return max, nil
}

func (s *Store) BillNumbers(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	numbers := make([]string, 0, len(s.bills))
	for _, bill := range s.bills {
		numbers = append(numbers, bill.BillNumber)
	}
	return numbers, nil
}

// WithinTx выполняет fn над копией состояния. При ошибке копия
// отбрасывается, хранилище остаётся нетронутым.
func (s *Store) WithinTx(_ context.Context, fn func(tx domain.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{
		products:   cloneProducts(s.products),
		bills:      cloneBills(s.bills),
		orders:     cloneOrders(s.orders),
		nextBillID: s.nextBillID,
	}

	if err := fn(tx); err != nil {
		return err
	}

	s.products = tx.products
	s.bills = tx.bills
	s.orders = tx.orders
	s.nextBillID = tx.nextBillID
	return nil
}

// memoryTx — транзакционное представление: все мутации идут в копии карт.
type memoryTx struct {
	products   map[int64]domain.Product
	bills      map[int64]domain.Bill
	orders     map[int64]domain.Order
	nextBillID int64
}

func (t *memoryTx) MaxOrderID(_ context.Context) (int64, error) {
	var max int64
	for id := range t.orders {
		if id > max {
			max = id
		}
	}
	return max, nil
}

func (t *memoryTx) BillNumbers(_ context.Context) ([]string, error) {
	numbers := make([]string, 0, len(t.bills))
	for _, bill := range t.bills {
		numbers = append(numbers, bill.BillNumber)
	}
	return numbers, nil
}

func (t *memoryTx) DecrementStock(_ context.Context, productID int64, qty int) error {
	product, ok := t.products[productID]
	if !ok {
		return domain.NotFound(domain.ErrProductNotFound, productID)
	}

	product.Stock -= qty
	if product.Stock < 0 {
		return &domain.InsufficientStockError{
			ProductID: productID,
			Available: product.Stock + qty,
			Requested: qty,
		}
	}
	t.products[productID] = product
	return nil
}

func (t *memoryTx) InsertOrder(_ context.Context, order domain.Order) error {
	t.orders[order.ID] = cloneOrder(order)
	return nil
}

func (t *memoryTx) InsertBill(_ context.Context, bill domain.Bill) (int64, error) {
	bill.ID = t.nextBillID
	t.nextBillID++
	t.bills[bill.ID] = bill
	return bill.ID, nil
}

func (t *memoryTx) GetBill(_ context.Context, id int64) (domain.Bill, error) {
	bill, ok := t.bills[id]
	if !ok {
		return domain.Bill{}, domain.NotFound(domain.ErrBillNotFound, id)
	}
	return bill, nil
}

func (t *memoryTx) RenumberBill(_ context.Context, billID int64, number string) error {
	bill, ok := t.bills[billID]
	if !ok {
		return domain.NotFound(domain.ErrBillNotFound, billID)
	}
	bill.BillNumber = number
	t.bills[billID] = bill
	return nil
}

func (t *memoryTx) LinkOrderBill(_ context.Context, orderID, billID int64) error {
	order, ok := t.orders[orderID]
	if !ok {
		return domain.NotFound(domain.ErrOrderNotFound, orderID)
	}
	order.BillID = &billID
	t.orders[orderID] = order
	return nil
}

func (t *memoryTx) InsertOrderDetail(_ context.Context, detail domain.OrderDetail) error {
	order, ok := t.orders[detail.OrderID]
	if !ok {
		return domain.NotFound(domain.ErrOrderNotFound, detail.OrderID)
	}
	order.Details = append(order.Details, detail)
	t.orders[detail.OrderID] = order
	return nil
}

func (t *memoryTx) UpdateOrder(_ context.Context, order domain.Order) error {
	if _, ok := t.orders[order.ID]; !ok {
		return domain.NotFound(domain.ErrOrderNotFound, order.ID)
	}
	t.orders[order.ID] = cloneOrder(order)
	return nil
}

func cloneOrder(order domain.Order) domain.Order {
	if order.BillID != nil {
		billID := *order.BillID
		order.BillID = &billID
	}
	details := make([]domain.OrderDetail, len(order.Details))
	copy(details, order.Details)
	order.Details = details
	return order
}

func cloneProducts(src map[int64]domain.Product) map[int64]domain.Product {
	dst := make(map[int64]domain.Product, len(src))
	for id, p := range src {
		dst[id] = p
	}
	return dst
}

func cloneBills(src map[int64]domain.Bill) map[int64]domain.Bill {
	dst := make(map[int64]domain.Bill, len(src))
	for id, b := range src {
		dst[id] = b
	}
	return dst
}

func cloneOrders(src map[int64]domain.Order) map[int64]domain.Order {
	dst := make(map[int64]domain.Order, len(src))
	for id, o := range src {
		dst[id] = cloneOrder(o)
	}
	return dst
}

var _ domain.Store = (*Store)(nil)
var _ domain.Tx = (*memoryTx)(nil)
