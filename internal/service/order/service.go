package order

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/retail-orders/internal/domain"
	"github.com/vladislavdragonenkov/retail-orders/internal/metrics"
)

// productListingsPattern — шаблон ключей кэша листингов товаров,
// инвалидируемых после успешного размещения заказа.
const productListingsPattern = "products:*"

// Service — оркестратор размещения заказа: проверки ссылочной
// целостности, расчёт стоимости, общий счётчик номера заказа/счёта,
// списание стока и запись всех сущностей в одной транзакции.
type Service struct {
	store   domain.Store
	cache   domain.ProductCache
	events  domain.OrderEventPublisher
	logger  *log.Entry
	metrics *metrics.OrderMetrics
}

// NewService создаёт рабочий экземпляр оркестратора. cache и events
// опциональны: при nil соответствующие post-commit шаги пропускаются.
func NewService(
	store domain.Store,
	cache domain.ProductCache,
	events domain.OrderEventPublisher,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "order-service")
	}
	return &Service{
		store:   store,
		cache:   cache,
		events:  events,
		logger:  logger,
		metrics: metrics.NewOrderMetrics(),
	}
}

// NewServiceWithoutMetrics создаёт оркестратор без метрик (для тестов).
func NewServiceWithoutMetrics(
	store domain.Store,
	cache domain.ProductCache,
	events domain.OrderEventPublisher,
	logger *log.Entry,
) *Service {
	svc := NewService(store, cache, events, logger)
	svc.metrics = nil
	return svc
}

// Place размещает заказ. Шаги 2–6 атомарны: любая ошибка внутри
// транзакции откатывает списание стока, заказ, счёт и строки заказа,
// а исходная ошибка возвращается вызывающему без обёртывания.
func (s *Service) Place(ctx context.Context, in domain.PlaceOrderInput) (domain.Order, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordPlacementDuration(time.Since(start))
		}
	}()

	if errs := in.ValidateInvariants(); len(errs) > 0 {
		return domain.Order{}, errors.Join(errs...)
	}

	// Шаг 1: клиент должен существовать; до этого момента никаких мутаций.
	if _, err := s.store.GetClient(ctx, in.ClientID); err != nil {
		s.logger.WithError(err).WithField("client_id", in.ClientID).Error("client lookup failed")
		return domain.Order{}, err
	}

	// Шаг 2: предварительная проверка стока и сбор цен. Повторные позиции
	// одного товара накапливаются против одного и того же остатка, а не
	// проверяются каждая от исходного стока.
	products := make(map[int64]domain.Product, len(in.Items))
	remaining := make(map[int64]int, len(in.Items))
	prices := make(map[int64]decimal.Decimal, len(in.Items))

	for _, item := range in.Items {
		product, seen := products[item.ProductID]
		if !seen {
			fetched, err := s.store.GetProduct(ctx, item.ProductID)
			if err != nil {
				return domain.Order{}, err
			}
			product = fetched
			products[item.ProductID] = product
			remaining[item.ProductID] = product.Stock
			prices[item.ProductID] = product.Price
		}
		if remaining[item.ProductID] < item.Quantity {
			err := &domain.InsufficientStockError{
				ProductID: item.ProductID,
				Available: remaining[item.ProductID],
				Requested: item.Quantity,
			}
			s.recordRejection(err)
			return domain.Order{}, err
		}
		remaining[item.ProductID] -= item.Quantity
	}

	quote := domain.PriceItems(prices, in.Items, in.DiscountPct)

	// Шаг 3: финализация вычисляемых полей.
	date := time.Now().UTC()
	if in.Date != nil {
		date = *in.Date
	}
	status := in.Status
	if status == "" {
		status = domain.OrderStatusPending
	}

	// Шаги 4–5: выдача общего номера и все мутации в одной транзакции.
	// Хранилище сериализует размещения, так что скан максимума и вставка
	// нового номера не могут перемежаться с другим размещением.
	var order domain.Order
	err := s.store.WithinTx(ctx, func(tx domain.Tx) error {
		number := s.nextSharedNumber(ctx, tx)

		order = domain.Order{
			ID:             number,
			Date:           date,
			Total:          quote.Total,
			DeliveryMethod: in.DeliveryMethod,
			Status:         status,
			ClientID:       in.ClientID,
		}

		for _, item := range in.Items {
			if err := tx.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}

		var billID int64
		if in.BillID == nil {
			id, err := tx.InsertBill(ctx, domain.Bill{
				BillNumber: strconv.FormatInt(number, 10),
				Discount:   quote.Discount,
				Date:       time.Now().UTC(),
				Total:      quote.Total,
				Payment:    domain.PaymentTypeCash,
				ClientID:   in.ClientID,
			})
			if err != nil {
				return err
			}
			billID = id
			s.logger.WithFields(log.Fields{
				"bill_number": number,
				"bill_id":     billID,
			}).Info("generated bill for order")
		} else {
			if _, err := tx.GetBill(ctx, *in.BillID); err != nil {
				return err
			}
			if err := tx.RenumberBill(ctx, *in.BillID, strconv.FormatInt(number, 10)); err != nil {
				return err
			}
			billID = *in.BillID
		}

		if err := tx.LinkOrderBill(ctx, order.ID, billID); err != nil {
			return err
		}
		order.BillID = &billID

		for _, item := range in.Items {
			detail := domain.OrderDetail{
				OrderID:   order.ID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Price:     products[item.ProductID].Price,
			}
			if err := tx.InsertOrderDetail(ctx, detail); err != nil {
				return err
			}
			order.Details = append(order.Details, detail)
		}

		return nil
	})
	if err != nil {
		s.recordRejection(err)
		s.logger.WithError(err).WithField("order_id", order.ID).Error("order placement rolled back")
		return domain.Order{}, err
	}

	s.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"items":    len(in.Items),
		"total":    order.Total.String(),
	}).Info("order placed, stock updated")

	// Шаг 7: best-effort операции после коммита. Заказ уже сохранён,
	// поэтому сбои здесь логируются и не возвращаются вызывающему.
	s.invalidateProductListings(ctx)
	s.publishOrderPlaced(ctx, order)

	if s.metrics != nil {
		s.metrics.RecordPlaced()
	}
	return order, nil
}

// Update обновляет заказ. Новые client_id/bill_id проверяются на
// существование; цены и сток при обновлении не пересчитываются.
func (s *Service) Update(ctx context.Context, id int64, patch domain.OrderPatch) (domain.Order, error) {
	if patch.ClientID != nil {
		if _, err := s.store.GetClient(ctx, *patch.ClientID); err != nil {
			s.logger.WithError(err).WithField("client_id", *patch.ClientID).Error("client lookup failed")
			return domain.Order{}, err
		}
	}
	if patch.BillID != nil {
		if _, err := s.store.GetBill(ctx, *patch.BillID); err != nil {
			s.logger.WithError(err).WithField("bill_id", *patch.BillID).Error("bill lookup failed")
			return domain.Order{}, err
		}
	}

	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}

	if patch.Date != nil {
		order.Date = *patch.Date
	}
	if patch.Total != nil {
		order.Total = *patch.Total
	}
	if patch.DeliveryMethod != nil {
		order.DeliveryMethod = *patch.DeliveryMethod
	}
	if patch.Status != nil {
		order.Status = *patch.Status
	}
	if patch.ClientID != nil {
		order.ClientID = *patch.ClientID
	}
	if patch.BillID != nil {
		order.BillID = patch.BillID
	}

	err = s.store.WithinTx(ctx, func(tx domain.Tx) error {
		return tx.UpdateOrder(ctx, order)
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.logger.WithField("order_id", id).Info("order updated")
	return order, nil
}

// Get возвращает заказ вместе со строками.
func (s *Service) Get(ctx context.Context, id int64) (domain.Order, error) {
	return s.store.GetOrder(ctx, id)
}

// ListByClient возвращает заказы клиента, новые первыми.
func (s *Service) ListByClient(ctx context.Context, clientID int64, limit int) ([]domain.Order, error) {
	return s.store.ListOrdersByClient(ctx, clientID, limit)
}

func (s *Service) recordRejection(err error) {
	if s.metrics == nil {
		return
	}
	if domain.IsInsufficientStock(err) {
		s.metrics.RecordInsufficientStock()
		return
	}
	s.metrics.RecordFailed()
}

func (s *Service) invalidateProductListings(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePattern(ctx, productListingsPattern); err != nil {
		s.logger.WithError(err).Warn("failed to invalidate product listings cache")
		if s.metrics != nil {
			s.metrics.RecordCacheInvalidationFailure()
		}
	}
}

func (s *Service) publishOrderPlaced(ctx context.Context, order domain.Order) {
	if s.events == nil {
		return
	}
	if err := s.events.OrderPlaced(ctx, order); err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to publish order placed event")
		if s.metrics != nil {
			s.metrics.RecordEventPublishFailure()
		}
		return
	}
	if s.metrics != nil {
		s.metrics.RecordEventPublished()
	}
}
