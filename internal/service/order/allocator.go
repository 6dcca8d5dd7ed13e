package order

import (
	"context"
	"strconv"
	"strings"

	"github.com/vladislavdragonenkov/retail-orders/internal/domain"
)

// nextSharedNumber выдаёт следующий общий номер заказа/счёта: максимум
// среди ID заказов и числовых bill_number плюс один, но не ниже
// domain.SequenceFloor. Вызывается внутри транзакции размещения;
// конкурентные размещения сериализует хранилище, поэтому два заказа не
// могут получить один номер.
//
// Ошибка скана не фатальна: аллокатор логирует warning и возвращает
// нижнюю границу, чтобы размещение могло продолжиться.
func (s *Service) nextSharedNumber(ctx context.Context, src domain.NumberSource) int64 {
	max := domain.SequenceFloor - 1

	maxOrder, err := src.MaxOrderID(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("could not compute next order number, defaulting to floor")
		return domain.SequenceFloor
	}
	if maxOrder > max {
		max = maxOrder
	}

	numbers, err := src.BillNumbers(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("could not compute next order number, defaulting to floor")
		return domain.SequenceFloor
	}
	for _, raw := range numbers {
		// Нечисловые номера счетов пропускаются, это не ошибка.
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}

	return max + 1
}
