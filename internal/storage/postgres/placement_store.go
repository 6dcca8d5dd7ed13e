package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/retail-orders/internal/domain"
)

// GetClient возвращает клиента или ErrClientNotFound.
func (s *Store) GetClient(ctx context.Context, id int64) (domain.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var client domain.Client
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, address
		FROM clients
		WHERE id = $1
	`, id).Scan(&client.ID, &client.Name, &client.Email, &client.Address)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Client{}, domain.NotFound(domain.ErrClientNotFound, id)
		}
		return domain.Client{}, fmt.Errorf("select client: %w", err)
	}
	return client, nil
}

// GetProduct возвращает товар или ErrProductNotFound.
func (s *Store) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var product domain.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, price, stock
		FROM products
		WHERE id = $1
	`, id).Scan(&product.ID, &product.Name, &product.Price, &product.Stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.NotFound(domain.ErrProductNotFound, id)
		}
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}
	return product, nil
}

// GetBill возвращает счёт или ErrBillNotFound.
func (s *Store) GetBill(ctx context.Context, id int64) (domain.Bill, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return scanBill(s.db.QueryRowContext(ctx, billSelect+` WHERE id = $1`, id), id)
}

// GetOrder возвращает заказ вместе со строками или ErrOrderNotFound.
func (s *Store) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var order domain.Order
	var status, delivery string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, date, total, delivery_method, status, client_id, bill_id
		FROM orders
		WHERE id = $1
	`, id).Scan(
		&order.ID, &order.Date, &order.Total, &delivery, &status,
		&order.ClientID, &order.BillID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.NotFound(domain.ErrOrderNotFound, id)
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}
	order.Status = domain.OrderStatus(status)
	order.DeliveryMethod = domain.DeliveryMethod(delivery)

	details, err := s.loadDetails(ctx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Details = details

	return order, nil
}

// ListOrdersByClient возвращает заказы клиента, новые первыми,
// ограничивая выборку limit (если > 0).
func (s *Store) ListOrdersByClient(ctx context.Context, clientID int64, limit int) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := `
		SELECT id, date, total, delivery_method, status, client_id, bill_id
		FROM orders
		WHERE client_id = $1
		ORDER BY id DESC
	`

	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = s.db.QueryContext(ctx, query+" LIMIT $2", clientID, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, query, clientID)
	}
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		var order domain.Order
		var status, delivery string
		if err := rows.Scan(
			&order.ID, &order.Date, &order.Total, &delivery, &status,
			&order.ClientID, &order.BillID,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		order.Status = domain.OrderStatus(status)
		order.DeliveryMethod = domain.DeliveryMethod(delivery)

		details, err := s.loadDetails(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		order.Details = details
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, nil
}

// placementLockKey сериализует конкурентные размещения: скан текущего
// максимума и вставка нового номера идут под одним advisory-локом,
// который снимается автоматически на commit/rollback.
const placementLockKey = int64(20417310)

// WithinTx выполняет fn в одной транзакции. Ошибка fn откатывает
// транзакцию и возвращается вызывающему без изменений.
func (s *Store) WithinTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if _, err := sqlTx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, placementLockKey); err != nil {
		_ = sqlTx.Rollback()
		return fmt.Errorf("acquire placement lock: %w", err)
	}

	if err := fn(&placementTx{tx: sqlTx}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit placement tx: %w", err)
	}
	return nil
}

func (s *Store) loadDetails(ctx context.Context, orderID int64) ([]domain.OrderDetail, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT order_id, product_id, quantity, price
		FROM order_details
		WHERE order_id = $1
		ORDER BY id ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order details: %w", err)
	}
	defer rows.Close()

	details := make([]domain.OrderDetail, 0)
	for rows.Next() {
		var detail domain.OrderDetail
		if err := rows.Scan(&detail.OrderID, &detail.ProductID, &detail.Quantity, &detail.Price); err != nil {
			return nil, fmt.Errorf("scan order detail: %w", err)
		}
		details = append(details, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order details: %w", err)
	}

	return details, nil
}

// placementTx реализует domain.Tx поверх *sql.Tx.
type placementTx struct {
	tx *sql.Tx
}

// MaxOrderID возвращает максимальный ID заказа (0, если заказов нет).
func (t *placementTx) MaxOrderID(ctx context.Context) (int64, error) {
	var max int64
	if err := t.tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM orders`).Scan(&max); err != nil {
		return 0, fmt.Errorf("select max order id: %w", err)
	}
	return max, nil
}

// BillNumbers возвращает все bill_number как есть, без разбора.
func (t *placementTx) BillNumbers(ctx context.Context) ([]string, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT bill_number FROM bills`)
	if err != nil {
		return nil, fmt.Errorf("select bill numbers: %w", err)
	}
	defer rows.Close()

	numbers := make([]string, 0)
	for rows.Next() {
		var number string
		if err := rows.Scan(&number); err != nil {
			return nil, fmt.Errorf("scan bill number: %w", err)
		}
		numbers = append(numbers, number)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bill numbers: %w", err)
	}

	return numbers, nil
}

// DecrementStock списывает сток условным UPDATE: строка меняется только
// если остатка хватает, поэтому сток не может уйти в минус даже при
// повторных позициях одного товара в списке.
func (t *placementTx) DecrementStock(ctx context.Context, productID int64, qty int) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - $1
		WHERE id = $2
		  AND stock >= $1
	`, qty, productID)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var stock int
	err = t.tx.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = $1`, productID).Scan(&stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(domain.ErrProductNotFound, productID)
		}
		return fmt.Errorf("check product stock: %w", err)
	}
	return &domain.InsufficientStockError{ProductID: productID, Available: stock, Requested: qty}
}

func (t *placementTx) InsertOrder(ctx context.Context, order domain.Order) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO orders (id, date, total, delivery_method, status, client_id, bill_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		order.ID, order.Date, order.Total, string(order.DeliveryMethod),
		string(order.Status), order.ClientID, order.BillID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("order id %d already taken: %w", order.ID, err)
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (t *placementTx) InsertBill(ctx context.Context, bill domain.Bill) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO bills (bill_number, discount, date, total, payment_type, client_id)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id
	`,
		bill.BillNumber, bill.Discount, bill.Date, bill.Total,
		string(bill.Payment), bill.ClientID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert bill: %w", err)
	}
	return id, nil
}

func (t *placementTx) GetBill(ctx context.Context, id int64) (domain.Bill, error) {
	return scanBill(t.tx.QueryRowContext(ctx, billSelect+` WHERE id = $1 FOR UPDATE`, id), id)
}

func (t *placementTx) RenumberBill(ctx context.Context, billID int64, number string) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE bills SET bill_number = $1 WHERE id = $2
	`, number, billID)
	if err != nil {
		return fmt.Errorf("renumber bill: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.NotFound(domain.ErrBillNotFound, billID)
	}
	return nil
}

func (t *placementTx) LinkOrderBill(ctx context.Context, orderID, billID int64) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE orders SET bill_id = $1 WHERE id = $2
	`, billID, orderID)
	if err != nil {
		return fmt.Errorf("link order to bill: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.NotFound(domain.ErrOrderNotFound, orderID)
	}
	return nil
}

func (t *placementTx) InsertOrderDetail(ctx context.Context, detail domain.OrderDetail) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO order_details (order_id, product_id, quantity, price)
		VALUES ($1,$2,$3,$4)
	`, detail.OrderID, detail.ProductID, detail.Quantity, detail.Price)
	if err != nil {
		return fmt.Errorf("insert order detail: %w", err)
	}
	return nil
}

func (t *placementTx) UpdateOrder(ctx context.Context, order domain.Order) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE orders
		SET date = $1,
		    total = $2,
		    delivery_method = $3,
		    status = $4,
		    client_id = $5,
		    bill_id = $6
		WHERE id = $7
	`,
		order.Date, order.Total, string(order.DeliveryMethod),
		string(order.Status), order.ClientID, order.BillID, order.ID,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.NotFound(domain.ErrOrderNotFound, order.ID)
	}
	return nil
}

const billSelect = `
	SELECT id, bill_number, discount, date, total, payment_type, client_id
	FROM bills`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBill(row rowScanner, id int64) (domain.Bill, error) {
	var bill domain.Bill
	var payment string
	err := row.Scan(
		&bill.ID, &bill.BillNumber, &bill.Discount, &bill.Date,
		&bill.Total, &payment, &bill.ClientID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Bill{}, domain.NotFound(domain.ErrBillNotFound, id)
		}
		return domain.Bill{}, fmt.Errorf("select bill: %w", err)
	}
	bill.Payment = domain.PaymentType(payment)
	return bill, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ domain.Store = (*Store)(nil)
var _ domain.Tx = (*placementTx)(nil)
