package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/flicky/hortifruti-api/internal/model"
)

// StockError reports the first line whose stock could not be decremented.
type StockError struct {
	ProductID uuid.UUID
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s", e.ProductID)
}

// ErrStatusChanged means the order left the expected status before the
// update landed.
var ErrStatusChanged = errors.New("order status changed")

type OrderRepository interface {
	CreateWithItems(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) error
	CountBetween(ctx context.Context, from, to time.Time) (int, error)
	SumTotalBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
}

type pgOrderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &pgOrderRepo{pool: pool}
}

const orderColumns = `id, user_id, customer_name, customer_email, customer_phone, address, payment,
	notes, subtotal, delivery_fee, total, status, created_at, updated_at`

func scanOrder(row pgx.Row, o *model.Order) error {
	return row.Scan(
		&o.ID, &o.UserID, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone, &o.Address, &o.Payment,
		&o.Notes, &o.Subtotal, &o.DeliveryFee, &o.Total, &o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
}

// CreateWithItems inserts the order and its items and decrements stock in a
// single transaction. Each decrement only succeeds while enough stock remains,
// so concurrent orders cannot oversell; on failure nothing is persisted.
func (r *pgOrderRepo) CreateWithItems(ctx context.Context, order *model.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	order.ID = uuid.New()
	err = tx.QueryRow(ctx,
		`INSERT INTO orders (id, user_id, customer_name, customer_email, customer_phone, address, payment,
			notes, subtotal, delivery_fee, total, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		 RETURNING created_at, updated_at`,
		order.ID, order.UserID, order.CustomerName, order.CustomerEmail, order.CustomerPhone,
		order.Address, order.Payment, order.Notes, order.Subtotal, order.DeliveryFee, order.Total, order.Status,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.ID = uuid.New()
		item.OrderID = order.ID

		ct, err := tx.Exec(ctx,
			`UPDATE products SET stock = stock - $2, updated_at = NOW() WHERE id = $1 AND stock >= $2`,
			item.ProductID, item.StockUnits(),
		)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return &StockError{ProductID: item.ProductID}
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO order_items (id, order_id, product_id, product_name, price, quantity)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			item.ID, item.OrderID, item.ProductID, item.ProductName, item.Price, item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *pgOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order := &model.Order{}
	err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id), order)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := r.itemsFor(ctx, []uuid.UUID{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]
	return order, nil
}

func (r *pgOrderRepo) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var (
		orders []model.Order
		ids    []uuid.UUID
	)
	for rows.Next() {
		var o model.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if len(ids) == 0 {
		return orders, nil
	}

	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

func (r *pgOrderRepo) itemsFor(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]model.OrderItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, order_id, product_id, product_name, price, quantity
		 FROM order_items WHERE order_id = ANY($1) ORDER BY product_name`, orderIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	items := make(map[uuid.UUID][]model.OrderItem, len(orderIDs))
	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Price, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items[item.OrderID] = append(items[item.OrderID], item)
	}
	return items, rows.Err()
}

// UpdateStatus moves the order from one status to another. It only applies
// while the order is still in from; otherwise ErrStatusChanged, or
// pgx.ErrNoRows when the order does not exist.
func (r *pgOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`, id, from, to,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check order: %w", err)
	}
	if !exists {
		return pgx.ErrNoRows
	}
	return ErrStatusChanged
}

func (r *pgOrderRepo) CountBetween(ctx context.Context, from, to time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE created_at >= $1 AND created_at < $2`, from, to,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

func (r *pgOrderRepo) SumTotalBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(total), 0) FROM orders WHERE created_at >= $1 AND created_at < $2`, from, to,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum order totals: %w", err)
	}
	return total, nil
}
