package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"food-delivery/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderStateChanged means a conditional update matched no row because
	// the order moved to another status concurrently.
	ErrOrderStateChanged = errors.New("order state changed concurrently")
)

// OrderTotals is the revenue and order count of a merchant over a period.
// Revenue excludes canceled orders; Count includes them.
type OrderTotals struct {
	Revenue decimal.Decimal
	Count   int64
}

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id int64) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerID int64, status *domain.OrderStatus, page, pageSize int) ([]*domain.Order, int, error)
	ListByMerchant(ctx context.Context, merchantID int64, page, pageSize int) ([]*domain.Order, int, error)
	TransitionStatus(ctx context.Context, id int64, from domain.OrderStatus, to domain.OrderStatus) error
	MarkPaid(ctx context.Context, id int64) error
	CustomerStats(ctx context.Context, customerID int64) (domain.CustomerOrderStats, error)
	MerchantTotals(ctx context.Context, merchantID int64, start, end time.Time) (OrderTotals, error)
	StatusBreakdown(ctx context.Context, merchantID int64, start, end time.Time) ([]domain.StatusTotals, error)
	WithTx(tx *sql.Tx) OrderRepository
}

type orderRepository struct {
	db DBTX
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db DBTX) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) WithTx(tx *sql.Tx) OrderRepository {
	if tx == nil {
		return r
	}
	return &orderRepository{db: tx}
}

const orderColumns = `o.id, o.customer_id, o.merchant_id, m.trade_name, o.total, o.status, o.payment_status,
		o.payment_method, o.observations, o.delivery_address, o.delivery_latitude, o.delivery_longitude,
		o.created_at, o.updated_at`

// Create inserts the order header and its lines. Callers run it inside a
// transaction so a failing line leaves nothing behind.
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (customer_id, merchant_id, total, status, payment_status, payment_method,
			observations, delivery_address, delivery_latitude, delivery_longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		order.CustomerID,
		order.MerchantID,
		order.Total,
		string(order.Status),
		string(order.PaymentStatus),
		string(order.PaymentMethod),
		order.Observations,
		order.DeliveryAddress,
		order.DeliveryLatitude,
		order.DeliveryLongitude,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	lineQuery := `
		INSERT INTO order_lines (order_id, product_id, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	for i := range order.Lines {
		line := &order.Lines[i]
		line.OrderID = order.ID
		err := r.db.QueryRowContext(
			ctx,
			lineQuery,
			line.OrderID,
			line.ProductID,
			line.Quantity,
			line.UnitPrice,
			line.Subtotal,
		).Scan(&line.ID)
		if err != nil {
			return fmt.Errorf("failed to create order line: %w", err)
		}
	}

	return nil
}

// FindByID loads an order with its lines, product names and merchant name
func (r *orderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders o
		JOIN merchants m ON m.id = o.merchant_id
		WHERE o.id = $1
	`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}

	if err := r.attachLines(ctx, []*domain.Order{order}); err != nil {
		return nil, err
	}

	return order, nil
}

// ListByCustomer lists a customer's orders newest first, optionally by status
func (r *orderRepository) ListByCustomer(ctx context.Context, customerID int64, status *domain.OrderStatus, page, pageSize int) ([]*domain.Order, int, error) {
	where := "WHERE o.customer_id = $1"
	args := []any{customerID}
	if status != nil {
		where += " AND o.status = $2"
		args = append(args, string(*status))
	}
	return r.list(ctx, where, args, page, pageSize)
}

// ListByMerchant lists a merchant's orders newest first
func (r *orderRepository) ListByMerchant(ctx context.Context, merchantID int64, page, pageSize int) ([]*domain.Order, int, error) {
	return r.list(ctx, "WHERE o.merchant_id = $1", []any{merchantID}, page, pageSize)
}

func (r *orderRepository) list(ctx context.Context, where string, args []any, page, pageSize int) ([]*domain.Order, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders o "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM orders o
		JOIN merchants m ON m.id = o.merchant_id
		%s
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT $%d OFFSET $%d
	`, orderColumns, where, len(args)+1, len(args)+2)
	args = append(args, pageSize, offset(page, pageSize))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating orders: %w", err)
	}

	if err := r.attachLines(ctx, orders); err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *orderRepository) attachLines(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(orders))
	byID := make(map[int64]*domain.Order, len(orders))
	for _, order := range orders {
		order.Lines = []domain.OrderLine{}
		ids = append(ids, order.ID)
		byID[order.ID] = order
	}

	query := `
		SELECT ol.id, ol.order_id, ol.product_id, p.name, ol.quantity, ol.unit_price, ol.subtotal
		FROM order_lines ol
		JOIN products p ON p.id = ol.product_id
		WHERE ol.order_id = ANY($1)
		ORDER BY ol.order_id, ol.id
	`

	rows, err := r.db.QueryContext(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to load order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.OrderLine
		err := rows.Scan(
			&line.ID,
			&line.OrderID,
			&line.ProductID,
			&line.ProductName,
			&line.Quantity,
			&line.UnitPrice,
			&line.Subtotal,
		)
		if err != nil {
			return fmt.Errorf("failed to scan order line: %w", err)
		}
		if order, ok := byID[line.OrderID]; ok {
			order.Lines = append(order.Lines, line)
		}
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating order lines: %w", err)
	}
	return nil
}

// TransitionStatus moves an order from one status to another. It returns
// ErrOrderStateChanged when the order is no longer in the from status.
func (r *orderRepository) TransitionStatus(ctx context.Context, id int64, from domain.OrderStatus, to domain.OrderStatus) error {
	query := `UPDATE orders SET status = $3 WHERE id = $1 AND status = $2`
	return r.execConditional(ctx, query, id, string(from), string(to))
}

// MarkPaid sets payment PAID and status CONFIRMED in a single statement
func (r *orderRepository) MarkPaid(ctx context.Context, id int64) error {
	query := `
		UPDATE orders
		SET payment_status = 'PAID', status = 'CONFIRMED'
		WHERE id = $1 AND status = 'PENDING' AND payment_status = 'PENDING'
	`
	return r.execConditional(ctx, query, id)
}

func (r *orderRepository) execConditional(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrOrderStateChanged
	}

	return nil
}

// CustomerStats counts every order of a customer and sums non-canceled totals
func (r *orderRepository) CustomerStats(ctx context.Context, customerID int64) (domain.CustomerOrderStats, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(total) FILTER (WHERE status <> 'CANCELED'), 0)
		FROM orders
		WHERE customer_id = $1
	`

	var stats domain.CustomerOrderStats
	if err := r.db.QueryRowContext(ctx, query, customerID).Scan(&stats.TotalOrders, &stats.TotalSpent); err != nil {
		return domain.CustomerOrderStats{}, fmt.Errorf("failed to compute customer stats: %w", err)
	}
	return stats, nil
}

// MerchantTotals aggregates the orders created in [start, end)
func (r *orderRepository) MerchantTotals(ctx context.Context, merchantID int64, start, end time.Time) (OrderTotals, error) {
	query := `
		SELECT COALESCE(SUM(total) FILTER (WHERE status <> 'CANCELED'), 0), COUNT(*)
		FROM orders
		WHERE merchant_id = $1 AND created_at >= $2 AND created_at < $3
	`

	var totals OrderTotals
	if err := r.db.QueryRowContext(ctx, query, merchantID, start, end).Scan(&totals.Revenue, &totals.Count); err != nil {
		return OrderTotals{}, fmt.Errorf("failed to aggregate merchant orders: %w", err)
	}
	return totals, nil
}

// StatusBreakdown groups the orders created in [start, end) by status. Only
// statuses with at least one order are returned.
func (r *orderRepository) StatusBreakdown(ctx context.Context, merchantID int64, start, end time.Time) ([]domain.StatusTotals, error) {
	query := `
		SELECT status, COUNT(*), COALESCE(SUM(total) FILTER (WHERE status <> 'CANCELED'), 0)
		FROM orders
		WHERE merchant_id = $1 AND created_at >= $2 AND created_at < $3
		GROUP BY status
		ORDER BY status
	`

	rows, err := r.db.QueryContext(ctx, query, merchantID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to group merchant orders: %w", err)
	}
	defer rows.Close()

	var breakdown []domain.StatusTotals
	for rows.Next() {
		var totals domain.StatusTotals
		if err := rows.Scan(&totals.Status, &totals.Count, &totals.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan status totals: %w", err)
		}
		breakdown = append(breakdown, totals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status totals: %w", err)
	}
	return breakdown, nil
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	order := &domain.Order{}
	err := row.Scan(
		&order.ID,
		&order.CustomerID,
		&order.MerchantID,
		&order.MerchantName,
		&order.Total,
		&order.Status,
		&order.PaymentStatus,
		&order.PaymentMethod,
		&order.Observations,
		&order.DeliveryAddress,
		&order.DeliveryLatitude,
		&order.DeliveryLongitude,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return order, nil
}
