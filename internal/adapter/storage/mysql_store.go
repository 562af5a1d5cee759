package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ec-kata/checkout/internal/core/domain"
	"github.com/ec-kata/checkout/internal/port"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so every query method works
// inside and outside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type MySQLStore struct {
	db *sql.DB
	q  dbtx
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db, q: db}
}

func (m *MySQLStore) ExecTx(ctx context.Context, fn func(port.Store) error) error {
	if _, ok := m.q.(*sql.Tx); ok {
		// Already transaction-bound; flatten into the outer transaction.
		return fn(m)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&MySQLStore{db: m.db, q: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

func (m *MySQLStore) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	var p domain.Product
	err := m.q.QueryRowContext(ctx, `
		SELECT id, name, price, stock, is_active
		FROM products WHERE id = ?`, productID,
	).Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.IsActive)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return &p, nil
}

// TryDecrementStock is a single conditional statement; success is judged by
// the affected row count, never by a separate read. Two callers contending
// for the last unit are linearized by the storage engine.
func (m *MySQLStore) TryDecrementStock(ctx context.Context, productID string, quantity int) (bool, error) {
	result, err := m.q.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - ?, updated_at = NOW()
		WHERE id = ? AND stock >= ?`,
		quantity, productID, quantity,
	)
	if err != nil {
		return false, fmt.Errorf("decrement stock: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("decrement stock: %w", err)
	}
	return rows > 0, nil
}

func (m *MySQLStore) IncrementStock(ctx context.Context, productID string, quantity int) error {
	result, err := m.q.ExecContext(ctx, `
		UPDATE products
		SET stock = stock + ?, updated_at = NOW()
		WHERE id = ?`,
		quantity, productID,
	)
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
	}
	return nil
}

func (m *MySQLStore) GetCartByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	var c domain.Cart
	err := m.q.QueryRowContext(ctx, `
		SELECT id, user_id, created_at, updated_at
		FROM carts WHERE user_id = ?`, userID,
	).Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query cart: %w", err)
	}

	rows, err := m.q.QueryContext(ctx, `
		SELECT id, cart_id, product_id, quantity
		FROM cart_items WHERE cart_id = ? ORDER BY seq`, c.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.CartItem
		var qty int
		if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &qty); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		item.Quantity = domain.Quantity(qty)
		c.Items = append(c.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart items: %w", err)
	}
	return &c, nil
}

// SaveCart upserts the header and rewrites the line set in slice order; the
// seq column keeps the insertion order stable across loads.
func (m *MySQLStore) SaveCart(ctx context.Context, cart domain.Cart) error {
	_, err := m.q.ExecContext(ctx, `
		INSERT INTO carts (id, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE updated_at = VALUES(updated_at)`,
		cart.ID, cart.UserID, cart.CreatedAt, cart.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert cart: %w", err)
	}

	if _, err := m.q.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, cart.ID); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}

	for _, item := range cart.Items {
		_, err := m.q.ExecContext(ctx, `
			INSERT INTO cart_items (id, cart_id, product_id, quantity)
			VALUES (?, ?, ?, ?)`,
			item.ID, cart.ID, item.ProductID, item.Quantity.Int(),
		)
		if err != nil {
			return fmt.Errorf("insert cart item: %w", err)
		}
	}
	return nil
}

func (m *MySQLStore) DeleteCart(ctx context.Context, cartID string) error {
	if _, err := m.q.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, cartID); err != nil {
		return fmt.Errorf("delete cart items: %w", err)
	}
	if _, err := m.q.ExecContext(ctx, `DELETE FROM carts WHERE id = ?`, cartID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}

func (m *MySQLStore) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var o domain.Order
	var status string
	err := m.q.QueryRowContext(ctx, `
		SELECT id, user_id, status, total_amount, created_at, updated_at
		FROM orders WHERE id = ?`, orderID,
	).Scan(&o.ID, &o.UserID, &status, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	o.Status = domain.OrderStatus(status)

	items, err := m.loadOrderItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (m *MySQLStore) CreateOrder(ctx context.Context, order domain.Order) error {
	_, err := m.q.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, status, total_amount, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		order.ID, order.UserID, string(order.Status), order.TotalAmount,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range order.Items {
		_, err := m.q.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, price)
			VALUES (?, ?, ?, ?, ?)`,
			item.ID, order.ID, item.ProductID, item.Quantity.Int(), item.Price,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (m *MySQLStore) UpdateOrderStatus(ctx context.Context, order domain.Order) error {
	result, err := m.q.ExecContext(ctx, `
		UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
		string(order.Status), order.UpdatedAt, order.ID,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("order %s: %w", order.ID, domain.ErrNotFound)
	}
	return nil
}

func (m *MySQLStore) CountOrdersByUserID(ctx context.Context, userID string) (int, error) {
	var count int
	err := m.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE user_id = ?`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return count, nil
}

func (m *MySQLStore) ListOrdersByUserID(ctx context.Context, userID string) ([]domain.Order, error) {
	orders, err := m.listOrders(ctx, `
		SELECT id, user_id, status, total_amount, created_at, updated_at
		FROM orders WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := m.loadOrderItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (m *MySQLStore) ListStalePendingOrders(ctx context.Context, cutoff time.Time) ([]domain.Order, error) {
	return m.listOrders(ctx, `
		SELECT id, user_id, status, total_amount, created_at, updated_at
		FROM orders WHERE status = ? AND created_at < ? ORDER BY created_at`,
		string(domain.OrderStatusPending), cutoff)
}

func (m *MySQLStore) CancelOrders(ctx context.Context, orderIDs []string, now time.Time) (int64, error) {
	if len(orderIDs) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(orderIDs)), ",")
	args := make([]any, 0, len(orderIDs)+3)
	args = append(args, string(domain.OrderStatusCancelled), now)
	for _, id := range orderIDs {
		args = append(args, id)
	}
	args = append(args, string(domain.OrderStatusPending))

	result, err := m.q.ExecContext(ctx, fmt.Sprintf(`
		UPDATE orders SET status = ?, updated_at = ?
		WHERE id IN (%s) AND status = ?`, placeholders),
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("cancel orders: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cancel orders: %w", err)
	}
	return rows, nil
}

func (m *MySQLStore) listOrders(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := m.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		var status string
		if err := rows.Scan(&o.ID, &o.UserID, &status, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Status = domain.OrderStatus(status)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

func (m *MySQLStore) loadOrderItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := m.q.QueryContext(ctx, `
		SELECT id, order_id, product_id, quantity, price
		FROM order_items WHERE order_id = ? ORDER BY seq`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		var qty int
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &qty, &item.Price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		item.Quantity = domain.Quantity(qty)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return items, nil
}
