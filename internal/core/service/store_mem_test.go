package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ec-kata/checkout/internal/core/domain"
	"github.com/ec-kata/checkout/internal/port"
)

// memStore is an in-memory port.Store. ExecTx snapshots state and restores it
// when fn fails, so all-or-nothing behavior is observable in tests. A mutex
// serializes transactions the way the storage engine linearizes them.
type memStore struct {
	mu       sync.Mutex
	products map[string]domain.Product
	carts    map[string]domain.Cart
	orders   map[string]domain.Order
	inTx     bool
}

func newMemStore() *memStore {
	return &memStore{
		products: make(map[string]domain.Product),
		carts:    make(map[string]domain.Cart),
		orders:   make(map[string]domain.Order),
	}
}

func (m *memStore) locked(fn func()) {
	if !m.inTx {
		m.mu.Lock()
		defer m.mu.Unlock()
	}
	fn()
}

func (m *memStore) ExecTx(ctx context.Context, fn func(port.Store) error) error {
	if m.inTx {
		return fn(m)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snapProducts := copyProducts(m.products)
	snapCarts := copyCarts(m.carts)
	snapOrders := copyOrders(m.orders)

	tx := &memStore{products: m.products, carts: m.carts, orders: m.orders, inTx: true}
	if err := fn(tx); err != nil {
		m.products = snapProducts
		m.carts = snapCarts
		m.orders = snapOrders
		return err
	}
	return nil
}

func (m *memStore) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	var out *domain.Product
	m.locked(func() {
		if p, ok := m.products[productID]; ok {
			cp := p
			out = &cp
		}
	})
	return out, nil
}

func (m *memStore) TryDecrementStock(ctx context.Context, productID string, quantity int) (bool, error) {
	var ok bool
	m.locked(func() {
		p, exists := m.products[productID]
		if !exists || p.Stock < quantity {
			return
		}
		p.Stock -= quantity
		m.products[productID] = p
		ok = true
	})
	return ok, nil
}

func (m *memStore) IncrementStock(ctx context.Context, productID string, quantity int) error {
	var err error
	m.locked(func() {
		p, exists := m.products[productID]
		if !exists {
			err = fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
			return
		}
		p.Stock += quantity
		m.products[productID] = p
	})
	return err
}

func (m *memStore) GetCartByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	var out *domain.Cart
	m.locked(func() {
		for _, c := range m.carts {
			if c.UserID == userID {
				cp := copyCart(c)
				out = &cp
				return
			}
		}
	})
	return out, nil
}

func (m *memStore) SaveCart(ctx context.Context, cart domain.Cart) error {
	m.locked(func() {
		m.carts[cart.ID] = copyCart(cart)
	})
	return nil
}

func (m *memStore) DeleteCart(ctx context.Context, cartID string) error {
	m.locked(func() {
		delete(m.carts, cartID)
	})
	return nil
}

func (m *memStore) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var out *domain.Order
	m.locked(func() {
		if o, ok := m.orders[orderID]; ok {
			cp := copyOrder(o)
			out = &cp
		}
	})
	return out, nil
}

func (m *memStore) CreateOrder(ctx context.Context, order domain.Order) error {
	var err error
	m.locked(func() {
		if _, exists := m.orders[order.ID]; exists {
			err = fmt.Errorf("order %s already exists", order.ID)
			return
		}
		m.orders[order.ID] = copyOrder(order)
	})
	return err
}

func (m *memStore) UpdateOrderStatus(ctx context.Context, order domain.Order) error {
	var err error
	m.locked(func() {
		existing, ok := m.orders[order.ID]
		if !ok {
			err = fmt.Errorf("order %s: %w", order.ID, domain.ErrNotFound)
			return
		}
		existing.Status = order.Status
		existing.UpdatedAt = order.UpdatedAt
		m.orders[order.ID] = existing
	})
	return err
}

func (m *memStore) CountOrdersByUserID(ctx context.Context, userID string) (int, error) {
	count := 0
	m.locked(func() {
		for _, o := range m.orders {
			if o.UserID == userID {
				count++
			}
		}
	})
	return count, nil
}

func (m *memStore) ListOrdersByUserID(ctx context.Context, userID string) ([]domain.Order, error) {
	var out []domain.Order
	m.locked(func() {
		for _, o := range m.orders {
			if o.UserID == userID {
				out = append(out, copyOrder(o))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) ListStalePendingOrders(ctx context.Context, cutoff time.Time) ([]domain.Order, error) {
	var out []domain.Order
	m.locked(func() {
		for _, o := range m.orders {
			if o.Status == domain.OrderStatusPending && o.CreatedAt.Before(cutoff) {
				cp := copyOrder(o)
				cp.Items = nil
				out = append(out, cp)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) CancelOrders(ctx context.Context, orderIDs []string, now time.Time) (int64, error) {
	var count int64
	m.locked(func() {
		for _, id := range orderIDs {
			o, ok := m.orders[id]
			if !ok || o.Status != domain.OrderStatusPending {
				continue
			}
			o.Status = domain.OrderStatusCancelled
			o.UpdatedAt = now
			m.orders[id] = o
			count++
		}
	})
	return count, nil
}

// seed helpers, callable only before the store is shared between goroutines

func (m *memStore) seedProduct(p domain.Product) {
	m.products[p.ID] = p
}

func (m *memStore) seedCart(c domain.Cart) {
	m.carts[c.ID] = copyCart(c)
}

func (m *memStore) seedOrder(o domain.Order) {
	m.orders[o.ID] = copyOrder(o)
}

func (m *memStore) stock(productID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[productID].Stock
}

func copyCart(c domain.Cart) domain.Cart {
	cp := c
	cp.Items = make([]domain.CartItem, len(c.Items))
	copy(cp.Items, c.Items)
	return cp
}

func copyOrder(o domain.Order) domain.Order {
	cp := o
	cp.Items = make([]domain.OrderItem, len(o.Items))
	copy(cp.Items, o.Items)
	return cp
}

func copyProducts(src map[string]domain.Product) map[string]domain.Product {
	dst := make(map[string]domain.Product, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func copyCarts(src map[string]domain.Cart) map[string]domain.Cart {
	dst := make(map[string]domain.Cart, len(src))
	for k, v := range src {
		dst[k] = copyCart(v)
	}
	return dst
}

func copyOrders(src map[string]domain.Order) map[string]domain.Order {
	dst := make(map[string]domain.Order, len(src))
	for k, v := range src {
		dst[k] = copyOrder(v)
	}
	return dst
}

// memCache is an in-memory idempotency store.
type memCache struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newMemCache() *memCache {
	return &memCache{keys: make(map[string]bool)}
}

func (c *memCache) SetIdempotency(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.keys[key] {
		return false, nil
	}
	c.keys[key] = true
	return true, nil
}
