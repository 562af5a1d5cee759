package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ec-kata/checkout/internal/core/domain"
	"github.com/ec-kata/checkout/internal/port"
)

var ErrDuplicateRequest = errors.New("duplicate request")

// DefaultOrderLimit caps how many orders a user may accumulate.
const DefaultOrderLimit = 10

// ItemRequest is one requested order line, typically sourced from the user's
// cart.
type ItemRequest struct {
	ProductID string
	Quantity  int
}

// OrderService coordinates order placement, cancellation and status changes.
// Each coordinator runs as a single transaction: either every step commits or
// none does.
type OrderService struct {
	store      port.Store
	cache      port.CacheRepository // optional; nil disables idempotency checks
	orderLimit int
}

func NewOrderService(store port.Store, cache port.CacheRepository, orderLimit int) *OrderService {
	if orderLimit <= 0 {
		orderLimit = DefaultOrderLimit
	}
	return &OrderService{
		store:      store,
		cache:      cache,
		orderLimit: orderLimit,
	}
}

// PlaceOrder converts the requested lines into a PENDING order: price
// snapshots are taken, stock is conditionally decremented per line, and the
// user's cart is deleted, all inside one transaction. Any failure, including
// a single short stock line, leaves no observable trace of the attempt.
// requestID is optional; when set and a cache is configured, duplicate
// submissions are rejected with ErrDuplicateRequest.
func (s *OrderService) PlaceOrder(ctx context.Context, requestID, userID string, items []ItemRequest) (*domain.Order, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("order must have at least one item: %w", domain.ErrValidation)
	}

	if s.cache != nil && requestID != "" {
		ok, err := s.cache.SetIdempotency(ctx, fmt.Sprintf("order:%s:%s", userID, requestID))
		if err != nil {
			return nil, fmt.Errorf("idempotency check: %w", err)
		}
		if !ok {
			return nil, ErrDuplicateRequest
		}
	}

	var placed *domain.Order
	err := s.store.ExecTx(ctx, func(tx port.Store) error {
		count, err := tx.CountOrdersByUserID(ctx, userID)
		if err != nil {
			return fmt.Errorf("count orders: %w", err)
		}
		if count >= s.orderLimit {
			return fmt.Errorf("order limit of %d reached: %w", s.orderLimit, domain.ErrBusinessRule)
		}

		now := time.Now()
		orderItems := make([]domain.OrderItem, 0, len(items))
		for _, req := range items {
			qty, err := domain.NewQuantity(req.Quantity)
			if err != nil {
				return err
			}

			product, err := tx.GetProduct(ctx, req.ProductID)
			if err != nil {
				return err
			}
			if product == nil {
				return fmt.Errorf("product %s: %w", req.ProductID, domain.ErrNotFound)
			}
			if !product.IsActive {
				return fmt.Errorf("product %s is not available: %w", req.ProductID, domain.ErrValidation)
			}

			price, err := domain.NewPrice(product.Price)
			if err != nil {
				return fmt.Errorf("product %s: %w", req.ProductID, err)
			}

			orderItems = append(orderItems, domain.OrderItem{
				ID:        uuid.NewString(),
				ProductID: product.ID,
				Quantity:  qty,
				Price:     price,
			})
		}

		order, err := domain.NewOrder(userID, orderItems, now)
		if err != nil {
			return err
		}

		if err := tx.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for _, item := range order.Items {
			ok, err := tx.TryDecrementStock(ctx, item.ProductID, item.Quantity.Int())
			if err != nil {
				return fmt.Errorf("decrement stock for %s: %w", item.ProductID, err)
			}
			if !ok {
				return fmt.Errorf("product %s: %w", item.ProductID, domain.ErrInsufficientStock)
			}
		}

		cart, err := tx.GetCartByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if cart != nil {
			if err := tx.DeleteCart(ctx, cart.ID); err != nil {
				return fmt.Errorf("delete cart: %w", err)
			}
		}

		placed = &order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

// CancelOrder transitions the order to CANCELLED and restores every line's
// stock, atomically. A half-restored cancellation is never observable.
func (s *OrderService) CancelOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var cancelled *domain.Order
	err := s.store.ExecTx(ctx, func(tx port.Store) error {
		order, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
		}

		next, err := order.Cancel(time.Now())
		if err != nil {
			return err
		}

		if err := tx.UpdateOrderStatus(ctx, next); err != nil {
			return err
		}

		for _, item := range next.Items {
			if err := tx.IncrementStock(ctx, item.ProductID, item.Quantity.Int()); err != nil {
				return fmt.Errorf("restore stock for %s: %w", item.ProductID, err)
			}
		}

		cancelled = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// UpdateStatus applies a forward transition (confirm, ship, deliver).
// Cancellation is rejected here so it cannot bypass stock restitution in
// CancelOrder.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, target domain.OrderStatus) (*domain.Order, error) {
	var updated *domain.Order
	err := s.store.ExecTx(ctx, func(tx port.Store) error {
		order, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
		}

		now := time.Now()
		var next domain.Order
		switch target {
		case domain.OrderStatusConfirmed:
			next, err = order.Confirm(now)
		case domain.OrderStatusShipped:
			next, err = order.Ship(now)
		case domain.OrderStatusDelivered:
			next, err = order.Deliver(now)
		case domain.OrderStatusCancelled:
			return fmt.Errorf("cancellation must go through CancelOrder: %w", domain.ErrValidation)
		default:
			return fmt.Errorf("unknown target status %q: %w", target, domain.ErrValidation)
		}
		if err != nil {
			return err
		}

		if err := tx.UpdateOrderStatus(ctx, next); err != nil {
			return err
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.store.ListOrdersByUserID(ctx, userID)
}
