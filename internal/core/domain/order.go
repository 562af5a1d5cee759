package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch status := OrderStatus(s); status {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return status, nil
	default:
		return "", fmt.Errorf("unknown order status %q: %w", s, ErrValidation)
	}
}

// OrderItem carries the unit price snapshotted at placement time. It never
// tracks the live product price afterwards.
type OrderItem struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  Quantity
	Price     decimal.Decimal
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity))).Round(2)
}

// Order is an immutable-items, mutable-status record of a checkout. Status
// changes only through the transition methods below; cancellation is a
// status, never a deletion.
type Order struct {
	ID          string
	UserID      string
	Status      OrderStatus
	TotalAmount decimal.Decimal
	Items       []OrderItem
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewOrder computes the total exactly once from the item snapshots. The total
// is never recomputed from live product prices.
func NewOrder(userID string, items []OrderItem, now time.Time) (Order, error) {
	if len(items) == 0 {
		return Order{}, fmt.Errorf("order must have at least one item: %w", ErrValidation)
	}

	orderID := uuid.NewString()
	owned := make([]OrderItem, len(items))
	copy(owned, items)

	total := decimal.Zero
	for i := range owned {
		if owned[i].ID == "" {
			owned[i].ID = uuid.NewString()
		}
		owned[i].OrderID = orderID
		total = total.Add(owned[i].Subtotal())
	}

	total, err := NewTotalAmount(total)
	if err != nil {
		return Order{}, err
	}

	return Order{
		ID:          orderID,
		UserID:      userID,
		Status:      OrderStatusPending,
		TotalAmount: total,
		Items:       owned,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (o Order) Confirm(now time.Time) (Order, error) {
	if o.Status != OrderStatusPending {
		return Order{}, fmt.Errorf("cannot confirm order in status %s: %w", o.Status, ErrInvalidStateTransition)
	}
	return o.withStatus(OrderStatusConfirmed, now), nil
}

// Ship also accepts PENDING, not only CONFIRMED. Callers rely on skipping
// confirmation, so the looser rule is kept deliberately.
func (o Order) Ship(now time.Time) (Order, error) {
	if o.Status != OrderStatusPending && o.Status != OrderStatusConfirmed {
		return Order{}, fmt.Errorf("cannot ship order in status %s: %w", o.Status, ErrInvalidStateTransition)
	}
	return o.withStatus(OrderStatusShipped, now), nil
}

func (o Order) Deliver(now time.Time) (Order, error) {
	if o.Status != OrderStatusShipped {
		return Order{}, fmt.Errorf("cannot deliver order in status %s: %w", o.Status, ErrInvalidStateTransition)
	}
	return o.withStatus(OrderStatusDelivered, now), nil
}

func (o Order) Cancel(now time.Time) (Order, error) {
	if !o.CanBeCancelled() {
		return Order{}, fmt.Errorf("cannot cancel order in status %s: %w", o.Status, ErrInvalidStateTransition)
	}
	return o.withStatus(OrderStatusCancelled, now), nil
}

func (o Order) CanBeCancelled() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusConfirmed
}

func (o Order) IsTerminal() bool {
	return o.Status == OrderStatusDelivered || o.Status == OrderStatusCancelled
}

func (o Order) ItemCount() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity.Int()
	}
	return total
}

func (o Order) withStatus(status OrderStatus, now time.Time) Order {
	next := o
	next.Status = status
	next.UpdatedAt = now
	return next
}
