package port

import (
	"context"
	"time"

	"github.com/ec-kata/checkout/internal/core/domain"
)

// Store is the transactional persistence port. Lookups return (nil, nil) when
// the record does not exist; services translate that into domain.ErrNotFound.
type Store interface {
	// ExecTx runs fn against a transaction-bound Store. Either every write
	// inside fn commits or none does; returning an error rolls everything
	// back. Nesting is flattened into the surrounding transaction.
	ExecTx(ctx context.Context, fn func(Store) error) error

	GetProduct(ctx context.Context, productID string) (*domain.Product, error)

	// TryDecrementStock decrements only if stock >= quantity, as one atomic
	// conditional update. Returns false when the stock is short. This is the
	// only operation that reduces Product.Stock.
	TryDecrementStock(ctx context.Context, productID string, quantity int) (bool, error)

	// IncrementStock restores stock unconditionally, for cancellation
	// restitution.
	IncrementStock(ctx context.Context, productID string, quantity int) error

	GetCartByUserID(ctx context.Context, userID string) (*domain.Cart, error)
	SaveCart(ctx context.Context, cart domain.Cart) error
	DeleteCart(ctx context.Context, cartID string) error

	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	CreateOrder(ctx context.Context, order domain.Order) error
	UpdateOrderStatus(ctx context.Context, order domain.Order) error
	CountOrdersByUserID(ctx context.Context, userID string) (int, error)
	ListOrdersByUserID(ctx context.Context, userID string) ([]domain.Order, error)

	// ListStalePendingOrders returns PENDING orders created before cutoff,
	// oldest first, without their items.
	ListStalePendingOrders(ctx context.Context, cutoff time.Time) ([]domain.Order, error)

	// CancelOrders bulk-transitions the given orders to CANCELLED, skipping
	// any that are no longer PENDING, and reports how many rows changed.
	CancelOrders(ctx context.Context, orderIDs []string, now time.Time) (int64, error)
}
