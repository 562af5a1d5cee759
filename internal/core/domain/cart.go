package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CartItem is one line in a cart. A cart holds at most one line per product;
// adding the same product again merges quantities.
type CartItem struct {
	ID        string
	CartID    string
	ProductID string
	Quantity  Quantity
}

// Cart is a per-user staging area for purchases. Every mutation returns a new
// value; a Cart held by a caller never changes underneath it.
type Cart struct {
	ID        string
	UserID    string
	Items     []CartItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCart creates an empty cart. Carts are created lazily on first add and
// deleted on successful order placement or explicit clear.
func NewCart(userID string, now time.Time) Cart {
	return Cart{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddItem merges into an existing line for the product or appends a new one.
// The merged quantity must stay within the per-line bound.
func (c Cart) AddItem(productID string, qty Quantity, now time.Time) (Cart, error) {
	items := make([]CartItem, len(c.Items))
	copy(items, c.Items)

	merged := false
	for i := range items {
		if items[i].ProductID == productID {
			sum, err := items[i].Quantity.Add(qty)
			if err != nil {
				return Cart{}, err
			}
			items[i].Quantity = sum
			merged = true
			break
		}
	}
	if !merged {
		items = append(items, CartItem{
			ID:        uuid.NewString(),
			CartID:    c.ID,
			ProductID: productID,
			Quantity:  qty,
		})
	}

	next := c
	next.Items = items
	next.UpdatedAt = now
	return next, nil
}

func (c Cart) RemoveItem(itemID string, now time.Time) (Cart, error) {
	items := make([]CartItem, 0, len(c.Items))
	found := false
	for _, item := range c.Items {
		if item.ID == itemID {
			found = true
			continue
		}
		items = append(items, item)
	}
	if !found {
		return Cart{}, fmt.Errorf("cart item %s: %w", itemID, ErrNotFound)
	}

	next := c
	next.Items = items
	next.UpdatedAt = now
	return next, nil
}

func (c Cart) UpdateItemQuantity(itemID string, qty Quantity, now time.Time) (Cart, error) {
	items := make([]CartItem, len(c.Items))
	copy(items, c.Items)

	found := false
	for i := range items {
		if items[i].ID == itemID {
			items[i].Quantity = qty
			found = true
			break
		}
	}
	if !found {
		return Cart{}, fmt.Errorf("cart item %s: %w", itemID, ErrNotFound)
	}

	next := c
	next.Items = items
	next.UpdatedAt = now
	return next, nil
}

func (c Cart) Clear(now time.Time) Cart {
	next := c
	next.Items = nil
	next.UpdatedAt = now
	return next
}

// ItemCount sums line quantities, for badge display.
func (c Cart) ItemCount() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity.Int()
	}
	return total
}

func (c Cart) HasItem(productID string) bool {
	_, ok := c.Item(productID)
	return ok
}

func (c Cart) Item(productID string) (CartItem, bool) {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return CartItem{}, false
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
