package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ec-kata/checkout/internal/core/domain"
	"github.com/ec-kata/checkout/internal/port"
)

// CartService manages per-user carts. Carts are created lazily on first add
// and deleted on explicit clear or successful order placement.
type CartService struct {
	store port.Store
}

func NewCartService(store port.Store) *CartService {
	return &CartService{store: store}
}

// GetCart returns the user's cart, or an empty unpersisted cart when none
// exists yet.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.store.GetCartByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		empty := domain.NewCart(userID, time.Now())
		return &empty, nil
	}
	return cart, nil
}

func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	qty, err := domain.NewQuantity(quantity)
	if err != nil {
		return nil, err
	}

	var result *domain.Cart
	err = s.store.ExecTx(ctx, func(tx port.Store) error {
		product, err := tx.GetProduct(ctx, productID)
		if err != nil {
			return err
		}
		if product == nil {
			return fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
		}
		if !product.IsActive {
			return fmt.Errorf("product %s is not available: %w", productID, domain.ErrValidation)
		}

		now := time.Now()
		current, err := tx.GetCartByUserID(ctx, userID)
		if err != nil {
			return err
		}

		cart := domain.NewCart(userID, now)
		if current != nil {
			cart = *current
		}

		next, err := cart.AddItem(productID, qty, now)
		if err != nil {
			return err
		}
		if err := tx.SaveCart(ctx, next); err != nil {
			return err
		}

		result = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *CartService) UpdateItem(ctx context.Context, userID, itemID string, quantity int) (*domain.Cart, error) {
	qty, err := domain.NewQuantity(quantity)
	if err != nil {
		return nil, err
	}

	var result *domain.Cart
	err = s.store.ExecTx(ctx, func(tx port.Store) error {
		cart, err := tx.GetCartByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if cart == nil {
			return fmt.Errorf("cart for user %s: %w", userID, domain.ErrNotFound)
		}

		next, err := cart.UpdateItemQuantity(itemID, qty, time.Now())
		if err != nil {
			return err
		}
		if err := tx.SaveCart(ctx, next); err != nil {
			return err
		}

		result = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID string) (*domain.Cart, error) {
	var result *domain.Cart
	err := s.store.ExecTx(ctx, func(tx port.Store) error {
		cart, err := tx.GetCartByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if cart == nil {
			return fmt.Errorf("cart for user %s: %w", userID, domain.ErrNotFound)
		}

		next, err := cart.RemoveItem(itemID, time.Now())
		if err != nil {
			return err
		}
		if err := tx.SaveCart(ctx, next); err != nil {
			return err
		}

		result = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Clear deletes the user's cart outright. Clearing a nonexistent cart is a
// no-op.
func (s *CartService) Clear(ctx context.Context, userID string) (*domain.Cart, error) {
	var result *domain.Cart
	err := s.store.ExecTx(ctx, func(tx port.Store) error {
		cart, err := tx.GetCartByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if cart == nil {
			empty := domain.NewCart(userID, time.Now())
			result = &empty
			return nil
		}

		if err := tx.DeleteCart(ctx, cart.ID); err != nil {
			return err
		}

		cleared := cart.Clear(time.Now())
		result = &cleared
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
