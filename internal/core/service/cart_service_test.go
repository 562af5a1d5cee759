package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ec-kata/checkout/internal/core/domain"
)

func newCartFixture(t *testing.T) (*CartService, *memStore) {
	t.Helper()
	store := newMemStore()
	store.seedProduct(activeProduct("p1", 500, 10))
	store.seedProduct(activeProduct("p2", 300, 10))
	return NewCartService(store), store
}

func TestCartAddItem_MergesSameProduct(t *testing.T) {
	svc, _ := newCartFixture(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "user-1", "p1", 2)
	require.NoError(t, err)

	cart, err := svc.AddItem(ctx, "user-1", "p1", 3)
	require.NoError(t, err)

	// one line, summed quantity, never two lines
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity.Int())
	assert.Equal(t, 5, cart.ItemCount())
}

func TestCartAddItem_SecondProductAppends(t *testing.T) {
	svc, _ := newCartFixture(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "user-1", "p1", 2)
	require.NoError(t, err)

	cart, err := svc.AddItem(ctx, "user-1", "p2", 1)
	require.NoError(t, err)

	require.Len(t, cart.Items, 2)
	assert.Equal(t, "p1", cart.Items[0].ProductID)
	assert.Equal(t, "p2", cart.Items[1].ProductID)
	assert.Equal(t, 3, cart.ItemCount())
}

func TestCartAddItem_MergeOverflowsBound(t *testing.T) {
	svc, store := newCartFixture(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "user-1", "p1", 60)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, "user-1", "p1", 50)
	assert.ErrorIs(t, err, domain.ErrValidation)

	// failed merge leaves the cart as it was
	cart, err := store.GetCartByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 60, cart.ItemCount())
}

func TestCartAddItem_UnknownProduct(t *testing.T) {
	svc, _ := newCartFixture(t)

	_, err := svc.AddItem(context.Background(), "user-1", "missing", 1)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCartAddItem_InactiveProduct(t *testing.T) {
	svc, store := newCartFixture(t)
	p := activeProduct("p3", 100, 5)
	p.IsActive = false
	store.seedProduct(p)

	_, err := svc.AddItem(context.Background(), "user-1", "p3", 1)

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCartAddItem_InvalidQuantity(t *testing.T) {
	svc, _ := newCartFixture(t)

	for _, qty := range []int{0, -1, 100} {
		_, err := svc.AddItem(context.Background(), "user-1", "p1", qty)
		assert.ErrorIs(t, err, domain.ErrValidation)
	}
}

func TestCartUpdateItem(t *testing.T) {
	svc, _ := newCartFixture(t)
	ctx := context.Background()

	cart, err := svc.AddItem(ctx, "user-1", "p1", 2)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	updated, err := svc.UpdateItem(ctx, "user-1", itemID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Items[0].Quantity.Int())
}

func TestCartUpdateItem_UnknownItem(t *testing.T) {
	svc, _ := newCartFixture(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "user-1", "p1", 2)
	require.NoError(t, err)

	_, err = svc.UpdateItem(ctx, "user-1", "missing-item", 3)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCartUpdateItem_NoCart(t *testing.T) {
	svc, _ := newCartFixture(t)

	_, err := svc.UpdateItem(context.Background(), "user-1", "item", 3)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCartRemoveItem(t *testing.T) {
	svc, _ := newCartFixture(t)
	ctx := context.Background()

	cart, err := svc.AddItem(ctx, "user-1", "p1", 2)
	require.NoError(t, err)
	cart, err = svc.AddItem(ctx, "user-1", "p2", 1)
	require.NoError(t, err)

	removed, err := svc.RemoveItem(ctx, "user-1", cart.Items[0].ID)
	require.NoError(t, err)
	require.Len(t, removed.Items, 1)
	assert.Equal(t, "p2", removed.Items[0].ProductID)
}

func TestCartRemoveItem_UnknownItem(t *testing.T) {
	svc, _ := newCartFixture(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "user-1", "p1", 2)
	require.NoError(t, err)

	_, err = svc.RemoveItem(ctx, "user-1", "missing-item")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCartClear_DeletesCart(t *testing.T) {
	svc, store := newCartFixture(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "user-1", "p1", 2)
	require.NoError(t, err)

	cleared, err := svc.Clear(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, cleared.IsEmpty())

	got, err := store.GetCartByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCartClear_NoCartIsNoop(t *testing.T) {
	svc, _ := newCartFixture(t)

	cleared, err := svc.Clear(context.Background(), "user-1")

	require.NoError(t, err)
	assert.True(t, cleared.IsEmpty())
}

func TestGetCart_EmptyForNewUser(t *testing.T) {
	svc, _ := newCartFixture(t)

	cart, err := svc.GetCart(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, "user-1", cart.UserID)
	assert.True(t, cart.IsEmpty())
	assert.Equal(t, 0, cart.ItemCount())
}
