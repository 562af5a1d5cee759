package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQuantity(t *testing.T) {
	for _, v := range []int{1, 50, 99} {
		q, err := NewQuantity(v)
		require.NoError(t, err)
		assert.Equal(t, v, q.Int())
	}

	for _, v := range []int{0, -1, 100, 1000} {
		_, err := NewQuantity(v)
		assert.ErrorIs(t, err, ErrValidation, "quantity %d", v)
	}
}

func TestQuantity_Add(t *testing.T) {
	a, err := NewQuantity(40)
	require.NoError(t, err)
	b, err := NewQuantity(50)
	require.NoError(t, err)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, 90, sum.Int())

	// the merged value is bounded like any other quantity
	_, err = sum.Add(b)
	assert.ErrorIs(t, err, ErrValidation)
}
