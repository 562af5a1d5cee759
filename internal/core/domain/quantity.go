package domain

import "fmt"

const (
	MinQuantity = 1
	MaxQuantity = 99
)

// Quantity is a validated per-line item count.
type Quantity int

func NewQuantity(v int) (Quantity, error) {
	if v < MinQuantity || v > MaxQuantity {
		return 0, fmt.Errorf("quantity must be between %d and %d, got %d: %w", MinQuantity, MaxQuantity, v, ErrValidation)
	}
	return Quantity(v), nil
}

func (q Quantity) Int() int { return int(q) }

// Add re-validates the merged value, so merging cart lines cannot escape the
// per-line bound.
func (q Quantity) Add(other Quantity) (Quantity, error) {
	return NewQuantity(int(q) + int(other))
}
