package domain

import "github.com/shopspring/decimal"

// Product is owned by the catalog; this core reads price/active and is the
// sole writer of Stock, via the store's conditional update.
type Product struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	Stock    int
	IsActive bool
}
