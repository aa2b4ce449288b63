package domain

import "github.com/govalues/decimal"

// Product is the catalog view this core consumes. The money price exists for
// display only; redemption spends PointsPrice.
type Product struct {
	ID          uint64
	Title       string
	Price       decimal.Decimal
	PointsPrice int64
	Available   bool
}
