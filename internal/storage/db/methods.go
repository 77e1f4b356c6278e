package db

import "time"

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == "admin"
}

// Expired reports whether the batch expiry has passed at the given time.
// Batches without an expiry date never expire.
func (b Batch) Expired(now time.Time) bool {
	return b.ExpiryDate.Valid && b.ExpiryDate.Time.Before(now)
}

// TotalValue is the valuation of the stock on hand for the product.
func (r GetStockLevelsRow) TotalValue() float64 {
	return r.TotalQuantity * r.UnitPrice
}
