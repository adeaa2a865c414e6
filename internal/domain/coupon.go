package domain

import "time"

// Coupon discount shapes.
const (
	DiscountPercent = "percent"
	DiscountFixed   = "fixed"
)

type Coupon struct {
	Code string
	// DiscountType selects how DiscountValue is read: percent of the
	// subtotal, or a fixed amount in cents.
	DiscountType  string
	DiscountValue int64
	IsActive      bool
	ExpiresAt     *time.Time
	CreatedAt     time.Time
}

// Usable reports whether the coupon's rule is active at the given time.
func (c Coupon) Usable(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return false
	}
	return true
}
