package commerce

import "errors"

var (
	ErrMissingFields   = errors.New("required fields are missing")
	ErrInvalidDiscount = errors.New("coupon value must be positive")
	ErrCouponNotFound  = errors.New("coupon not found")
	ErrCouponInactive  = errors.New("coupon is not active")
	ErrRequestNotFound = errors.New("enrollment request not found")
)
