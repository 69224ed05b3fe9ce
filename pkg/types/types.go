package types

import (
	"database/sql/driver"

	"github.com/shopspring/decimal"
)

// Role represents account role levels.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// EnrollmentStatus represents the state of an enrollment request.
type EnrollmentStatus string

const (
	EnrollmentPending  EnrollmentStatus = "pending"
	EnrollmentApproved EnrollmentStatus = "approved"
	EnrollmentRejected EnrollmentStatus = "rejected"
)

// DiscountType represents how a coupon value is applied.
type DiscountType string

const (
	DiscountFlat    DiscountType = "flat"
	DiscountPercent DiscountType = "percent"
)

// Money wraps decimal.Decimal for currency values.
type Money decimal.Decimal

// NewMoney creates Money from an integer amount in rupees.
func NewMoney(value int64) Money {
	return Money(decimal.NewFromInt(value))
}

// NewMoneyFromString creates Money from string.
func NewMoneyFromString(value string) (Money, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Money{}, err
	}
	return Money(d), nil
}

// Int64 returns the rounded integer representation.
func (m Money) Int64() int64 {
	return decimal.Decimal(m).Round(0).IntPart()
}

// String returns the string representation.
func (m Money) String() string {
	return decimal.Decimal(m).String()
}

// Sub subtracts other from m.
func (m Money) Sub(other Money) Money {
	return Money(decimal.Decimal(m).Sub(decimal.Decimal(other)))
}

// Percent returns pct percent of m.
func (m Money) Percent(pct Money) Money {
	return Money(decimal.Decimal(m).Mul(decimal.Decimal(pct)).Div(decimal.NewFromInt(100)))
}

// IsPositive returns true if m > 0.
func (m Money) IsPositive() bool {
	return decimal.Decimal(m).IsPositive()
}

// LessThan returns true if m < other.
func (m Money) LessThan(other Money) bool {
	return decimal.Decimal(m).LessThan(decimal.Decimal(other))
}

// IsZero returns true if the value is zero.
func (m Money) IsZero() bool {
	return decimal.Decimal(m).IsZero()
}

// Value implements driver.Valuer for database serialization.
func (m Money) Value() (driver.Value, error) {
	return decimal.Decimal(m).Value()
}

// Scan implements sql.Scanner for database deserialization.
func (m *Money) Scan(value interface{}) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return err
	}
	*m = Money(d)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return decimal.Decimal(m).MarshalJSON()
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	*m = Money(d)
	return nil
}
