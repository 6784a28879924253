package discount

import (
	"errors"
	"time"

	"resale-market/internal/domain/order"
)

var (
	ErrUnknownCode  = errors.New("unknown discount code")
	ErrInactive     = errors.New("discount code is no longer active")
	ErrExpired      = errors.New("discount code has expired")
	ErrBelowMinimum = errors.New("order subtotal below discount minimum")
)

type Type string

const (
	TypePercentage Type = "percentage"
	TypeFixed      Type = "fixed"
)

// Discount is a static catalog entry, immutable at runtime. Value is a
// percentage (0-100) for percentage type, an amount in cents for fixed type.
type Discount struct {
	Code           string
	Description    string
	Type           Type
	Value          int64
	MinOrderAmount *int64
	MaxDiscount    *int64
	ExpiresAt      *time.Time
	IsActive       bool
}

// Amount computes the discount for a subtotal, capped at MaxDiscount for
// percentage discounts and clamped so it never exceeds the subtotal.
// Percentage amounts round to the nearest cent.
func (d Discount) Amount(subtotal order.Money) order.Money {
	var cents int64
	switch d.Type {
	case TypePercentage:
		cents = (subtotal.Cents()*d.Value + 50) / 100
		if d.MaxDiscount != nil && cents > *d.MaxDiscount {
			cents = *d.MaxDiscount
		}
	case TypeFixed:
		cents = d.Value
	}
	if cents > subtotal.Cents() {
		cents = subtotal.Cents()
	}
	return order.NewMoney(cents)
}

// validate applies the rejection rules in order; the first failure wins.
func (d Discount) validate(subtotal order.Money, now time.Time) error {
	if !d.IsActive {
		return ErrInactive
	}
	if d.ExpiresAt != nil && now.After(*d.ExpiresAt) {
		return ErrExpired
	}
	if d.MinOrderAmount != nil && subtotal.Cents() < *d.MinOrderAmount {
		return ErrBelowMinimum
	}
	return nil
}
