package order

import (
	"errors"

	"github.com/google/uuid"
)

var ErrNegativeMoney = errors.New("money cannot be negative")

// Money is an amount in the currency's minor unit (cents).
type Money struct {
	cents int64
}

func NewMoney(cents int64) Money {
	return Money{cents: cents}
}

func NewMoneyChecked(cents int64) (Money, error) {
	if cents < 0 {
		return Money{}, ErrNegativeMoney
	}
	return Money{cents: cents}, nil
}

func (m Money) Cents() int64 {
	return m.cents
}

func (m Money) Add(other Money) Money {
	return Money{cents: m.cents + other.cents}
}

func (m Money) Sub(other Money) Money {
	return Money{cents: m.cents - other.cents}
}

func (m Money) MulQty(qty int32) Money {
	return Money{cents: m.cents * int64(qty)}
}

func (m Money) IsNegative() bool {
	return m.cents < 0
}

func (m Money) LessThan(other Money) bool {
	return m.cents < other.cents
}

// Item is the denormalized product snapshot captured at order creation so
// later catalog edits cannot retroactively change historical orders.
type Item struct {
	ProductID    uuid.UUID
	ProductTitle string
	ProductBrand string
	UnitPrice    Money
	Quantity     int32
	LineTotal    Money
}
