package discount

import (
	"strings"
	"time"

	"resale-market/internal/domain/order"
)

// Catalog is a static lookup of discount codes. Validation is a pure
// function of (code, subtotal, now); the catalog itself never changes after
// construction, so it is safe for concurrent readers.
type Catalog struct {
	byCode map[string]Discount
}

func NewCatalog(discounts ...Discount) *Catalog {
	byCode := make(map[string]Discount, len(discounts))
	for _, d := range discounts {
		byCode[strings.ToUpper(d.Code)] = d
	}
	return &Catalog{byCode: byCode}
}

func ptr[T any](v T) *T { return &v }

// DefaultCatalog mirrors the seeded marketing codes.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		Discount{
			Code:        "WELCOME10",
			Description: "10% off your first order",
			Type:        TypePercentage,
			Value:       10,
			IsActive:    true,
		},
		Discount{
			Code:           "SAVE50",
			Description:    "R50 off orders over R500",
			Type:           TypeFixed,
			Value:          5000,
			MinOrderAmount: ptr[int64](50000),
			IsActive:       true,
		},
		Discount{
			Code:        "VIP20",
			Description: "20% off (max R200)",
			Type:        TypePercentage,
			Value:       20,
			MaxDiscount: ptr[int64](20000),
			IsActive:    true,
		},
		Discount{
			Code:        "EXPIRED",
			Description: "Expired discount",
			Type:        TypePercentage,
			Value:       15,
			ExpiresAt:   ptr(time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)),
			IsActive:    true,
		},
		Discount{
			Code:        "INACTIVE",
			Description: "Inactive discount",
			Type:        TypePercentage,
			Value:       25,
			IsActive:    false,
		},
	)
}

type Result struct {
	Discount Discount
	Amount   order.Money
}

// Validate looks up and validates a code against a subtotal. Codes are
// normalized (trimmed, uppercased) before lookup.
func (c *Catalog) Validate(code string, subtotal order.Money, now time.Time) (Result, error) {
	d, ok := c.byCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return Result{}, ErrUnknownCode
	}
	if err := d.validate(subtotal, now); err != nil {
		return Result{}, err
	}
	return Result{Discount: d, Amount: d.Amount(subtotal)}, nil
}

type Pricing struct {
	Subtotal       order.Money
	Code           *string
	DiscountAmount order.Money
	Total          order.Money
}

// ApplyDiscount wraps Validate with the checkout leniency policy: a missing
// or invalid code yields zero discount instead of failing order creation.
func (c *Catalog) ApplyDiscount(subtotal order.Money, code *string, now time.Time) Pricing {
	noDiscount := Pricing{
		Subtotal:       subtotal,
		DiscountAmount: order.NewMoney(0),
		Total:          subtotal,
	}

	if code == nil || strings.TrimSpace(*code) == "" {
		return noDiscount
	}

	res, err := c.Validate(*code, subtotal, now)
	if err != nil {
		return noDiscount
	}

	applied := res.Discount.Code
	return Pricing{
		Subtotal:       subtotal,
		Code:           &applied,
		DiscountAmount: res.Amount,
		Total:          subtotal.Sub(res.Amount),
	}
}
