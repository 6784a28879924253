package order

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNoItems            = errors.New("order must contain at least one item")
	ErrSubtotalMismatch   = errors.New("line totals do not sum to subtotal")
	ErrDiscountExceeds    = errors.New("discount cannot exceed subtotal")
	ErrNotAuthorized      = errors.New("order has no payment authorization")
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrAlreadyDiscounted  = errors.New("pricing already applied")
	ErrEmptyAuthorization = errors.New("authorization id cannot be empty")
)

// Order is owned exclusively by the fulfillment pipeline during creation and
// read-only afterward, except for the append-only status history.
type Order struct {
	id             uuid.UUID
	orderNumber    string
	buyerID        uuid.UUID
	items          []Item
	subtotal       Money
	discountCode   *string
	discountAmount Money
	total          Money
	currency       string
	status         Status
	paymentAuthID  *string
	fulfilledAt    *time.Time
	cancelledAt    *time.Time
	history        History
	createdAt      time.Time
	updatedAt      time.Time
}

// NewOrder builds a draft PENDING order with its first history entry. The
// total starts at the subtotal; pricing adjusts it before authorization.
func NewOrder(orderNumber string, buyerID uuid.UUID, items []Item, currency string, now time.Time) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	var subtotal Money
	for _, it := range items {
		subtotal = subtotal.Add(it.LineTotal)
	}

	return &Order{
		id:          uuid.New(),
		orderNumber: orderNumber,
		buyerID:     buyerID,
		items:       items,
		subtotal:    subtotal,
		total:       subtotal,
		currency:    currency,
		status:      StatusPending,
		history:     History{}.Append(StatusPending, now, "Order created"),
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

func Reconstruct(
	id uuid.UUID,
	orderNumber string,
	buyerID uuid.UUID,
	items []Item,
	subtotal Money,
	discountCode *string,
	discountAmount Money,
	total Money,
	currency string,
	status Status,
	paymentAuthID *string,
	fulfilledAt, cancelledAt *time.Time,
	history History,
	createdAt, updatedAt time.Time,
) *Order {
	return &Order{
		id:             id,
		orderNumber:    orderNumber,
		buyerID:        buyerID,
		items:          items,
		subtotal:       subtotal,
		discountCode:   discountCode,
		discountAmount: discountAmount,
		total:          total,
		currency:       currency,
		status:         status,
		paymentAuthID:  paymentAuthID,
		fulfilledAt:    fulfilledAt,
		cancelledAt:    cancelledAt,
		history:        history,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// ApplyPricing records the discount outcome. Total must stay within
// [0, subtotal]; the discount amount is clamped upstream by the catalog.
func (o *Order) ApplyPricing(code *string, discountAmount Money) error {
	if o.status != StatusPending {
		return ErrInvalidTransition
	}
	if discountAmount.IsNegative() || o.subtotal.LessThan(discountAmount) {
		return ErrDiscountExceeds
	}
	o.discountCode = code
	o.discountAmount = discountAmount
	o.total = o.subtotal.Sub(discountAmount)
	return nil
}

func (o *Order) Authorize(authID string) error {
	if o.status != StatusPending {
		return ErrInvalidTransition
	}
	if authID == "" {
		return ErrEmptyAuthorization
	}
	o.paymentAuthID = &authID
	return nil
}

func (o *Order) Confirm() error {
	if o.status != StatusPending {
		return ErrInvalidTransition
	}
	if o.paymentAuthID == nil {
		return ErrNotAuthorized
	}
	o.status = StatusConfirmed
	return nil
}

// Fulfill appends the second (and final) history entry. A fulfilled order's
// history is exactly PENDING then FULFILLED.
func (o *Order) Fulfill(now time.Time) error {
	if o.status != StatusConfirmed {
		return ErrInvalidTransition
	}
	o.status = StatusFulfilled
	o.history = o.history.Append(StatusFulfilled, now, "Order fulfilled and ready for delivery")
	if last, ok := o.history.Last(); ok {
		ts := last.Timestamp
		o.fulfilledAt = &ts
	}
	o.updatedAt = now
	return nil
}

// Validate checks the cross-field invariants persisted rows must satisfy.
func (o *Order) Validate() error {
	var sum Money
	for _, it := range o.items {
		sum = sum.Add(it.LineTotal)
	}
	if sum != o.subtotal {
		return ErrSubtotalMismatch
	}
	if o.total != o.subtotal.Sub(o.discountAmount) || o.total.IsNegative() {
		return ErrDiscountExceeds
	}
	if (o.status == StatusConfirmed || o.status == StatusFulfilled) && o.paymentAuthID == nil {
		return ErrNotAuthorized
	}
	return nil
}

func (o *Order) ID() uuid.UUID          { return o.id }
func (o *Order) OrderNumber() string    { return o.orderNumber }
func (o *Order) BuyerID() uuid.UUID     { return o.buyerID }
func (o *Order) Items() []Item          { return o.items }
func (o *Order) Subtotal() Money        { return o.subtotal }
func (o *Order) DiscountCode() *string  { return o.discountCode }
func (o *Order) DiscountAmount() Money  { return o.discountAmount }
func (o *Order) Total() Money           { return o.total }
func (o *Order) Currency() string       { return o.currency }
func (o *Order) Status() Status         { return o.status }
func (o *Order) PaymentAuthID() *string { return o.paymentAuthID }
func (o *Order) FulfilledAt() *time.Time { return o.fulfilledAt }
func (o *Order) CancelledAt() *time.Time { return o.cancelledAt }
func (o *Order) StatusHistory() History { return o.history }
func (o *Order) CreatedAt() time.Time   { return o.createdAt }
func (o *Order) UpdatedAt() time.Time   { return o.updatedAt }
