package inventory

import "github.com/google/uuid"

type Status string

const (
	StatusDraft  Status = "DRAFT"
	StatusPriced Status = "PRICED"
	StatusListed Status = "LISTED"
)

func (s Status) String() string {
	return string(s)
}

type Condition string

const (
	ConditionNew     Condition = "new"
	ConditionLikeNew Condition = "like_new"
	ConditionGood    Condition = "good"
	ConditionFair    Condition = "fair"
)

// Product is a purchase-time view of an inventory item. The inventory CRUD
// subsystem owns the row; the fulfillment pipeline only reads it and applies
// the conditional decrement.
type Product struct {
	ID          uuid.UUID
	Title       string
	Brand       string
	Category    string
	Condition   Condition
	ResalePrice *int64
	Currency    string
	Quantity    int32
	Status      Status
}

// Purchasable reports whether the item can appear in an order: it must be
// LISTED and carry a resale price.
func (p Product) Purchasable() bool {
	return p.Status == StatusListed && p.ResalePrice != nil
}

func (p Product) HasStock(requested int32) bool {
	return p.Quantity >= requested
}
