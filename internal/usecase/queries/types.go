package queries

import (
	"time"

	"resale-market/internal/domain/order"

	"github.com/google/uuid"
)

// Read models (DTO for read side)
type OrderView struct {
	ID             uuid.UUID           `json:"id"`
	OrderNumber    string              `json:"order_number"`
	BuyerID        uuid.UUID           `json:"buyer_id"`
	Subtotal       int64               `json:"subtotal"`
	DiscountCode   *string             `json:"discount_code,omitempty"`
	DiscountAmount int64               `json:"discount_amount"`
	Total          int64               `json:"total"`
	Currency       string              `json:"currency"`
	Status         string              `json:"status"`
	PaymentAuthID  *string             `json:"payment_auth_id,omitempty"`
	FulfilledAt    *time.Time          `json:"fulfilled_at,omitempty"`
	CancelledAt    *time.Time          `json:"cancelled_at,omitempty"`
	StatusHistory  order.History       `json:"status_history"`
	Items          []OrderItemView     `json:"items"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

type OrderItemView struct {
	ID           uuid.UUID        `json:"id"`
	ProductID    uuid.UUID        `json:"product_id"`
	ProductTitle string           `json:"product_title"`
	ProductBrand string           `json:"product_brand"`
	UnitPrice    int64            `json:"unit_price"`
	Quantity     int32            `json:"quantity"`
	LineTotal    int64            `json:"line_total"`
	Product      *ProductSnapshot `json:"product,omitempty"`
}

// ProductSnapshot is the read-only product projection attached to hydrated
// order items.
type ProductSnapshot struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Brand     string    `json:"brand"`
	Category  string    `json:"category"`
	Condition string    `json:"condition"`
}

type OrderListItem struct {
	ID          uuid.UUID `json:"id"`
	OrderNumber string    `json:"order_number"`
	Status      string    `json:"status"`
	Total       int64     `json:"total"`
	Currency    string    `json:"currency"`
	ItemCount   int       `json:"item_count"`
	CreatedAt   time.Time `json:"created_at"`
}
