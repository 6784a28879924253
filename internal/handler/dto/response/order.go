package response

import (
	"time"

	"resale-market/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type StatusHistoryEntry struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
}

type ProductSnapshotResponse struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Brand     string    `json:"brand"`
	Category  string    `json:"category"`
	Condition string    `json:"condition"`
}

type OrderItemResponse struct {
	ID           uuid.UUID                `json:"id"`
	ProductID    uuid.UUID                `json:"product_id"`
	ProductTitle string                   `json:"product_title"`
	ProductBrand string                   `json:"product_brand"`
	UnitPrice    int64                    `json:"unit_price"`
	Quantity     int32                    `json:"quantity"`
	LineTotal    int64                    `json:"line_total"`
	Product      *ProductSnapshotResponse `json:"product,omitempty"`
}

type OrderResponse struct {
	ID             uuid.UUID            `json:"id"`
	OrderNumber    string               `json:"order_number"`
	BuyerID        uuid.UUID            `json:"buyer_id"`
	Subtotal       int64                `json:"subtotal"`
	DiscountCode   *string              `json:"discount_code,omitempty"`
	DiscountAmount int64                `json:"discount_amount"`
	Total          int64                `json:"total"`
	Currency       string               `json:"currency"`
	Status         string               `json:"status"`
	FulfilledAt    *time.Time           `json:"fulfilled_at,omitempty"`
	StatusHistory  []StatusHistoryEntry `json:"status_history"`
	Items          []OrderItemResponse  `json:"items"`
	CreatedAt      time.Time            `json:"created_at"`
}

type OrderListItemResponse struct {
	ID          uuid.UUID `json:"id"`
	OrderNumber string    `json:"order_number"`
	Status      string    `json:"status"`
	Total       int64     `json:"total"`
	Currency    string    `json:"currency"`
	ItemCount   int       `json:"item_count"`
	CreatedAt   time.Time `json:"created_at"`
}

type OrderListResponse struct {
	Orders     []OrderListItemResponse `json:"orders"`
	NextCursor *string                 `json:"next_cursor,omitempty"`
}

// FromOrderView maps the read model onto the API shape. Field names line
// up on purpose so copier carries everything except the cursor wrapper.
func FromOrderView(view *queries.OrderView) (*OrderResponse, error) {
	var resp OrderResponse
	if err := copier.Copy(&resp, view); err != nil {
		return nil, err
	}
	return &resp, nil
}

func FromOrderList(items []*queries.OrderListItem, next *string) (*OrderListResponse, error) {
	resp := OrderListResponse{
		Orders:     make([]OrderListItemResponse, 0, len(items)),
		NextCursor: next,
	}
	for _, item := range items {
		var out OrderListItemResponse
		if err := copier.Copy(&out, item); err != nil {
			return nil, err
		}
		resp.Orders = append(resp.Orders, out)
	}
	return &resp, nil
}
