package builder

import (
	"time"

	"resale-market/internal/domain/order"
	reqdto "resale-market/internal/handler/dto/request"
	"resale-market/internal/usecase/queries"

	"github.com/google/uuid"
)

type OrderBuilder struct {
	ID           uuid.UUID
	OrderNumber  string
	BuyerID      uuid.UUID
	ProductID    uuid.UUID
	ProductTitle string
	ProductBrand string
	UnitPrice    int64
	Quantity     int32
	DiscountCode *string
	Discount     int64
	Currency     string
	CreatedAt    time.Time
}

func NewOrderBuilder() *OrderBuilder {
	return &OrderBuilder{
		ID:           uuid.New(),
		OrderNumber:  "ORD-20250601120000-A1B2",
		BuyerID:      uuid.New(),
		ProductID:    uuid.New(),
		ProductTitle: "Leather Jacket",
		ProductBrand: "Aviatrix",
		UnitPrice:    15000,
		Quantity:     2,
		Currency:     "ZAR",
		CreatedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (b *OrderBuilder) With(mutate func(*OrderBuilder)) *OrderBuilder {
	mutate(b)
	return b
}

func (b *OrderBuilder) BuildCreateRequestDTO() reqdto.CreateOrderRequest {
	return reqdto.CreateOrderRequest{
		Items: []reqdto.OrderItemRequest{
			{ProductID: b.ProductID, Quantity: b.Quantity},
		},
		DiscountCode: b.DiscountCode,
	}
}

func (b *OrderBuilder) BuildView() *queries.OrderView {
	subtotal := b.UnitPrice * int64(b.Quantity)
	fulfilledAt := b.CreatedAt.Add(time.Second)
	authID := "AUTH-20250601120000-0A0B0C"
	return &queries.OrderView{
		ID:             b.ID,
		OrderNumber:    b.OrderNumber,
		BuyerID:        b.BuyerID,
		Subtotal:       subtotal,
		DiscountCode:   b.DiscountCode,
		DiscountAmount: b.Discount,
		Total:          subtotal - b.Discount,
		Currency:       b.Currency,
		Status:         order.StatusFulfilled.String(),
		PaymentAuthID:  &authID,
		FulfilledAt:    &fulfilledAt,
		StatusHistory: order.History{
			{Status: order.StatusPending, Timestamp: b.CreatedAt, Note: "Order created"},
			{Status: order.StatusFulfilled, Timestamp: fulfilledAt, Note: "Order fulfilled and ready for delivery"},
		},
		Items: []queries.OrderItemView{
			{
				ID:           uuid.New(),
				ProductID:    b.ProductID,
				ProductTitle: b.ProductTitle,
				ProductBrand: b.ProductBrand,
				UnitPrice:    b.UnitPrice,
				Quantity:     b.Quantity,
				LineTotal:    subtotal,
			},
		},
		CreatedAt: b.CreatedAt,
		UpdatedAt: fulfilledAt,
	}
}

func (b *OrderBuilder) BuildListItem() *queries.OrderListItem {
	subtotal := b.UnitPrice * int64(b.Quantity)
	return &queries.OrderListItem{
		ID:          b.ID,
		OrderNumber: b.OrderNumber,
		Status:      order.StatusFulfilled.String(),
		Total:       subtotal - b.Discount,
		Currency:    b.Currency,
		ItemCount:   1,
		CreatedAt:   b.CreatedAt,
	}
}
