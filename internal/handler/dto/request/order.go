package request

import (
	"strings"

	"resale-market/internal/usecase/commands"

	"github.com/google/uuid"
)

type OrderItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int32     `json:"quantity" binding:"required,gt=0"`
}

type CreateOrderRequest struct {
	Items        []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	DiscountCode *string            `json:"discount_code,omitempty"`
}

func (r CreateOrderRequest) GetDiscountCode() *string {
	if r.DiscountCode == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*r.DiscountCode)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func (r CreateOrderRequest) ToInput() commands.CreateOrderInput {
	items := make([]commands.CreateOrderItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, commands.CreateOrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}
	return commands.CreateOrderInput{
		Items:        items,
		DiscountCode: r.GetDiscountCode(),
	}
}
