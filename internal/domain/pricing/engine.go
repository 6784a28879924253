package pricing

import (
	"errors"

	"resale-market/internal/domain/inventory"
	"resale-market/internal/domain/order"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product is not available for purchase")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrMixedCurrency      = errors.New("all items in an order must share one currency")
)

type RequestedItem struct {
	ProductID uuid.UUID
	Quantity  int32
}

// ComputeLineItems resolves requested items against product snapshots and
// prices each line as resale price times quantity. It is deterministic and
// has no side effects. The order's currency is inherited from the first
// resolved product; carts mixing currencies are rejected outright rather
// than split into per-currency sub-orders.
func ComputeLineItems(products map[uuid.UUID]inventory.Product, requested []RequestedItem) ([]order.Item, order.Money, string, error) {
	if len(requested) == 0 {
		return nil, order.Money{}, "", ErrProductNotFound
	}

	items := make([]order.Item, 0, len(requested))
	var subtotal order.Money
	currency := ""

	for _, req := range requested {
		if req.Quantity <= 0 {
			return nil, order.Money{}, "", ErrInvalidQuantity
		}

		p, ok := products[req.ProductID]
		if !ok {
			return nil, order.Money{}, "", ErrProductNotFound
		}
		if !p.Purchasable() {
			return nil, order.Money{}, "", ErrProductUnavailable
		}

		if currency == "" {
			currency = p.Currency
		} else if p.Currency != currency {
			return nil, order.Money{}, "", ErrMixedCurrency
		}

		unit := order.NewMoney(*p.ResalePrice)
		line := unit.MulQty(req.Quantity)
		items = append(items, order.Item{
			ProductID:    p.ID,
			ProductTitle: p.Title,
			ProductBrand: p.Brand,
			UnitPrice:    unit,
			Quantity:     req.Quantity,
			LineTotal:    line,
		})
		subtotal = subtotal.Add(line)
	}

	return items, subtotal, currency, nil
}
