package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"resale-market/internal/domain/order"
	"resale-market/internal/infra"
	"resale-market/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgErrCodeUniqueViolation = "23505"

type OrderRepository struct{}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{}
}

// Insert persists a draft order and its item snapshots. A duplicate order
// number surfaces as KindDuplicateKey so the caller can regenerate.
func (r *OrderRepository) Insert(ctx context.Context, tx db.DBTX, o *order.Order) error {
	history, err := json.Marshal(o.StatusHistory())
	if err != nil {
		return infra.WrapRepoErr("failed to encode status history", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (
			id, order_number, buyer_id, subtotal, discount_code, discount_amount,
			total, currency, status, status_history, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`,
		o.ID(), o.OrderNumber(), o.BuyerID(), o.Subtotal().Cents(),
		o.DiscountCode(), o.DiscountAmount().Cents(), o.Total().Cents(),
		o.Currency(), o.Status().String(), history, o.CreatedAt(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return infra.WrapRepoErr("order number already taken", err, infra.KindDuplicateKey)
		}
		return infra.WrapRepoErr("failed to insert order", err)
	}

	for _, it := range o.Items() {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (
				id, order_id, product_id, product_title, product_brand,
				unit_price, quantity, line_total
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			uuid.New(), o.ID(), it.ProductID, it.ProductTitle, it.ProductBrand,
			it.UnitPrice.Cents(), it.Quantity, it.LineTotal.Cents(),
		)
		if err != nil {
			return infra.WrapRepoErr("failed to insert order item", err)
		}
	}

	return nil
}

func (r *OrderRepository) UpdatePricing(ctx context.Context, tx db.DBTX, id uuid.UUID, code *string, discountAmount, total int64) error {
	ct, err := tx.Exec(ctx, `
		UPDATE orders
		SET discount_code = $2, discount_amount = $3, total = $4, updated_at = now()
		WHERE id = $1`,
		id, code, discountAmount, total,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update order pricing", err)
	}
	if ct.RowsAffected() == 0 {
		return infra.WrapRepoErr("order not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *OrderRepository) SetPaymentAuth(ctx context.Context, tx db.DBTX, id uuid.UUID, authID string) error {
	ct, err := tx.Exec(ctx, `
		UPDATE orders SET payment_auth_id = $2, updated_at = now() WHERE id = $1`,
		id, authID,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to store payment authorization", err)
	}
	if ct.RowsAffected() == 0 {
		return infra.WrapRepoErr("order not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *OrderRepository) SetStatus(ctx context.Context, tx db.DBTX, id uuid.UUID, status order.Status) error {
	ct, err := tx.Exec(ctx, `
		UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`,
		id, status.String(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update order status", err)
	}
	if ct.RowsAffected() == 0 {
		return infra.WrapRepoErr("order not found", nil, infra.KindNotFound)
	}
	return nil
}

// Fulfill writes the terminal state: FULFILLED status, fulfillment timestamp
// and the full (appended) history in one statement.
func (r *OrderRepository) Fulfill(ctx context.Context, tx db.DBTX, id uuid.UUID, fulfilledAt time.Time, history order.History) error {
	encoded, err := json.Marshal(history)
	if err != nil {
		return infra.WrapRepoErr("failed to encode status history", err)
	}

	ct, err := tx.Exec(ctx, `
		UPDATE orders
		SET status = $2, fulfilled_at = $3, status_history = $4, updated_at = now()
		WHERE id = $1`,
		id, order.StatusFulfilled.String(), fulfilledAt, encoded,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to fulfill order", err)
	}
	if ct.RowsAffected() == 0 {
		return infra.WrapRepoErr("order not found", nil, infra.KindNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrCodeUniqueViolation
}
