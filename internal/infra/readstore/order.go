package readstore

import (
	"context"
	"encoding/json"
	"time"

	"resale-market/internal/domain/order"
	"resale-market/internal/infra"
	"resale-market/internal/infra/db"
	"resale-market/internal/pkg/pgconv"
	"resale-market/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type OrderReadStore struct {
	db db.DBTX
}

func NewOrderReadStore(dbtx db.DBTX) *OrderReadStore {
	return &OrderReadStore{db: dbtx}
}

func (r *OrderReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.OrderView, error) {
	view := &queries.OrderView{}
	var rawHistory []byte
	err := r.db.QueryRow(ctx, `
		SELECT id, order_number, buyer_id, subtotal, discount_code, discount_amount,
		       total, currency, status, payment_auth_id, fulfilled_at, cancelled_at,
		       status_history, created_at, updated_at
		FROM orders
		WHERE id = $1`,
		id,
	).Scan(
		&view.ID, &view.OrderNumber, &view.BuyerID, &view.Subtotal,
		&view.DiscountCode, &view.DiscountAmount, &view.Total, &view.Currency,
		&view.Status, &view.PaymentAuthID, &view.FulfilledAt, &view.CancelledAt,
		&rawHistory, &view.CreatedAt, &view.UpdatedAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("order not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find order by ID", err)
	}

	view.StatusHistory = parseStatusHistory(rawHistory)

	items, err := r.findItems(ctx, id)
	if err != nil {
		return nil, err
	}
	view.Items = items

	return view, nil
}

// findItems hydrates item snapshots and joins the live product row for the
// read-only product projection. The join is LEFT so an order outlives
// deletions from the catalog.
func (r *OrderReadStore) findItems(ctx context.Context, orderID uuid.UUID) ([]queries.OrderItemView, error) {
	rows, err := r.db.Query(ctx, `
		SELECT oi.id, oi.product_id, oi.product_title, oi.product_brand,
		       oi.unit_price, oi.quantity, oi.line_total,
		       ii.id, ii.title, ii.brand, ii.category, ii.condition
		FROM order_items oi
		LEFT JOIN inventory_items ii ON ii.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id`,
		orderID,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to load order items", err)
	}
	defer rows.Close()

	var items []queries.OrderItemView
	for rows.Next() {
		var item queries.OrderItemView
		var productID pgtype.UUID
		var title, brand, category, condition pgtype.Text
		if err := rows.Scan(
			&item.ID, &item.ProductID, &item.ProductTitle, &item.ProductBrand,
			&item.UnitPrice, &item.Quantity, &item.LineTotal,
			&productID, &title, &brand, &category, &condition,
		); err != nil {
			return nil, infra.WrapRepoErr("failed to scan order item", err)
		}
		if id := pgconv.UUIDPtrFromPgtype(productID); id != nil {
			item.Product = &queries.ProductSnapshot{
				ID:        *id,
				Title:     deref(pgconv.StringPtrFromPgtype(title)),
				Brand:     deref(pgconv.StringPtrFromPgtype(brand)),
				Category:  deref(pgconv.StringPtrFromPgtype(category)),
				Condition: deref(pgconv.StringPtrFromPgtype(condition)),
			}
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read order items", err)
	}

	return items, nil
}

func (r *OrderReadStore) FindByBuyerFirstPage(ctx context.Context, buyerID uuid.UUID, limit int32) ([]*queries.OrderListItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT o.id, o.order_number, o.status, o.total, o.currency,
		       (SELECT count(*) FROM order_items oi WHERE oi.order_id = o.id),
		       o.created_at
		FROM orders o
		WHERE o.buyer_id = $1
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT $2`,
		buyerID, limit,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find orders first page", err)
	}
	defer rows.Close()

	return scanListItems(rows)
}

func (r *OrderReadStore) FindByBuyerKeyset(ctx context.Context, buyerID uuid.UUID, lastCreatedAt time.Time, lastID uuid.UUID, limit int32) ([]*queries.OrderListItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT o.id, o.order_number, o.status, o.total, o.currency,
		       (SELECT count(*) FROM order_items oi WHERE oi.order_id = o.id),
		       o.created_at
		FROM orders o
		WHERE o.buyer_id = $1 AND (o.created_at, o.id) < ($2, $3)
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT $4`,
		buyerID, lastCreatedAt, lastID, limit,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find orders keyset", err)
	}
	defer rows.Close()

	return scanListItems(rows)
}

func scanListItems(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]*queries.OrderListItem, error) {
	var result []*queries.OrderListItem
	for rows.Next() {
		item := &queries.OrderListItem{}
		if err := rows.Scan(&item.ID, &item.OrderNumber, &item.Status,
			&item.Total, &item.Currency, &item.ItemCount, &item.CreatedAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan order list item", err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read order list", err)
	}
	return result, nil
}

// Handles malformed or legacy payloads by returning an empty history rather
// than failing the read.
func parseStatusHistory(raw []byte) order.History {
	if len(raw) == 0 {
		return order.History{}
	}
	var history order.History
	if err := json.Unmarshal(raw, &history); err != nil {
		return order.History{}
	}
	return history
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
