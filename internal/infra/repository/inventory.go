package repository

import (
	"context"

	"resale-market/internal/domain/inventory"
	"resale-market/internal/infra"
	"resale-market/internal/infra/db"
	"resale-market/internal/pkg/pgconv"

	"github.com/google/uuid"
)

type InventoryRepository struct{}

func NewInventoryRepository() *InventoryRepository {
	return &InventoryRepository{}
}

// FindListedByIDs returns purchase snapshots for the LISTED items among ids.
// Missing or unlisted products are simply absent from the result; the
// pricing engine decides what that means for the order.
func (r *InventoryRepository) FindListedByIDs(ctx context.Context, tx db.DBTX, ids []uuid.UUID) (map[uuid.UUID]inventory.Product, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, title, brand, category, condition, resale_price, currency, quantity, status
		FROM inventory_items
		WHERE id = ANY($1) AND status = 'LISTED'`,
		ids,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to load products", err)
	}
	defer rows.Close()

	products := make(map[uuid.UUID]inventory.Product, len(ids))
	for rows.Next() {
		var p inventory.Product
		var condition, status string
		if err := rows.Scan(&p.ID, &p.Title, &p.Brand, &p.Category, &condition,
			&p.ResalePrice, &p.Currency, &p.Quantity, &status); err != nil {
			return nil, infra.WrapRepoErr("failed to scan product", err)
		}
		p.Condition = inventory.Condition(condition)
		p.Status = inventory.Status(status)
		products[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read products", err)
	}

	return products, nil
}

func (r *InventoryRepository) FindByID(ctx context.Context, tx db.DBTX, id uuid.UUID) (inventory.Product, error) {
	var p inventory.Product
	var condition, status string
	err := tx.QueryRow(ctx, `
		SELECT id, title, brand, category, condition, resale_price, currency, quantity, status
		FROM inventory_items
		WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Title, &p.Brand, &p.Category, &condition,
		&p.ResalePrice, &p.Currency, &p.Quantity, &status)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return inventory.Product{}, infra.WrapRepoErr("product not found", err, infra.KindNotFound)
		}
		return inventory.Product{}, infra.WrapRepoErr("failed to load product", err)
	}
	p.Condition = inventory.Condition(condition)
	p.Status = inventory.Status(status)
	return p, nil
}

// ConditionalDecrement deducts stock only when enough remains, as one atomic
// statement. A zero affected-row count means a concurrent buyer won the
// remaining units; splitting this into read-then-write would race.
func (r *InventoryRepository) ConditionalDecrement(ctx context.Context, tx db.DBTX, id uuid.UUID, qty int32) error {
	ct, err := tx.Exec(ctx, `
		UPDATE inventory_items
		SET quantity = quantity - $2, updated_at = now()
		WHERE id = $1 AND quantity >= $2`,
		id, qty,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to decrement stock", err)
	}
	if ct.RowsAffected() == 0 {
		return infra.WrapRepoErr("insufficient stock", nil, infra.KindConflict)
	}
	return nil
}
