package queries

import (
	"context"
	"time"

	"resale-market/internal/infra"
	"resale-market/internal/pkg/errs"

	"github.com/google/uuid"
)

var ErrOrderNotFound = errs.New("order not found")

type OrderQueries interface {
	// GetByID is scoped to the requesting buyer.
	GetByID(ctx context.Context, buyerID, id uuid.UUID) (*OrderView, error)
	// GetByIDSystem bypasses buyer scoping for read-after-write hydration.
	GetByIDSystem(ctx context.Context, id uuid.UUID) (*OrderView, error)
	// ListByBuyer returns the buyer's orders newest-first with keyset paging.
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, after *Cursor, limit int) ([]*OrderListItem, *Cursor, error)
}

type OrderReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*OrderView, error)
	FindByBuyerFirstPage(ctx context.Context, buyerID uuid.UUID, limit int32) ([]*OrderListItem, error)
	FindByBuyerKeyset(ctx context.Context, buyerID uuid.UUID, lastCreatedAt time.Time, lastID uuid.UUID, limit int32) ([]*OrderListItem, error)
}

type orderQueriesImpl struct {
	store OrderReadStore
}

func NewOrderQueries(store OrderReadStore) OrderQueries {
	return &orderQueriesImpl{store: store}
}

func (q *orderQueriesImpl) GetByID(ctx context.Context, buyerID, id uuid.UUID) (*OrderView, error) {
	view, err := q.store.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	// A foreign order is indistinguishable from a missing one.
	if view.BuyerID != buyerID {
		return nil, ErrOrderNotFound
	}
	return view, nil
}

func (q *orderQueriesImpl) GetByIDSystem(ctx context.Context, id uuid.UUID) (*OrderView, error) {
	view, err := q.store.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return view, nil
}

func (q *orderQueriesImpl) ListByBuyer(ctx context.Context, buyerID uuid.UUID, after *Cursor, limit int) ([]*OrderListItem, *Cursor, error) {
	limit = ValidateLimit(limit)

	var (
		rows []*OrderListItem
		err  error
	)
	if after == nil || after.After == "" {
		rows, err = q.store.FindByBuyerFirstPage(ctx, buyerID, int32(limit)+1)
	} else {
		var lastCreatedAt time.Time
		var lastID uuid.UUID
		lastCreatedAt, lastID, err = DecodeAfterCursor(after.After)
		if err != nil {
			return nil, nil, err
		}
		rows, err = q.store.FindByBuyerKeyset(ctx, buyerID, lastCreatedAt, lastID, int32(limit)+1)
	}
	if err != nil {
		return nil, nil, err
	}

	var next *Cursor
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = &Cursor{After: EncodeAfterCursor(last.CreatedAt, last.ID)}
	}

	return rows, next, nil
}
