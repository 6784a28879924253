package shared

import (
	"context"
	"time"

	"resale-market/internal/domain/inventory"
	"resale-market/internal/domain/order"

	"github.com/google/uuid"
)

// UnitOfWork scopes all writes of one fulfillment attempt to a single
// atomic transaction. Within performs exactly one attempt: the pipeline
// authorizes payment mid-transaction, so a transparent retry would charge
// the buyer twice.
type UnitOfWork interface {
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type Tx interface {
	Orders() OrderRepository
	Inventory() InventoryRepository
	Notifications() NotificationRepository
}

type OrderRepository interface {
	// Insert failing with a duplicate-key error leaves the enclosing
	// transaction usable, so the caller may retry with a fresh number.
	Insert(ctx context.Context, o *order.Order) error
	UpdatePricing(ctx context.Context, id uuid.UUID, code *string, discountAmount, total int64) error
	SetPaymentAuth(ctx context.Context, id uuid.UUID, authID string) error
	SetStatus(ctx context.Context, id uuid.UUID, status order.Status) error
	Fulfill(ctx context.Context, id uuid.UUID, fulfilledAt time.Time, history order.History) error
}

type InventoryRepository interface {
	FindListedByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]inventory.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (inventory.Product, error)
	// ConditionalDecrement is a single atomic conditional update, never a
	// read-then-write pair.
	ConditionalDecrement(ctx context.Context, id uuid.UUID, qty int32) error
}

type NotificationRepository interface {
	CreateJob(ctx context.Context, kind, topic string, payload []byte, runAt time.Time) error
}
