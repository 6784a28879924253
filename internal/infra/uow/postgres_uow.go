package uow

import (
	"context"
	"time"

	"resale-market/internal/domain/inventory"
	"resale-market/internal/domain/order"
	"resale-market/internal/infra/repository"
	"resale-market/internal/pkg/errs"
	"resale-market/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresUoW runs the given function inside one pgx transaction.
// It never retries: the fulfillment pipeline calls an external payment
// gateway mid-transaction, so a repeated attempt would authorize twice.
type PostgresUoW struct {
	pool *pgxpool.Pool
}

func NewPostgresUoW(pool *pgxpool.Pool) *PostgresUoW {
	return &PostgresUoW{pool: pool}
}

func (u *PostgresUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	pgtx, err := u.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return errs.Wrap(err, "begin transaction")
	}

	committed := false
	defer func() {
		if !committed {
			rollbackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			_ = pgtx.Rollback(rollbackCtx)
		}
	}()

	if err := fn(ctx, newPgTx(pgtx)); err != nil {
		return err
	}

	if err := pgtx.Commit(ctx); err != nil {
		return errs.Wrap(err, "commit transaction")
	}
	committed = true
	return nil
}

type pgTx struct {
	tx            pgx.Tx
	orders        *repository.OrderRepository
	inventory     *repository.InventoryRepository
	notifications *repository.NotificationRepository
}

func newPgTx(tx pgx.Tx) *pgTx {
	return &pgTx{
		tx:            tx,
		orders:        repository.NewOrderRepository(),
		inventory:     repository.NewInventoryRepository(),
		notifications: repository.NewNotificationRepository(),
	}
}

func (t *pgTx) Orders() shared.OrderRepository {
	return boundOrderRepo{tx: t.tx, repo: t.orders}
}

func (t *pgTx) Inventory() shared.InventoryRepository {
	return boundInventoryRepo{tx: t.tx, repo: t.inventory}
}

func (t *pgTx) Notifications() shared.NotificationRepository {
	return boundNotificationRepo{tx: t.tx, repo: t.notifications}
}

// bound* adapters pin the transaction handle so usecases never see it.

type boundOrderRepo struct {
	tx   pgx.Tx
	repo *repository.OrderRepository
}

// Insert runs under a savepoint. A unique violation on the order number
// aborts a plain Postgres transaction; rolling back to the savepoint keeps
// the enclosing transaction usable so the number can be regenerated.
func (b boundOrderRepo) Insert(ctx context.Context, o *order.Order) error {
	sp, err := b.tx.Begin(ctx)
	if err != nil {
		return errs.Wrap(err, "begin insert savepoint")
	}
	if err := b.repo.Insert(ctx, sp, o); err != nil {
		rollbackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = sp.Rollback(rollbackCtx)
		return err
	}
	return errs.Wrap(sp.Commit(ctx), "release insert savepoint")
}

func (b boundOrderRepo) UpdatePricing(ctx context.Context, id uuid.UUID, code *string, discountAmount, total int64) error {
	return b.repo.UpdatePricing(ctx, b.tx, id, code, discountAmount, total)
}

func (b boundOrderRepo) SetPaymentAuth(ctx context.Context, id uuid.UUID, authID string) error {
	return b.repo.SetPaymentAuth(ctx, b.tx, id, authID)
}

func (b boundOrderRepo) SetStatus(ctx context.Context, id uuid.UUID, status order.Status) error {
	return b.repo.SetStatus(ctx, b.tx, id, status)
}

func (b boundOrderRepo) Fulfill(ctx context.Context, id uuid.UUID, fulfilledAt time.Time, history order.History) error {
	return b.repo.Fulfill(ctx, b.tx, id, fulfilledAt, history)
}

type boundInventoryRepo struct {
	tx   pgx.Tx
	repo *repository.InventoryRepository
}

func (b boundInventoryRepo) FindListedByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]inventory.Product, error) {
	return b.repo.FindListedByIDs(ctx, b.tx, ids)
}

func (b boundInventoryRepo) FindByID(ctx context.Context, id uuid.UUID) (inventory.Product, error) {
	return b.repo.FindByID(ctx, b.tx, id)
}

func (b boundInventoryRepo) ConditionalDecrement(ctx context.Context, id uuid.UUID, qty int32) error {
	return b.repo.ConditionalDecrement(ctx, b.tx, id, qty)
}

type boundNotificationRepo struct {
	tx   pgx.Tx
	repo *repository.NotificationRepository
}

func (b boundNotificationRepo) CreateJob(ctx context.Context, kind, topic string, payload []byte, runAt time.Time) error {
	return b.repo.CreateJob(ctx, b.tx, kind, topic, payload, runAt)
}
