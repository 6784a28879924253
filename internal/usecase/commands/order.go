package commands

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"resale-market/internal/domain/discount"
	"resale-market/internal/domain/inventory"
	"resale-market/internal/domain/order"
	"resale-market/internal/domain/pricing"
	"resale-market/internal/infra"
	"resale-market/internal/infra/events"
	"resale-market/internal/pkg/clock"
	"resale-market/internal/pkg/config"
	"resale-market/internal/pkg/errs"
	"resale-market/internal/usecase/queries"
	"resale-market/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrEmptyOrder              = errs.New("order must contain at least one item")
	ErrInvalidQuantity         = errs.New("item quantity must be positive")
	ErrProductNotFound         = errs.New("product not found")
	ErrProductUnavailable      = errs.New("product is not available for purchase")
	ErrMixedCurrency           = errs.New("order items must share one currency")
	ErrInsufficientStock       = errs.New("insufficient stock")
	ErrPaymentDeclined         = errs.New("payment was declined")
	ErrTransactionTimeout      = errs.New("order transaction timed out")
	ErrDatabaseOperationFailed = errs.New("database operation failed")
)

const (
	orderNumberAttempts = 5

	notificationKind  = "order_fulfilled"
	notificationTopic = "notifications.orders"
)

type CreateOrderItem struct {
	ProductID uuid.UUID
	Quantity  int32
}

type CreateOrderInput struct {
	Items        []CreateOrderItem
	DiscountCode *string
}

type OrderCommands interface {
	CreateOrder(ctx context.Context, buyerID uuid.UUID, in CreateOrderInput) (*queries.OrderView, error)
}

type orderCommandsImpl struct {
	uow       shared.UnitOfWork
	gateway   PaymentGateway
	catalog   *discount.Catalog
	queries   queries.OrderQueries
	publisher EventPublisher
	clk       clock.Clock
	cfg       config.OrderConfig
	logger    *slog.Logger
}

func NewOrderCommands(
	uow shared.UnitOfWork,
	gateway PaymentGateway,
	catalog *discount.Catalog,
	q queries.OrderQueries,
	publisher EventPublisher,
	clk clock.Clock,
	cfg config.OrderConfig,
	logger *slog.Logger,
) OrderCommands {
	return &orderCommandsImpl{
		uow:       uow,
		gateway:   gateway,
		catalog:   catalog,
		queries:   q,
		publisher: publisher,
		clk:       clk,
		cfg:       cfg,
		logger:    logger,
	}
}

// CreateOrder runs the whole fulfillment pipeline in one transaction:
// draft order, stock validation, discount, payment authorization,
// confirmation, conditional stock decrement, fulfillment. Any failure
// rolls everything back; partial orders never survive. The transaction
// is never retried because a second attempt would authorize payment
// again.
func (c *orderCommandsImpl) CreateOrder(ctx context.Context, buyerID uuid.UUID, in CreateOrderInput) (*queries.OrderView, error) {
	if len(in.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	txCtx, cancel := context.WithTimeout(ctx, c.cfg.TxTimeout)
	defer cancel()

	var orderID uuid.UUID
	err := c.uow.Within(txCtx, func(ctx context.Context, tx shared.Tx) error {
		o, err := c.fulfill(ctx, tx, buyerID, in)
		if err != nil {
			return err
		}
		orderID = o.ID()
		return nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && txCtx.Err() != nil {
			return nil, errs.Mark(err, ErrTransactionTimeout)
		}
		return nil, err
	}

	view, err := c.queries.GetByIDSystem(ctx, orderID)
	if err != nil {
		return nil, err
	}

	c.publishFulfilled(ctx, view)
	return view, nil
}

func (c *orderCommandsImpl) fulfill(ctx context.Context, tx shared.Tx, buyerID uuid.UUID, in CreateOrderInput) (*order.Order, error) {
	now := c.clk.Now()

	requested := make([]pricing.RequestedItem, 0, len(in.Items))
	ids := make([]uuid.UUID, 0, len(in.Items))
	for _, it := range in.Items {
		requested = append(requested, pricing.RequestedItem{ProductID: it.ProductID, Quantity: it.Quantity})
		ids = append(ids, it.ProductID)
	}

	products, err := tx.Inventory().FindListedByIDs(ctx, ids)
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if err := c.classifyMissing(ctx, tx, ids, products); err != nil {
		return nil, err
	}

	items, subtotal, currency, err := pricing.ComputeLineItems(products, requested)
	if err != nil {
		return nil, markPricingErr(err)
	}

	// Advisory pre-check so clearly doomed orders fail before payment.
	// The conditional decrement below remains the authoritative guard.
	for _, it := range in.Items {
		if !products[it.ProductID].HasStock(it.Quantity) {
			return nil, ErrInsufficientStock
		}
	}

	o, err := c.insertDraft(ctx, tx, buyerID, items, currency, now)
	if err != nil {
		return nil, err
	}

	priced := c.catalog.ApplyDiscount(subtotal, in.DiscountCode, now)
	if err := o.ApplyPricing(priced.Code, priced.DiscountAmount); err != nil {
		return nil, errs.Wrap(err, "apply pricing")
	}
	if err := o.Validate(); err != nil {
		return nil, errs.Wrap(err, "order invariants")
	}
	if err := tx.Orders().UpdatePricing(ctx, o.ID(), o.DiscountCode(), o.DiscountAmount().Cents(), o.Total().Cents()); err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	auth, err := c.gateway.Authorize(ctx, o.ID(), o.Total().Cents(), o.Currency())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, errs.Mark(err, ErrTransactionTimeout)
		}
		return nil, errs.Wrap(err, "payment authorization")
	}
	if !auth.Success {
		return nil, errs.Mark(
			errs.New("payment was declined: "+string(auth.DeclineReason)),
			ErrPaymentDeclined,
		)
	}

	if err := o.Authorize(auth.AuthorizationID); err != nil {
		return nil, errs.Wrap(err, "record authorization")
	}
	if err := tx.Orders().SetPaymentAuth(ctx, o.ID(), auth.AuthorizationID); err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	if err := o.Confirm(); err != nil {
		return nil, errs.Wrap(err, "confirm order")
	}
	if err := tx.Orders().SetStatus(ctx, o.ID(), order.StatusConfirmed); err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	for _, it := range o.Items() {
		if err := tx.Inventory().ConditionalDecrement(ctx, it.ProductID, it.Quantity); err != nil {
			if infra.IsKind(err, infra.KindConflict) {
				c.voidAuthorization(ctx, o.ID(), auth.AuthorizationID)
				return nil, errs.Mark(err, ErrInsufficientStock)
			}
			return nil, errs.Mark(err, ErrDatabaseOperationFailed)
		}
	}

	if err := o.Fulfill(c.clk.Now()); err != nil {
		return nil, errs.Wrap(err, "fulfill order")
	}
	fulfilledAt := o.CreatedAt()
	if ts := o.FulfilledAt(); ts != nil {
		fulfilledAt = *ts
	}
	if err := tx.Orders().Fulfill(ctx, o.ID(), fulfilledAt, o.StatusHistory()); err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	if err := c.enqueueNotification(ctx, tx, o); err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	return o, nil
}

// classifyMissing tells apart products absent from the catalog and
// products that exist but are not LISTED. The listed fetch conflates the
// two, and buyers get different statuses for them.
func (c *orderCommandsImpl) classifyMissing(ctx context.Context, tx shared.Tx, ids []uuid.UUID, listed map[uuid.UUID]inventory.Product) error {
	for _, id := range ids {
		if _, ok := listed[id]; ok {
			continue
		}
		if _, err := tx.Inventory().FindByID(ctx, id); err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return errs.Mark(errs.New("product not in catalog: "+id.String()), ErrProductNotFound)
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return errs.Mark(errs.New("product not listed: "+id.String()), ErrProductUnavailable)
	}
	return nil
}

// insertDraft creates the PENDING order row, regenerating the order
// number on the rare collision.
func (c *orderCommandsImpl) insertDraft(ctx context.Context, tx shared.Tx, buyerID uuid.UUID, items []order.Item, currency string, now time.Time) (*order.Order, error) {
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		o, err := order.NewOrder(order.NewNumber(now), buyerID, items, currency, now)
		if err != nil {
			return nil, errs.Wrap(err, "build order")
		}

		err = tx.Orders().Insert(ctx, o)
		if err == nil {
			return o, nil
		}
		if infra.IsKind(err, infra.KindDuplicateKey) {
			continue
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return nil, errs.Mark(errs.New("exhausted order number attempts"), ErrDatabaseOperationFailed)
}

// voidAuthorization releases the payment hold when the decrement loses
// the race. Best effort: the rollback already undoes our own writes, and
// an unreleased hold expires at the acquirer on its own.
func (c *orderCommandsImpl) voidAuthorization(ctx context.Context, orderID uuid.UUID, authID string) {
	voidCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := c.gateway.Void(voidCtx, authID); err != nil {
		c.logger.Warn("failed to void payment authorization",
			slog.String("order_id", orderID.String()),
			slog.String("authorization_id", authID),
			slog.String("error", err.Error()),
		)
	}
}

func (c *orderCommandsImpl) enqueueNotification(ctx context.Context, tx shared.Tx, o *order.Order) error {
	payload, err := json.Marshal(map[string]any{
		"order_id":     o.ID(),
		"order_number": o.OrderNumber(),
		"buyer_id":     o.BuyerID(),
		"total":        o.Total().Cents(),
		"currency":     o.Currency(),
	})
	if err != nil {
		return errs.Wrap(err, "marshal notification payload")
	}
	return tx.Notifications().CreateJob(ctx, notificationKind, notificationTopic, payload, c.clk.Now())
}

// publishFulfilled emits the integration event after commit. Delivery is
// best effort; the notification job written inside the transaction is
// the durable record.
func (c *orderCommandsImpl) publishFulfilled(ctx context.Context, view *queries.OrderView) {
	if view.FulfilledAt == nil {
		return
	}
	event := events.OrderFulfilled{
		OrderID:     view.ID,
		OrderNumber: view.OrderNumber,
		BuyerID:     view.BuyerID,
		Total:       view.Total,
		Currency:    view.Currency,
		FulfilledAt: *view.FulfilledAt,
	}
	if err := c.publisher.PublishOrderFulfilled(ctx, event); err != nil {
		c.logger.Warn("failed to publish order fulfilled event",
			slog.String("order_id", view.ID.String()),
			slog.String("error", err.Error()),
		)
	}
}

func markPricingErr(err error) error {
	switch {
	case errors.Is(err, pricing.ErrProductNotFound):
		return errs.Mark(err, ErrProductNotFound)
	case errors.Is(err, pricing.ErrProductUnavailable):
		return errs.Mark(err, ErrProductUnavailable)
	case errors.Is(err, pricing.ErrInvalidQuantity):
		return errs.Mark(err, ErrInvalidQuantity)
	case errors.Is(err, pricing.ErrMixedCurrency):
		return errs.Mark(err, ErrMixedCurrency)
	default:
		return err
	}
}
