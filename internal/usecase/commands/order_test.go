package commands

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"resale-market/internal/domain/discount"
	"resale-market/internal/domain/inventory"
	"resale-market/internal/domain/order"
	domainpayment "resale-market/internal/domain/payment"
	"resale-market/internal/infra"
	"resale-market/internal/infra/events"
	"resale-market/internal/infra/payment"
	"resale-market/internal/pkg/clock"
	"resale-market/internal/pkg/config"
	"resale-market/internal/usecase/queries"
	"resale-market/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// In-memory unit of work. The store mutex is held for the whole Within call,
// so transactions are fully serialized; writes land on a copy that replaces
// the store only when fn succeeds.
// ---------------------------------------------------------------------------

type orderRow struct {
	id             uuid.UUID
	number         string
	buyerID        uuid.UUID
	items          []order.Item
	subtotal       int64
	discountCode   *string
	discountAmount int64
	total          int64
	currency       string
	status         order.Status
	authID         *string
	fulfilledAt    *time.Time
	history        order.History
	createdAt      time.Time
}

type memJob struct {
	kind    string
	topic   string
	payload []byte
	runAt   time.Time
}

type memStore struct {
	mu       sync.Mutex
	products map[uuid.UUID]inventory.Product
	orders   map[uuid.UUID]orderRow
	jobs     []memJob

	// forces ConditionalDecrement to lose even when stock looked fine
	failDecrement bool
	// fails the next N order inserts with a duplicate-key error
	duplicateInserts int
}

func newMemStore(products ...inventory.Product) *memStore {
	s := &memStore{
		products: make(map[uuid.UUID]inventory.Product),
		orders:   make(map[uuid.UUID]orderRow),
	}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

type memUoW struct {
	store *memStore
}

func (u *memUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	work := &memTx{store: u.store, products: make(map[uuid.UUID]inventory.Product), orders: make(map[uuid.UUID]orderRow)}
	for k, v := range u.store.products {
		work.products[k] = v
	}
	for k, v := range u.store.orders {
		work.orders[k] = v
	}

	if err := fn(ctx, work); err != nil {
		return err
	}

	u.store.products = work.products
	u.store.orders = work.orders
	u.store.jobs = append(u.store.jobs, work.jobs...)
	return nil
}

type memTx struct {
	store    *memStore
	products map[uuid.UUID]inventory.Product
	orders   map[uuid.UUID]orderRow
	jobs     []memJob
}

func (t *memTx) Orders() shared.OrderRepository               { return memOrderRepo{t} }
func (t *memTx) Inventory() shared.InventoryRepository        { return memInventoryRepo{t} }
func (t *memTx) Notifications() shared.NotificationRepository { return memNotificationRepo{t} }

type memOrderRepo struct{ tx *memTx }

func (r memOrderRepo) Insert(_ context.Context, o *order.Order) error {
	if r.tx.store.duplicateInserts > 0 {
		r.tx.store.duplicateInserts--
		return infra.WrapRepoErr("duplicate order number", nil, infra.KindDuplicateKey)
	}
	for _, row := range r.tx.orders {
		if row.number == o.OrderNumber() {
			return infra.WrapRepoErr("duplicate order number", nil, infra.KindDuplicateKey)
		}
	}
	r.tx.orders[o.ID()] = orderRow{
		id:        o.ID(),
		number:    o.OrderNumber(),
		buyerID:   o.BuyerID(),
		items:     o.Items(),
		subtotal:  o.Subtotal().Cents(),
		total:     o.Total().Cents(),
		currency:  o.Currency(),
		status:    o.Status(),
		history:   o.StatusHistory(),
		createdAt: o.CreatedAt(),
	}
	return nil
}

func (r memOrderRepo) UpdatePricing(_ context.Context, id uuid.UUID, code *string, discountAmount, total int64) error {
	row, ok := r.tx.orders[id]
	if !ok {
		return infra.WrapRepoErr("order not found", nil, infra.KindNotFound)
	}
	row.discountCode = code
	row.discountAmount = discountAmount
	row.total = total
	r.tx.orders[id] = row
	return nil
}

func (r memOrderRepo) SetPaymentAuth(_ context.Context, id uuid.UUID, authID string) error {
	row, ok := r.tx.orders[id]
	if !ok {
		return infra.WrapRepoErr("order not found", nil, infra.KindNotFound)
	}
	row.authID = &authID
	r.tx.orders[id] = row
	return nil
}

func (r memOrderRepo) SetStatus(_ context.Context, id uuid.UUID, status order.Status) error {
	row, ok := r.tx.orders[id]
	if !ok {
		return infra.WrapRepoErr("order not found", nil, infra.KindNotFound)
	}
	row.status = status
	r.tx.orders[id] = row
	return nil
}

func (r memOrderRepo) Fulfill(_ context.Context, id uuid.UUID, fulfilledAt time.Time, history order.History) error {
	row, ok := r.tx.orders[id]
	if !ok {
		return infra.WrapRepoErr("order not found", nil, infra.KindNotFound)
	}
	row.status = order.StatusFulfilled
	row.fulfilledAt = &fulfilledAt
	row.history = history
	r.tx.orders[id] = row
	return nil
}

type memInventoryRepo struct{ tx *memTx }

func (r memInventoryRepo) FindListedByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]inventory.Product, error) {
	out := make(map[uuid.UUID]inventory.Product)
	for _, id := range ids {
		if p, ok := r.tx.products[id]; ok && p.Status == inventory.StatusListed {
			out[id] = p
		}
	}
	return out, nil
}

func (r memInventoryRepo) FindByID(_ context.Context, id uuid.UUID) (inventory.Product, error) {
	p, ok := r.tx.products[id]
	if !ok {
		return inventory.Product{}, infra.WrapRepoErr("inventory item not found", nil, infra.KindNotFound)
	}
	return p, nil
}

func (r memInventoryRepo) ConditionalDecrement(_ context.Context, id uuid.UUID, qty int32) error {
	p, ok := r.tx.products[id]
	if !ok || p.Quantity < qty || r.tx.store.failDecrement {
		return infra.WrapRepoErr("insufficient stock", nil, infra.KindConflict)
	}
	p.Quantity -= qty
	r.tx.products[id] = p
	return nil
}

type memNotificationRepo struct{ tx *memTx }

func (r memNotificationRepo) CreateJob(_ context.Context, kind, topic string, payload []byte, runAt time.Time) error {
	r.tx.jobs = append(r.tx.jobs, memJob{kind: kind, topic: topic, payload: payload, runAt: runAt})
	return nil
}

// ---------------------------------------------------------------------------
// Read side over the committed store.
// ---------------------------------------------------------------------------

type memQueries struct{ store *memStore }

func (q *memQueries) GetByID(ctx context.Context, buyerID, id uuid.UUID) (*queries.OrderView, error) {
	view, err := q.GetByIDSystem(ctx, id)
	if err != nil || view.BuyerID != buyerID {
		return nil, queries.ErrOrderNotFound
	}
	return view, nil
}

func (q *memQueries) GetByIDSystem(_ context.Context, id uuid.UUID) (*queries.OrderView, error) {
	q.store.mu.Lock()
	defer q.store.mu.Unlock()

	row, ok := q.store.orders[id]
	if !ok {
		return nil, queries.ErrOrderNotFound
	}
	items := make([]queries.OrderItemView, 0, len(row.items))
	for _, it := range row.items {
		items = append(items, queries.OrderItemView{
			ID:           it.ProductID,
			ProductID:    it.ProductID,
			ProductTitle: it.ProductTitle,
			ProductBrand: it.ProductBrand,
			UnitPrice:    it.UnitPrice.Cents(),
			Quantity:     it.Quantity,
			LineTotal:    it.LineTotal.Cents(),
		})
	}
	return &queries.OrderView{
		ID:             row.id,
		OrderNumber:    row.number,
		BuyerID:        row.buyerID,
		Subtotal:       row.subtotal,
		DiscountCode:   row.discountCode,
		DiscountAmount: row.discountAmount,
		Total:          row.total,
		Currency:       row.currency,
		Status:         row.status.String(),
		PaymentAuthID:  row.authID,
		FulfilledAt:    row.fulfilledAt,
		StatusHistory:  row.history,
		Items:          items,
		CreatedAt:      row.createdAt,
	}, nil
}

func (q *memQueries) ListByBuyer(context.Context, uuid.UUID, *queries.Cursor, int) ([]*queries.OrderListItem, *queries.Cursor, error) {
	return nil, nil, nil
}

// ---------------------------------------------------------------------------
// Gateway and publisher fakes.
// ---------------------------------------------------------------------------

type capturingPublisher struct {
	mu     sync.Mutex
	events []events.OrderFulfilled
}

func (p *capturingPublisher) PublishOrderFulfilled(_ context.Context, e events.OrderFulfilled) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

type stubGateway struct {
	mu     sync.Mutex
	voided []string
}

func (g *stubGateway) Authorize(_ context.Context, _ uuid.UUID, _ int64, _ string) (domainpayment.AuthResult, error) {
	return domainpayment.AuthResult{Success: true, AuthorizationID: "AUTH-stub", TransactionID: "TXN-stub"}, nil
}

func (g *stubGateway) Void(_ context.Context, authID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.voided = append(g.voided, authID)
	return nil
}

// ---------------------------------------------------------------------------

func listedProduct(price int64, qty int32) inventory.Product {
	return inventory.Product{
		ID:          uuid.New(),
		Title:       "Leather Jacket",
		Brand:       "Aviatrix",
		Category:    "Outerwear",
		Condition:   inventory.ConditionGood,
		ResalePrice: &price,
		Currency:    "ZAR",
		Quantity:    qty,
		Status:      inventory.StatusListed,
	}
}

type fixture struct {
	store     *memStore
	publisher *capturingPublisher
	commands  OrderCommands
}

func newFixture(t *testing.T, successRate float64, products ...inventory.Product) fixture {
	t.Helper()
	store := newMemStore(products...)
	publisher := &capturingPublisher{}
	clk := clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	gateway := payment.NewSimulatedGateway(
		config.PaymentConfig{SuccessRate: successRate, MinLatency: 0, MaxLatency: 0},
		clk,
	)
	cmds := NewOrderCommands(
		&memUoW{store: store},
		gateway,
		discount.DefaultCatalog(),
		&memQueries{store: store},
		publisher,
		clk,
		config.OrderConfig{TxTimeout: 30 * time.Second},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return fixture{store: store, publisher: publisher, commands: cmds}
}

func TestCreateOrder_FulfillsEndToEnd(t *testing.T) {
	p := listedProduct(15000, 5)
	f := newFixture(t, 1.0, p)
	buyer := uuid.New()

	// SAVE50 needs a R500 subtotal, so it silently does not apply here.
	code := "SAVE50"
	view, err := f.commands.CreateOrder(context.Background(), buyer, CreateOrderInput{
		Items:        []CreateOrderItem{{ProductID: p.ID, Quantity: 2}},
		DiscountCode: &code,
	})
	require.NoError(t, err)

	assert.Equal(t, order.StatusFulfilled.String(), view.Status)
	assert.True(t, order.ValidNumber(view.OrderNumber))
	assert.Equal(t, int64(30000), view.Subtotal)
	assert.Equal(t, int64(0), view.DiscountAmount)
	assert.Nil(t, view.DiscountCode)
	assert.Equal(t, int64(30000), view.Total)
	assert.Equal(t, "ZAR", view.Currency)
	require.NotNil(t, view.PaymentAuthID)
	require.NotNil(t, view.FulfilledAt)

	require.Len(t, view.StatusHistory, 2)
	assert.Equal(t, order.StatusPending, view.StatusHistory[0].Status)
	assert.Equal(t, order.StatusFulfilled, view.StatusHistory[1].Status)
	assert.True(t, view.StatusHistory[1].Timestamp.After(view.StatusHistory[0].Timestamp))

	assert.Equal(t, int32(3), f.store.products[p.ID].Quantity)
	require.Len(t, f.store.jobs, 1)
	assert.Equal(t, "order_fulfilled", f.store.jobs[0].kind)
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, view.ID, f.publisher.events[0].OrderID)
}

func TestCreateOrder_AppliesDiscounts(t *testing.T) {
	tests := []struct {
		name         string
		price        int64
		quantity     int32
		code         string
		wantDiscount int64
		wantTotal    int64
		wantCode     *string
	}{
		{
			name:     "percentage code",
			price:    1000,
			quantity: 1, code: "WELCOME10",
			wantDiscount: 100, wantTotal: 900,
			wantCode: strptr("WELCOME10"),
		},
		{
			name:     "fixed code above minimum",
			price:    30000,
			quantity: 2, code: "SAVE50",
			wantDiscount: 5000, wantTotal: 55000,
			wantCode: strptr("SAVE50"),
		},
		{
			name:     "capped percentage code",
			price:    200000,
			quantity: 1, code: "VIP20",
			wantDiscount: 20000, wantTotal: 180000,
			wantCode: strptr("VIP20"),
		},
		{
			name:     "unknown code is ignored",
			price:    1000,
			quantity: 1, code: "NOPE",
			wantDiscount: 0, wantTotal: 1000,
		},
		{
			name:     "expired code is ignored",
			price:    1000,
			quantity: 1, code: "EXPIRED",
			wantDiscount: 0, wantTotal: 1000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := listedProduct(tt.price, 10)
			f := newFixture(t, 1.0, p)

			view, err := f.commands.CreateOrder(context.Background(), uuid.New(), CreateOrderInput{
				Items:        []CreateOrderItem{{ProductID: p.ID, Quantity: tt.quantity}},
				DiscountCode: &tt.code,
			})
			require.NoError(t, err)

			assert.Equal(t, tt.wantDiscount, view.DiscountAmount)
			assert.Equal(t, tt.wantTotal, view.Total)
			if tt.wantCode == nil {
				assert.Nil(t, view.DiscountCode)
			} else {
				require.NotNil(t, view.DiscountCode)
				assert.Equal(t, *tt.wantCode, *view.DiscountCode)
			}
		})
	}
}

func TestCreateOrder_ValidationFailures(t *testing.T) {
	t.Run("empty order", func(t *testing.T) {
		f := newFixture(t, 1.0)

		_, err := f.commands.CreateOrder(context.Background(), uuid.New(), CreateOrderInput{})
		assert.ErrorIs(t, err, ErrEmptyOrder)
	})

	t.Run("unknown product", func(t *testing.T) {
		f := newFixture(t, 1.0)

		_, err := f.commands.CreateOrder(context.Background(), uuid.New(), CreateOrderInput{
			Items: []CreateOrderItem{{ProductID: uuid.New(), Quantity: 1}},
		})
		assert.ErrorIs(t, err, ErrProductNotFound)
	})

	t.Run("unlisted product", func(t *testing.T) {
		p := listedProduct(1000, 5)
		p.Status = inventory.StatusDraft
		f := newFixture(t, 1.0, p)

		_, err := f.commands.CreateOrder(context.Background(), uuid.New(), CreateOrderInput{
			Items: []CreateOrderItem{{ProductID: p.ID, Quantity: 1}},
		})
		assert.ErrorIs(t, err, ErrProductUnavailable)
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		p := listedProduct(1000, 5)
		f := newFixture(t, 1.0, p)

		_, err := f.commands.CreateOrder(context.Background(), uuid.New(), CreateOrderInput{
			Items: []CreateOrderItem{{ProductID: p.ID, Quantity: 0}},
		})
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("mixed currencies", func(t *testing.T) {
		zar := listedProduct(1000, 5)
		usd := listedProduct(2000, 5)
		usd.Currency = "USD"
		f := newFixture(t, 1.0, zar, usd)

		_, err := f.commands.CreateOrder(context.Background(), uuid.New(), CreateOrderInput{
			Items: []CreateOrderItem{
				{ProductID: zar.ID, Quantity: 1},
				{ProductID: usd.ID, Quantity: 1},
			},
		})
		assert.ErrorIs(t, err, ErrMixedCurrency)
	})

	t.Run("insufficient stock", func(t *testing.T) {
		p := listedProduct(1000, 1)
		f := newFixture(t, 1.0, p)

		_, err := f.commands.CreateOrder(context.Background(), uuid.New(), CreateOrderInput{
			Items: []CreateOrderItem{{ProductID: p.ID, Quantity: 2}},
		})
		assert.ErrorIs(t, err, ErrInsufficientStock)
		assert.Empty(t, f.store.orders)
	})
}

func TestCreateOrder_PaymentDeclineRollsBack(t *testing.T) {
	p := listedProduct(15000, 5)
	f := newFixture(t, 0.0, p)

	_, err := f.commands.CreateOrder(context.Background(), uuid.New(), CreateOrderInput{
		Items: []CreateOrderItem{{ProductID: p.ID, Quantity: 2}},
	})
	require.ErrorIs(t, err, ErrPaymentDeclined)

	assert.Empty(t, f.store.orders)
	assert.Empty(t, f.store.jobs)
	assert.Empty(t, f.publisher.events)
	assert.Equal(t, int32(5), f.store.products[p.ID].Quantity)
}

func TestCreateOrder_DecrementConflictVoidsAuthorization(t *testing.T) {
	p := listedProduct(15000, 5)
	store := newMemStore(p)
	store.failDecrement = true
	gateway := &stubGateway{}
	clk := clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	cmds := NewOrderCommands(
		&memUoW{store: store},
		gateway,
		discount.DefaultCatalog(),
		&memQueries{store: store},
		&capturingPublisher{},
		clk,
		config.OrderConfig{TxTimeout: 30 * time.Second},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	_, err := cmds.CreateOrder(context.Background(), uuid.New(), CreateOrderInput{
		Items: []CreateOrderItem{{ProductID: p.ID, Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	assert.Empty(t, store.orders)
	assert.Equal(t, []string{"AUTH-stub"}, gateway.voided)
}

func TestCreateOrder_RegeneratesNumberOnCollision(t *testing.T) {
	t.Run("recovers within the attempt limit", func(t *testing.T) {
		p := listedProduct(15000, 5)
		f := newFixture(t, 1.0, p)
		f.store.duplicateInserts = 2

		view, err := f.commands.CreateOrder(context.Background(), uuid.New(), CreateOrderInput{
			Items: []CreateOrderItem{{ProductID: p.ID, Quantity: 1}},
		})
		require.NoError(t, err)

		assert.Equal(t, order.StatusFulfilled.String(), view.Status)
		assert.True(t, order.ValidNumber(view.OrderNumber))
		assert.Len(t, f.store.orders, 1)
	})

	t.Run("exhausted attempts roll back", func(t *testing.T) {
		p := listedProduct(15000, 5)
		f := newFixture(t, 1.0, p)
		f.store.duplicateInserts = orderNumberAttempts

		_, err := f.commands.CreateOrder(context.Background(), uuid.New(), CreateOrderInput{
			Items: []CreateOrderItem{{ProductID: p.ID, Quantity: 1}},
		})
		require.ErrorIs(t, err, ErrDatabaseOperationFailed)

		assert.Empty(t, f.store.orders)
		assert.Equal(t, int32(5), f.store.products[p.ID].Quantity)
	})
}

func TestCreateOrder_NeverOversells(t *testing.T) {
	p := listedProduct(15000, 1)
	f := newFixture(t, 1.0, p)

	const attempts = 4
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.commands.CreateOrder(context.Background(), uuid.New(), CreateOrderInput{
				Items: []CreateOrderItem{{ProductID: p.ID, Quantity: 1}},
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrInsufficientStock)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, int32(0), f.store.products[p.ID].Quantity)
	assert.Len(t, f.store.orders, 1)
}

func strptr(s string) *string { return &s }
