package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/hortifruti-api/internal/config"
	"github.com/flicky/hortifruti-api/internal/dto"
	"github.com/flicky/hortifruti-api/internal/model"
	"github.com/flicky/hortifruti-api/internal/repository"
)

// mockOrderRepo shares the product map so stock decrements are visible to
// the catalog, and applies them all-or-nothing like the real transaction.
type mockOrderRepo struct {
	orders   map[uuid.UUID]*model.Order
	products *mockProductRepo
}

func newMockOrderRepo(products *mockProductRepo) *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[uuid.UUID]*model.Order), products: products}
}

func (m *mockOrderRepo) CreateWithItems(_ context.Context, order *model.Order) error {
	for _, item := range order.Items {
		p, ok := m.products.products[item.ProductID]
		if !ok || p.Stock < item.StockUnits() {
			return &repository.StockError{ProductID: item.ProductID}
		}
	}
	for _, item := range order.Items {
		m.products.products[item.ProductID].Stock -= item.StockUnits()
	}

	order.ID = uuid.New()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	for i := range order.Items {
		order.Items[i].ID = uuid.New()
		order.Items[i].OrderID = order.ID
	}
	stored := *order
	stored.Items = append([]model.OrderItem(nil), order.Items...)
	m.orders[order.ID] = &stored
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	cp.Items = append([]model.OrderItem(nil), o.Items...)
	return &cp, nil
}

func (m *mockOrderRepo) List(_ context.Context, filter model.OrderFilter) ([]model.Order, error) {
	var out []model.Order
	for _, o := range m.orders {
		if filter.UserID != nil && o.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to model.OrderStatus) error {
	o, ok := m.orders[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if o.Status != from {
		return repository.ErrStatusChanged
	}
	o.Status = to
	return nil
}

func (m *mockOrderRepo) CountBetween(_ context.Context, from, to time.Time) (int, error) {
	n := 0
	for _, o := range m.orders {
		if !o.CreatedAt.Before(from) && o.CreatedAt.Before(to) {
			n++
		}
	}
	return n, nil
}

func (m *mockOrderRepo) SumTotalBetween(_ context.Context, from, to time.Time) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, o := range m.orders {
		if !o.CreatedAt.Before(from) && o.CreatedAt.Before(to) {
			sum = sum.Add(o.Total)
		}
	}
	return sum, nil
}

type recordingPublisher struct {
	events []model.OrderEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e model.OrderEvent) error {
	p.events = append(p.events, e)
	return p.err
}

type orderFixture struct {
	svc       *OrderService
	orders    *mockOrderRepo
	products  *mockProductRepo
	users     *mockUserRepo
	publisher *recordingPublisher
	cache     *memProductCache
	customer  *model.User
	other     *model.User
	tomate    *model.Product
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	products := newMockProductRepo()
	users := newMockUserRepo()
	orders := newMockOrderRepo(products)
	publisher := &recordingPublisher{}
	productCache := newMemProductCache()

	store := NewStoreSettings(config.StoreConfig{
		DeliveryFee:    5.99,
		MinOrder:       10,
		PaymentMethods: []string{"money", "credit", "debit", "pix"},
	})

	f := &orderFixture{
		svc:       NewOrderService(orders, products, users, productCache, publisher, store, discardLogger()),
		orders:    orders,
		products:  products,
		users:     users,
		publisher: publisher,
		cache:     productCache,
		customer:  users.add(&model.User{Name: "Cliente", Email: "cliente@teste.com", Phone: "11 90000-0000", Role: model.RoleCustomer}),
		other:     users.add(&model.User{Name: "Outro", Email: "outro@teste.com", Role: model.RoleCustomer}),
	}
	f.tomate = products.add(&model.Product{
		Name: "Tomate Italiano", Price: decimal.RequireFromString("6.99"), Unit: "kg", Stock: 5, Active: true,
	})
	return f
}

func (f *orderFixture) request(productID uuid.UUID, qty string) dto.CreateOrderRequest {
	return dto.CreateOrderRequest{
		Items: []dto.OrderItemRequest{{ProductID: productID, Quantity: decimal.RequireFromString(qty)}},
		Address: dto.AddressRequest{
			Street: "Rua A", Number: "10", Neighborhood: "Centro", City: "São Paulo",
		},
		Payment: dto.PaymentRequest{Method: "pix"},
	}
}

func (f *orderFixture) place(t *testing.T, userID uuid.UUID) *dto.OrderResponse {
	t.Helper()
	resp, err := f.svc.Create(context.Background(), userID, f.request(f.tomate.ID, "2"))
	require.NoError(t, err)
	return resp
}

func TestOrderService_Create(t *testing.T) {
	f := newOrderFixture(t)

	resp, err := f.svc.Create(context.Background(), f.customer.ID, f.request(f.tomate.ID, "2"))
	require.NoError(t, err)

	assert.Equal(t, 3, f.products.products[f.tomate.ID].Stock)
	assert.Equal(t, model.OrderStatusPending, resp.Status)
	assert.Equal(t, "13.98", resp.Subtotal.StringFixed(2))
	assert.Equal(t, "5.99", resp.DeliveryFee.StringFixed(2))
	assert.Equal(t, "19.97", resp.Total.StringFixed(2))
	assert.Equal(t, "Cliente", resp.CustomerName)
	assert.Equal(t, "11 90000-0000", resp.CustomerPhone)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Tomate Italiano", resp.Items[0].ProductName)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, model.OrderEventCreated, f.publisher.events[0].Type)
	assert.Equal(t, resp.ID, f.publisher.events[0].OrderID)
	assert.Len(t, f.publisher.events[0].Items, 1)
}

func TestOrderService_Create_InsufficientStock(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.Create(context.Background(), f.customer.ID, f.request(f.tomate.ID, "6"))
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 5, f.products.products[f.tomate.ID].Stock)
	assert.Empty(t, f.orders.orders)
	assert.Empty(t, f.publisher.events)
}

func TestOrderService_Create_StockRaceRollsBack(t *testing.T) {
	f := newOrderFixture(t)
	alface := f.products.add(&model.Product{Name: "Alface", Price: decimal.RequireFromString("2.99"), Unit: "unid", Stock: 3, Active: true})

	req := f.request(f.tomate.ID, "2")
	req.Items = append(req.Items, dto.OrderItemRequest{ProductID: alface.ID, Quantity: decimal.NewFromInt(2)})

	// Stock drops between pricing and the transaction.
	orders := &racingOrderRepo{mockOrderRepo: f.orders, before: func() { f.products.products[alface.ID].Stock = 1 }}
	f.svc.orderRepo = orders

	_, err := f.svc.Create(context.Background(), f.customer.ID, req)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 5, f.products.products[f.tomate.ID].Stock)
	assert.Empty(t, f.orders.orders)
}

// racingOrderRepo lets a test change stored state between the service's read
// and its write.
type racingOrderRepo struct {
	*mockOrderRepo
	before   func()
	afterGet func(stored *model.Order)
}

func (r *racingOrderRepo) CreateWithItems(ctx context.Context, order *model.Order) error {
	if r.before != nil {
		r.before()
	}
	return r.mockOrderRepo.CreateWithItems(ctx, order)
}

func (r *racingOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	o, err := r.mockOrderRepo.GetByID(ctx, id)
	if o != nil && r.afterGet != nil {
		r.afterGet(r.orders[id])
	}
	return o, err
}

func TestOrderService_Create_InvalidatesCachedProducts(t *testing.T) {
	f := newOrderFixture(t)
	catalog := NewProductService(f.products, newMockCategoryRepo(f.products), f.cache, 10)
	ctx := context.Background()

	before, err := catalog.GetByID(ctx, f.tomate.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, before.Stock)
	assert.Contains(t, f.cache.items, f.tomate.ID)

	f.place(t, f.customer.ID)
	assert.NotContains(t, f.cache.items, f.tomate.ID)

	after, err := catalog.GetByID(ctx, f.tomate.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, after.Stock)
}

func TestOrderService_Create_FailureKeepsCache(t *testing.T) {
	f := newOrderFixture(t)
	f.cache.Set(context.Background(), f.tomate)

	_, err := f.svc.Create(context.Background(), f.customer.ID, f.request(f.tomate.ID, "6"))
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Contains(t, f.cache.items, f.tomate.ID)
}

func TestOrderService_Create_ThreeDecimalQuantity(t *testing.T) {
	f := newOrderFixture(t)

	resp, err := f.svc.Create(context.Background(), f.customer.ID, f.request(f.tomate.ID, "1.625"))
	require.NoError(t, err)
	assert.Equal(t, "11.36", resp.Subtotal.StringFixed(2))
	assert.Equal(t, 3, f.products.products[f.tomate.ID].Stock)
}

func TestOrderService_Create_FractionalQuantity(t *testing.T) {
	f := newOrderFixture(t)

	resp, err := f.svc.Create(context.Background(), f.customer.ID, f.request(f.tomate.ID, "2.5"))
	require.NoError(t, err)
	assert.Equal(t, "17.48", resp.Subtotal.StringFixed(2))
	assert.Equal(t, 2, f.products.products[f.tomate.ID].Stock)
}

func TestOrderService_Create_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *orderFixture, req *dto.CreateOrderRequest)
		want   error
	}{
		{"unknown product", func(_ *orderFixture, req *dto.CreateOrderRequest) {
			req.Items[0].ProductID = uuid.New()
		}, ErrProductNotFound},
		{"inactive product", func(f *orderFixture, _ *dto.CreateOrderRequest) {
			f.products.products[f.tomate.ID].Active = false
		}, ErrNotFound},
		{"zero quantity", func(_ *orderFixture, req *dto.CreateOrderRequest) {
			req.Items[0].Quantity = decimal.Zero
		}, ErrValidation},
		{"quantity rounds to zero", func(_ *orderFixture, req *dto.CreateOrderRequest) {
			req.Items[0].Quantity = decimal.RequireFromString("0.0004")
		}, ErrValidation},
		{"quantity finer than grams", func(_ *orderFixture, req *dto.CreateOrderRequest) {
			req.Items[0].Quantity = decimal.RequireFromString("2.2345")
		}, ErrValidation},
		{"below minimum", func(_ *orderFixture, req *dto.CreateOrderRequest) {
			req.Items[0].Quantity = decimal.NewFromInt(1)
		}, ErrValidation},
		{"unknown payment method", func(_ *orderFixture, req *dto.CreateOrderRequest) {
			req.Payment.Method = "cheque"
		}, ErrValidation},
		{"change below total", func(_ *orderFixture, req *dto.CreateOrderRequest) {
			change := decimal.NewFromInt(10)
			req.Payment = dto.PaymentRequest{Method: "money", Change: &change}
		}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(t)
			req := f.request(f.tomate.ID, "2")
			tt.mutate(f, &req)

			_, err := f.svc.Create(context.Background(), f.customer.ID, req)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 5, f.products.products[f.tomate.ID].Stock)
		})
	}
}

func TestOrderService_Quote(t *testing.T) {
	f := newOrderFixture(t)

	resp, err := f.svc.Quote(context.Background(), dto.QuoteRequest{
		Items: []dto.OrderItemRequest{{ProductID: f.tomate.ID, Quantity: decimal.NewFromInt(3)}},
	})
	require.NoError(t, err)
	assert.Equal(t, "20.97", resp.Subtotal.StringFixed(2))
	assert.Equal(t, "26.96", resp.Total.StringFixed(2))
	assert.Equal(t, 5, f.products.products[f.tomate.ID].Stock)
	assert.Empty(t, f.orders.orders)
}

func TestOrderService_GetByID_Ownership(t *testing.T) {
	f := newOrderFixture(t)
	placed := f.place(t, f.customer.ID)

	got, err := f.svc.GetByID(context.Background(), placed.ID, f.customer.ID, false)
	require.NoError(t, err)
	assert.Equal(t, placed.ID, got.ID)

	_, err = f.svc.GetByID(context.Background(), placed.ID, f.other.ID, false)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.GetByID(context.Background(), placed.ID, f.other.ID, true)
	assert.NoError(t, err)

	_, err = f.svc.GetByID(context.Background(), uuid.New(), f.customer.ID, true)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderService_SnapshotSurvivesPriceChange(t *testing.T) {
	f := newOrderFixture(t)
	placed := f.place(t, f.customer.ID)

	first, err := f.svc.GetByID(context.Background(), placed.ID, f.customer.ID, false)
	require.NoError(t, err)

	f.products.products[f.tomate.ID].Price = decimal.RequireFromString("9.99")
	f.products.products[f.tomate.ID].Name = "Tomate"

	second, err := f.svc.GetByID(context.Background(), placed.ID, f.customer.ID, false)
	require.NoError(t, err)
	assert.Equal(t, first.Items, second.Items)
	assert.Equal(t, "6.99", second.Items[0].Price.StringFixed(2))
	assert.Equal(t, "Tomate Italiano", second.Items[0].ProductName)
}

func TestOrderService_Cancel(t *testing.T) {
	f := newOrderFixture(t)
	placed := f.place(t, f.customer.ID)

	_, err := f.svc.Cancel(context.Background(), placed.ID, f.other.ID, false)
	assert.ErrorIs(t, err, ErrForbidden)

	resp, err := f.svc.Cancel(context.Background(), placed.ID, f.customer.ID, false)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, resp.Status)
	assert.Equal(t, model.OrderStatusCancelled, f.orders.orders[placed.ID].Status)
	assert.Equal(t, model.OrderEventCancelled, f.publisher.events[len(f.publisher.events)-1].Type)

	// cancellation does not restock
	assert.Equal(t, 3, f.products.products[f.tomate.ID].Stock)

	_, err = f.svc.Cancel(context.Background(), placed.ID, f.customer.ID, false)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestOrderService_Cancel_Delivered(t *testing.T) {
	f := newOrderFixture(t)
	placed := f.place(t, f.customer.ID)
	f.orders.orders[placed.ID].Status = model.OrderStatusDelivered

	_, err := f.svc.Cancel(context.Background(), placed.ID, f.customer.ID, false)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, model.OrderStatusDelivered, f.orders.orders[placed.ID].Status)
}

func TestOrderService_UpdateStatus(t *testing.T) {
	f := newOrderFixture(t)
	placed := f.place(t, f.customer.ID)
	ctx := context.Background()

	_, err := f.svc.UpdateStatus(ctx, placed.ID, "delivered")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.svc.UpdateStatus(ctx, placed.ID, "lost")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	for _, next := range []string{"processing", "shipped", "delivered"} {
		_, err := f.svc.UpdateStatus(ctx, placed.ID, next)
		require.NoError(t, err, next)
	}
	assert.Equal(t, model.OrderStatusDelivered, f.orders.orders[placed.ID].Status)

	last := f.publisher.events[len(f.publisher.events)-1]
	assert.Equal(t, model.OrderEventStatusChanged, last.Type)
	assert.Equal(t, model.OrderStatusDelivered, last.Status)

	_, err = f.svc.UpdateStatus(ctx, uuid.New(), "processing")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderService_UpdateStatus_ConcurrentCancel(t *testing.T) {
	f := newOrderFixture(t)
	placed := f.place(t, f.customer.ID)

	// The customer cancels after the admin's read.
	f.svc.orderRepo = &racingOrderRepo{mockOrderRepo: f.orders, afterGet: func(stored *model.Order) {
		stored.Status = model.OrderStatusCancelled
	}}

	_, err := f.svc.UpdateStatus(context.Background(), placed.ID, "processing")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, model.OrderStatusCancelled, f.orders.orders[placed.ID].Status)
	assert.Len(t, f.publisher.events, 1)
}

func TestOrderService_Cancel_ConcurrentShipping(t *testing.T) {
	f := newOrderFixture(t)
	placed := f.place(t, f.customer.ID)
	f.orders.orders[placed.ID].Status = model.OrderStatusProcessing

	f.svc.orderRepo = &racingOrderRepo{mockOrderRepo: f.orders, afterGet: func(stored *model.Order) {
		stored.Status = model.OrderStatusShipping
	}}

	_, err := f.svc.Cancel(context.Background(), placed.ID, f.customer.ID, false)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, model.OrderStatusShipping, f.orders.orders[placed.ID].Status)
}

func TestOrderService_List_ScopedByRole(t *testing.T) {
	f := newOrderFixture(t)
	f.products.products[f.tomate.ID].Stock = 100
	f.place(t, f.customer.ID)
	f.place(t, f.customer.ID)
	f.place(t, f.other.ID)
	ctx := context.Background()

	mine, err := f.svc.List(ctx, f.customer.ID, false, dto.ListOrdersRequest{CustomerID: f.other.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, 2, mine.Total)
	for _, o := range mine.Orders {
		assert.Equal(t, f.customer.ID, o.CustomerID)
	}

	all, err := f.svc.List(ctx, f.customer.ID, true, dto.ListOrdersRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, all.Total)

	theirs, err := f.svc.List(ctx, uuid.Nil, true, dto.ListOrdersRequest{CustomerID: f.other.ID.String(), Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, 1, theirs.Total)

	_, err = f.svc.List(ctx, uuid.Nil, true, dto.ListOrdersRequest{Status: "lost"})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestOrderService_TodayAggregates(t *testing.T) {
	f := newOrderFixture(t)
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.Local)
	f.svc.now = func() time.Time { return now }

	f.orders.orders[uuid.New()] = &model.Order{Total: decimal.RequireFromString("25.50"), CreatedAt: now.Add(-time.Hour)}
	f.orders.orders[uuid.New()] = &model.Order{Total: decimal.RequireFromString("30.00"), CreatedAt: now.Add(-14 * time.Hour)}
	f.orders.orders[uuid.New()] = &model.Order{Total: decimal.RequireFromString("99.00"), CreatedAt: now.Add(-16 * time.Hour)}

	n, err := f.svc.CountToday(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	sales, err := f.svc.SalesToday(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "55.50", sales.StringFixed(2))
}

func TestOrderService_Recent(t *testing.T) {
	f := newOrderFixture(t)
	base := time.Now()
	for i := 0; i < 7; i++ {
		id := uuid.New()
		f.orders.orders[id] = &model.Order{ID: id, CustomerName: "c", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
	}

	recent, err := f.svc.Recent(context.Background())
	require.NoError(t, err)
	require.Len(t, recent, 5)
	assert.True(t, recent[0].CreatedAt.After(recent[4].CreatedAt))
}

func TestOrderService_PublishFailureDoesNotFailOrder(t *testing.T) {
	f := newOrderFixture(t)
	f.publisher.err = errors.New("broker down")

	_, err := f.svc.Create(context.Background(), f.customer.ID, f.request(f.tomate.ID, "2"))
	require.NoError(t, err)
	assert.Len(t, f.orders.orders, 1)
}
