package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/flicky/hortifruti-api/internal/model"
	"github.com/flicky/hortifruti-api/internal/repository"
)

type memUsers struct{ byID map[uuid.UUID]*model.User }

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	m.byID[u.ID] = u
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	return m.byID[id], nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memUsers) Update(_ context.Context, u *model.User) error {
	if _, ok := m.byID[u.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.byID[u.ID] = u
	return nil
}

func (m *memUsers) Count(_ context.Context) (int, error) { return len(m.byID), nil }

type memCategories struct {
	byID     map[uuid.UUID]*model.Category
	products *memProducts
}

func (m *memCategories) Create(_ context.Context, c *model.Category) error {
	c.ID = uuid.New()
	m.byID[c.ID] = c
	return nil
}

func (m *memCategories) GetByID(_ context.Context, id uuid.UUID) (*model.Category, error) {
	return m.byID[id], nil
}

func (m *memCategories) List(_ context.Context) ([]model.Category, error) {
	var out []model.Category
	for _, c := range m.byID {
		out = append(out, *c)
	}
	return out, nil
}

func (m *memCategories) Update(_ context.Context, c *model.Category) error {
	m.byID[c.ID] = c
	return nil
}

func (m *memCategories) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.byID, id)
	return nil
}

func (m *memCategories) CountProducts(_ context.Context, id uuid.UUID) (int, error) {
	n := 0
	for _, p := range m.products.byID {
		if p.CategoryID == id {
			n++
		}
	}
	return n, nil
}

type memProducts struct{ byID map[uuid.UUID]*model.Product }

func (m *memProducts) Create(_ context.Context, p *model.Product) error {
	p.ID = uuid.New()
	m.byID[p.ID] = p
	return nil
}

func (m *memProducts) GetByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memProducts) List(_ context.Context, filter model.ProductFilter) ([]model.Product, error) {
	var out []model.Product
	for _, p := range m.byID {
		if p.Active || filter.IncludeInactive {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memProducts) Update(_ context.Context, p *model.Product) error {
	stored, ok := m.byID[p.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	cp := *p
	cp.Stock = stored.Stock
	m.byID[p.ID] = &cp
	p.Stock = stored.Stock
	return nil
}

func (m *memProducts) SetStock(_ context.Context, p *model.Product) error {
	stored, ok := m.byID[p.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Stock = p.Stock
	return nil
}

func (m *memProducts) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.byID, id)
	return nil
}

func (m *memProducts) Count(_ context.Context) (int, error) { return len(m.byID), nil }

func (m *memProducts) ListLowStock(_ context.Context, threshold int) ([]model.Product, error) {
	var out []model.Product
	for _, p := range m.byID {
		if p.Stock <= threshold {
			out = append(out, *p)
		}
	}
	return out, nil
}

type memOrders struct {
	byID     map[uuid.UUID]*model.Order
	products *memProducts
}

func (m *memOrders) CreateWithItems(_ context.Context, o *model.Order) error {
	for _, item := range o.Items {
		if m.products.byID[item.ProductID].Stock < item.StockUnits() {
			return &repository.StockError{ProductID: item.ProductID}
		}
	}
	for _, item := range o.Items {
		m.products.byID[item.ProductID].Stock -= item.StockUnits()
	}
	o.ID = uuid.New()
	o.CreatedAt = time.Now()
	cp := *o
	m.byID[o.ID] = &cp
	return nil
}

func (m *memOrders) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) List(_ context.Context, filter model.OrderFilter) ([]model.Order, error) {
	var out []model.Order
	for _, o := range m.byID {
		if filter.UserID == nil || o.UserID == *filter.UserID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memOrders) UpdateStatus(_ context.Context, id uuid.UUID, from, to model.OrderStatus) error {
	o, ok := m.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if o.Status != from {
		return repository.ErrStatusChanged
	}
	o.Status = to
	return nil
}

func (m *memOrders) CountBetween(_ context.Context, _, _ time.Time) (int, error) {
	return len(m.byID), nil
}

func (m *memOrders) SumTotalBetween(_ context.Context, _, _ time.Time) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, o := range m.byID {
		sum = sum.Add(o.Total)
	}
	return sum, nil
}

type memNotifications struct{ items []model.Notification }

func (m *memNotifications) Push(_ context.Context, n model.Notification) error {
	m.items = append([]model.Notification{n}, m.items...)
	return nil
}

func (m *memNotifications) List(_ context.Context, limit int) ([]model.Notification, error) {
	if limit > len(m.items) {
		limit = len(m.items)
	}
	return m.items[:limit], nil
}
