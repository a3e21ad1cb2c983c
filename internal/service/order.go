package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/flicky/hortifruti-api/internal/dto"
	"github.com/flicky/hortifruti-api/internal/model"
	"github.com/flicky/hortifruti-api/internal/repository"
)

const (
	recentOrdersLimit = 5
	// quantityPlaces matches the scale of order_items.quantity.
	quantityPlaces = 3
)

// EventPublisher hands order events to the async pipeline.
type EventPublisher interface {
	Publish(ctx context.Context, event model.OrderEvent) error
}

type OrderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	cache       ProductCache
	publisher   EventPublisher
	store       StoreSettings
	log         *slog.Logger
	now         func() time.Time
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	productCache ProductCache,
	publisher EventPublisher,
	store StoreSettings,
	log *slog.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		cache:       orNoCache(productCache),
		publisher:   publisher,
		store:       store,
		log:         log,
		now:         time.Now,
	}
}

// Quote prices a basket the same way Create does, without touching stock.
func (s *OrderService) Quote(ctx context.Context, req dto.QuoteRequest) (*dto.QuoteResponse, error) {
	items, subtotal, err := s.priceItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	resp := &dto.QuoteResponse{
		Items:       make([]dto.OrderItemResponse, 0, len(items)),
		Subtotal:    subtotal,
		DeliveryFee: s.store.DeliveryFee,
		Total:       subtotal.Add(s.store.DeliveryFee),
	}
	for _, item := range items {
		resp.Items = append(resp.Items, toOrderItemResponse(item))
	}
	return resp, nil
}

func (s *OrderService) Create(ctx context.Context, userID uuid.UUID, req dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	payment, err := s.payment(req.Payment)
	if err != nil {
		return nil, err
	}

	items, subtotal, err := s.priceItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	if subtotal.LessThan(s.store.MinOrder) {
		return nil, validationError("order subtotal %s is below the minimum of %s",
			subtotal.StringFixed(2), s.store.MinOrder.StringFixed(2))
	}
	total := subtotal.Add(s.store.DeliveryFee)
	if payment.Change != nil && payment.Change.LessThan(total) {
		return nil, validationError("change must cover the order total of %s", total.StringFixed(2))
	}

	phone := strings.TrimSpace(req.CustomerPhone)
	if phone == "" {
		phone = user.Phone
	}

	order := &model.Order{
		UserID:        user.ID,
		CustomerName:  user.Name,
		CustomerEmail: user.Email,
		CustomerPhone: phone,
		Address: model.DeliveryAddress{
			Street:       strings.TrimSpace(req.Address.Street),
			Number:       strings.TrimSpace(req.Address.Number),
			Complement:   strings.TrimSpace(req.Address.Complement),
			Neighborhood: strings.TrimSpace(req.Address.Neighborhood),
			City:         strings.TrimSpace(req.Address.City),
		},
		Payment:     payment,
		Notes:       strings.TrimSpace(req.Notes),
		Subtotal:    subtotal,
		DeliveryFee: s.store.DeliveryFee,
		Total:       total,
		Status:      model.OrderStatusPending,
		Items:       items,
	}

	if err := s.orderRepo.CreateWithItems(ctx, order); err != nil {
		var stockErr *repository.StockError
		if errors.As(err, &stockErr) {
			s.log.Warn("order rejected: stock changed", "user_id", userID, "product_id", stockErr.ProductID)
			return nil, fmt.Errorf("%w: product %s", ErrInsufficientStock, stockErr.ProductID)
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	ordered := make([]uuid.UUID, 0, len(order.Items))
	for _, item := range order.Items {
		ordered = append(ordered, item.ProductID)
	}
	s.cache.Invalidate(ctx, ordered...)

	s.log.Info("order created", "order_id", order.ID, "user_id", userID, "total", order.Total.String())
	s.publish(ctx, model.OrderEventCreated, order)

	resp := toOrderResponse(order)
	return &resp, nil
}

func (s *OrderService) payment(req dto.PaymentRequest) (model.Payment, error) {
	method := model.PaymentMethod(strings.ToLower(strings.TrimSpace(req.Method)))
	if !s.store.Accepts(method) {
		return model.Payment{}, validationError("payment method %q is not accepted", req.Method)
	}
	payment := model.Payment{Method: method}
	if method == model.PaymentMoney && req.Change != nil && !req.Change.IsZero() {
		change := *req.Change
		payment.Change = &change
	}
	return payment, nil
}

// priceItems resolves every line against the catalog and snapshots name and
// price. The stock check here is advisory; the repository enforces it again
// inside the order transaction.
func (s *OrderService) priceItems(ctx context.Context, lines []dto.OrderItemRequest) ([]model.OrderItem, decimal.Decimal, error) {
	if len(lines) == 0 {
		return nil, decimal.Zero, validationError("order must contain at least one item")
	}

	items := make([]model.OrderItem, 0, len(lines))
	subtotal := decimal.Zero
	for _, line := range lines {
		if !line.Quantity.IsPositive() {
			return nil, decimal.Zero, validationError("quantity must be positive")
		}
		if !line.Quantity.Equal(line.Quantity.Truncate(quantityPlaces)) {
			return nil, decimal.Zero, validationError("quantity allows at most %d decimal places", quantityPlaces)
		}
		product, err := s.productRepo.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("get product: %w", err)
		}
		if product == nil || !product.Active {
			return nil, decimal.Zero, fmt.Errorf("%w: %s", ErrProductNotFound, line.ProductID)
		}
		if line.Quantity.GreaterThan(decimal.NewFromInt(int64(product.Stock))) {
			return nil, decimal.Zero, fmt.Errorf("%w: %s has %d %s left",
				ErrInsufficientStock, product.Name, product.Stock, product.Unit)
		}

		item := model.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Price:       product.Price,
			Quantity:    line.Quantity,
		}
		subtotal = subtotal.Add(item.Subtotal())
		items = append(items, item)
	}
	return items, subtotal.Round(2), nil
}

// List returns every order to admins and only the caller's own orders to
// customers, newest first.
func (s *OrderService) List(ctx context.Context, userID uuid.UUID, isAdmin bool, req dto.ListOrdersRequest) (*dto.OrderListResponse, error) {
	var filter model.OrderFilter
	if isAdmin {
		if req.CustomerID != "" {
			id, err := uuid.Parse(req.CustomerID)
			if err != nil {
				return nil, validationError("invalid customer_id")
			}
			filter.UserID = &id
		}
	} else {
		filter.UserID = &userID
	}
	if req.Status != "" {
		status, err := model.ParseOrderStatus(req.Status)
		if err != nil {
			return nil, ErrInvalidStatus
		}
		filter.Status = &status
	}

	orders, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	resp := &dto.OrderListResponse{Orders: make([]dto.OrderResponse, 0, len(orders)), Total: len(orders)}
	for i := range orders {
		resp.Orders = append(resp.Orders, toOrderResponse(&orders[i]))
	}
	return resp, nil
}

func (s *OrderService) GetByID(ctx context.Context, orderID, userID uuid.UUID, isAdmin bool) (*dto.OrderResponse, error) {
	order, err := s.get(ctx, orderID, userID, isAdmin)
	if err != nil {
		return nil, err
	}
	resp := toOrderResponse(order)
	return &resp, nil
}

func (s *OrderService) get(ctx context.Context, orderID, userID uuid.UUID, isAdmin bool) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !isAdmin && order.UserID != userID {
		return nil, ErrForbidden
	}
	return order, nil
}

func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, raw string) (*dto.OrderResponse, error) {
	next, err := model.ParseOrderStatus(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	eventType := model.OrderEventStatusChanged
	if next == model.OrderStatusCancelled {
		eventType = model.OrderEventCancelled
	}
	return s.transition(ctx, order, next, eventType)
}

// Cancel is open to the order's owner and to admins.
func (s *OrderService) Cancel(ctx context.Context, orderID, userID uuid.UUID, isAdmin bool) (*dto.OrderResponse, error) {
	order, err := s.get(ctx, orderID, userID, isAdmin)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, order, model.OrderStatusCancelled, model.OrderEventCancelled)
}

func (s *OrderService) transition(ctx context.Context, order *model.Order, next model.OrderStatus, eventType model.OrderEventType) (*dto.OrderResponse, error) {
	if !order.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, next)
	}
	if err := s.orderRepo.UpdateStatus(ctx, order.ID, order.Status, next); err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, ErrOrderNotFound
		case errors.Is(err, repository.ErrStatusChanged):
			return nil, fmt.Errorf("%w: %s changed concurrently", ErrInvalidTransition, order.ID)
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}

	s.log.Info("order status changed", "order_id", order.ID, "from", order.Status, "to", next)
	order.Status = next
	order.UpdatedAt = s.now()
	s.publish(ctx, eventType, order)

	resp := toOrderResponse(order)
	return &resp, nil
}

// CountToday counts orders created since local midnight.
func (s *OrderService) CountToday(ctx context.Context) (int, error) {
	from, to := s.today()
	return s.orderRepo.CountBetween(ctx, from, to)
}

func (s *OrderService) SalesToday(ctx context.Context) (decimal.Decimal, error) {
	from, to := s.today()
	return s.orderRepo.SumTotalBetween(ctx, from, to)
}

func (s *OrderService) Recent(ctx context.Context) ([]dto.RecentOrderResponse, error) {
	orders, err := s.orderRepo.List(ctx, model.OrderFilter{Limit: recentOrdersLimit})
	if err != nil {
		return nil, fmt.Errorf("list recent orders: %w", err)
	}
	out := make([]dto.RecentOrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, dto.RecentOrderResponse{
			ID: o.ID, CustomerName: o.CustomerName, Total: o.Total, Status: o.Status, CreatedAt: o.CreatedAt,
		})
	}
	return out, nil
}

func (s *OrderService) today() (time.Time, time.Time) {
	now := s.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 1)
}

func (s *OrderService) publish(ctx context.Context, eventType model.OrderEventType, order *model.Order) {
	if s.publisher == nil {
		return
	}
	event := model.OrderEvent{
		ID:         uuid.New(),
		Type:       eventType,
		OrderID:    order.ID,
		UserID:     order.UserID,
		Status:     order.Status,
		Total:      order.Total,
		OccurredAt: s.now().UTC(),
	}
	if eventType == model.OrderEventCreated {
		for _, item := range order.Items {
			event.Items = append(event.Items, model.OrderEventItem{ProductID: item.ProductID, Quantity: item.Quantity})
		}
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Error("publish order event", "order_id", order.ID, "event", eventType, "error", err)
	}
}

func toOrderItemResponse(item model.OrderItem) dto.OrderItemResponse {
	return dto.OrderItemResponse{
		ID:          item.ID,
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		Price:       item.Price,
		Quantity:    item.Quantity,
		Subtotal:    item.Subtotal().Round(2),
	}
}

func toOrderResponse(o *model.Order) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:              o.ID,
		CustomerID:      o.UserID,
		CustomerName:    o.CustomerName,
		CustomerEmail:   o.CustomerEmail,
		CustomerPhone:   o.CustomerPhone,
		DeliveryAddress: o.Address,
		Payment:         o.Payment,
		Notes:           o.Notes,
		Subtotal:        o.Subtotal,
		DeliveryFee:     o.DeliveryFee,
		Total:           o.Total,
		Status:          o.Status,
		Items:           make([]dto.OrderItemResponse, 0, len(o.Items)),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	for _, item := range o.Items {
		resp.Items = append(resp.Items, toOrderItemResponse(item))
	}
	return resp
}
