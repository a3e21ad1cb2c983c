package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

type User struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Password  string
	Phone     string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

type Category struct {
	ID          uuid.UUID
	Name        string
	Description string
	Image       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Product struct {
	ID          uuid.UUID
	Name        string
	Description string
	Price       decimal.Decimal
	Unit        string
	Image       string
	CategoryID  uuid.UUID
	Stock       int
	Organic     bool
	Featured    bool
	Discount    int
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProductFilter narrows product listings. Nil pointers mean "no constraint".
type ProductFilter struct {
	CategoryID      *uuid.UUID
	Featured        *bool
	Organic         *bool
	Search          string
	IncludeInactive bool
}

type DeliveryAddress struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
}

type PaymentMethod string

const (
	PaymentMoney  PaymentMethod = "money"
	PaymentCredit PaymentMethod = "credit"
	PaymentDebit  PaymentMethod = "debit"
	PaymentPix    PaymentMethod = "pix"
)

// Payment is persisted as JSONB next to the order. Change is the amount the
// customer will hand over when paying with money.
type Payment struct {
	Method PaymentMethod    `json:"method"`
	Change *decimal.Decimal `json:"change,omitempty"`
}

type Order struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Address       DeliveryAddress
	Payment       Payment
	Notes         string
	Subtotal      decimal.Decimal
	DeliveryFee   decimal.Decimal
	Total         decimal.Decimal
	Status        OrderStatus
	Items         []OrderItem
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OrderItem keeps the product name and price as they were when the order was
// placed; later catalog edits never touch it.
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Price       decimal.Decimal
	Quantity    decimal.Decimal
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(i.Quantity)
}

// StockUnits is how many whole stock units the line consumes.
func (i OrderItem) StockUnits() int {
	return int(i.Quantity.Ceil().IntPart())
}

type OrderFilter struct {
	UserID *uuid.UUID
	Status *OrderStatus
	Limit  int
}

type OrderEventType string

const (
	OrderEventCreated       OrderEventType = "order.created"
	OrderEventStatusChanged OrderEventType = "order.status_changed"
	OrderEventCancelled     OrderEventType = "order.cancelled"
)

type OrderEventItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// OrderEvent is the message body published to the order events queue.
type OrderEvent struct {
	ID         uuid.UUID        `json:"id"`
	Type       OrderEventType   `json:"type"`
	OrderID    uuid.UUID        `json:"order_id"`
	UserID     uuid.UUID        `json:"user_id"`
	Status     OrderStatus      `json:"status"`
	Total      decimal.Decimal  `json:"total"`
	Items      []OrderEventItem `json:"items,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

type NotificationKind string

const (
	NotificationNewOrder       NotificationKind = "new_order"
	NotificationLowStock       NotificationKind = "low_stock"
	NotificationOrderCancelled NotificationKind = "order_cancelled"
	NotificationOrderStatus    NotificationKind = "order_status"
)

type Notification struct {
	Kind      NotificationKind `json:"kind"`
	Message   string           `json:"message"`
	OrderID   *uuid.UUID       `json:"order_id,omitempty"`
	ProductID *uuid.UUID       `json:"product_id,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
