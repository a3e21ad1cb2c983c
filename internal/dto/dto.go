package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/hortifruti-api/internal/model"
)

// --- Users ---

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Phone    *string `json:"phone"`
	Password *string `json:"password" binding:"omitempty,min=6,max=72"`
}

type UserResponse struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Role      model.Role `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
}

type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// RegisterResponse is flat to match the registration contract: {id, name, email, token}.
type RegisterResponse struct {
	ID    uuid.UUID  `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
	Token string     `json:"token"`
}

// --- Categories ---

type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
	Image       string `json:"image" binding:"max=255"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	Image       *string `json:"image" binding:"omitempty,max=255"`
}

type CategoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
}

// --- Products ---

type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required,max=100"`
	Description string          `json:"description" binding:"max=500"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Unit        string          `json:"unit" binding:"required,max=20"`
	Image       string          `json:"image" binding:"max=255"`
	CategoryID  uuid.UUID       `json:"category_id" binding:"required"`
	Stock       int             `json:"stock" binding:"min=0"`
	Organic     bool            `json:"organic"`
	Featured    bool            `json:"featured"`
	Discount    int             `json:"discount" binding:"min=0,max=100"`
	Active      *bool           `json:"active"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string          `json:"description" binding:"omitempty,max=500"`
	Price       *decimal.Decimal `json:"price"`
	Unit        *string          `json:"unit" binding:"omitempty,min=1,max=20"`
	Image       *string          `json:"image" binding:"omitempty,max=255"`
	CategoryID  *uuid.UUID       `json:"category_id"`
	Stock       *int             `json:"stock" binding:"omitempty,min=0"`
	Organic     *bool            `json:"organic"`
	Featured    *bool            `json:"featured"`
	Discount    *int             `json:"discount" binding:"omitempty,min=0,max=100"`
	Active      *bool            `json:"active"`
}

type ListProductsRequest struct {
	CategoryID      string `form:"category_id"`
	Featured        *bool  `form:"featured"`
	Organic         *bool  `form:"organic"`
	Search          string `form:"search"`
	IncludeInactive bool   `form:"include_inactive"`
}

type ProductResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Unit        string          `json:"unit"`
	Image       string          `json:"image"`
	CategoryID  uuid.UUID       `json:"category_id"`
	Stock       int             `json:"stock"`
	Organic     bool            `json:"organic"`
	Featured    bool            `json:"featured"`
	Discount    int             `json:"discount"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type UploadResponse struct {
	URL     string `json:"url"`
	Message string `json:"message"`
}

// --- Orders ---

type OrderItemRequest struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
}

type AddressRequest struct {
	Street       string `json:"street" binding:"required"`
	Number       string `json:"number" binding:"required"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood" binding:"required"`
	City         string `json:"city" binding:"required"`
}

type PaymentRequest struct {
	Method string           `json:"method" binding:"required"`
	Change *decimal.Decimal `json:"change"`
}

type CreateOrderRequest struct {
	Items         []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	Address       AddressRequest     `json:"delivery_address" binding:"required"`
	Payment       PaymentRequest     `json:"payment" binding:"required"`
	CustomerPhone string             `json:"customer_phone" binding:"max=20"`
	Notes         string             `json:"notes" binding:"max=500"`
}

type QuoteRequest struct {
	Items []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type ListOrdersRequest struct {
	Status     string `form:"status"`
	CustomerID string `form:"customer_id"`
}

type OrderItemResponse struct {
	ID          uuid.UUID       `json:"id,omitempty"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    decimal.Decimal `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type OrderResponse struct {
	ID              uuid.UUID             `json:"id"`
	CustomerID      uuid.UUID             `json:"customer_id"`
	CustomerName    string                `json:"customer_name"`
	CustomerEmail   string                `json:"customer_email"`
	CustomerPhone   string                `json:"customer_phone"`
	DeliveryAddress model.DeliveryAddress `json:"delivery_address"`
	Payment         model.Payment         `json:"payment"`
	Notes           string                `json:"notes"`
	Subtotal        decimal.Decimal       `json:"subtotal"`
	DeliveryFee     decimal.Decimal       `json:"delivery_fee"`
	Total           decimal.Decimal       `json:"total"`
	Status          model.OrderStatus     `json:"status"`
	Items           []OrderItemResponse   `json:"items"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
}

type RecentOrderResponse struct {
	ID           uuid.UUID         `json:"id"`
	CustomerName string            `json:"customer_name"`
	Total        decimal.Decimal   `json:"total"`
	Status       model.OrderStatus `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
}

type QuoteResponse struct {
	Items       []OrderItemResponse `json:"items"`
	Subtotal    decimal.Decimal     `json:"subtotal"`
	DeliveryFee decimal.Decimal     `json:"delivery_fee"`
	Total       decimal.Decimal     `json:"total"`
}

// --- Store ---

type SettingsResponse struct {
	StoreName      string          `json:"store_name"`
	StoreEmail     string          `json:"store_email"`
	StorePhone     string          `json:"store_phone"`
	StoreAddress   string          `json:"store_address"`
	OpenTime       string          `json:"store_open_time"`
	CloseTime      string          `json:"store_close_time"`
	DeliveryFee    decimal.Decimal `json:"delivery_fee"`
	MinOrder       decimal.Decimal `json:"min_order"`
	PaymentMethods []string        `json:"payment_methods"`
	PixKey         string          `json:"pix_key"`
}
